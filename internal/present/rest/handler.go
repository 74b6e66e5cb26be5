package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	registry "github.com/mirreg/registry"
	"github.com/mirreg/registry/internal/config"
	"github.com/mirreg/registry/internal/domain"
	"github.com/mirreg/registry/internal/present/rest/presenter"
	"github.com/mirreg/registry/internal/service"
	"github.com/mirreg/registry/internal/usecase"
)

type Handler struct {
	config     config.Config
	submit     *usecase.SubmitUsecase
	edit       *usecase.EditUsecase
	publish    *usecase.PublishUsecase
	restrict   *usecase.RestrictionUsecase
	collection *usecase.CollectionUsecase
	signal     *service.SignalHub
}

func NewHandler(
	config config.Config,
	submit *usecase.SubmitUsecase,
	edit *usecase.EditUsecase,
	publish *usecase.PublishUsecase,
	restrict *usecase.RestrictionUsecase,
	collection *usecase.CollectionUsecase,
	signal *service.SignalHub,
) *Handler {
	return &Handler{
		config:     config,
		submit:     submit,
		edit:       edit,
		publish:    publish,
		restrict:   restrict,
		collection: collection,
		signal:     signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/collections", h.handleSubmit)
	e.GET("/collections/:id", h.handleGet)
	e.PUT("/collections/:id", h.handleEdit)
	e.GET("/collections/:id/history", h.handleHistory)
	e.POST("/collections/:id/deprecate", h.handleDeprecate)
	e.POST("/collections/:id/restrictions", h.handleAddRestriction(usecase.PartitionPublic))
	e.POST("/collections/:id/resources/:resourceID/ownership", h.handleRequestOwnership)
	e.PUT("/ownership", h.handleDecideOwnership)
	e.GET("/resolve/:namespace", h.handleResolve)
	e.GET("/curation", h.handleCurationList)
	e.POST("/curation/:id/publish", h.handlePublish)
	e.POST("/curation/:id/state", h.handleCurationState)
	e.POST("/curation/:id/restrictions", h.handleAddRestriction(usecase.PartitionCuration))
	e.GET("/restrictions/categories", h.handleCategories)
	e.GET("/realtime", h.handleRealtime)
}

type submitRequest struct {
	registry.DataCollection
	Comment    string `json:"comment"`
	UserInfo   string `json:"userInfo"`
	PublishNow bool   `json:"publishNow"`
	// Website is a honeypot field. The submission form renders it
	// invisibly; humans never fill it.
	Website string `json:"website"`
}

func (h *Handler) handleSubmit(c echo.Context) error {
	ctx := c.Request().Context()

	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	out, err := h.submit.Submit(ctx, usecase.SubmissionInput{
		Collection: req.DataCollection,
		Actor:      domain.ActorFromContext(ctx),
		UserInfo:   req.UserInfo,
		Comment:    req.Comment,
		PublishNow: req.PublishNow,
		Honeypot:   req.Website,
	})
	if err != nil {
		return presenter.InternalError(c, err)
	}

	switch out.Kind {
	case usecase.SubmissionSpam:
		// Indistinguishable from success on purpose.
		return presenter.OK(c, echo.Map{"status": "ok"})
	case usecase.SubmissionInvalid:
		return presenter.BadRequestMessage(c, out.Problem)
	case usecase.SubmissionDuplicate:
		return presenter.Conflict(c, out.Problem)
	case usecase.SubmissionPending, usecase.SubmissionPublished:
		return presenter.Created(c, echo.Map{"outcome": out.Kind.String(), "id": out.ID})
	default:
		return presenter.OK(c, echo.Map{"outcome": out.Kind.String(), "id": out.ID, "problem": out.Problem})
	}
}

type editRequest struct {
	registry.DataCollection
	UserInfo string `json:"userInfo"`
	Website  string `json:"website"`
}

func (h *Handler) handleEdit(c echo.Context) error {
	ctx := c.Request().Context()

	var req editRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	req.DataCollection.ID = c.Param("id")

	out, err := h.edit.Apply(ctx, usecase.EditInput{
		Collection: req.DataCollection,
		Actor:      domain.ActorFromContext(ctx),
		UserInfo:   req.UserInfo,
		Honeypot:   req.Website,
	})
	if err != nil {
		return presenter.InternalError(c, err)
	}

	switch out.Kind {
	case usecase.EditNotFound:
		return presenter.NotFound(c, "data collection "+out.ID+" not found")
	case usecase.EditRejected:
		return presenter.BadRequestMessage(c, out.Problem)
	case usecase.EditSpam:
		return presenter.OK(c, echo.Map{"status": "ok"})
	case usecase.EditConflict:
		return presenter.Conflict(c, out.Problem)
	default:
		return presenter.OK(c, echo.Map{"outcome": out.Kind.String(), "id": out.ID, "diff": out.Diff})
	}
}

func (h *Handler) handleRequestOwnership(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.edit.RequestOwnership(ctx, domain.ActorFromContext(ctx), c.Param("id"), c.Param("resourceID"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotAuthorized):
			return presenter.Forbidden(c, "sign in to request ownership")
		case errors.Is(err, domain.ErrNotFound):
			return presenter.NotFound(c, "resource not found")
		default:
			return presenter.InternalError(c, err)
		}
	}
	return presenter.OK(c, echo.Map{"status": "pending"})
}

type ownershipRequest struct {
	Login      string `json:"login"`
	ResourceID string `json:"resourceId"`
	Status     int    `json:"status"`
}

func (h *Handler) handleDecideOwnership(c echo.Context) error {
	ctx := c.Request().Context()

	var req ownershipRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	err := h.edit.DecideOwnership(ctx, domain.ActorFromContext(ctx), req.Login, req.ResourceID, registry.OwnershipStatus(req.Status))
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthorized) {
			return presenter.Forbidden(c, "curator role required")
		}
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleGet(c echo.Context) error {
	ctx := c.Request().Context()

	collection, err := h.collection.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "data collection not found")
		}
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, collection)
}

func (h *Handler) handleResolve(c echo.Context) error {
	ctx := c.Request().Context()

	collection, err := h.collection.Resolve(ctx, c.Param("namespace"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "namespace not found")
		}
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, collection)
}

func (h *Handler) handleHistory(c echo.Context) error {
	ctx := c.Request().Context()

	entries, err := h.collection.History(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "data collection not found")
		}
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, entries)
}

type deprecateRequest struct {
	Comment    string `json:"comment"`
	ReplacedBy string `json:"replacedBy"`
}

func (h *Handler) handleDeprecate(c echo.Context) error {
	ctx := c.Request().Context()

	var req deprecateRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	err := h.collection.Deprecate(ctx, c.Param("id"), req.Comment, req.ReplacedBy, domain.ActorFromContext(ctx))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotAuthorized):
			return presenter.Forbidden(c, "curator role required")
		case errors.Is(err, domain.ErrNotFound):
			return presenter.NotFound(c, "data collection not found")
		default:
			return presenter.InternalError(c, err)
		}
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleCurationList(c echo.Context) error {
	ctx := c.Request().Context()

	if !domain.ActorFromContext(ctx).IsCurator() {
		return presenter.Forbidden(c, "curator role required")
	}

	entries, err := h.collection.Pipeline(ctx, domain.CurationState(c.QueryParam("state")))
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, entries)
}

func (h *Handler) handlePublish(c echo.Context) error {
	ctx := c.Request().Context()

	publicID, err := h.publish.Publish(ctx, c.Param("id"), domain.ActorFromContext(ctx))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotAuthorized):
			return presenter.Forbidden(c, "curator role required")
		case errors.Is(err, domain.ErrNotFound):
			return presenter.NotFound(c, "pipeline record not found")
		case errors.Is(err, domain.ErrInvalid):
			return presenter.BadRequest(c, err)
		default:
			return presenter.InternalError(c, err)
		}
	}
	return presenter.Created(c, echo.Map{"id": publicID})
}

type stateRequest struct {
	State string `json:"state"`
}

func (h *Handler) handleCurationState(c echo.Context) error {
	ctx := c.Request().Context()

	if !domain.ActorFromContext(ctx).IsCurator() {
		return presenter.Forbidden(c, "curator role required")
	}

	var req stateRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	err := h.collection.Transition(ctx, c.Param("id"), domain.CurationState(req.State))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return presenter.NotFound(c, "pipeline record not found")
		case errors.Is(err, domain.ErrInvalid):
			return presenter.BadRequest(c, err)
		default:
			return presenter.InternalError(c, err)
		}
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

type restrictionRequest struct {
	CategoryID  int    `json:"categoryId"`
	Description string `json:"description"`
	Link        string `json:"link"`
	LinkDesc    string `json:"linkDescription"`
}

func (h *Handler) handleAddRestriction(partition usecase.Partition) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var req restrictionRequest
		if err := c.Bind(&req); err != nil {
			return presenter.BadRequest(c, err)
		}

		err := h.restrict.Add(ctx, usecase.RestrictionInput{
			CollectionID: c.Param("id"),
			Partition:    partition,
			CategoryID:   req.CategoryID,
			Description:  req.Description,
			Link:         req.Link,
			LinkDesc:     req.LinkDesc,
			Actor:        domain.ActorFromContext(ctx),
		})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotAuthorized):
				return presenter.Forbidden(c, "curator role required")
			case errors.Is(err, domain.ErrNotFound):
				return presenter.NotFound(c, "record not found")
			case errors.Is(err, domain.ErrInvalid):
				return presenter.BadRequest(c, err)
			default:
				return presenter.InternalError(c, err)
			}
		}
		return presenter.OK(c, echo.Map{"status": "ok"})
	}
}

func (h *Handler) handleCategories(c echo.Context) error {
	ctx := c.Request().Context()

	categories, err := h.restrict.Categories(ctx)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, categories)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type realtimeRequest struct {
	Type     string   `json:"type"`
	Prefixes []string `json:"prefixes"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	if !domain.ActorFromContext(c.Request().Context()).IsCurator() {
		return presenter.Forbidden(c, "curator role required")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	filters := make(chan []string)
	defer close(filters)
	output := make(chan domain.Event)

	go h.signal.Realtime(ctx, filters, output)

	// buffered: the write loop may have returned before the reader exits
	quit := make(chan struct{}, 1)

	go func() {
		for {
			var req realtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				quit <- struct{}{}
				break
			}

			switch req.Type {
			case "listen":
				select {
				case filters <- req.Prefixes:
				case <-ctx.Done():
					return
				}
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
