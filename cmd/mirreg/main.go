package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/mirreg/registry/internal/config"
	"github.com/mirreg/registry/internal/domain"
	"github.com/mirreg/registry/internal/infra/database"
	"github.com/mirreg/registry/internal/infra/gateway"
	"github.com/mirreg/registry/internal/infra/repository"
	"github.com/mirreg/registry/internal/present/rest"
	"github.com/mirreg/registry/internal/present/rest/middleware"
	"github.com/mirreg/registry/internal/service"
	"github.com/mirreg/registry/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	if conf.Server.EnableTrace {
		cleanup, err := setupTracer(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to set up tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer cleanup()
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := database.MigratePostgres(db); err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb, err := database.NewRedis(ctx, conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
	if err != nil {
		slog.Error("failed to connect redis", slog.String("error", err.Error()))
		os.Exit(1)
	}

	publicRepo := repository.NewCollectionRepository(db)
	curationRepo := repository.NewCurationRepository(db)
	ownershipRepo := repository.NewOwnershipRepository(db)
	checker := repository.NewExistenceChecker(db)
	historyRepo := repository.NewHistoryRepository(db)
	taxonomyRepo := repository.NewTaxonomyRepository(db, conf.Server.TaxonomyTTL)
	cache := repository.NewResolutionCache(rdb, conf.Server.CacheTTL)

	signal := service.NewSignalHub(rdb)
	mailer := gateway.NewMailer(gateway.MailerConfig{
		Addr:     conf.Mail.SMTPAddr,
		From:     conf.Mail.From,
		To:       conf.Mail.To,
		Username: conf.Mail.Username,
		Password: conf.Mail.Password,
	})
	events := service.NewEventFanout(mailer, signal)

	retain := true
	if conf.Curation.RetainAfterPublish != nil {
		retain = *conf.Curation.RetainAfterPublish
	}

	submitUC := usecase.NewSubmitUsecase(publicRepo, curationRepo, checker, events)
	editUC := usecase.NewEditUsecase(publicRepo, ownershipRepo, historyRepo, events, cache)
	publishUC := usecase.NewPublishUsecase(publicRepo, curationRepo, events, cache, usecase.PublishOptions{
		RequireState:       domain.CurationState(conf.Curation.RequireState),
		RetainAfterPublish: retain,
	})
	restrictUC := usecase.NewRestrictionUsecase(publicRepo, curationRepo, taxonomyRepo, events, cache)
	collectionUC := usecase.NewCollectionUsecase(publicRepo, curationRepo, historyRepo, events, cache)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("mirreg"))
	}

	actor := middleware.NewActorMiddleware()
	e.Use(actor.IdentifyActor)

	handler := rest.NewHandler(conf, submitUC, editUC, publishUC, restrictUC, collectionUC, signal)
	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.Listen))
}

func setupTracer(ctx context.Context, endpoint string) (func(), error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String("mirreg"),
		),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down tracer provider", slog.String("error", err.Error()))
		}
	}, nil
}
