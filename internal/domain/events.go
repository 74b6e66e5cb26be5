package domain

import "time"

// EventType names a lifecycle occurrence worth notifying curators about.
type EventType string

const (
	EventSubmissionAccepted      EventType = "submission.accepted"
	EventSubmissionSpam          EventType = "submission.spam"
	EventSubmissionDuplicate     EventType = "submission.duplicate"
	EventSubmissionSessionExpiry EventType = "submission.session-expired"
	EventRecordPublished         EventType = "record.published"
	EventPublishFailed           EventType = "record.publish-failed"
	EventRecordUpdated           EventType = "record.updated"
	EventEditPartial             EventType = "record.edit-partial"
	EventEditSuggested           EventType = "record.edit-suggested"
	EventRecordDeprecated        EventType = "record.deprecated"
	EventOwnershipRequested      EventType = "record.ownership-requested"
	EventRestrictionAdded        EventType = "record.restriction-added"
)

// Event is the structured notification emitted by lifecycle operations.
// Rendering and delivery (email, live feed) happen outside the core; a
// failed delivery never alters the already-decided outcome.
type Event struct {
	Type         EventType `json:"type"`
	CollectionID string    `json:"collectionId,omitempty"`
	Name         string    `json:"name,omitempty"`
	Actor        string    `json:"actor,omitempty"`
	UserInfo     string    `json:"userInfo,omitempty"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	OccurredAt   time.Time `json:"occurredAt"`
}
