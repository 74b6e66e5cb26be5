package domain

// CurationState is the position of a record inside the curation pipeline.
// Submitted -> Curation -> {Published, Canceled}; Pending is the side branch
// for records awaiting re-review after an edit.
type CurationState string

const (
	StateSubmitted CurationState = "Submitted"
	StateCuration  CurationState = "Curation"
	StatePending   CurationState = "Pending"
	StatePublished CurationState = "Published"
	StateCanceled  CurationState = "Canceled"
)

// Active reports whether the record still sits in the pipeline awaiting
// curator action.
func (s CurationState) Active() bool {
	switch s {
	case StateSubmitted, StateCuration, StatePending:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the pipeline allows moving from s to next.
func (s CurationState) CanTransition(next CurationState) bool {
	switch s {
	case StateSubmitted:
		return next == StateCuration || next == StateCanceled
	case StateCuration:
		return next == StatePublished || next == StateCanceled || next == StatePending
	case StatePending:
		return next == StateCuration || next == StateCanceled
	default:
		// Published and Canceled are terminal.
		return false
	}
}
