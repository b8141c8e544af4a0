package conversations

// State is the derived position of a conversation in the reportback flow.
type State int

const (
	// StateAwaitingPhoto means no photo has been received yet.
	StateAwaitingPhoto State = iota
	// StateAwaitingCaption means the photo is stored, caption pending.
	StateAwaitingCaption
	// StateAwaitingQuantity means photo and caption are stored.
	StateAwaitingQuantity
	// StateAwaitingWhyImportant means only the motivation is missing.
	StateAwaitingWhyImportant
	// StateComplete means every field is filled; the record awaits submission.
	StateComplete
)

// String returns the state's name for logging.
func (s State) String() string {
	switch s {
	case StateAwaitingPhoto:
		return "awaiting_photo"
	case StateAwaitingCaption:
		return "awaiting_caption"
	case StateAwaitingQuantity:
		return "awaiting_quantity"
	case StateAwaitingWhyImportant:
		return "awaiting_why_important"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// DeriveState computes a record's position from its filled fields. The first
// empty field in the fixed order photo, caption, quantity, motivation is the
// one being awaited; a record with all fields filled is complete.
func DeriveState(r *Record) State {
	switch {
	case r.PhotoURL == "":
		return StateAwaitingPhoto
	case r.Caption == "":
		return StateAwaitingCaption
	case r.Quantity == "":
		return StateAwaitingQuantity
	case r.WhyImportant == "":
		return StateAwaitingWhyImportant
	default:
		return StateComplete
	}
}
