package domain

// CardState is the lifecycle state of a card.
type CardState uint8

const (
	// CardNew: the card exists and no report has been stored.
	CardNew CardState = iota
	// CardReceived: a report is stored. Terminal for the card itself.
	CardReceived
)

// StateOf maps the persisted received flag onto a CardState.
func StateOf(received bool) CardState {
	if received {
		return CardReceived
	}
	return CardNew
}

func (s CardState) String() string {
	switch s {
	case CardNew:
		return "NEW"
	case CardReceived:
		return "RECEIVED"
	default:
		return "UNKNOWN"
	}
}

// DisasterEarthquake is the only disaster type that may file follow-up
// reports under a fresh card.
const DisasterEarthquake = "earthquake"

// TransitionKind tags the outcome of a submission attempt.
type TransitionKind uint8

const (
	// TransitionOK: store the report on the card and move it to Next.
	TransitionOK TransitionKind = iota + 1
	// TransitionConflict: a report was already received for this card.
	TransitionConflict
	// TransitionNewCard: open a new card for the same citizen and store
	// the report there; the original card is left untouched.
	TransitionNewCard
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionOK:
		return "ok"
	case TransitionConflict:
		return "conflict"
	case TransitionNewCard:
		return "new_card"
	default:
		return "unknown"
	}
}

// Transition is the result of Submit.
type Transition struct {
	Kind TransitionKind
	Next CardState
}

// Submit is the single allowed transition of the card lifecycle. A NEW card
// moves to RECEIVED. A RECEIVED card accepts nothing, except an earthquake
// sub-submission which is redirected to a new card.
func Submit(from CardState, disasterType string, subSubmission bool) Transition {
	switch from {
	case CardNew:
		return Transition{Kind: TransitionOK, Next: CardReceived}
	case CardReceived:
		if subSubmission && disasterType == DisasterEarthquake {
			return Transition{Kind: TransitionNewCard, Next: CardReceived}
		}
		return Transition{Kind: TransitionConflict, Next: CardReceived}
	}
	return Transition{Kind: TransitionConflict, Next: from}
}

// CanAttachImage reports whether an image may be attached: only received
// cards whose report has no image yet.
func CanAttachImage(state CardState, currentImage *string) bool {
	return state == CardReceived && (currentImage == nil || *currentImage == "")
}
