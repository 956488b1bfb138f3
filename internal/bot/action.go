package bot

// Action is a card submission tag.
type Action int

const (
	ActionUnknown Action = iota
	ActionViewRequirements
	ActionSlotSuggestion
	ActionDecline
	ActionConfirm
	ActionProvideAvailability
)

var actionTags = [...]string{
	ActionUnknown:             "unknown",
	ActionViewRequirements:    "view_requirements",
	ActionSlotSuggestion:      "slot_suggestion",
	ActionDecline:             "decline",
	ActionConfirm:             "confirm",
	ActionProvideAvailability: "provide_availability",
}

// ParseAction maps a tag to its Action. Matching is exact; anything else,
// including the literal "unknown", is ActionUnknown.
func ParseAction(tag string) Action {
	for a := ActionViewRequirements; int(a) < len(actionTags); a++ {
		if actionTags[a] == tag {
			return a
		}
	}
	return ActionUnknown
}

// String returns the wire tag.
func (a Action) String() string {
	if a < 0 || int(a) >= len(actionTags) {
		return actionTags[ActionUnknown]
	}
	return actionTags[a]
}
