package booking

type Step string

const (
	StepIdle             Step = "idle"
	StepQuoted           Step = "quoted"
	StepAwaitingDecision Step = "awaiting_decision"
	StepDeclined         Step = "declined"
	StepAwaitingContact  Step = "awaiting_contact"
	StepContactSubmitted Step = "contact_submitted"
)

// Terminal reports whether no further booking prompts follow this step
// until the next estimate.
func (s Step) Terminal() bool {
	return s == StepDeclined || s == StepContactSubmitted
}

func (s Step) String() string {
	return string(s)
}
