package booking

import (
	"errors"
	"fmt"
	"strings"
)

// ContactRequiredMessage is shown next to the contact field when it is left blank.
const ContactRequiredMessage = "Please enter your email or phone number"

var (
	ErrContactRequired      = errors.New("contact is required")
	ErrPhoneRequiredForText = errors.New("a phone number is required to send a text")
	ErrInvalidPhone         = errors.New("please enter a phone number with at least 10 digits")
	ErrInvalidTransition    = errors.New("booking step does not allow this action")
)

// Intent is what the user has told us about booking so far. WantsBooking is
// nil until the booking question is answered.
type Intent struct {
	WantsBooking *bool  `json:"wants_booking"`
	Contact      string `json:"contact"`
	Submitted    bool   `json:"submitted"`
}

// Machine is the booking flow shown under an estimate. The zero value is idle.
type Machine struct {
	Step   Step   `json:"step"`
	Intent Intent `json:"intent"`
}

func (m *Machine) CurrentStep() Step {
	if m.Step == "" {
		return StepIdle
	}
	return m.Step
}

// Quote is called after every successful calculation. It discards any
// earlier booking progress and always asks the booking question.
func (m *Machine) Quote() {
	m.Intent = Intent{}
	m.Step = StepQuoted
	m.askBookingQuestion()
}

// askBookingQuestion moves a fresh quote on to the booking question. There is
// no availability gate in front of it.
func (m *Machine) askBookingQuestion() {
	if m.Step == StepQuoted {
		m.Step = StepAwaitingDecision
	}
}

func (m *Machine) Decide(book bool) error {
	if m.CurrentStep() != StepAwaitingDecision {
		return m.transitionError("decide")
	}

	m.Intent.WantsBooking = &book
	if book {
		m.Step = StepAwaitingContact
	} else {
		m.Step = StepDeclined
	}
	return nil
}

// SubmitContact records the contact field. Blank input keeps the machine
// waiting for contact.
func (m *Machine) SubmitContact(contact string) error {
	if m.CurrentStep() != StepAwaitingContact {
		return m.transitionError("submit contact")
	}

	contact = strings.TrimSpace(contact)
	if contact == "" {
		return ErrContactRequired
	}

	m.Intent.Contact = contact
	m.Intent.Submitted = true
	m.Step = StepContactSubmitted
	return nil
}

// BeginText validates the contact for the "text me" button and logs it. The
// returned digits are what the SMS goes to. Once this succeeds the contact
// stays submitted whatever happens to the SMS itself.
func (m *Machine) BeginText(contact string) (string, error) {
	step := m.CurrentStep()
	if step != StepAwaitingContact && step != StepContactSubmitted {
		return "", m.transitionError("text")
	}

	c := ParseContact(contact)
	switch {
	case c.Raw == "":
		return "", ErrContactRequired
	case c.Kind == ContactEmail:
		return "", ErrPhoneRequiredForText
	case c.Kind != ContactPhone:
		return "", ErrInvalidPhone
	}

	m.Intent.Contact = c.Raw
	m.Intent.Submitted = true
	m.Step = StepContactSubmitted
	return c.Digits, nil
}

func (m *Machine) transitionError(action string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, action, m.CurrentStep())
}
