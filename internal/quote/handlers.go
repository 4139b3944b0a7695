package quote

import (
	"context"
	"errors"
	"fmt"

	"dumpster-quote/internal/booking"
	"dumpster-quote/internal/storage"

	"go.uber.org/zap"
)

type actionKind string

const (
	actionDecide  actionKind = "decide"
	actionContact actionKind = "submit contact"
	actionText    actionKind = "text"
)

type action struct {
	kind    actionKind
	book    bool
	contact string
}

func (s *Service) registerHandlers() {
	s.handlers = map[booking.Step]func(context.Context, *Session, action) error{
		booking.StepAwaitingDecision: s.handleDecision,
		booking.StepAwaitingContact:  s.handleContact,
		booking.StepContactSubmitted: s.handleSubmitted,
	}
}

// dispatch runs the handler registered for the session's current step and
// persists the result.
func (s *Service) dispatch(ctx context.Context, operation, id string, a action) (*Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	handler, exists := s.handlers[sess.Step()]
	if !exists {
		return nil, fmt.Errorf("%s: %w", operation, rejectAction(sess, a))
	}

	herr := handler(ctx, sess, a)
	var textErr *TextError
	if herr != nil && !errors.As(herr, &textErr) {
		return nil, fmt.Errorf("%s: %w", operation, herr)
	}

	if err := s.save(ctx, sess); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return sess, herr
}

func (s *Service) handleDecision(ctx context.Context, sess *Session, a action) error {
	if a.kind != actionDecide {
		return rejectAction(sess, a)
	}
	if err := sess.Booking.Decide(a.book); err != nil {
		return err
	}

	s.logger.Info("Booking decision",
		zap.String("session_id", sess.ID),
		zap.Bool("book", a.book))
	return nil
}

func (s *Service) handleContact(ctx context.Context, sess *Session, a action) error {
	switch a.kind {
	case actionContact:
		if err := sess.Booking.SubmitContact(a.contact); err != nil {
			return err
		}
		s.logger.Info("Contact submitted", zap.String("session_id", sess.ID))
		s.recordLead(ctx, sess, storage.ChannelForm)
		return nil
	case actionText:
		return s.handleText(ctx, sess, a)
	default:
		return rejectAction(sess, a)
	}
}

// handleSubmitted only lets the user retry or redirect the text.
func (s *Service) handleSubmitted(ctx context.Context, sess *Session, a action) error {
	if a.kind != actionText {
		return rejectAction(sess, a)
	}
	return s.handleText(ctx, sess, a)
}

func (s *Service) handleText(ctx context.Context, sess *Session, a action) error {
	if !sess.Quoted() {
		return ErrNotQuoted
	}

	prevStep, prevContact := sess.Step(), sess.Booking.Intent.Contact
	phone, err := sess.Booking.BeginText(a.contact)
	if err != nil {
		return err
	}

	if prevStep != booking.StepContactSubmitted || prevContact != sess.Booking.Intent.Contact {
		s.recordLead(ctx, sess, storage.ChannelSMS)
	}

	if s.limiter != nil {
		exceeded, err := s.limiter.CheckRateLimit(ctx, "sms:"+sess.ID, s.opts.TextRateLimit, s.opts.TextRateWindow)
		switch {
		case err != nil:
			s.logger.Warn("Rate limit check failed, sending anyway",
				zap.String("session_id", sess.ID),
				zap.Error(err))
		case exceeded:
			sess.SMSStatus = SMSFailed
			return &TextError{Err: ErrTextRateLimited, FallbackPhone: s.opts.BusinessPhone}
		}
	}

	msg := buildTextMessage(sess, phone, s.opts.BusinessPhone)
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error("Failed to send text",
			zap.String("session_id", sess.ID),
			zap.Error(err))
		sess.SMSStatus = SMSFailed
		return &TextError{Err: ErrTextFailed, FallbackPhone: s.opts.BusinessPhone, Cause: err}
	}

	sess.SMSStatus = SMSSent
	s.logger.Info("Text sent", zap.String("session_id", sess.ID))
	return nil
}

func rejectAction(sess *Session, a action) error {
	return fmt.Errorf("%w: cannot %s while %s", booking.ErrInvalidTransition, a.kind, sess.Step())
}
