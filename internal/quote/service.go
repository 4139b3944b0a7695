package quote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dumpster-quote/internal/booking"
	"dumpster-quote/internal/delivery"
	"dumpster-quote/internal/pricing"
	"dumpster-quote/internal/render"
	"dumpster-quote/internal/storage"
	"dumpster-quote/pkg/sms"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const notifyTimeout = 30 * time.Second

type SessionStore interface {
	SaveSession(ctx context.Context, id string, v any, ttl time.Duration) error
	LoadSession(ctx context.Context, id string, v any) error
}

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
}

type LeadStore interface {
	SaveLead(ctx context.Context, lead storage.Lead) (int64, error)
}

type Notifier interface {
	NotifyLead(ctx context.Context, lead storage.Lead)
}

type TextSender interface {
	Send(ctx context.Context, msg sms.Message) error
}

type Options struct {
	Disclaimers    render.Disclaimers
	BusinessPhone  string
	DeliveryDays   int
	SessionTTL     time.Duration
	Location       *time.Location
	TextRateLimit  int64
	TextRateWindow time.Duration
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

type Deps struct {
	Sessions SessionStore
	Limiter  RateLimiter
	Leads    LeadStore
	Notifier Notifier
	Sender   TextSender
}

type Service struct {
	engine   *pricing.Engine
	opts     Options
	sessions SessionStore
	limiter  RateLimiter
	leads    LeadStore
	notifier Notifier
	sender   TextSender
	logger   *zap.Logger

	handlers map[booking.Step]func(context.Context, *Session, action) error
	wg       sync.WaitGroup
}

func NewService(engine *pricing.Engine, opts Options, deps Deps, logger *zap.Logger) (*Service, error) {
	if engine == nil {
		return nil, errors.New("quote: pricing engine is required")
	}
	if deps.Sessions == nil || deps.Sender == nil {
		return nil, errors.New("quote: session store and text sender are required")
	}
	if opts.DeliveryDays <= 0 {
		opts.DeliveryDays = 10
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 2 * time.Hour
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Disclaimers.BusinessPhone == "" {
		opts.Disclaimers.BusinessPhone = opts.BusinessPhone
	}

	s := &Service{
		engine:   engine,
		opts:     opts,
		sessions: deps.Sessions,
		limiter:  deps.Limiter,
		leads:    deps.Leads,
		notifier: deps.Notifier,
		sender:   deps.Sender,
		logger:   logger,
	}
	s.registerHandlers()
	return s, nil
}

func (s *Service) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

func (s *Service) BusinessPhone() string {
	return s.opts.BusinessPhone
}

// Wait blocks until background staff notifications are done.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Start opens a new quote session for a page view.
func (s *Service) Start(ctx context.Context) (*Session, []delivery.DateOption, error) {
	const operation = "quote.Start"

	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		Booking:   booking.Machine{Step: booking.StepIdle},
		SMSStatus: SMSNone,
	}

	if err := s.save(ctx, sess); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", operation, err)
	}

	s.logger.Info("Quote session started", zap.String("session_id", sess.ID))
	return sess, delivery.Options(now, s.opts.DeliveryDays), nil
}

func (s *Service) DeliveryOptions(now time.Time) []delivery.DateOption {
	return delivery.Options(now.In(s.opts.Location), s.opts.DeliveryDays)
}

// UpcomingDeliveryOptions lists count dates from the service clock. A
// non-positive count falls back to the configured window.
func (s *Service) UpcomingDeliveryOptions(count int) []delivery.DateOption {
	if count <= 0 {
		count = s.opts.DeliveryDays
	}
	return delivery.Options(s.now(), count)
}

// Location is the business timezone delivery dates are expressed in.
func (s *Service) Location() *time.Location {
	return s.opts.Location
}

func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	const operation = "quote.Get"

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return sess, nil
}

func (s *Service) SelectDeliveryDate(ctx context.Context, id string, date time.Time) (*Session, error) {
	const operation = "quote.SelectDeliveryDate"

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	day, err := s.offeredDay(date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	sess.DeliveryDate = &day

	if err := s.save(ctx, sess); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return sess, nil
}

// Estimate prices a request without touching any session.
func (s *Service) Estimate(req pricing.QuoteRequest) (pricing.PriceBreakdown, render.Estimate, error) {
	if err := pricing.ValidateRequest(req); err != nil {
		return pricing.PriceBreakdown{}, render.Estimate{}, err
	}

	b := s.engine.Compute(req.Size, req.DurationDays, req.IsVeteran)
	est, err := render.RenderEstimate(b, s.opts.Disclaimers)
	if err != nil {
		return pricing.PriceBreakdown{}, render.Estimate{}, err
	}
	return b, est, nil
}

// Calculate replaces the session's estimate and starts the booking flow over.
func (s *Service) Calculate(ctx context.Context, id string, req pricing.QuoteRequest) (*Session, render.Estimate, error) {
	const operation = "quote.Calculate"

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, render.Estimate{}, fmt.Errorf("%s: %w", operation, err)
	}

	switch {
	case !req.DeliveryDate.IsZero():
		day, err := s.offeredDay(req.DeliveryDate)
		if err != nil {
			return nil, render.Estimate{}, fmt.Errorf("%s: %w", operation, err)
		}
		req.DeliveryDate = day
		sess.DeliveryDate = &day
	case sess.DeliveryDate != nil:
		req.DeliveryDate = *sess.DeliveryDate
	}

	b, est, err := s.Estimate(req)
	if err != nil {
		return nil, render.Estimate{}, fmt.Errorf("%s: %w", operation, err)
	}

	sess.Request = &req
	sess.Breakdown = &b
	sess.Estimate = &est
	sess.SMSStatus = SMSNone
	sess.Booking.Quote()

	if err := s.save(ctx, sess); err != nil {
		return nil, render.Estimate{}, fmt.Errorf("%s: %w", operation, err)
	}

	s.logger.Info("Estimate calculated",
		zap.String("session_id", sess.ID),
		zap.Int("size", int(b.Size)),
		zap.Int("duration_days", b.DurationDays),
		zap.String("tier", string(b.Tier)),
		zap.String("final_price", b.FinalPrice.String()))

	return sess, est, nil
}

func (s *Service) Decide(ctx context.Context, id string, book bool) (*Session, error) {
	return s.dispatch(ctx, "quote.Decide", id, action{kind: actionDecide, book: book})
}

func (s *Service) SubmitContact(ctx context.Context, id, contact string) (*Session, error) {
	return s.dispatch(ctx, "quote.SubmitContact", id, action{kind: actionContact, contact: contact})
}

// TextMe logs the contact and texts the estimate to it. When the text fails
// the returned session still carries the submitted contact next to a
// *TextError.
func (s *Service) TextMe(ctx context.Context, id, contact string) (*Session, error) {
	return s.dispatch(ctx, "quote.TextMe", id, action{kind: actionText, contact: contact})
}

// offeredDay returns date's calendar day if it is one of the offered delivery dates.
func (s *Service) offeredDay(date time.Time) (time.Time, error) {
	for _, opt := range s.DeliveryOptions(s.now()) {
		if delivery.SameDay(opt.Date, date.In(s.opts.Location)) {
			return opt.Date, nil
		}
	}
	return time.Time{}, ErrInvalidDeliveryDate
}

func (s *Service) load(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}

	var sess Session
	if err := s.sessions.LoadSession(ctx, id, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Service) save(ctx context.Context, sess *Session) error {
	return s.sessions.SaveSession(ctx, sess.ID, sess, s.opts.SessionTTL)
}

// recordLead appends the lead and hands it to staff notifiers in the
// background. Neither failure reaches the user.
func (s *Service) recordLead(ctx context.Context, sess *Session, channel string) {
	lead := leadFromSession(sess, channel, s.now())

	if s.leads != nil {
		id, err := s.leads.SaveLead(ctx, lead)
		if err != nil {
			s.logger.Error("Failed to save lead",
				zap.String("session_id", sess.ID),
				zap.Error(err))
		} else {
			lead.ID = id
		}
	}

	if s.notifier == nil {
		return
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.notifier.NotifyLead(notifyCtx, lead)
	}()
}

func leadFromSession(sess *Session, channel string, now time.Time) storage.Lead {
	contact := booking.ParseContact(sess.Booking.Intent.Contact)
	lead := storage.Lead{
		SessionID:   sess.ID,
		Contact:     contact.Raw,
		ContactKind: string(contact.Kind),
		Channel:     channel,
		CreatedAt:   now,
	}
	if contact.Kind == booking.ContactPhone {
		lead.Contact = contact.Digits
	}

	if req := sess.Request; req != nil {
		lead.ZipCode = req.ZipCode
		lead.Size = int(req.Size)
		lead.DurationDays = req.DurationDays
		lead.IsVeteran = req.IsVeteran
		if !req.DeliveryDate.IsZero() {
			d := req.DeliveryDate
			lead.DeliveryDate = &d
		}
	}
	if sess.Breakdown != nil {
		lead.FinalPrice = sess.Breakdown.FinalPrice
	}
	return lead
}
