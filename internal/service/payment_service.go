package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/mailer"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/payment"
)

// PaymentService opens checkouts for paid courses and applies gateway webhooks.
type PaymentService struct {
	cfg           *config.Config
	payments      PaymentStore
	courses       CourseStore
	users         UserStore
	enrollments   EnrollmentStore
	gateways      map[model.PaymentProvider]payment.Gateway
	enroll        *EnrollmentService
	notifications *NotificationService
	mail          *MailService
	activity      *ActivityService
	log           zerolog.Logger
	now           func() time.Time
}

// PaymentDeps groups the stores PaymentService reads.
type PaymentDeps struct {
	Payments    PaymentStore
	Courses     CourseStore
	Users       UserStore
	Enrollments EnrollmentStore
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	cfg *config.Config,
	deps PaymentDeps,
	gateways map[model.PaymentProvider]payment.Gateway,
	enroll *EnrollmentService,
	notifications *NotificationService,
	mail *MailService,
	activity *ActivityService,
	log zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		cfg:           cfg,
		payments:      deps.Payments,
		courses:       deps.Courses,
		users:         deps.Users,
		enrollments:   deps.Enrollments,
		gateways:      gateways,
		enroll:        enroll,
		notifications: notifications,
		mail:          mail,
		activity:      activity,
		log:           log.With().Str("component", "payments").Logger(),
		now:           time.Now,
	}
}

// Checkout creates a PENDING payment and a hosted checkout session for a
// paid, published course.
func (s *PaymentService) Checkout(ctx context.Context, actor *Actor, courseID uuid.UUID, provider model.PaymentProvider, meta RequestMeta) (*model.CheckoutResponse, error) {
	u, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !u.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !c.IsPublished() {
		return nil, ErrCourseNotPublished
	}
	if c.IsFree() {
		return nil, ErrCourseIsFree
	}
	if _, err := activeEnrollment(ctx, s.enrollments, u.ID, c.ID); err == nil {
		return nil, ErrAlreadyEnrolled
	} else if !errors.Is(err, ErrNotEnrolled) {
		return nil, err
	}

	if provider == "" {
		provider = model.PaymentProvider(s.cfg.DefaultPaymentProvider)
	}
	gw, ok := s.gateways[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderDisabled, provider)
	}

	p := &model.Payment{
		UserID:      u.ID,
		CourseID:    c.ID,
		CourseTitle: c.Title,
		Provider:    provider,
		AmountCents: c.PriceCents,
		Currency:    c.Currency,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	session, err := gw.CreateCheckout(ctx, payment.CheckoutInput{
		PaymentID:     p.ID,
		CourseID:      c.ID,
		CourseTitle:   c.Title,
		AmountCents:   c.PriceCents,
		Currency:      c.Currency,
		CustomerEmail: u.Email,
		CustomerName:  u.Name,
	})
	if err != nil {
		reason := truncateReason(err.Error())
		if _, tErr := s.payments.Transition(ctx, p.ID, model.PaymentStatusFailed, &reason); tErr != nil {
			s.log.Error().Err(tErr).Str("payment_id", p.ID.String()).Msg("mark failed checkout")
		}
		if errors.Is(err, payment.ErrUnsupportedCurrency) {
			return nil, fmt.Errorf("%w: %v", ErrActionForbidden, err)
		}
		s.log.Error().Err(err).Str("payment_id", p.ID.String()).Str("provider", string(provider)).Msg("create checkout")
		return nil, fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	if err := s.payments.SetCheckout(ctx, p.ID, session.ProviderRef, session.URL); err != nil {
		return nil, fmt.Errorf("store checkout: %w", err)
	}
	p.ProviderRef = &session.ProviderRef
	p.CheckoutURL = &session.URL

	s.activity.Record(ctx, &u.ID, model.ActivityPaymentStarted, "payment", p.ID.String(), meta,
		map[string]interface{}{"course_id": c.ID, "provider": provider, "amount_cents": p.AmountCents, "currency": p.Currency})
	return &model.CheckoutResponse{Payment: p, CheckoutURL: session.URL}, nil
}

// HandleWebhook verifies a gateway notification and applies it. Only PENDING
// payments change state, so redelivered notifications are harmless.
func (s *PaymentService) HandleWebhook(ctx context.Context, provider model.PaymentProvider, payload []byte, header http.Header) error {
	gw, ok := s.gateways[provider]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProviderDisabled, provider)
	}
	evt, err := gw.ParseWebhook(payload, header)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) || errors.Is(err, payment.ErrMalformedPayload) {
			return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return err
	}
	if evt == nil {
		return nil
	}

	log := s.log.With().Str("provider", string(provider)).Str("provider_ref", evt.ProviderRef).Logger()

	p, err := s.findPayment(ctx, provider, evt)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Str("payment_id", evt.PaymentID).Msg("webhook for unknown payment")
			return nil
		}
		return err
	}

	var reason *string
	if evt.Reason != "" {
		r := truncateReason(evt.Reason)
		reason = &r
	}
	transitioned, err := s.payments.Transition(ctx, p.ID, evt.Status, reason)
	if err != nil {
		return err
	}

	if evt.Status == model.PaymentStatusSucceeded {
		switch {
		case transitioned, p.Status == model.PaymentStatusSucceeded:
			// Enrolling again is a no-op, which covers a crash between the two steps.
			if _, err := s.enroll.EnrollPaid(ctx, p.UserID, p.CourseID, p.ID); err != nil {
				return fmt.Errorf("enroll after payment: %w", err)
			}
		default:
			log.Error().Str("payment_id", p.ID.String()).Str("status", string(p.Status)).
				Msg("payment succeeded at the provider after it was closed locally; reconcile manually")
		}
	}
	if !transitioned {
		return nil
	}

	p.Status = evt.Status
	s.afterTransition(ctx, p)
	return nil
}

func (s *PaymentService) findPayment(ctx context.Context, provider model.PaymentProvider, evt *payment.Event) (*model.Payment, error) {
	if id, err := uuid.Parse(evt.PaymentID); err == nil {
		p, err := s.payments.GetByID(ctx, id)
		if err == nil && p.Provider == provider {
			return p, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	if evt.ProviderRef == "" {
		return nil, ErrNotFound
	}
	return s.payments.GetByProviderRef(ctx, provider, evt.ProviderRef)
}

func (s *PaymentService) afterTransition(ctx context.Context, p *model.Payment) {
	s.activity.Record(ctx, &p.UserID, model.ActivityPaymentSettled, "payment", p.ID.String(), RequestMeta{},
		map[string]interface{}{"status": p.Status, "provider": p.Provider})

	if p.Status != model.PaymentStatusSucceeded {
		s.notifications.Notify(ctx, p.UserID, model.NotificationPaymentFailed,
			"Payment not completed", "Your payment for "+p.CourseTitle+" was not completed.",
			map[string]interface{}{"payment_id": p.ID, "course_id": p.CourseID, "status": p.Status})
		return
	}

	s.notifications.Notify(ctx, p.UserID, model.NotificationPaymentSucceeded,
		"Payment received", "Your payment for "+p.CourseTitle+" was received.",
		map[string]interface{}{"payment_id": p.ID, "course_id": p.CourseID})

	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		s.log.Error().Err(err).Str("payment_id", p.ID.String()).Msg("load user for receipt")
		return
	}
	if err := s.mail.Enqueue(ctx, mailer.TemplatePaymentReceipt, u.Email, u.Name, map[string]interface{}{
		"Name":        u.Name,
		"CourseTitle": p.CourseTitle,
		"Amount":      FormatAmount(p.AmountCents, p.Currency),
		"Currency":    strings.ToUpper(p.Currency),
		"PaymentID":   p.ID.String(),
		"Provider":    string(p.Provider),
	}); err != nil {
		s.log.Error().Err(err).Str("payment_id", p.ID.String()).Msg("queue receipt")
	}
}

// Get returns one of the caller's payments. Admins may read any.
func (s *PaymentService) Get(ctx context.Context, actor *Actor, id uuid.UUID) (*model.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrNotFound
	}
	return p, nil
}

// ListMine returns the caller's payments.
func (s *PaymentService) ListMine(ctx context.Context, userID uuid.UUID, p model.PageQuery) ([]model.Payment, int, error) {
	p.Normalize()
	return s.payments.ListByUser(ctx, userID, p)
}

// ExpireStale closes PENDING payments older than PaymentPendingTTL.
func (s *PaymentService) ExpireStale(ctx context.Context) (int64, error) {
	return s.payments.ExpireStale(ctx, s.now().Add(-s.cfg.PaymentPendingTTL))
}

// zeroDecimal lists currencies without a minor unit.
var zeroDecimal = map[string]bool{"IDR": true, "JPY": true, "KRW": true, "VND": true}

// FormatAmount renders minor units for display, e.g. 4900 USD -> "49.00".
func FormatAmount(amount int64, currency string) string {
	if zeroDecimal[strings.ToUpper(currency)] {
		return fmt.Sprintf("%d", amount)
	}
	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

// truncateReason caps a provider message at 500 characters, cutting on a
// rune boundary so the stored text stays valid UTF-8.
func truncateReason(s string) string {
	const max = 500
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
