package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voyance-backend/internal/client"
	"voyance-backend/internal/dto"
	"voyance-backend/internal/mailer"
	"voyance-backend/internal/model"
	"voyance-backend/internal/monitoring"
	"voyance-backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("consultation not found")
	ErrAlreadySubmitted   = errors.New("consultation already submitted")
	ErrPaymentNotVerified = errors.New("payment could not be verified")
	ErrNotAnswerable      = errors.New("consultation has no submitted question")
)

// FormAccess is the access-gate decision for GET /form.
type FormAccess int

const (
	FormAccessDenied FormAccess = iota
	FormAccessQuestion
	FormAccessAlreadySubmitted
)

type RespondResult struct {
	EmailSent bool
	Message   string
}

type ConsultationService interface {
	HandleCheckoutCompleted(ctx context.Context, sess *client.CheckoutSummary) error
	FormAccess(ctx context.Context, sessionID string) FormAccess
	SubmitQuestion(ctx context.Context, req *dto.SubmitRequest) error
	Respond(ctx context.Context, id, response string) (*RespondResult, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*dto.StatsResponse, error)
	List(ctx context.Context) ([]*dto.ConsultationView, error)
}

type consultationServiceImpl struct {
	repo             repository.ConsultationRepository
	stripe           client.StripeClient
	notifier         mailer.Notifier
	premiumThreshold int64
	log              *zap.Logger
}

func NewConsultationService(
	repo repository.ConsultationRepository,
	stripeClient client.StripeClient,
	notifier mailer.Notifier,
	premiumThreshold int64,
	log *zap.Logger,
) ConsultationService {
	return &consultationServiceImpl{
		repo:             repo,
		stripe:           stripeClient,
		notifier:         notifier,
		premiumThreshold: premiumThreshold,
		log:              log,
	}
}

// HandleCheckoutCompleted runs the absent -> paid transition for a
// verified payment event. Insertion is conflict-guarded on the session
// id, so webhook redelivery and a row the submit fallback already
// created are both no-ops.
func (s *consultationServiceImpl) HandleCheckoutCompleted(ctx context.Context, sess *client.CheckoutSummary) error {
	if !sess.Paid {
		s.log.Warn("checkout completed event without paid status, skipping",
			zap.String("session_id", sess.SessionID))
		return nil
	}

	c := &model.Consultation{
		ID:              uuid.NewString(),
		StripeSessionID: sess.SessionID,
		Service:         model.ServiceForAmount(sess.AmountTotal, s.premiumThreshold),
		Amount:          model.AmountFromMinorUnits(sess.AmountTotal),
		Status:          model.StatusPaid,
		CustomerEmail:   sess.CustomerEmail,
	}

	if err := s.repo.CreatePaid(ctx, c); err != nil {
		return fmt.Errorf("create paid consultation: %w", err)
	}

	return nil
}

// FormAccess gates GET /form. Any lookup or verification failure denies
// access (fail closed): the caller redirects the visitor away instead of
// rendering an error page.
func (s *consultationServiceImpl) FormAccess(ctx context.Context, sessionID string) FormAccess {
	c, err := s.repo.FindBySessionID(ctx, sessionID)
	if err == nil {
		if c.Status == model.StatusPaid {
			return FormAccessQuestion
		}
		return FormAccessAlreadySubmitted
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Error("form access lookup failed", zap.String("session_id", sessionID), zap.Error(err))
		return FormAccessDenied
	}

	// Webhook may not have arrived yet: ask Stripe directly.
	sess, err := s.stripe.RetrieveSession(ctx, sessionID)
	if err != nil {
		s.log.Warn("form access stripe verification failed",
			zap.String("session_id", sessionID), zap.Error(err))
		return FormAccessDenied
	}
	if !sess.Paid {
		return FormAccessDenied
	}

	return FormAccessQuestion
}

// SubmitQuestion runs the paid -> submitted transition. The normal path
// is a single guarded update. When no row matched, either the session was
// already consumed (conflict) or the webhook is late: in the latter case
// payment is re-verified with Stripe and the row is synthesized directly
// in submitted status through a conflict-guarded upsert, using the same
// amount -> service derivation as the webhook path.
func (s *consultationServiceImpl) SubmitQuestion(ctx context.Context, req *dto.SubmitRequest) error {
	sub := &model.Submission{
		Name:            req.Name,
		Email:           req.Email,
		Birthdate:       req.Birthdate,
		PersonConcerned: req.PersonConcerned,
		Message:         req.Message,
	}

	ok, err := s.repo.TransitionToSubmitted(ctx, req.SessionID, sub)
	if err != nil {
		return fmt.Errorf("transition to submitted: %w", err)
	}
	if ok {
		return nil
	}

	existing, err := s.repo.FindBySessionID(ctx, req.SessionID)
	switch {
	case err == nil:
		if existing.Status != model.StatusPaid {
			return ErrAlreadySubmitted
		}
		// Webhook landed between the update and the lookup.
		ok, err := s.repo.TransitionToSubmitted(ctx, req.SessionID, sub)
		if err != nil {
			return fmt.Errorf("transition to submitted: %w", err)
		}
		if !ok {
			return ErrAlreadySubmitted
		}
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("find consultation by session: %w", err)
	}

	sess, err := s.stripe.RetrieveSession(ctx, req.SessionID)
	if err != nil {
		s.log.Warn("submit fallback stripe verification failed",
			zap.String("session_id", req.SessionID), zap.Error(err))
		return ErrPaymentNotVerified
	}
	if !sess.Paid {
		return ErrPaymentNotVerified
	}

	now := time.Now()
	c := &model.Consultation{
		ID:              uuid.NewString(),
		StripeSessionID: sess.SessionID,
		Service:         model.ServiceForAmount(sess.AmountTotal, s.premiumThreshold),
		Amount:          model.AmountFromMinorUnits(sess.AmountTotal),
		Status:          model.StatusSubmitted,
		CustomerEmail:   sess.CustomerEmail,
		Name:            sub.Name,
		Email:           sub.Email,
		Birthdate:       sub.Birthdate,
		PersonConcerned: sub.PersonConcerned,
		Message:         sub.Message,
		SubmittedAt:     &now,
	}

	ok, err = s.repo.UpsertSubmitted(ctx, c)
	if err != nil {
		return fmt.Errorf("upsert submitted consultation: %w", err)
	}
	if !ok {
		return ErrAlreadySubmitted
	}

	return nil
}

// Respond runs the submitted -> answered transition. The persisted
// update commits before any email attempt; a notification failure only
// degrades the result, it never rolls back the answer.
func (s *consultationServiceImpl) Respond(ctx context.Context, id, response string) (*RespondResult, error) {
	c, updated, err := s.repo.MarkAnswered(ctx, id, response)
	if err != nil {
		return nil, fmt.Errorf("mark answered: %w", err)
	}
	if !updated {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("find consultation: %w", err)
		}
		return nil, ErrNotAnswerable
	}

	to := c.Email
	if to == "" {
		to = c.CustomerEmail
	}

	if err := s.notifier.SendResponse(to, c.Name, response); err != nil {
		s.log.Error("response email delivery failed",
			zap.String("consultation_id", id), zap.Error(err))
		monitoring.EmailSends.WithLabelValues("failure").Inc()
		return &RespondResult{
			EmailSent: false,
			Message:   "Réponse enregistrée, mais l'email n'a pas pu être envoyé",
		}, nil
	}

	monitoring.EmailSends.WithLabelValues("success").Inc()
	return &RespondResult{
		EmailSent: true,
		Message:   "Réponse envoyée",
	}, nil
}

func (s *consultationServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete consultation: %w", err)
	}
	return nil
}

func (s *consultationServiceImpl) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("consultation stats: %w", err)
	}

	return &dto.StatsResponse{
		Total:    stats.Total,
		Pending:  stats.Pending,
		Answered: stats.Answered,
		Revenue:  stats.Revenue,
	}, nil
}

func (s *consultationServiceImpl) List(ctx context.Context) ([]*dto.ConsultationView, error) {
	consultations, err := s.repo.ListSubmitted(ctx)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}

	views := make([]*dto.ConsultationView, len(consultations))
	for i, c := range consultations {
		views[i] = &dto.ConsultationView{
			ID:              c.ID,
			Service:         c.Service,
			Amount:          c.Amount,
			Status:          c.Status,
			Name:            c.Name,
			Email:           c.Email,
			Birthdate:       c.Birthdate,
			PersonConcerned: c.PersonConcerned,
			Message:         c.Message,
			Response:        c.Response,
			SubmittedAt:     c.SubmittedAt,
			AnsweredAt:      c.AnsweredAt,
			CreatedAt:       c.CreatedAt,
		}
	}

	return views, nil
}
