package service

import (
	"context"
	"errors"
	"time"

	"voyance-backend/internal/client"
	"voyance-backend/internal/model"
	"voyance-backend/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v83"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory ConsultationRepository reproducing the
// row-level guard semantics of the real one.
type fakeRepo struct {
	rows    map[string]*model.Consultation // keyed by session id
	failAll bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[string]*model.Consultation)}
}

var errStoreDown = errors.New("store unreachable")

func (r *fakeRepo) CreatePaid(_ context.Context, c *model.Consultation) error {
	if r.failAll {
		return errStoreDown
	}
	if _, exists := r.rows[c.StripeSessionID]; exists {
		return nil // ON CONFLICT DO NOTHING
	}
	cp := *c
	cp.CreatedAt = time.Now()
	r.rows[c.StripeSessionID] = &cp
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*model.Consultation, error) {
	if r.failAll {
		return nil, errStoreDown
	}
	for _, c := range r.rows {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) FindBySessionID(_ context.Context, sessionID string) (*model.Consultation, error) {
	if r.failAll {
		return nil, errStoreDown
	}
	c, ok := r.rows[sessionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeRepo) TransitionToSubmitted(_ context.Context, sessionID string, sub *model.Submission) (bool, error) {
	if r.failAll {
		return false, errStoreDown
	}
	c, ok := r.rows[sessionID]
	if !ok || c.Status != model.StatusPaid {
		return false, nil
	}
	now := time.Now()
	c.Status = model.StatusSubmitted
	c.Name = sub.Name
	c.Email = sub.Email
	c.Birthdate = sub.Birthdate
	c.PersonConcerned = sub.PersonConcerned
	c.Message = sub.Message
	c.SubmittedAt = &now
	return true, nil
}

func (r *fakeRepo) UpsertSubmitted(_ context.Context, c *model.Consultation) (bool, error) {
	if r.failAll {
		return false, errStoreDown
	}
	existing, ok := r.rows[c.StripeSessionID]
	if !ok {
		cp := *c
		cp.CreatedAt = time.Now()
		r.rows[c.StripeSessionID] = &cp
		return true, nil
	}
	if existing.Status != model.StatusPaid {
		return false, nil // DO UPDATE ... WHERE status='paid' matched nothing
	}
	now := time.Now()
	existing.Status = model.StatusSubmitted
	existing.Name = c.Name
	existing.Email = c.Email
	existing.Birthdate = c.Birthdate
	existing.PersonConcerned = c.PersonConcerned
	existing.Message = c.Message
	existing.SubmittedAt = &now
	return true, nil
}

func (r *fakeRepo) MarkAnswered(_ context.Context, id string, response string) (*model.Consultation, bool, error) {
	if r.failAll {
		return nil, false, errStoreDown
	}
	for _, c := range r.rows {
		if c.ID != id {
			continue
		}
		if c.Status != model.StatusSubmitted && c.Status != model.StatusAnswered {
			return nil, false, nil
		}
		now := time.Now()
		resp := response
		c.Status = model.StatusAnswered
		c.Response = &resp
		c.AnsweredAt = &now
		cp := *c
		return &cp, true, nil
	}
	return nil, false, nil
}

func (r *fakeRepo) ListSubmitted(_ context.Context) ([]*model.Consultation, error) {
	if r.failAll {
		return nil, errStoreDown
	}
	var out []*model.Consultation
	for _, c := range r.rows {
		if c.Status == model.StatusSubmitted || c.Status == model.StatusAnswered {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) Stats(_ context.Context) (*repository.Stats, error) {
	if r.failAll {
		return nil, errStoreDown
	}
	stats := &repository.Stats{Revenue: decimal.Zero}
	for _, c := range r.rows {
		switch c.Status {
		case model.StatusSubmitted:
			stats.Pending++
		case model.StatusAnswered:
			stats.Answered++
		default:
			continue
		}
		stats.Total++
		stats.Revenue = stats.Revenue.Add(c.Amount)
	}
	return stats, nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	if r.failAll {
		return errStoreDown
	}
	for sessionID, c := range r.rows {
		if c.ID == id {
			delete(r.rows, sessionID)
			return nil
		}
	}
	return nil
}

// fakeStripe serves canned checkout summaries keyed by session id.
type fakeStripe struct {
	sessions map[string]*client.CheckoutSummary
	err      error
	calls    int
}

func (f *fakeStripe) VerifyWebhook(_ []byte, _ string) (stripe.Event, error) {
	return stripe.Event{}, errors.New("not used by service tests")
}

func (f *fakeStripe) RetrieveSession(_ context.Context, sessionID string) (*client.CheckoutSummary, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, errors.New("no such session")
	}
	return sess, nil
}

// fakeNotifier records sends and can be forced to fail.
type fakeNotifier struct {
	err  error
	sent []sentMail
}

type sentMail struct {
	to, name, response string
}

func (f *fakeNotifier) SendResponse(to, name, responseText string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, name, responseText})
	return nil
}
