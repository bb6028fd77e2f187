package repository

import (
	"context"
	"time"

	"voyance-backend/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Stats struct {
	Total    int64
	Pending  int64
	Answered int64
	Revenue  decimal.Decimal
}

type ConsultationRepository interface {
	CreatePaid(ctx context.Context, c *model.Consultation) error
	FindByID(ctx context.Context, id string) (*model.Consultation, error)
	FindBySessionID(ctx context.Context, sessionID string) (*model.Consultation, error)
	TransitionToSubmitted(ctx context.Context, sessionID string, sub *model.Submission) (bool, error)
	UpsertSubmitted(ctx context.Context, c *model.Consultation) (bool, error)
	MarkAnswered(ctx context.Context, id string, response string) (*model.Consultation, bool, error)
	ListSubmitted(ctx context.Context) ([]*model.Consultation, error)
	Stats(ctx context.Context) (*Stats, error)
	Delete(ctx context.Context, id string) error
}

type consultationRepoImpl struct {
	db *gorm.DB
}

func NewConsultationRepository(db *gorm.DB) ConsultationRepository {
	return &consultationRepoImpl{
		db: db,
	}
}

// CreatePaid inserts the paid row created by the payment webhook. The
// conflict target is the unique session id: a redelivered webhook, or a
// row the submit fallback already created, leaves the existing row
// untouched so status never regresses.
func (r *consultationRepoImpl) CreatePaid(ctx context.Context, c *model.Consultation) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_session_id"}},
		DoNothing: true,
	}).Create(c).Error
}

func (r *consultationRepoImpl) FindByID(ctx context.Context, id string) (*model.Consultation, error) {
	var c model.Consultation
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&c).Error

	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *consultationRepoImpl) FindBySessionID(ctx context.Context, sessionID string) (*model.Consultation, error) {
	var c model.Consultation
	err := r.db.WithContext(ctx).
		Where("stripe_session_id = ?", sessionID).
		First(&c).Error

	if err != nil {
		return nil, err
	}

	return &c, nil
}

// TransitionToSubmitted applies the customer form to a row still in paid
// status. The status guard in the WHERE clause makes the transition
// atomic: zero rows affected means the row is absent or already past
// paid.
func (r *consultationRepoImpl) TransitionToSubmitted(ctx context.Context, sessionID string, sub *model.Submission) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Consultation{}).
		Where("stripe_session_id = ? AND status = ?", sessionID, model.StatusPaid).
		Updates(map[string]interface{}{
			"status":           model.StatusSubmitted,
			"name":             sub.Name,
			"email":            sub.Email,
			"birthdate":        sub.Birthdate,
			"person_concerned": sub.PersonConcerned,
			"message":          sub.Message,
			"submitted_at":     time.Now(),
		})

	return result.RowsAffected > 0, result.Error
}

// UpsertSubmitted handles the webhook race: the caller has re-verified
// payment with Stripe and synthesizes the row directly in submitted
// status. If the webhook wins the race and inserts first, the conflict
// branch upgrades that row instead, but only while it is still paid.
// Zero rows affected means a concurrent submission already went through.
func (r *consultationRepoImpl) UpsertSubmitted(ctx context.Context, c *model.Consultation) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_session_id"}},
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Eq{Column: clause.Column{Table: "consultations", Name: "status"}, Value: model.StatusPaid},
		}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":           model.StatusSubmitted,
			"name":             c.Name,
			"email":            c.Email,
			"birthdate":        c.Birthdate,
			"person_concerned": c.PersonConcerned,
			"message":          c.Message,
			"submitted_at":     c.SubmittedAt,
		}),
	}).Create(c)

	return result.RowsAffected > 0, result.Error
}

// MarkAnswered stores the admin response. Restricted to rows in
// submitted or answered status: re-answering overwrites the previous
// response, answering a row that never passed submitted is refused.
func (r *consultationRepoImpl) MarkAnswered(ctx context.Context, id string, response string) (*model.Consultation, bool, error) {
	var c model.Consultation
	updated := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Consultation{}).
			Where("id = ? AND status IN ?", id, []string{model.StatusSubmitted, model.StatusAnswered}).
			Updates(map[string]interface{}{
				"status":      model.StatusAnswered,
				"response":    response,
				"answered_at": time.Now(),
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		updated = true

		return tx.Where("id = ?", id).First(&c).Error
	})

	if err != nil || !updated {
		return nil, false, err
	}

	return &c, true, nil
}

func (r *consultationRepoImpl) ListSubmitted(ctx context.Context) ([]*model.Consultation, error) {
	var consultations []*model.Consultation
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{model.StatusSubmitted, model.StatusAnswered}).
		Order("submitted_at DESC").
		Find(&consultations).Error

	if err != nil {
		return nil, err
	}

	return consultations, nil
}

func (r *consultationRepoImpl) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Revenue: decimal.Zero}
	answerable := []string{model.StatusSubmitted, model.StatusAnswered}

	err := r.db.WithContext(ctx).Model(&model.Consultation{}).
		Where("status IN ?", answerable).
		Count(&stats.Total).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(&model.Consultation{}).
		Where("status = ?", model.StatusSubmitted).
		Count(&stats.Pending).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(&model.Consultation{}).
		Where("status = ?", model.StatusAnswered).
		Count(&stats.Answered).Error
	if err != nil {
		return nil, err
	}

	row := r.db.WithContext(ctx).Model(&model.Consultation{}).
		Where("status IN ?", answerable).
		Select("COALESCE(SUM(amount), 0)").
		Row()
	if err := row.Scan(&stats.Revenue); err != nil {
		return nil, err
	}

	return stats, nil
}

// Delete is idempotent: removing an id that no longer exists is not an
// error.
func (r *consultationRepoImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Consultation{}).Error
}
