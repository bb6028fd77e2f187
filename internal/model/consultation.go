package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Consultation status lifecycle. Forward-only: paid -> submitted -> answered.
const (
	StatusPaid      = "paid"
	StatusSubmitted = "submitted"
	StatusAnswered  = "answered"
)

// Service labels derived from the paid amount.
const (
	ServicePremium  = "Consultation Ressenti"
	ServiceStandard = "Question Simple"
)

type Consultation struct {
	ID              string          `gorm:"primaryKey;size:36;not null"` // uuid
	StripeSessionID string          `gorm:"size:128;uniqueIndex;not null"`
	Service         string          `gorm:"size:64;not null"`
	Amount          decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Status          string          `gorm:"size:16;index;not null;check:chk_consultations_status,status IN ('paid','submitted','answered')"`
	CustomerEmail   string          `gorm:"size:255"`

	// Filled at the submitted transition.
	Name            string `gorm:"size:128"`
	Email           string `gorm:"size:255"`
	Birthdate       string `gorm:"size:32"`
	PersonConcerned string `gorm:"size:128"`
	Message         string `gorm:"type:text"`

	// Filled at the answered transition.
	Response   *string `gorm:"type:text"`
	AnsweredAt *time.Time

	SubmittedAt *time.Time
	CreatedAt   time.Time
}

// Submission carries the customer form fields applied at the
// paid -> submitted transition.
type Submission struct {
	Name            string
	Email           string
	Birthdate       string
	PersonConcerned string
	Message         string
}

// ServiceForAmount maps a Stripe amount (minor currency units) to a
// service label. Both the webhook path and the submit-fallback path go
// through this function so the same session can never get two labels.
func ServiceForAmount(minorUnits, premiumThreshold int64) string {
	if minorUnits >= premiumThreshold {
		return ServicePremium
	}
	return ServiceStandard
}

// AmountFromMinorUnits converts Stripe's integer amount to decimal
// currency units (1500 -> 15.00).
func AmountFromMinorUnits(minorUnits int64) decimal.Decimal {
	return decimal.NewFromInt(minorUnits).Shift(-2)
}
