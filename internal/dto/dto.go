package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubmitRequest struct {
	SessionID       string `json:"session_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Birthdate       string `json:"birthdate,omitempty"`
	PersonConcerned string `json:"person_concerned,omitempty"`
	Message         string `json:"message"`
}

type LoginRequest struct {
	Password string `json:"password"`
}

type RespondRequest struct {
	ID       string `json:"id"`
	Response string `json:"response"`
}

type RespondResponse struct {
	Success   bool   `json:"success"`
	EmailSent bool   `json:"emailSent"`
	Message   string `json:"message"`
}

type StatsResponse struct {
	Total    int64           `json:"total"`
	Pending  int64           `json:"pending"`
	Answered int64           `json:"answered"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type ConsultationView struct {
	ID              string          `json:"id"`
	Service         string          `json:"service"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Birthdate       string          `json:"birthdate,omitempty"`
	PersonConcerned string          `json:"person_concerned,omitempty"`
	Message         string          `json:"message"`
	Response        *string         `json:"response"`
	SubmittedAt     *time.Time      `json:"submitted_at"`
	AnsweredAt      *time.Time      `json:"answered_at"`
	CreatedAt       time.Time       `json:"created_at"`
}
