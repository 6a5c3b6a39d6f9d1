package domain

import "time"

// Consultation statuses.
const ConsultationStatusPending = "pending"

type Consultation struct {
	ConsultationID string    `json:"id" dynamodbav:"consultation_id"`
	IdentityID     string    `json:"user_id" dynamodbav:"identity_id"`
	Date           string    `json:"date" dynamodbav:"date"` // YYYY-MM-DD
	Time           string    `json:"time" dynamodbav:"time"` // HH:MM
	Description    string    `json:"description" dynamodbav:"description"`
	Status         string    `json:"status" dynamodbav:"status"`
	CreatedAt      time.Time `json:"created_at" dynamodbav:"created_at"`
}

type CreateConsultationRequest struct {
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time" validate:"required"`
	Description string `json:"description"`
}
