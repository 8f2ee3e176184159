package model

import "github.com/google/uuid"

// MessageTemplate holds the subject/body for one cadence step. Placeholders
// use {{name}} syntax and are substituted by the template service.
type MessageTemplate struct {
	Base
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	Code           string    `db:"code" json:"code"`
	Subject        string    `db:"subject" json:"subject"`
	Body           string    `db:"body" json:"body"`
	Active         bool      `db:"active" json:"active"`
}
