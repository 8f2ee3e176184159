package model

import "github.com/google/uuid"

// Contact is read-only from the cadence engine's perspective. A contact with
// no email address forces email steps onto the fallback task path.
type Contact struct {
	Base
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	Email          *string   `db:"email" json:"email,omitempty"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	Company        string    `db:"company" json:"company"`
}
