// Package contact provides vendor (AP-NNN) and customer (AR-NNN) contacts.
package contact

import (
	"context"
	"regexp"
	"strings"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/identifier"
)

var (
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRE = regexp.MustCompile(`^\+?[0-9 ()-]{7,20}$`)
)

// Kind separates payables from receivables contacts.
type Kind string

const (
	KindVendor   Kind = "vendor"
	KindCustomer Kind = "customer"
)

// Contact is a vendor or customer the office deals with.
type Contact struct {
	entity.BaseRecord

	Kind Kind   `db:"kind" json:"kind"`
	Name string `db:"name" json:"name"`

	Email *string `db:"email" json:"email,omitempty"`
	Phone *string `db:"phone" json:"phone,omitempty"`

	// TaxID is unique per kind when present
	TaxID *string `db:"tax_id" json:"taxId,omitempty"`
}

// NewContact creates a contact with required fields.
func NewContact(kind Kind, name string) *Contact {
	return &Contact{
		BaseRecord: entity.NewBaseRecord(),
		Kind:       kind,
		Name:       strings.TrimSpace(name),
	}
}

// Family implements domain.Referenced.
func (c *Contact) Family() identifier.Family {
	if c.Kind == KindCustomer {
		return identifier.Families[identifier.CustomerContact]
	}
	return identifier.Families[identifier.VendorContact]
}

// Validate implements entity.Validatable interface.
func (c *Contact) Validate(ctx context.Context) error {
	if c.Kind != KindVendor && c.Kind != KindCustomer {
		return apperror.NewValidation("invalid contact kind").
			WithDetail("field", "kind").
			WithDetail("value", string(c.Kind))
	}
	if c.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if len(c.Name) > 200 {
		return apperror.NewValidation("name is too long").WithDetail("field", "name")
	}
	if c.Email != nil && *c.Email != "" && !emailRE.MatchString(*c.Email) {
		return apperror.NewValidation("invalid email format").WithDetail("field", "email")
	}
	if c.Phone != nil && *c.Phone != "" && !phoneRE.MatchString(*c.Phone) {
		return apperror.NewValidation("invalid phone number").WithDetail("field", "phone")
	}
	return nil
}
