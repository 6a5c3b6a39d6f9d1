package domain

import (
	"fmt"
	"time"
)

// ContactKind discriminates the two supported contact channels.
type ContactKind string

const (
	ContactEmail ContactKind = "email"
	ContactPhone ContactKind = "phone"
)

// Contact is a resolved contact identifier: exactly one kind, non-empty value.
type Contact struct {
	Kind  ContactKind
	Value string
}

func (c Contact) String() string { return c.Value }

// ContactRequest is the raw request shape: optional email and phone fields.
// Use Resolve to turn it into a Contact before reaching any service.
type ContactRequest struct {
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone"`
}

// Resolve picks the contact channel for this request. When both email and
// phone are present, email wins. Neither present fails with ErrMissingContact.
func (r ContactRequest) Resolve() (Contact, error) {
	if r.Email != nil && *r.Email != "" {
		return Contact{Kind: ContactEmail, Value: *r.Email}, nil
	}
	if r.Phone != nil && *r.Phone != "" {
		return Contact{Kind: ContactPhone, Value: *r.Phone}, nil
	}
	return Contact{}, fmt.Errorf("neither email nor phone provided: %w", ErrMissingContact)
}

// Identity binds a contact identifier to its verification state.
// PendingCode/CodeExpiresAt are set together while a code is outstanding;
// ExpiresAt is a Unix timestamp also usable as a DynamoDB TTL attribute.
type Identity struct {
	IdentityID    string    `json:"id" dynamodbav:"identity_id"`
	Email         *string   `json:"email,omitempty" dynamodbav:"email,omitempty"`
	Phone         *string   `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	PendingCode   *string   `json:"-" dynamodbav:"pending_code,omitempty"`
	CodeExpiresAt *int64    `json:"-" dynamodbav:"code_expires_at,omitempty"` // Unix seconds
	Verified      bool      `json:"verified" dynamodbav:"verified"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
}

// ContactValue returns whichever contact identifier is set on the identity.
func (i *Identity) ContactValue() string {
	if i.Email != nil && *i.Email != "" {
		return *i.Email
	}
	if i.Phone != nil {
		return *i.Phone
	}
	return ""
}
