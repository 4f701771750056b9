// Package rental defines the marketplace entities shared by every layer.
package rental

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RentalType describes how a property is let.
type RentalType string

const (
	RentalFurnished   RentalType = "furnished"
	RentalUnfurnished RentalType = "unfurnished"
	RentalColocation  RentalType = "colocation"
)

// SourceType identifies where a property listing came from.
type SourceType string

const (
	SourceSeed SourceType = "seed"
	SourceAPI  SourceType = "api"
	SourceRSS  SourceType = "rss"
	SourceHTML SourceType = "html"
)

// Property is a rental listing.
type Property struct {
	ID          string     `json:"id" db:"id"`
	LandlordID  string     `json:"landlord_id" db:"landlord_id"`
	Name        string     `json:"name" db:"name"`
	Price       float64    `json:"price" db:"price"`
	Currency    string     `json:"currency" db:"currency"`
	Rooms       int        `json:"rooms" db:"rooms"`
	Location    string     `json:"location" db:"location"`
	Description string     `json:"description" db:"description"`
	Amenities   []string   `json:"amenities" db:"-"`
	Images      []string   `json:"images" db:"-"`
	RentalType  RentalType `json:"rental_type" db:"rental_type"`
	Source      SourceType `json:"source" db:"source"`
	ExternalID  string     `json:"external_id,omitempty" db:"external_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	AmenitiesJSON string `json:"-" db:"amenities"`
	ImagesJSON    string `json:"-" db:"images"`
}

// Role distinguishes tenants from landlords.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
)

// TenantProfile is the subset of a user profile the matching rules read.
// Zero numbers and blank strings mean the field was never filled in.
type TenantProfile struct {
	ID                string  `json:"id" db:"id"`
	Role              Role    `json:"role" db:"role"`
	FirstName         string  `json:"first_name" db:"first_name"`
	LastName          string  `json:"last_name" db:"last_name"`
	Email             string  `json:"email" db:"email"`
	Income            float64 `json:"income,omitempty" db:"income"`
	BudgetMin         float64 `json:"budget_min,omitempty" db:"budget_min"`
	BudgetMax         float64 `json:"budget_max,omitempty" db:"budget_max"`
	PreferredLocation string  `json:"preferred_location,omitempty" db:"preferred_location"`
	Age               int     `json:"age,omitempty" db:"age"`
	Bio               string  `json:"bio,omitempty" db:"bio"`
	Profession        string  `json:"profession,omitempty" db:"profession"`
}

// FullName joins first and last name.
func (t TenantProfile) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// Validate rejects negative numbers. The scorers assume they never see one.
func (t TenantProfile) Validate() error {
	switch {
	case t.Income < 0:
		return errors.New("income must be >= 0")
	case t.BudgetMin < 0, t.BudgetMax < 0:
		return errors.New("budget must be >= 0")
	case t.Age < 0:
		return errors.New("age must be >= 0")
	}
	return nil
}

// Status is the lifecycle state of an application.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ErrInvalidTransition is returned for a status change the workflow does not allow.
var ErrInvalidTransition = errors.New("invalid status transition")

var transitions = map[Status][]Status{
	StatusDraft:   {StatusPending},
	StatusPending: {StatusApproved, StatusRejected},
}

// ParseStatus converts user input into a known Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Application is a tenant's request to rent a property.
type Application struct {
	ID         string    `json:"id" db:"id"`
	PropertyID string    `json:"property_id" db:"property_id"`
	TenantID   string    `json:"tenant_id" db:"tenant_id"`
	Status     Status    `json:"status" db:"status"`
	Message    string    `json:"message,omitempty" db:"message"`
	Alerted    bool      `json:"alerted" db:"alerted"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Transition moves the application to the next status.
func (a *Application) Transition(to Status, now time.Time) error {
	if !CanTransition(a.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	a.Status = to
	a.UpdatedAt = now
	return nil
}
