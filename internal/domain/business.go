package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LocalBusiness is a candidate contact produced by discovery.
type LocalBusiness struct {
	ID           string
	Name         string
	Phone        string
	Address      string
	City         string
	State        string
	ZipCode      string
	Industry     string
	BusinessType string
	Website      string
	Email        string
	Rating       float64
	ReviewCount  int
	Verified     bool
}

// Location renders "city, state", or whichever part is known.
func (b LocalBusiness) Location() string {
	switch {
	case b.City != "" && b.State != "":
		return fmt.Sprintf("%s, %s", b.City, b.State)
	case b.City != "":
		return b.City
	default:
		return b.State
	}
}

// Context builds the conversation context snapshot for a call to b.
func (b LocalBusiness) Context() BusinessContext {
	known := ""
	if b.Website != "" {
		known = "website: " + b.Website
	}
	return BusinessContext{
		CompanyName:  b.Name,
		Industry:     b.Industry,
		Location:     b.Location(),
		BusinessType: b.BusinessType,
		KnownInfo:    known,
	}
}

// ContactStatus is where a contact stands after being called.
type ContactStatus string

const (
	ContactStatusNew           ContactStatus = "new"
	ContactStatusLead          ContactStatus = "lead"
	ContactStatusNotInterested ContactStatus = "not-interested"
)

// Contact is a called business tracked across campaigns, keyed by phone.
type Contact struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Company   string
	Industry  string
	Location  string
	Status    ContactStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
