package domain

import (
	"errors"
	"time"
)

// LeadStatus represents the pipeline state of a lead.
type LeadStatus string

const (
	StatusNew           LeadStatus = "New"
	StatusInterested    LeadStatus = "Interested"
	StatusNotInterested LeadStatus = "Not Interested"
	StatusPartial       LeadStatus = "Partial"
)

// validStatuses is the closed vocabulary of lead statuses. Extending it is a
// schema change, never a runtime decision.
var validStatuses = map[LeadStatus]struct{}{
	StatusNew:           {},
	StatusInterested:    {},
	StatusNotInterested: {},
	StatusPartial:       {},
}

var ErrInvalidStatus = errors.New("invalid lead status")
var ErrLeadNotFound = errors.New("lead not found")
var ErrForbidden = errors.New("access forbidden")

// ParseLeadStatus validates a candidate status against the closed vocabulary.
// Casing and spelling are part of the wire contract: "New", "Interested",
// "Not Interested", "Partial".
func ParseLeadStatus(candidate string) (LeadStatus, error) {
	s := LeadStatus(candidate)
	if _, ok := validStatuses[s]; !ok {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// Lead is the core aggregate root. Status-related fields are mutated
// exclusively through the status service; any valid status may transition to
// any other, including itself.
type Lead struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	Name         string     `json:"name" bson:"name"`
	Email        string     `json:"email" bson:"email"`
	Phone        string     `json:"phone" bson:"phone"`
	Source       string     `json:"source,omitempty" bson:"source,omitempty"`
	Course       string     `json:"course,omitempty" bson:"course,omitempty"`
	AssignedTo   string     `json:"assigned_to" bson:"assigned_to"`
	LeadStatus   LeadStatus `json:"lead_status" bson:"lead_status"`
	LastFollowUp time.Time  `json:"last_follow_up" bson:"last_follow_up"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}
