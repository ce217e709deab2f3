package domain

import "time"

// StatusLogEntry records a single status change on a lead. Entries are
// append-only: once written they are never mutated or deleted, and the ordered
// sequence per lead is the sole audit trail.
type StatusLogEntry struct {
	ID        string     `bson:"_id"`
	LeadID    string     `bson:"lead_id"`
	Status    LeadStatus `bson:"status"`
	Comment   string     `bson:"comment"`
	ChangedBy string     `bson:"changed_by"`
	ChangedAt time.Time  `bson:"changed_at"`
}
