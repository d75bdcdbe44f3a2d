package domain

import "time"

// Record carries the identity and timestamps shared by persisted entities.
// ID is empty until the entity has been assigned one.
type Record struct {
	ID        string    `json:"id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new entity.
func (r *Record) InitTimestamps(now time.Time) {
	r.CreatedAt = now
	r.UpdatedAt = now
}

// Touch stamps UpdatedAt. Call this whenever the entity changes.
func (r *Record) Touch(now time.Time) {
	r.UpdatedAt = now
}
