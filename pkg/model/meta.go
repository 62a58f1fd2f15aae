// Package model defines the draft, dictionary and audit entities managed by
// the ledger core.
package model

import "time"

// Meta holds the audit fields shared by every persisted entity.
// Version starts at 1 and increases by exactly 1 on every mutation.
type Meta struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditMeta returns the embedded audit fields. It exists so the generic
// repository can manage identity and versioning without knowing the entity.
func (m *Meta) AuditMeta() *Meta {
	return m
}
