package storage

import (
	"time"
)

// Fingerprint is the last applied definition of a primitive
type Fingerprint struct {
	Resource  string    `json:"resource"`
	Hash      uint64    `json:"hash"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Migration records a one-shot migration that has completed
type Migration struct {
	Name        string    `json:"name"`
	CompletedAt time.Time `json:"completed_at"`
}

// Store defines the interface for the per-unit state that must survive
// between hook invocations
type Store interface {
	// Previously applied configuration values
	PreviousValue(key string) (string, bool, error)
	SetPreviousValue(key, value string) error

	// Resource definition fingerprints
	GetFingerprint(resource string) (*Fingerprint, error)
	PutFingerprint(fp *Fingerprint) error
	DeleteFingerprint(resource string) error
	ListFingerprints() ([]*Fingerprint, error)

	// One-shot migrations
	GetMigration(name string) (*Migration, error)
	MarkMigration(name string) error

	// Utility
	Close() error
}
