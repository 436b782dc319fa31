package idempotency

import (
	"context"
	"time"
)

// Record is one claimed key. Response fields are set once the request finishes.
type Record struct {
	ID          uint   `gorm:"primaryKey"`
	Service     string `gorm:"column:service_id;size:100;not null;uniqueIndex:idx_idempotency_service_key,priority:1"`
	Key         string `gorm:"column:idempotency_key;size:255;not null;uniqueIndex:idx_idempotency_service_key,priority:2"`
	Method      string `gorm:"column:request_method;size:10;not null"`
	Path        string `gorm:"column:request_path;size:255;not null"`
	Fingerprint string `gorm:"column:request_fingerprint;size:64;not null"`

	LockedAt *time.Time

	ResponseCode    int
	ResponseBody    []byte
	ResponseHeaders map[string]string `gorm:"type:text;serializer:json"`

	CreatedAt   time.Time
	CompletedAt *time.Time
	ExpiresAt   time.Time `gorm:"not null;index"`
}

func (Record) TableName() string {
	return "idempotency_keys"
}

// Completed reports whether a response is stored
func (r *Record) Completed() bool {
	return r.CompletedAt != nil
}

// HeldSince returns how long the in-flight request has held the key.
// The second value is false when nothing holds it.
func (r *Record) HeldSince(now time.Time) (time.Duration, bool) {
	if r.LockedAt == nil || r.CompletedAt != nil {
		return 0, false
	}
	return now.Sub(*r.LockedAt), true
}

// Response is what gets replayed
type Response struct {
	Status  int
	Body    []byte
	Headers map[string]string
}

// Store persists records. Claim must be atomic per (service, key).
type Store interface {
	// Claim inserts r unless the key already exists and returns the stored row.
	// The boolean is true when this call inserted it.
	Claim(ctx context.Context, r *Record) (*Record, bool, error)
	// Reclaim takes over a stale in-flight record
	Reclaim(ctx context.Context, id uint) error
	// Release forgets the record so the client can retry
	Release(ctx context.Context, id uint) error
	Complete(ctx context.Context, id uint, resp Response) error
	Find(ctx context.Context, service, key string) (*Record, error)
	// Purge deletes records that expired before the given time
	Purge(ctx context.Context, before time.Time) (int64, error)
}
