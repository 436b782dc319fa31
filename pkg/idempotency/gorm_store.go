package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps records in the idempotency_keys table next to the fuel tables
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates idempotency_keys and its (service_id, idempotency_key) unique index
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Record{})
}

func (s *GormStore) Claim(ctx context.Context, r *Record) (*Record, bool, error) {
	now := time.Now().UTC()
	r.LockedAt = &now

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "service_id"}, {Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(r)
	if res.Error != nil {
		return nil, false, fmt.Errorf("claim idempotency key: %w", res.Error)
	}

	stored, err := s.Find(ctx, r.Service, r.Key)
	if err != nil {
		return nil, false, err
	}
	return stored, res.RowsAffected == 1, nil
}

func (s *GormStore) Reclaim(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).
		Model(&Record{}).
		Where("id = ? AND completed_at IS NULL", id).
		Update("locked_at", time.Now().UTC()).Error
}

func (s *GormStore) Release(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&Record{}, id).Error
}

func (s *GormStore) Complete(ctx context.Context, id uint, resp Response) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&Record{ID: id}).
		Select("ResponseCode", "ResponseBody", "ResponseHeaders", "CompletedAt", "LockedAt").
		Updates(&Record{
			ResponseCode:    resp.Status,
			ResponseBody:    resp.Body,
			ResponseHeaders: resp.Headers,
			CompletedAt:     &now,
		})
	switch {
	case res.Error != nil:
		return res.Error
	case res.RowsAffected == 0:
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Find(ctx context.Context, service, key string) (*Record, error) {
	var r Record
	err := s.db.WithContext(ctx).
		Where("service_id = ? AND idempotency_key = ?", service, key).
		Take(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *GormStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&Record{})
	return res.RowsAffected, res.Error
}
