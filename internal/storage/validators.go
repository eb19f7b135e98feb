package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"appscheme/internal/network"
	"appscheme/pkg/traffic"
)

// ValidatorStore 基于 SQLite 的 network.ValidatorStore
type ValidatorStore struct {
	db *gorm.DB
}

func NewValidatorStore(db *gorm.DB) *ValidatorStore {
	return &ValidatorStore{db: db}
}

func (s *ValidatorStore) Load(ctx context.Context, url string) (network.Validator, bool, error) {
	var rec ValidatorRecord
	err := s.db.WithContext(ctx).Where("url = ?", url).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return network.Validator{}, false, nil
	}
	if err != nil {
		return network.Validator{}, false, fmt.Errorf("load validator: %w", err)
	}
	h := make(traffic.Header)
	if len(rec.Header) > 0 {
		if err := json.Unmarshal(rec.Header, &h); err != nil {
			return network.Validator{}, false, fmt.Errorf("decode validator header: %w", err)
		}
	}
	return network.Validator{
		ETag:     rec.ETag,
		Status:   rec.Status,
		Header:   h,
		Body:     rec.Body,
		StoredAt: rec.UpdatedAt,
	}, true, nil
}

func (s *ValidatorStore) Save(ctx context.Context, url string, v network.Validator) error {
	header, err := json.Marshal(v.Header)
	if err != nil {
		return fmt.Errorf("encode validator header: %w", err)
	}
	rec := ValidatorRecord{URL: url, ETag: v.ETag, Status: v.Status, Header: header, Body: v.Body}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
		return fmt.Errorf("save validator: %w", err)
	}
	return nil
}
