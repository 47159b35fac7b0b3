package storage

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressRecord is one persisted slot: a storage key and its JSON payload.
// Concurrent writers to the same key do last-writer-wins on the row.
type ProgressRecord struct {
	gorm.Model
	StorageKey string `gorm:"uniqueIndex;not null"`
	Payload    []byte `gorm:"type:jsonb"`
}

// Gorm persists slots in a progress_records table.
type Gorm struct {
	DB *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{DB: db}
}

func (g *Gorm) Get(key string) ([]byte, error) {
	var record ProgressRecord
	if err := g.DB.Where("storage_key = ?", key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record.Payload, nil
}

func (g *Gorm) Set(key string, value []byte) error {
	record := ProgressRecord{StorageKey: key, Payload: value}
	return g.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&record).Error
}

func (g *Gorm) Remove(key string) error {
	return g.DB.Where("storage_key = ?", key).Delete(&ProgressRecord{}).Error
}
