package cachestorage

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQL persists caches in a GORM database so precached assets survive restarts.
type SQL struct {
	db *gorm.DB
}

type cacheRecord struct {
	Name      string    `gorm:"column:name;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	Seq       int64     `gorm:"column:seq;not null;index"`
}

func (cacheRecord) TableName() string { return "cache_storage_caches" }

type entryRecord struct {
	CacheName string      `gorm:"column:cache_name;primaryKey"`
	Key       string      `gorm:"column:request_key;primaryKey"`
	Status    int         `gorm:"column:status;not null"`
	Header    http.Header `gorm:"column:header;serializer:json"`
	Body      []byte      `gorm:"column:body"`
	StoredAt  time.Time   `gorm:"column:stored_at;not null"`
}

func (entryRecord) TableName() string { return "cache_storage_entries" }

// NewSQL creates the cache tables when absent. The caller owns db.
func NewSQL(ctx context.Context, db *gorm.DB) (*SQL, error) {
	if db == nil {
		return nil, errors.New("cache storage database is nil")
	}
	if err := db.WithContext(ctx).AutoMigrate(&cacheRecord{}, &entryRecord{}); err != nil {
		return nil, err
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Open(ctx context.Context, name string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return openCache(tx, name)
	})
}

func (s *SQL) Put(ctx context.Context, name string, entry Entry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := openCache(tx, name); err != nil {
			return err
		}
		rec := entryRecord{
			CacheName: name,
			Key:       entry.Key,
			Status:    entry.Status,
			Header:    entry.Header,
			Body:      entry.Body,
			StoredAt:  entry.StoredAt,
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error
	})
}

func (s *SQL) Match(ctx context.Context, key string) (Entry, bool, error) {
	var rec entryRecord
	err := s.db.WithContext(ctx).
		Joins("JOIN cache_storage_caches ON cache_storage_caches.name = cache_storage_entries.cache_name").
		Where("cache_storage_entries.request_key = ?", key).
		Order("cache_storage_caches.seq ASC").
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return Entry{
		Key:      rec.Key,
		Status:   rec.Status,
		Header:   rec.Header,
		Body:     rec.Body,
		StoredAt: rec.StoredAt,
	}, true, nil
}

func (s *SQL) Names(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&cacheRecord{}).Order("seq ASC").Pluck("name", &names).Error
	return names, err
}

func (s *SQL) Delete(ctx context.Context, name string) (bool, error) {
	var existed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cache_name = ?", name).Delete(&entryRecord{}).Error; err != nil {
			return err
		}
		result := tx.Where("name = ?", name).Delete(&cacheRecord{})
		if result.Error != nil {
			return result.Error
		}
		existed = result.RowsAffected > 0
		return nil
	})
	return existed, err
}

func openCache(tx *gorm.DB, name string) error {
	var count int64
	if err := tx.Model(&cacheRecord{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	var maxSeq int64
	if err := tx.Model(&cacheRecord{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
		return err
	}
	return tx.Create(&cacheRecord{Name: name, CreatedAt: time.Now().UTC(), Seq: maxSeq + 1}).Error
}

var _ Storage = (*SQL)(nil)
