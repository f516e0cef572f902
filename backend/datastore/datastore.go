// Package datastore keeps translation bundles in PostgreSQL.
package datastore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/rs/xid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pitabwire/lingo/localization"
)

// Translation is one message of a bundle.
type Translation struct {
	ID        string    `gorm:"type:varchar(50);primaryKey"`
	Language  string    `gorm:"type:varchar(35);not null;uniqueIndex:idx_translations_bundle_key,priority:1"`
	Namespace string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_translations_bundle_key,priority:2"`
	Key       string    `gorm:"type:varchar(512);not null;uniqueIndex:idx_translations_bundle_key,priority:3"`
	Value     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Translation) TableName() string {
	return "translations"
}

// BundleRef names a stored (language, namespace) pair.
type BundleRef struct {
	Language  string
	Namespace string
}

const upsertBatchSize = 200

// Backend reads and writes bundles through gorm.
type Backend struct {
	db *gorm.DB
}

var _ localization.Backend = (*Backend)(nil)

func New(db *gorm.DB) *Backend {
	return &Backend{db: db}
}

// Migrate creates or updates the translations table.
func (b *Backend) Migrate(ctx context.Context) error {
	return b.db.WithContext(ctx).AutoMigrate(&Translation{})
}

func (b *Backend) Read(ctx context.Context, language, namespace string) (localization.Messages, error) {
	var rows []Translation
	err := b.db.WithContext(ctx).
		Where("language = ? AND namespace = ?", language, namespace).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", language, namespace, err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", localization.ErrBundleNotFound, language, namespace)
	}

	messages := make(localization.Messages, len(rows))
	for _, row := range rows {
		messages[row.Key] = row.Value
	}
	return messages, nil
}

// Save upserts every message of the bundle, stored keys not in messages are kept.
func (b *Backend) Save(ctx context.Context, language, namespace string, messages localization.Messages) error {
	if len(messages) == 0 {
		return nil
	}

	keys := slices.Sorted(maps.Keys(messages))
	rows := make([]Translation, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, Translation{
			ID:        xid.New().String(),
			Language:  language,
			Namespace: namespace,
			Key:       key,
			Value:     messages[key],
		})
	}

	err := b.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "language"}, {Name: "namespace"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		CreateInBatches(&rows, upsertBatchSize).Error
	if err != nil {
		return fmt.Errorf("save %s/%s: %w", language, namespace, err)
	}
	return nil
}

// Delete removes a whole bundle.
func (b *Backend) Delete(ctx context.Context, language, namespace string) error {
	return b.db.WithContext(ctx).
		Where("language = ? AND namespace = ?", language, namespace).
		Delete(&Translation{}).Error
}

// Bundles lists the stored bundles ordered by language then namespace.
func (b *Backend) Bundles(ctx context.Context) ([]BundleRef, error) {
	var refs []BundleRef
	err := b.db.WithContext(ctx).
		Model(&Translation{}).
		Distinct("language", "namespace").
		Order("language, namespace").
		Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// Close releases the underlying connection pool.
func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
