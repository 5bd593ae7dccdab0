// Package postgres implements store.Store with a direct connection to the
// Postgres database behind a Supabase project (or any Postgres carrying the
// same schema), using GORM over pgx.
//
// Unlike the REST adapter there is no row-level security between the client
// and the data, so every query carries the owner constraint explicitly.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mschirtzinger/jobtrack/internal/store"
	"github.com/mschirtzinger/jobtrack/internal/types"
)

// Store is a GORM-backed store.Store.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to the database at dsn.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return &Store{db: db}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close postgres: %w", err)
	}
	return nil
}

// List returns the owner's applications, newest date_applied first.
func (s *Store) List(ctx context.Context, owner string) ([]types.Application, error) {
	var models []applicationModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", owner).
		Order("date_applied DESC").
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	apps := make([]types.Application, len(models))
	for i := range models {
		apps[i] = models[i].application()
	}
	return apps, nil
}

// Insert creates an application for owner.
func (s *Store) Insert(ctx context.Context, owner string, draft types.Draft) (types.Application, error) {
	m, err := newApplicationModel(owner, draft)
	if err != nil {
		return types.Application{}, err
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return types.Application{}, fmt.Errorf("failed to insert application: %w", err)
	}
	return m.application(), nil
}

// Update applies patch to the owner's row id and returns the stored row.
func (s *Store) Update(ctx context.Context, owner, id string, patch types.Patch) (types.Application, error) {
	values := patchValues(patch)
	if len(values) == 0 {
		return types.Application{}, fmt.Errorf("patch has no fields to update")
	}

	var m applicationModel
	res := s.db.WithContext(ctx).
		Model(&m).
		Clauses(clause.Returning{}).
		Where("id = ? AND user_id = ?", id, owner).
		Updates(values)
	if res.Error != nil {
		return types.Application{}, fmt.Errorf("failed to update application %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return types.Application{}, types.ErrNoMatch
	}
	return m.application(), nil
}

// Delete removes the owner's row id.
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, owner).
		Delete(&applicationModel{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete application %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return types.ErrNoMatch
	}
	return nil
}

// Analytics returns the owner's summary, or nil when none exists.
func (s *Store) Analytics(ctx context.Context, owner string) (*types.Analytics, error) {
	var m analyticsModel
	err := s.db.WithContext(ctx).Where("user_id = ?", owner).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch analytics: %w", err)
	}
	return m.analytics(), nil
}
