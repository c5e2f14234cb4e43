// Package storage records generator runs using GORM and SQLite
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Sentinel errors following Dave Cheney's principle: define errors as values
var (
	ErrNilGeneration = errors.New("generation cannot be nil")
	ErrNotFound      = errors.New("generation not found")
)

// Generation is one invocation of the project generator.
type Generation struct {
	ID uint `gorm:"primaryKey"`

	Target     string `gorm:"not null;index:idx_target_api"`
	API        string `gorm:"not null;index:idx_target_api"`
	Platform   string `gorm:"not null"`
	Arch       string `gorm:"not null"`
	Action     string `gorm:"not null"`
	Executable string `gorm:"not null"`

	ExitCode     int
	DurationMs   int64
	ErrorMessage string

	CreatedAt time.Time `gorm:"index"`
}

// Succeeded reports whether the generator exited cleanly.
func (g *Generation) Succeeded() bool {
	return g.ExitCode == 0 && g.ErrorMessage == ""
}

// Store defines the interface for generation history operations
type Store interface {
	Close() error
	RecordGeneration(*Generation) error
	LastGeneration(target string) (*Generation, error)
	ListRecent(limit int) ([]*Generation, error)
	CountByAPI() (map[string]int64, error)
}

// DB wraps gorm.DB with our history operations
type DB struct {
	db *gorm.DB
}

// Config holds database configuration
type Config struct {
	DatabasePath string
	LogLevel     string // silent, error, warn, info
}

// InitDB initializes the database connection and runs migrations
func InitDB(cfg Config) (*DB, error) {
	logLevel := logger.Silent
	switch cfg.LogLevel {
	case "error":
		logLevel = logger.Error
	case "warn":
		logLevel = logger.Warn
	case "info":
		logLevel = logger.Info
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	d := &DB{db: db}

	// Auto-migrate schema
	if err := db.AutoMigrate(&Generation{}); err != nil {
		if closeErr := d.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return d, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// RecordGeneration creates a new generation record
func (d *DB) RecordGeneration(g *Generation) error {
	if g == nil {
		return ErrNilGeneration
	}
	if err := d.db.Create(g).Error; err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	return nil
}

// LastGeneration returns the most recent generation for a target
func (d *DB) LastGeneration(target string) (*Generation, error) {
	var g Generation
	err := d.db.Where("target = ?", target).Order("created_at DESC, id DESC").First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last generation for %s: %w", target, err)
	}
	return &g, nil
}

// ListRecent returns up to limit generations, newest first. A non-positive limit returns all.
func (d *DB) ListRecent(limit int) ([]*Generation, error) {
	var generations []*Generation
	q := d.db.Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&generations).Error; err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	return generations, nil
}

// CountByAPI returns how many generations used each rendering API
func (d *DB) CountByAPI() (map[string]int64, error) {
	var rows []struct {
		API   string
		Count int64
	}
	if err := d.db.Model(&Generation{}).Select("api, COUNT(*) as count").
		Group("api").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count generations by api: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.API] = r.Count
	}
	return counts, nil
}
