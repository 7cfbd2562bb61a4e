package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"crazy-bakery/backend/internal/features/wizard/domain"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MemoryJournal keeps submission progress in process memory.
type MemoryJournal struct {
	mu      sync.Mutex
	records map[string]domain.SubmissionRecord
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{records: make(map[string]domain.SubmissionRecord)}
}

func (j *MemoryJournal) Load(ctx context.Context, wizardID string) (*domain.SubmissionRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	rec, ok := j.records[wizardID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (j *MemoryJournal) Save(ctx context.Context, rec domain.SubmissionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records[rec.WizardID] = rec
	return nil
}

func (j *MemoryJournal) Delete(ctx context.Context, wizardID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.records, wizardID)
	return nil
}

// submissionRow is the table layout of the gorm journal.
type submissionRow struct {
	WizardID    string `gorm:"primaryKey;size:36"`
	Fingerprint string `gorm:"size:64;not null"`
	CakeID      int64
	RecipeID    int64
	UpdatedAt   time.Time
}

func (submissionRow) TableName() string { return "submission_journal" }

// GormJournal stores submission progress in a SQL database.
type GormJournal struct {
	db *gorm.DB
}

// NewGormJournal wraps db and migrates the journal table.
func NewGormJournal(db *gorm.DB) (*GormJournal, error) {
	if err := db.AutoMigrate(&submissionRow{}); err != nil {
		return nil, fmt.Errorf("automigrate submission journal: %w", err)
	}
	return &GormJournal{db: db}, nil
}

// OpenJournal opens the journal at dsn. Postgres URLs and key=value DSNs go
// to the postgres driver, everything else is a sqlite file name. An empty
// dsn yields a memory journal.
func OpenJournal(dsn string, debug bool) (domain.SubmissionJournal, error) {
	if dsn == "" {
		return NewMemoryJournal(), nil
	}
	level := gormlogger.Silent
	if debug {
		level = gormlogger.Info
	}
	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(level)}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}
	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("open submission journal: %w", err)
	}
	return NewGormJournal(db)
}

func (j *GormJournal) Load(ctx context.Context, wizardID string) (*domain.SubmissionRecord, error) {
	var row submissionRow
	err := j.db.WithContext(ctx).First(&row, "wizard_id = ?", wizardID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.SubmissionRecord{
		WizardID:    row.WizardID,
		Fingerprint: row.Fingerprint,
		CakeID:      row.CakeID,
		RecipeID:    row.RecipeID,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func (j *GormJournal) Save(ctx context.Context, rec domain.SubmissionRecord) error {
	row := submissionRow{
		WizardID:    rec.WizardID,
		Fingerprint: rec.Fingerprint,
		CakeID:      rec.CakeID,
		RecipeID:    rec.RecipeID,
		UpdatedAt:   rec.UpdatedAt,
	}
	return j.db.WithContext(ctx).Save(&row).Error
}

func (j *GormJournal) Delete(ctx context.Context, wizardID string) error {
	return j.db.WithContext(ctx).Delete(&submissionRow{}, "wizard_id = ?", wizardID).Error
}
