package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vividplate/internal/middleware"

	"gorm.io/gorm"
)

// ErrMigrationDrift means the ledger disagrees with the embedded scripts.
var ErrMigrationDrift = errors.New("migration drift")

// MigrationLog is one row of the migration_logs ledger.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null;default:''"`
	AppliedAt time.Time `gorm:"not null;index"`
}

func (MigrationLog) TableName() string {
	return "migration_logs"
}

// Migrator applies embedded SQL migrations and records them in migration_logs.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
	now        func() time.Time
}

// NewMigrator builds a Migrator over the embedded migrations.
func NewMigrator(db *gorm.DB) (*Migrator, error) {
	all, err := Migrations()
	if err != nil {
		return nil, err
	}
	return newMigrator(db, all), nil
}

func newMigrator(db *gorm.DB, migrations []Migration) *Migrator {
	return &Migrator{db: db, migrations: migrations, now: time.Now}
}

func (m *Migrator) ensureLedger(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&MigrationLog{}); err != nil {
		return fmt.Errorf("prepare migration_logs: %w", err)
	}
	return nil
}

// Applied returns the ledger rows in version order. A missing ledger table
// reads as an empty ledger.
func (m *Migrator) Applied(ctx context.Context) ([]MigrationLog, error) {
	var logs []MigrationLog
	err := m.db.WithContext(ctx).Order("version ASC").Find(&logs).Error
	if err != nil {
		if isMissingTableError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read migration_logs: %w", err)
	}
	return logs, nil
}

// Pending returns migrations not yet recorded in the ledger. It fails with
// ErrMigrationDrift when the ledger names unknown versions or an applied
// script has changed since it ran.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.checkDrift(applied); err != nil {
		return nil, err
	}

	done := make(map[int]bool, len(applied))
	for _, l := range applied {
		done[l.Version] = true
	}
	var pending []Migration
	for _, mig := range m.migrations {
		if !done[mig.Version] {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

func (m *Migrator) checkDrift(applied []MigrationLog) error {
	known := make(map[int]Migration, len(m.migrations))
	for _, mig := range m.migrations {
		known[mig.Version] = mig
	}

	var problems []string
	for _, l := range applied {
		mig, ok := known[l.Version]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("%06d is applied but not embedded", l.Version))
		case l.Checksum != "" && l.Checksum != mig.Checksum():
			problems = append(problems, fmt.Sprintf("%s was edited after it was applied", mig.ID()))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMigrationDrift, strings.Join(problems, "; "))
}

// Up applies every pending migration, each in its own transaction, and
// returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.ensureLedger(ctx); err != nil {
		return 0, err
	}
	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}

	for i, mig := range pending {
		start := m.now()
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.UpScript).Error; err != nil {
				return err
			}
			return tx.Create(&MigrationLog{
				Version:   mig.Version,
				Name:      mig.Name,
				Checksum:  mig.Checksum(),
				AppliedAt: m.now(),
			}).Error
		})
		if err != nil {
			return i, fmt.Errorf("apply %s: %w", mig.ID(), err)
		}
		middleware.Logger.Info("Migration applied",
			slog.String("migration", mig.ID()),
			slog.Duration("took", m.now().Sub(start)))
	}
	return len(pending), nil
}

// Down reverts one applied migration and removes its ledger row.
func (m *Migrator) Down(ctx context.Context, version int) error {
	var target *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == version {
			target = &m.migrations[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("migration %06d is not embedded", version)
	}

	var count int64
	if err := m.db.WithContext(ctx).Model(&MigrationLog{}).Where("version = ?", version).Count(&count).Error; err != nil && !isMissingTableError(err) {
		return fmt.Errorf("read migration_logs: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("migration %s has not been applied", target.ID())
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(target.DownScript).Error; err != nil {
			return err
		}
		return tx.Where("version = ?", version).Delete(&MigrationLog{}).Error
	})
	if err != nil {
		return fmt.Errorf("revert %s: %w", target.ID(), err)
	}
	middleware.Logger.Info("Migration reverted", slog.String("migration", target.ID()))
	return nil
}

func isMissingTableError(err error) bool {
	msg := err.Error()
	return (strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")) ||
		strings.Contains(msg, "no such table")
}
