package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// slotRow is one named value in the kv_slots table.
type slotRow struct {
	Key       string         `gorm:"column:slot_key;primaryKey;size:120"`
	Value     datatypes.JSON `gorm:"column:slot_value;type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null"`
}

func (slotRow) TableName() string { return "kv_slots" }

// Gorm stores the slot value as one row of the kv_slots table.
type Gorm struct {
	db  *gorm.DB
	key string
	now func() time.Time
}

// OpenPostgres connects to dsn, migrates kv_slots and returns the slot.
func OpenPostgres(dsn, key string) (*Gorm, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("slot: connect postgres: %w", err)
	}
	g := NewGorm(db, key)
	if err := g.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return g, nil
}

// NewGorm wraps an open gorm handle. Call Migrate before first use on a fresh
// database.
func NewGorm(db *gorm.DB, key string) *Gorm {
	return &Gorm{db: db, key: key, now: time.Now}
}

// Migrate creates or updates the kv_slots table.
func (g *Gorm) Migrate(ctx context.Context) error {
	if err := g.db.WithContext(ctx).AutoMigrate(&slotRow{}); err != nil {
		return fmt.Errorf("slot: migrate kv_slots: %w", err)
	}
	return nil
}

// Key implements Slot.
func (g *Gorm) Key() string { return g.key }

// Get implements Slot.
func (g *Gorm) Get(ctx context.Context) ([]byte, error) {
	var row slotRow
	err := g.db.WithContext(ctx).
		Where("slot_key = ?", g.key).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("slot: select %q: %w", g.key, err)
	}
	return []byte(row.Value), nil
}

// Put implements Slot as a single upsert.
func (g *Gorm) Put(ctx context.Context, data []byte) error {
	if err := g.upsert(g.db.WithContext(ctx), data).Error; err != nil {
		return fmt.Errorf("slot: upsert %q: %w", g.key, err)
	}
	return nil
}

func (g *Gorm) upsert(tx *gorm.DB, data []byte) *gorm.DB {
	row := slotRow{
		Key:       g.key,
		Value:     datatypes.JSON(data),
		UpdatedAt: g.now().UTC(),
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"slot_value", "updated_at"}),
	}).Create(&row)
}
