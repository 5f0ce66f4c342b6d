// Package testutil provides in-memory stores and a deterministic clock for tests.
package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/KDim67/boostflow-backend/internal/migration"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// StepClock returns a strictly increasing UTC time, one step per call
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepClock starts at a fixed instant and advances one second per call
func NewStepClock() *StepClock {
	return &StepClock{
		now:  time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		step: time.Second,
	}
}

// Now advances the clock and returns the new time
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// Peek returns the current time without advancing
func (c *StepClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// OpenDB opens a migrated in-memory SQLite database whose timestamps come from clock
func OpenDB(t *testing.T, clock *StepClock) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: clock.Now,
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := migration.Run(db); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}
