package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"arena_ai/internal/combat"
)

// AuditRecord is one persisted audit event.
type AuditRecord struct {
	ID      uint    `gorm:"primaryKey"`
	RunID   string  `gorm:"size:64;index"`
	T       float64 `gorm:"index"`
	Type    string  `gorm:"size:32;index"`
	Payload string
}

// Recorder batches audit events into SQLite.
type Recorder struct {
	db        *gorm.DB
	log       zerolog.Logger
	runID     string
	batchSize int

	mu  sync.Mutex
	buf []AuditRecord
}

// OpenRecorder opens (or creates) the SQLite file at path. An empty path
// uses a private in-memory database.
func OpenRecorder(path, runID string, batchSize int, log zerolog.Logger) (*Recorder, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        batchSize,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access sql interface: %w", err)
	}
	// one connection: an in-memory database is per connection
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&AuditRecord{}); err != nil {
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}
	log.Info().Str("path", path).Msg("audit recorder ready")
	return &Recorder{db: db, log: log, runID: runID, batchSize: batchSize}, nil
}

// Record buffers ev and flushes once a batch is full.
func (r *Recorder) Record(ev combat.Event) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		r.log.Warn().Err(err).Str("type", ev.Type).Msg("dropping unencodable audit event")
		return
	}
	r.mu.Lock()
	r.buf = append(r.buf, AuditRecord{RunID: r.runID, T: ev.T, Type: ev.Type, Payload: string(payload)})
	full := len(r.buf) >= r.batchSize
	r.mu.Unlock()
	if full {
		if err := r.Flush(); err != nil {
			r.log.Error().Err(err).Msg("flush audit batch")
		}
	}
}

// Flush writes the buffered records.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	batch := r.buf
	r.buf = nil
	r.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}
	if err := r.db.CreateInBatches(batch, r.batchSize).Error; err != nil {
		return fmt.Errorf("write %d audit records: %w", len(batch), err)
	}
	r.log.Debug().Int("records", len(batch)).Msg("audit batch flushed")
	return nil
}

// Run flushes every interval until ctx is done.
func (r *Recorder) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return r.Flush()
		case <-t.C:
			if err := r.Flush(); err != nil {
				r.log.Error().Err(err).Msg("periodic audit flush")
			}
		}
	}
}

// Count returns the persisted records of a run, optionally of one type.
func (r *Recorder) Count(runID, typ string) (int64, error) {
	var n int64
	q := r.db.Model(&AuditRecord{}).Where("run_id = ?", runID)
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Close flushes and releases the database.
func (r *Recorder) Close() error {
	ferr := r.Flush()
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	return ferr
}
