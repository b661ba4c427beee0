package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mercator-hq/conduit/pkg/evidence"
	"mercator-hq/conduit/pkg/telemetry/logging"
)

// ErrClosed is returned by Record after Close.
var ErrClosed = errors.New("recorder is closed")

// Config contains configuration for the recorder.
type Config struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds both enqueueing a record and writing it to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// Recorder writes audit records asynchronously so that storage latency
// never delays a stream. A nil *Recorder discards records.
type Recorder struct {
	storage    evidence.Storage
	config     Config
	redactor   *logging.Redactor
	recordChan chan *evidence.Record
	done       chan struct{}
	closed     atomic.Bool
	closeOnce  sync.Once
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// New creates a recorder and starts its background writer.
func New(storage evidence.Storage, config Config, logger *slog.Logger) *Recorder {
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = 1000
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		redactor:   logging.NewRedactor(),
		recordChan: make(chan *evidence.Record, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     logger.With("component", "evidence.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("evidence recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// Record enqueues a record for writing. It assigns an ID and recorded time
// when missing and redacts the error message. It blocks for at most
// WriteTimeout when the buffer is full, then drops the record.
func (r *Recorder) Record(record *evidence.Record) error {
	if r == nil {
		return nil
	}
	if r.closed.Load() {
		return fmt.Errorf("record %s: %w", record.RequestID, ErrClosed)
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.RecordedTime.IsZero() {
		record.RecordedTime = time.Now().UTC()
	}
	if record.Error != "" {
		record.Error = r.redactor.RedactString(record.Error)
	}

	timer := time.NewTimer(r.config.WriteTimeout)
	defer timer.Stop()

	select {
	case r.recordChan <- record:
		return nil
	case <-timer.C:
		r.logger.Error("evidence record channel full, dropping record",
			"request_id", record.RequestID,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return fmt.Errorf("record %s dropped: %w", record.RequestID, context.DeadlineExceeded)
	case <-r.done:
		return fmt.Errorf("record %s: %w", record.RequestID, ErrClosed)
	}
}

// Close stops accepting records, drains the buffer and waits for pending
// writes. It is safe to call more than once.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.done)
		r.wg.Wait()
		r.logger.Info("evidence recorder shut down complete")
	})
	return nil
}

// worker drains the channel and writes records to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					return
				}
			}
		}
	}
}

// writeRecord writes a single record to storage.
func (r *Recorder) writeRecord(record *evidence.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()

	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store evidence record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"error", err,
		)
		return
	}

	duration := time.Since(start)
	r.logger.Debug("evidence recorded",
		"record_id", record.ID,
		"request_id", record.RequestID,
		"outcome", record.Outcome,
		"duration_ms", duration.Milliseconds(),
	)

	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow evidence write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
