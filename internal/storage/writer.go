package storage

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type pendingRun struct {
	run   *RunRecord
	cases []CaseRecord
}

// HistoryWriter persists run records asynchronously so judging latency never
// waits on the database.
type HistoryWriter struct {
	db   *DB
	ch   chan pendingRun
	wg   sync.WaitGroup
	done chan struct{}
}

// NewHistoryWriter creates a writer with the given buffer size.
func NewHistoryWriter(db *DB, bufferSize int) *HistoryWriter {
	if bufferSize < 1 {
		bufferSize = 1000
	}
	return &HistoryWriter{
		db:   db,
		ch:   make(chan pendingRun, bufferSize),
		done: make(chan struct{}),
	}
}

// Start launches the background write loop.
func (w *HistoryWriter) Start() {
	w.wg.Add(1)
	go w.processLoop()
}

// Record enqueues a run for persistence. A full buffer drops the record
// rather than blocking the judge.
func (w *HistoryWriter) Record(run *RunRecord, cases []CaseRecord) {
	select {
	case w.ch <- pendingRun{run: run, cases: cases}:
	default:
		log.Warn().Str("run_id", run.ID).Msg("history buffer full, dropping run record")
	}
}

// Flush drains the buffer, waiting at most timeout.
func (w *HistoryWriter) Flush(timeout time.Duration) {
	close(w.done)

	doneCh := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-doneCh:
		log.Info().Msg("history writer flushed")
	case <-time.After(timeout):
		log.Warn().Msg("history writer flush timed out")
	}
}

func (w *HistoryWriter) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case p := <-w.ch:
			w.writeWithRetry(p)
		case <-w.done:
			// Drain remaining entries
			for {
				select {
				case p := <-w.ch:
					w.writeWithRetry(p)
				default:
					return
				}
			}
		}
	}
}

func (w *HistoryWriter) writeWithRetry(p pendingRun) {
	const maxRetries = 3

	for attempt := 0; attempt <= maxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := w.db.SaveRun(ctx, p.run, p.cases)
		cancel()

		if err == nil {
			return
		}

		if attempt < maxRetries {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * 100 * time.Millisecond
			log.Warn().
				Err(err).
				Str("run_id", p.run.ID).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Msg("history write failed, retrying")
			time.Sleep(backoff)
		} else {
			log.Error().
				Err(err).
				Str("run_id", p.run.ID).
				Msg("history write failed permanently after retries")
		}
	}
}
