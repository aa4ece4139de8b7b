// Package archive persists the monitor event stream for later analysis.
// Writers are pluggable; the Archiver sits between the ingestion engine
// and a writer so slow storage never blocks the stream.
package archive

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"redistics/internal/config"
	"redistics/internal/model"
)

// Archiver buffers monitor events on a channel and flushes them to its
// writer when the batch fills or the ticker fires. A full buffer drops the
// event and counts it rather than stalling the engine's reader goroutine.
type Archiver struct {
	writer    model.ArchiveWriter
	events    chan model.MonitorEvent
	batchSize int
	interval  time.Duration

	dropped atomic.Uint64
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewArchiver builds the writer named by cfg and starts the flush loop.
func NewArchiver(cfg config.ArchiveConfig, bufferSize int) (*Archiver, error) {
	var writer model.ArchiveWriter
	var err error
	switch cfg.Type {
	case "clickhouse":
		writer, err = NewClickHouseWriter(cfg.ClickHouse)
	case "jsonl":
		writer, err = NewJSONLWriter(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	interval, err := time.ParseDuration(cfg.FlushInterval)
	if err != nil || interval <= 0 {
		return nil, fmt.Errorf("invalid flush_interval %q", cfg.FlushInterval)
	}
	if bufferSize <= 0 {
		bufferSize = 10000
	}

	a := &Archiver{
		writer:    writer,
		events:    make(chan model.MonitorEvent, bufferSize),
		batchSize: cfg.BatchSize,
		interval:  interval,
		done:      make(chan struct{}),
	}
	a.wg.Add(1)
	go a.flushLoop()
	return a, nil
}

// OnEvent enqueues one event; called from the engine's delivery path.
func (a *Archiver) OnEvent(ev model.MonitorEvent) {
	select {
	case a.events <- ev:
	default:
		a.dropped.Add(1)
	}
}

// Dropped reports how many events the full buffer discarded.
func (a *Archiver) Dropped() uint64 {
	return a.dropped.Load()
}

func (a *Archiver) flushLoop() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	batch := make([]model.MonitorEvent, 0, a.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := a.writer.WriteEvents(batch); err != nil {
			log.Printf("archive: write failed, %d events lost: %v", len(batch), err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case ev := <-a.events:
			batch = append(batch, ev)
			if len(batch) >= a.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-a.done:
			// Drain whatever is queued before the final flush.
			for {
				select {
				case ev := <-a.events:
					batch = append(batch, ev)
					if len(batch) >= a.batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close stops the flush loop, drains the queue and closes the writer.
func (a *Archiver) Close() error {
	close(a.done)
	a.wg.Wait()
	return a.writer.Close()
}
