// Package pipeline streams observation-log lines through the
// parse → normalize → aggregate stages.
package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/eugene-g/ambiata-weather/internal/domain"
	"github.com/eugene-g/ambiata-weather/internal/observability"
)

// maxLineSize bounds a single log line. Well-formed lines are under 100
// bytes; anything near this limit is garbage input.
const maxLineSize = 1024 * 1024

// Pipeline reads an observation log line by line, skipping lines that fail to
// parse and records that normalize to an impossible temperature. Skips are
// counted and logged at debug level; they never abort a run.
type Pipeline struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool

	recordsAggregated atomic.Int64
	linesSkipped      atomic.Int64

	// readErr is the scanner failure of the most recent Records sequence.
	// Written by the iterating goroutine, read after iteration finishes.
	readErr error
}

// New creates a Pipeline with the given observability.
func New(logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once the pipeline has aggregated at least one
// record, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not aggregated any records yet")
	}
	return nil
}

// Records returns a lazy sequence of normalized records read from r. Lines
// are consumed one at a time, so arbitrarily large logs stream without
// buffering the whole file.
//
// A read failure mid-stream ends the sequence early; callers consuming the
// sequence directly must check [Pipeline.Err] afterwards, or a truncated log
// is indistinguishable from a complete one.
func (p *Pipeline) Records(r io.Reader) iter.Seq[domain.Record] {
	return func(yield func(domain.Record) bool) {
		p.readErr = nil
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

		for scanner.Scan() {
			p.metrics.LinesRead.Inc()

			rec, err := domain.ParseLine(scanner.Text())
			if err != nil {
				p.metrics.LinesSkipped.WithLabelValues(observability.SkipReasonParse).Inc()
				p.linesSkipped.Add(1)
				p.logger.Debug("skipping unparseable line", "error", err)
				continue
			}

			normalized, err := domain.Normalize(rec)
			if err != nil {
				p.metrics.LinesSkipped.WithLabelValues(observability.SkipReasonTemperature).Inc()
				p.linesSkipped.Add(1)
				p.logger.Debug("skipping rejected record", "error", err)
				continue
			}

			p.metrics.RecordsAggregated.Inc()
			p.recordsAggregated.Add(1)
			p.ready.Store(true)

			if !yield(normalized) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			p.readErr = err
			p.logger.Error("reading observation log failed", "error", err)
		}
	}
}

// Err reports the read failure, if any, of the most recent Records sequence.
func (p *Pipeline) Err() error {
	return p.readErr
}

// Progress reports how many records have been aggregated and how many lines
// have been skipped in the current run.
func (p *Pipeline) Progress() (records, skipped int64) {
	return p.recordsAggregated.Load(), p.linesSkipped.Load()
}

// RecordsFromFile returns a lazy record sequence over the log at path. The
// file is closed when the sequence is exhausted or abandoned. Existence
// checks and the user-facing missing-file error belong to the caller; this
// only wraps the open error.
func (p *Pipeline) RecordsFromFile(path string) (iter.Seq[domain.Record], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open observation log: %w", err)
	}
	return func(yield func(domain.Record) bool) {
		defer f.Close()
		for rec := range p.Records(f) {
			if !yield(rec) {
				return
			}
		}
	}, nil
}

// Run aggregates every record read from r and returns the final statistics.
// An input with no valid records is a fatal error, as is a failed read:
// statistics over a truncated log must never be reported as a complete run.
func (p *Pipeline) Run(r io.Reader) (*domain.FlightStats, error) {
	start := time.Now()
	p.recordsAggregated.Store(0)
	p.linesSkipped.Store(0)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	stats, err := domain.CalculateFlightStats(p.Records(r))
	if p.readErr != nil {
		return nil, fmt.Errorf("reading observation log: %w", p.readErr)
	}
	if err != nil {
		return nil, err
	}

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("aggregation complete",
		"records", stats.NumberOfRecords,
		"lines_skipped", p.linesSkipped.Load(),
		"observatories", len(stats.Observations),
		"distance_m", stats.Distance.String(),
	)
	return stats, nil
}

// RunFile streams the observation log at path through Run.
func (p *Pipeline) RunFile(path string) (*domain.FlightStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open observation log: %w", err)
	}
	defer f.Close()
	return p.Run(f)
}
