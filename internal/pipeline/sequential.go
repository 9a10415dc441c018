package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/docdistill/internal/domain"
	"github.com/phrazzld/docdistill/internal/generation"
	"github.com/phrazzld/docdistill/internal/prompt"
	"github.com/phrazzld/docdistill/internal/reply"
	"github.com/phrazzld/docdistill/internal/store"
)

// ResumeMode selects how a sequential run decides where to pick up after an
// interruption. The two modes are never mixed within one deployment.
type ResumeMode string

// Supported resume modes.
const (
	// ResumeMarker resumes from a persisted entry index. Cheapest, but
	// assumes the corpus ordering is stable across runs.
	ResumeMarker ResumeMode = "marker"

	// ResumeCount recounts persisted records per source and requests only
	// the shortfall for each entry. Robust to corpus reordering and to
	// partially failed entries.
	ResumeCount ResumeMode = "count"
)

// Sequential dispatches one provider call per entry, persisting parsed pairs
// after each reply so progress survives interruption.
type Sequential struct {
	provider generation.Provider
	prompts  *prompt.Builder
	records  *store.RecordStore
	marker   *store.Marker
	logger   *slog.Logger

	target      int
	temperature float32
	resume      ResumeMode
}

// SequentialConfig carries the knobs for a sequential run.
type SequentialConfig struct {
	// PairsPerEntry is the target number of persisted pairs per entry.
	PairsPerEntry int

	// Temperature is passed through to every provider call.
	Temperature float32

	// Resume selects the resumption strategy. Defaults to ResumeMarker.
	Resume ResumeMode
}

// NewSequential creates a sequential runner. The marker may only be nil when
// the resume mode is ResumeCount.
func NewSequential(
	provider generation.Provider,
	prompts *prompt.Builder,
	records *store.RecordStore,
	marker *store.Marker,
	logger *slog.Logger,
	cfg SequentialConfig,
) (*Sequential, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if prompts == nil {
		return nil, ErrNilPromptBuilder
	}
	if records == nil {
		return nil, ErrNilRecordStore
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if cfg.PairsPerEntry <= 0 {
		return nil, ErrInvalidTarget
	}

	if cfg.Resume == "" {
		cfg.Resume = ResumeMarker
	}
	switch cfg.Resume {
	case ResumeMarker:
		if marker == nil {
			return nil, ErrNilMarker
		}
	case ResumeCount:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidResume, cfg.Resume)
	}

	return &Sequential{
		provider:    provider,
		prompts:     prompts,
		records:     records,
		marker:      marker,
		logger:      logger,
		target:      cfg.PairsPerEntry,
		temperature: cfg.Temperature,
		resume:      cfg.Resume,
	}, nil
}

// Run processes entries in order. Per-entry generation failures are logged
// and skipped; storage and marker write failures abort the run. On full
// completion in marker mode the marker is cleared so the next run starts
// fresh.
func (s *Sequential) Run(ctx context.Context, entries []domain.Entry) error {
	// Every log line of one invocation shares a run ID, so interleaved or
	// archived logs stay attributable.
	logger := s.logger.With("run_id", uuid.NewString())

	start := 0
	var counts map[string]int

	switch s.resume {
	case ResumeMarker:
		index, exists, err := s.marker.Load()
		if err != nil {
			return err
		}
		if exists {
			if index > len(entries) {
				logger.Warn("progress marker beyond corpus end, restarting",
					"marker", index, "entries", len(entries))
				index = 0
			} else {
				logger.Info("resuming from progress marker", "index", index)
			}
			start = index
		}
	case ResumeCount:
		existing, err := s.records.CountBySource()
		if err != nil {
			return err
		}
		counts = existing
	}

	opts := generation.GenerateOptions{Temperature: s.temperature}

	for i := start; i < len(entries); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry := entries[i]
		needed := s.target
		if counts != nil {
			needed = s.target - counts[entry.ID]
		}

		if needed > 0 {
			appended, err := s.processEntry(ctx, logger, entry, needed, opts)
			if err != nil {
				return err
			}
			if counts != nil {
				counts[entry.ID] += appended
			}
		} else {
			logger.Debug("entry already complete", "source", entry.ID)
		}

		if s.resume == ResumeMarker {
			if err := s.marker.Store(i + 1); err != nil {
				return err
			}
		}
	}

	if s.resume == ResumeMarker {
		if err := s.marker.Clear(); err != nil {
			return err
		}
	}

	logger.Info("sequential run complete", "entries", len(entries))
	return nil
}

// processEntry generates, parses, and persists pairs for one entry. It
// returns the number of records appended. Provider and parse failures are
// logged and swallowed (the entry keeps its shortfall for a later run); only
// persistence failures are returned.
func (s *Sequential) processEntry(ctx context.Context, logger *slog.Logger, entry domain.Entry, needed int, opts generation.GenerateOptions) (int, error) {
	promptText, err := s.prompts.Build(entry.ID, entry.Content, needed)
	if err != nil {
		logger.Warn("failed to build prompt, skipping entry", "source", entry.ID, "error", err)
		return 0, nil
	}

	raw, err := s.provider.Generate(ctx, promptText, opts)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		logger.Warn("generation failed, skipping entry", "source", entry.ID, "error", err)
		return 0, nil
	}

	pairs := reply.Parse(raw)
	if len(pairs) == 0 {
		logger.Warn("reply contained no parseable pairs, skipping entry", "source", entry.ID)
		return 0, nil
	}
	if len(pairs) > needed {
		pairs = pairs[:needed]
	}

	records := make([]domain.Record, 0, len(pairs))
	for _, pair := range pairs {
		record, err := domain.NewRecord(entry.ID, pair)
		if err != nil {
			return 0, err
		}
		records = append(records, record)
	}

	if err := s.records.Append(records); err != nil {
		return 0, err
	}

	logger.Info("entry processed", "source", entry.ID, "requested", needed, "persisted", len(records))
	return len(records), nil
}
