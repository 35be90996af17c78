// Package service contains the business logic layer.
//
// This file implements the generation service: it runs the RAMS orchestrator
// and, when configured, archives successful documents and records every
// attempt in the generation ledger.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/DukeRupert/rams/internal/domain"
	"github.com/DukeRupert/rams/internal/metrics"
	"github.com/DukeRupert/rams/internal/rams"
	"github.com/DukeRupert/rams/internal/repository"
	"github.com/DukeRupert/rams/internal/storage"
	"github.com/google/uuid"
)

// recordTimeout bounds archive and ledger writes after a generation.
const recordTimeout = 5 * time.Second

// =============================================================================
// Interface Definition
// =============================================================================

// GenerationService defines the operations behind the RAMS endpoints.
type GenerationService interface {
	// Generate produces a RAMS document for task.
	// Returns domain.EINVALID for a missing task, domain.EMISSINGCREDENTIAL
	// when the backend is not configured, and domain.EUPSTREAM when any
	// channel fails.
	Generate(ctx context.Context, task string) (*GenerationOutput, error)

	// Get returns an archived document.
	// Returns domain.ENOTFOUND if the archive is disabled or has no such id.
	Get(ctx context.Context, id uuid.UUID) (*domain.GenerationResult, error)
}

// GenerationOutput is a successful generation.
type GenerationOutput struct {
	ID     uuid.UUID
	Result domain.GenerationResult
	// Recorded is true when the generation was written to the archive or ledger,
	// so ID can be shown to the caller.
	Recorded bool
}

// Generator produces RAMS reports. *rams.Orchestrator implements it.
type Generator interface {
	GenerateReport(ctx context.Context, task string) (*rams.Report, error)
	ProviderName() string
}

// Ledger persists generation records. *repository.Queries implements it.
type Ledger interface {
	CreateGeneration(ctx context.Context, arg repository.CreateGenerationParams) (repository.Generation, error)
}

// DocumentArchive stores generated documents. *storage.Archive implements it.
type DocumentArchive interface {
	Save(ctx context.Context, doc storage.Document) (string, error)
	Load(ctx context.Context, id uuid.UUID) (*storage.Document, error)
}

// =============================================================================
// Implementation
// =============================================================================

type generationService struct {
	generator Generator
	ledger    Ledger
	archive   DocumentArchive
	logger    *slog.Logger
	now       func() time.Time
}

// NewGenerationService creates a GenerationService. ledger and archive may
// be nil to disable them.
//
// Example usage:
//
//	svc := service.NewGenerationService(orchestrator, repository.New(db), archive, logger)
func NewGenerationService(generator Generator, ledger Ledger, archive DocumentArchive, logger *slog.Logger) GenerationService {
	return &generationService{
		generator: generator,
		ledger:    ledger,
		archive:   archive,
		logger:    logger,
		now:       time.Now,
	}
}

// =============================================================================
// Generate
// =============================================================================

func (s *generationService) Generate(ctx context.Context, task string) (*GenerationOutput, error) {
	id := uuid.New()
	start := s.now()
	logger := s.logger.With("generation_id", id)

	report, err := s.generator.GenerateReport(ctx, task)
	if err != nil {
		code := domain.ErrorCode(err)
		metrics.GenerationFailed(code)

		// Invalid and unconfigured requests never reached the backend.
		if code == domain.EUPSTREAM {
			s.record(ctx, logger, domain.Generation{
				ID:        id,
				Task:      task,
				Status:    domain.GenerationStatusFailed,
				ErrorCode: code,
				Provider:  s.generator.ProviderName(),
				Duration:  s.now().Sub(start),
				CreatedAt: start,
			})
		}
		return nil, err
	}

	metrics.GenerationCompleted(report.Duration)

	gen := domain.Generation{
		ID:        id,
		Task:      task,
		Status:    domain.GenerationStatusSucceeded,
		Provider:  s.generator.ProviderName(),
		Model:     report.Usage.Model,
		Attempts:  report.Attempts,
		Usage:     report.Usage,
		Duration:  report.Duration,
		CreatedAt: start,
	}

	recorded := false
	if s.archive != nil {
		key, err := s.saveDocument(ctx, gen, report.Result)
		metrics.ArchiveWritten(err == nil)
		if err != nil {
			logger.Error("failed to archive generation", "error", err)
		} else {
			gen.ArchiveKey = key
			recorded = true
		}
	}
	if s.record(ctx, logger, gen) {
		recorded = true
	}

	logger.Info("generation succeeded",
		"provider", gen.Provider,
		"attempts", gen.TotalAttempts(),
		"duration_ms", gen.Duration.Milliseconds(),
	)

	return &GenerationOutput{ID: id, Result: report.Result, Recorded: recorded}, nil
}

func (s *generationService) saveDocument(ctx context.Context, gen domain.Generation, result domain.GenerationResult) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	return s.archive.Save(ctx, storage.Document{
		ID:        gen.ID,
		Task:      gen.Task,
		Result:    result,
		Provider:  gen.Provider,
		Model:     gen.Model,
		CreatedAt: gen.CreatedAt,
	})
}

// record writes gen to the ledger. Failures are logged, never returned.
func (s *generationService) record(ctx context.Context, logger *slog.Logger, gen domain.Generation) bool {
	if s.ledger == nil {
		return false
	}

	params, err := toCreateParams(gen)
	if err != nil {
		logger.Error("failed to encode generation record", "error", err)
		return false
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if _, err := s.ledger.CreateGeneration(ctx, params); err != nil {
		logger.Error("failed to record generation", "error", err)
		return false
	}
	return true
}

func toCreateParams(gen domain.Generation) (repository.CreateGenerationParams, error) {
	attempts := make(map[string]int, len(gen.Attempts))
	for ch, n := range gen.Attempts {
		attempts[ch.String()] = n
	}
	attemptsJSON, err := json.Marshal(attempts)
	if err != nil {
		return repository.CreateGenerationParams{}, fmt.Errorf("encode attempts: %w", err)
	}

	return repository.CreateGenerationParams{
		ID:           gen.ID,
		Task:         gen.Task,
		Status:       gen.Status.String(),
		ErrorCode:    domain.ToNullString(gen.ErrorCode),
		Provider:     gen.Provider,
		Model:        domain.ToNullString(gen.Model),
		Attempts:     attemptsJSON,
		InputTokens:  int32(gen.Usage.InputTokens),
		OutputTokens: int32(gen.Usage.OutputTokens),
		DurationMs:   gen.Duration.Milliseconds(),
		ArchiveKey:   domain.ToNullString(gen.ArchiveKey),
		CreatedAt:    gen.CreatedAt,
	}, nil
}

// =============================================================================
// Get
// =============================================================================

func (s *generationService) Get(ctx context.Context, id uuid.UUID) (*domain.GenerationResult, error) {
	const op = "generation.get"

	if s.archive == nil {
		return nil, domain.NotFound(op, "generation", id.String())
	}

	doc, err := s.archive.Load(ctx, id)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, err
		}
		return nil, domain.Internal(err, op, "failed to load generation")
	}
	return &doc.Result, nil
}

// GenerationFromRow converts a ledger row to the domain type.
func GenerationFromRow(row repository.Generation) (domain.Generation, error) {
	var raw map[string]int
	if len(row.Attempts) > 0 {
		if err := json.Unmarshal(row.Attempts, &raw); err != nil {
			return domain.Generation{}, fmt.Errorf("decode attempts: %w", err)
		}
	}
	attempts := make(map[domain.Channel]int, len(raw))
	for ch, n := range raw {
		attempts[domain.Channel(ch)] = n
	}

	model := domain.NullStringValue(row.Model)
	return domain.Generation{
		ID:        row.ID,
		Task:      row.Task,
		Status:    domain.GenerationStatus(row.Status),
		ErrorCode: domain.NullStringValue(row.ErrorCode),
		Provider:  row.Provider,
		Model:     model,
		Attempts:  attempts,
		Usage: domain.Usage{
			Model:        model,
			InputTokens:  int(row.InputTokens),
			OutputTokens: int(row.OutputTokens),
		},
		Duration:   time.Duration(row.DurationMs) * time.Millisecond,
		ArchiveKey: domain.NullStringValue(row.ArchiveKey),
		CreatedAt:  row.CreatedAt,
	}, nil
}
