package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"corpus_syncer/internal/domain"
	"corpus_syncer/internal/ingest"
)

// RunOptions carries the trigger and scope metadata for one sync run.
type RunOptions struct {
	SyncType    string // scheduled | manual
	Mode        string // incremental | full
	TriggeredBy string
}

// SyncService drives one end-to-end sync run: fetch, parse, reconcile,
// persist per record, finalize the audit row. A run is sequential; only one
// running sync per source is expected, callers serialize runs.
type SyncService struct {
	source    Source
	documents DocumentStore
	syncRuns  SyncRunStore
	txManager TransactionManager
	publisher Publisher
	parser    *ingest.Parser
	logger    *slog.Logger
}

func NewSyncService(
	source Source,
	documents DocumentStore,
	syncRuns SyncRunStore,
	txManager TransactionManager,
	publisher Publisher,
	parser *ingest.Parser,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		source:    source,
		documents: documents,
		syncRuns:  syncRuns,
		txManager: txManager,
		publisher: publisher,
		parser:    parser,
		logger:    logger.With("source", source.ID()),
	}
}

// Run executes one sync run. The returned summary is always terminal: a run
// finishes completed, partial, or failed, never running. The error is non-nil
// only when the run could not proceed at all (fetch failure, audit row
// failure); per-record failures are counted in the summary instead.
func (s *SyncService) Run(ctx context.Context, opts RunOptions) (*domain.SyncSummary, error) {
	startTime := time.Now()

	if opts.SyncType == "" {
		opts.SyncType = domain.SyncTypeManual
	}
	if opts.Mode == "" {
		opts.Mode = domain.ModeFull
	}
	if opts.TriggeredBy == "" {
		opts.TriggeredBy = "unknown"
	}

	run := &domain.SyncRun{
		SyncID:      newSyncID(),
		SyncType:    opts.SyncType,
		Source:      s.source.ID(),
		Status:      domain.StatusRunning,
		TriggeredBy: opts.TriggeredBy,
		StartedAt:   startTime,
	}

	logger := s.logger.With("sync_id", run.SyncID)
	logger.Info("starting sync",
		"sync_type", opts.SyncType,
		"mode", opts.Mode,
		"triggered_by", opts.TriggeredBy,
	)

	if err := s.syncRuns.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create sync run: %w", err)
	}

	// Fetch. A transport failure is fatal to the run; retries across runs are
	// the scheduler's concern.
	records, err := s.source.FetchRecords(ctx, s.incrementalHint(ctx, opts.Mode, logger))
	if err != nil {
		return s.finalize(ctx, run, startTime, 0, nil, fmt.Errorf("fetch records: %w", err), logger)
	}

	logger.Info("fetched records", "count", len(records))

	// Parse. One bad record never aborts the run.
	syncedAt := time.Now()
	var parsed []domain.ParsedRecord
	var parseFailures []domain.ParseFailure
	for _, record := range records {
		p, err := s.parser.Parse(record, syncedAt)
		if err != nil {
			run.RecordsFailed++
			if record.PID != "" {
				run.PIDsFailed = append(run.PIDsFailed, record.PID)
			}
			parseFailures = append(parseFailures, domain.ParseFailure{PID: record.PID, Reason: err.Error()})
			logger.Warn("record rejected", "pid", record.PID, "error", err)
			continue
		}
		parsed = append(parsed, p)
	}

	// Reconcile against the corpus pids read once for this run; no cross-run
	// cache, so a long-lived process never acts on a stale allowlist.
	persistedPIDs, err := s.documents.ListPIDs(ctx)
	if err != nil {
		return s.finalize(ctx, run, startTime, len(records), parseFailures, fmt.Errorf("list corpus pids: %w", err), logger)
	}

	diff := ingest.Reconcile(parsed, persistedPIDs)

	logger.Info("reconciled batch",
		"needs_insert", len(diff.NeedsInsert),
		"needs_update", len(diff.NeedsUpdate),
		"orphaned", len(diff.Orphaned),
	)
	if len(diff.Orphaned) > 0 {
		// Review signal only; the pipeline never deletes.
		logger.Warn("orphaned pids detected", "pids", diff.Orphaned)
	}

	// Persist, one transaction per record.
	for i := range diff.NeedsInsert {
		s.persistRecord(ctx, run, &diff.NeedsInsert[i], true, logger)
	}
	for i := range diff.NeedsUpdate {
		s.persistRecord(ctx, run, &diff.NeedsUpdate[i], false, logger)
	}

	summary, _ := s.finalize(ctx, run, startTime, len(records), parseFailures, nil, logger)
	return summary, nil
}

// Validate is the dry-run surface: fetch, parse, and reconcile without
// touching persisted state.
func (s *SyncService) Validate(ctx context.Context) (*domain.ValidationReport, error) {
	records, err := s.source.FetchRecords(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}

	syncedAt := time.Now()
	var parsed []domain.ParsedRecord
	for _, record := range records {
		p, err := s.parser.Parse(record, syncedAt)
		if err != nil {
			s.logger.Warn("record rejected during validation", "pid", record.PID, "error", err)
			continue
		}
		parsed = append(parsed, p)
	}

	persistedPIDs, err := s.documents.ListPIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpus pids: %w", err)
	}

	report := ingest.Report(parsed, persistedPIDs)
	return &report, nil
}

// CorpusPIDs lists every pid currently in the training corpus.
func (s *SyncService) CorpusPIDs(ctx context.Context) ([]string, error) {
	return s.documents.ListPIDs(ctx)
}

// incrementalHint resolves the advisory modified-since hint for incremental
// runs. Failures here degrade to a full fetch rather than failing the run.
func (s *SyncService) incrementalHint(ctx context.Context, mode string, logger *slog.Logger) *time.Time {
	if mode != domain.ModeIncremental {
		return nil
	}

	last, err := s.syncRuns.LastSuccessfulRun(ctx, s.source.ID())
	if err != nil {
		logger.Warn("last successful run lookup failed, falling back to full fetch", "error", err)
		return nil
	}
	if last == nil || last.CompletedAt == nil {
		return nil
	}
	return last.CompletedAt
}

// persistRecord writes one record inside its own transaction and updates the
// run counters. Failure is isolated: counted, logged, and the run moves on.
func (s *SyncService) persistRecord(ctx context.Context, run *domain.SyncRun, record *domain.ParsedRecord, isNew bool, logger *slog.Logger) {
	doc := &domain.DocumentRecord{
		DocumentID:      generateDocumentID(),
		PID:             record.PID,
		Title:           record.Title,
		PublicationYear: record.PublicationYear,
		Filename:        record.PID + ".pdf",
		PDFCount:        record.PDFCount,
		TIFFCount:       record.TIFFCount,
		Metadata:        record.Metadata,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if isNew {
			_, err := s.documents.Insert(txCtx, doc)
			return err
		}
		return s.documents.Update(txCtx, doc)
	})
	if err != nil {
		run.RecordsFailed++
		run.PIDsFailed = append(run.PIDsFailed, record.PID)
		logger.Error("persist failed", "pid", record.PID, "error", err)
		return
	}

	if isNew {
		run.RecordsNew++
	} else {
		run.RecordsUpdated++
	}
	run.PIDsProcessed = append(run.PIDsProcessed, record.PID)

	if s.publisher != nil {
		// Best effort: a lost event never fails the record.
		if err := s.publisher.Publish(ctx, doc, isNew, run.SyncID); err != nil {
			logger.Warn("publish failed", "pid", record.PID, "error", err)
		}
	}
}

// finalize writes the terminal state of the run exactly once and builds the
// caller-visible summary. Called on every exit path, including early aborts.
func (s *SyncService) finalize(ctx context.Context, run *domain.SyncRun, startTime time.Time, fetched int, parseFailures []domain.ParseFailure, runErr error, logger *slog.Logger) (*domain.SyncSummary, error) {
	switch {
	case runErr != nil:
		run.Status = domain.StatusFailed
		msg := runErr.Error()
		run.ErrorLog = &msg
	case run.RecordsFailed > 0:
		run.Status = domain.StatusPartial
	default:
		run.Status = domain.StatusCompleted
	}

	if err := s.syncRuns.Finalize(ctx, run); err != nil {
		// Best effort; the run outcome still reaches the caller via the summary.
		logger.Error("finalize sync run failed", "error", err)
	}

	summary := &domain.SyncSummary{
		SyncID:         run.SyncID,
		Status:         run.Status,
		RecordsFetched: fetched,
		RecordsNew:     run.RecordsNew,
		RecordsUpdated: run.RecordsUpdated,
		RecordsFailed:  run.RecordsFailed,
		PIDsProcessed:  run.PIDsProcessed,
		PIDsFailed:     run.PIDsFailed,
		ParseFailures:  parseFailures,
		Duration:       time.Since(startTime),
	}

	logger.Info("sync finished",
		"status", run.Status,
		"new", run.RecordsNew,
		"updated", run.RecordsUpdated,
		"failed", run.RecordsFailed,
		"duration", summary.Duration,
	)

	return summary, runErr
}

func newSyncID() string {
	return "sync_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func generateDocumentID() string {
	return "doc_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
