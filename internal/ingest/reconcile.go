package ingest

import "corpus_syncer/internal/domain"

// Reconcile partitions a parsed batch against the set of pids currently in
// the corpus. Every re-fetched pid is an update; the engine does no
// field-level change detection since provenance snapshots move on every sync.
// Orphans are reported, never deleted: absence from one fetch can mean a
// partial fetch upstream rather than true removal.
//
// The partition is deterministic: NeedsInsert and NeedsUpdate keep batch
// order, Orphaned keeps the persisted order.
func Reconcile(batch []domain.ParsedRecord, persistedPIDs []string) domain.Diff {
	persisted := make(map[string]struct{}, len(persistedPIDs))
	for _, pid := range persistedPIDs {
		persisted[pid] = struct{}{}
	}

	var diff domain.Diff
	batchPIDs := make(map[string]struct{}, len(batch))
	for _, record := range batch {
		batchPIDs[record.PID] = struct{}{}
		if _, ok := persisted[record.PID]; ok {
			diff.NeedsUpdate = append(diff.NeedsUpdate, record)
		} else {
			diff.NeedsInsert = append(diff.NeedsInsert, record)
		}
	}

	for _, pid := range persistedPIDs {
		if _, ok := batchPIDs[pid]; !ok {
			diff.Orphaned = append(diff.Orphaned, pid)
		}
	}

	return diff
}

// Report recomputes the diff as pid lists only, for dry-run validation.
func Report(batch []domain.ParsedRecord, persistedPIDs []string) domain.ValidationReport {
	diff := Reconcile(batch, persistedPIDs)

	report := domain.ValidationReport{
		BatchPIDCount:  len(batch),
		CorpusPIDCount: len(persistedPIDs),
		Orphaned:       diff.Orphaned,
	}
	for _, record := range diff.NeedsInsert {
		report.NeedsSync = append(report.NeedsSync, record.PID)
	}
	for _, record := range diff.NeedsUpdate {
		report.AlreadySynced = append(report.AlreadySynced, record.PID)
	}
	return report
}
