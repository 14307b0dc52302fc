package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"corpus_syncer/internal/domain"
)

func batchOf(pids ...string) []domain.ParsedRecord {
	batch := make([]domain.ParsedRecord, 0, len(pids))
	for _, pid := range pids {
		batch = append(batch, domain.ParsedRecord{PID: pid})
	}
	return batch
}

func pidsOf(records []domain.ParsedRecord) []string {
	pids := make([]string, 0, len(records))
	for _, r := range records {
		pids = append(pids, r.PID)
	}
	return pids
}

func TestReconcile_Partition(t *testing.T) {
	diff := Reconcile(batchOf("a", "b", "c"), []string{"b", "c", "d"})

	assert.Equal(t, []string{"a"}, pidsOf(diff.NeedsInsert))
	assert.Equal(t, []string{"b", "c"}, pidsOf(diff.NeedsUpdate))
	assert.Equal(t, []string{"d"}, diff.Orphaned)
}

func TestReconcile_EmptyCorpus(t *testing.T) {
	diff := Reconcile(batchOf("a", "b"), nil)

	assert.Equal(t, []string{"a", "b"}, pidsOf(diff.NeedsInsert))
	assert.Empty(t, diff.NeedsUpdate)
	assert.Empty(t, diff.Orphaned)
}

func TestReconcile_EmptyBatchReportsAllOrphaned(t *testing.T) {
	diff := Reconcile(nil, []string{"x", "y"})

	assert.Empty(t, diff.NeedsInsert)
	assert.Empty(t, diff.NeedsUpdate)
	assert.Equal(t, []string{"x", "y"}, diff.Orphaned)
}

func TestReconcile_ResyncIsAlwaysUpdate(t *testing.T) {
	// No field-level change detection: a pid already in the corpus is an
	// update even when its payload looks identical.
	diff := Reconcile(batchOf("a"), []string{"a"})

	assert.Empty(t, diff.NeedsInsert)
	assert.Equal(t, []string{"a"}, pidsOf(diff.NeedsUpdate))
}

func TestReconcile_PartitionCompleteness(t *testing.T) {
	batch := batchOf("a", "b", "c", "d")
	persisted := []string{"c", "d", "e", "f"}

	diff := Reconcile(batch, persisted)

	seen := map[string]int{}
	for _, r := range diff.NeedsInsert {
		seen[r.PID]++
	}
	for _, r := range diff.NeedsUpdate {
		seen[r.PID]++
	}
	for _, pid := range diff.Orphaned {
		seen[pid]++
	}

	for _, pid := range []string{"a", "b", "c", "d", "e", "f"} {
		assert.Equal(t, 1, seen[pid], "pid %s must appear exactly once", pid)
	}
}

func TestReconcile_OrderIsDeterministic(t *testing.T) {
	batch := batchOf("z", "a", "m")
	persisted := []string{"m", "q", "b"}

	first := Reconcile(batch, persisted)
	second := Reconcile(batch, persisted)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"z", "a"}, pidsOf(first.NeedsInsert))
	assert.Equal(t, []string{"q", "b"}, first.Orphaned)
}

func TestReport_Shape(t *testing.T) {
	report := Report(batchOf("a", "b"), []string{"b", "999"})

	assert.Equal(t, 2, report.BatchPIDCount)
	assert.Equal(t, 2, report.CorpusPIDCount)
	assert.Equal(t, []string{"a"}, report.NeedsSync)
	assert.Equal(t, []string{"b"}, report.AlreadySynced)
	assert.Equal(t, []string{"999"}, report.Orphaned)
}
