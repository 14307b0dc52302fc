package ingest

import (
	"errors"
	"regexp"
	"strconv"
	"time"

	"corpus_syncer/internal/domain"
)

// ErrMissingPID marks a record that cannot be linked into the corpus.
var ErrMissingPID = errors.New("record has no pid")

// sentinelYear is used when no plausible publication year can be extracted.
// It is a placeholder, not ground truth; downstream analysis must treat it
// as "year unknown".
const sentinelYear = 1970

// titleYearPattern matches the first plausible year inside a record title.
// The corpus covers 1960-1989, so anything outside that range in a title is
// more likely a reference number than a date.
var titleYearPattern = regexp.MustCompile(`(19[6-8][0-9])`)

// Parser normalizes raw authority records using the configured eligibility
// policy.
type Parser struct {
	policy Policy
}

func NewParser(policy Policy) *Parser {
	return &Parser{policy: policy}
}

// Parse normalizes one authority record. Records without a pid are hard
// rejected; every other oddity degrades to zero counts or the sentinel year.
func (p *Parser) Parse(record domain.AuthorityRecord, syncedAt time.Time) (domain.ParsedRecord, error) {
	if record.PID == "" {
		return domain.ParsedRecord{}, ErrMissingPID
	}

	title := record.Title
	if title == "" {
		title = "Untitled"
	}

	pdfCount, tiffCount := 0, 0
	for _, item := range record.AttachedMedia {
		eligibility := p.policy.Classify(item)
		pdfCount += eligibility.PDFCount
		tiffCount += eligibility.TIFFCount
	}

	return domain.ParsedRecord{
		PID:             record.PID,
		Title:           title,
		PublicationYear: extractYear(record),
		PDFCount:        pdfCount,
		TIFFCount:       tiffCount,
		Metadata:        buildMetadata(record, pdfCount, tiffCount, syncedAt),
	}, nil
}

// extractYear prefers the project start date, falls back to a year-looking
// token in the title, and finally the sentinel. The title fallback is a
// documented heuristic.
func extractYear(record domain.AuthorityRecord) int {
	if record.ProjectStartDate != nil && len(*record.ProjectStartDate) >= 4 {
		if year, err := strconv.Atoi((*record.ProjectStartDate)[:4]); err == nil {
			return year
		}
	}
	if match := titleYearPattern.FindString(record.Title); match != "" {
		year, _ := strconv.Atoi(match)
		return year
	}
	return sentinelYear
}

// buildMetadata snapshots the record's descriptive and provenance fields.
// Values are passed through opaquely; only presence is checked.
func buildMetadata(record domain.AuthorityRecord, pdfCount, tiffCount int, syncedAt time.Time) map[string]any {
	metadata := map[string]any{
		"pdf_count":   pdfCount,
		"tiff_count":  tiffCount,
		"media_count": len(record.AttachedMedia),
		"synced_from": "ddr_graphql",
		"synced_at":   syncedAt.UTC().Format(time.RFC3339),
	}

	putIfPresent(metadata, "scope_and_content", record.ScopeAndContent)
	putIfPresent(metadata, "period", record.Period)
	putIfPresent(metadata, "theme", record.Theme)
	putIfPresent(metadata, "methodology", record.Methodology)
	putIfPresent(metadata, "stance", record.Stance)
	putIfPresent(metadata, "project_title", record.ProjectTitle)
	putIfPresent(metadata, "copyright_holder", record.CopyrightHolder)
	putIfPresent(metadata, "rights_holders", record.RightsHolders)

	return metadata
}

func putIfPresent(metadata map[string]any, key string, value *string) {
	if value != nil {
		metadata[key] = *value
	}
}
