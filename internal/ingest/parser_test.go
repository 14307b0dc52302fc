package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corpus_syncer/internal/domain"
	"corpus_syncer/testdata/utils"
)

func TestParser_MissingPIDRejected(t *testing.T) {
	parser := NewParser(FileLevelPolicy{})

	_, err := parser.Parse(domain.AuthorityRecord{Title: "No pid here"}, time.Now())

	assert.ErrorIs(t, err, ErrMissingPID)
}

func TestParser_CountsEligibleFilesAcrossMedia(t *testing.T) {
	parser := NewParser(FileLevelPolicy{})

	record := domain.AuthorityRecord{
		PID:   "564310168393",
		Title: "Archer Systematic method for designers",
		AttachedMedia: []domain.MediaItem{
			{
				PDFFiles:      []domain.MasterFile{{Role: domain.RolePDFMaster, Filename: "X.pdf"}},
				DigitalAssets: []domain.DigitalAsset{{Filename: "X.pdf", UseForML: true}},
			},
			{
				TIFFFiles:     []domain.MasterFile{{Role: domain.RoleTIFFMaster, Filename: "Y.tiff"}},
				DigitalAssets: []domain.DigitalAsset{{Filename: "Y.tiff", UseForML: true}},
			},
		},
	}

	parsed, err := parser.Parse(record, time.Now())

	require.NoError(t, err)
	assert.Equal(t, "564310168393", parsed.PID)
	assert.Equal(t, 1, parsed.PDFCount)
	assert.Equal(t, 1, parsed.TIFFCount)
}

func TestParser_DerivativeOnlyRecordStillParses(t *testing.T) {
	parser := NewParser(FileLevelPolicy{})

	record := domain.AuthorityRecord{
		PID:   "001808484369",
		Title: "Slide carousel",
		AttachedMedia: []domain.MediaItem{
			{
				Derivatives:   []domain.MasterFile{{Role: "jpg_derivative", Filename: "slide.jpg"}},
				DigitalAssets: []domain.DigitalAsset{{Filename: "slide.jpg", UseForML: true}},
			},
		},
	}

	parsed, err := parser.Parse(record, time.Now())

	require.NoError(t, err)
	assert.Equal(t, 0, parsed.PDFCount)
	assert.Equal(t, 0, parsed.TIFFCount)
}

func TestParser_YearFromProjectStartDate(t *testing.T) {
	parser := NewParser(FileLevelPolicy{})

	record := domain.AuthorityRecord{
		PID:              "123",
		Title:            "Undated project",
		ProjectStartDate: utils.Ptr("1973-04-01"),
	}

	parsed, err := parser.Parse(record, time.Now())

	require.NoError(t, err)
	assert.Equal(t, 1973, parsed.PublicationYear)
}

func TestParser_YearFallsBackToTitle(t *testing.T) {
	parser := NewParser(FileLevelPolicy{})

	record := domain.AuthorityRecord{
		PID:   "123",
		Title: "Design methods conference 1967 proceedings",
	}

	parsed, err := parser.Parse(record, time.Now())

	require.NoError(t, err)
	assert.Equal(t, 1967, parsed.PublicationYear)
}

func TestParser_YearOutsideRangeIgnored(t *testing.T) {
	parser := NewParser(FileLevelPolicy{})

	// 1947 is outside the plausible corpus range, so the sentinel applies.
	record := domain.AuthorityRecord{
		PID:   "123",
		Title: "Reprint of a 1947 pamphlet",
	}

	parsed, err := parser.Parse(record, time.Now())

	require.NoError(t, err)
	assert.Equal(t, 1970, parsed.PublicationYear)
}

func TestParser_SentinelYearWhenNothingAvailable(t *testing.T) {
	parser := NewParser(FileLevelPolicy{})

	parsed, err := parser.Parse(domain.AuthorityRecord{PID: "123", Title: "No dates"}, time.Now())

	require.NoError(t, err)
	assert.Equal(t, 1970, parsed.PublicationYear)
}

func TestParser_MetadataSnapshot(t *testing.T) {
	parser := NewParser(FileLevelPolicy{})
	syncedAt := time.Date(2026, 2, 10, 1, 0, 0, 0, time.UTC)

	record := domain.AuthorityRecord{
		PID:             "123",
		Title:           "Annotated record",
		ScopeAndContent: utils.Ptr("Working papers"),
		Theme:           utils.Ptr("systematic design"),
		Methodology:     utils.Ptr("case study"),
		CopyrightHolder: utils.Ptr("Royal College of Art"),
		AttachedMedia:   []domain.MediaItem{{}, {}},
	}

	parsed, err := parser.Parse(record, syncedAt)

	require.NoError(t, err)
	assert.Equal(t, "Working papers", parsed.Metadata["scope_and_content"])
	assert.Equal(t, "systematic design", parsed.Metadata["theme"])
	assert.Equal(t, "case study", parsed.Metadata["methodology"])
	assert.Equal(t, "Royal College of Art", parsed.Metadata["copyright_holder"])
	assert.Equal(t, 2, parsed.Metadata["media_count"])
	assert.Equal(t, "ddr_graphql", parsed.Metadata["synced_from"])
	assert.Equal(t, "2026-02-10T01:00:00Z", parsed.Metadata["synced_at"])
	assert.NotContains(t, parsed.Metadata, "period")
	assert.NotContains(t, parsed.Metadata, "project_title")
}

func TestParser_EmptyTitleDefaultsToUntitled(t *testing.T) {
	parser := NewParser(FileLevelPolicy{})

	parsed, err := parser.Parse(domain.AuthorityRecord{PID: "123"}, time.Now())

	require.NoError(t, err)
	assert.Equal(t, "Untitled", parsed.Title)
}
