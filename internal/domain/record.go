package domain

import "time"

// Master file roles as reported by the archive. Only master roles may enter
// the training corpus; browser-friendly derivatives never qualify.
const (
	RolePDFMaster  = "pdf_master"
	RoleTIFFMaster = "tiff_master"
)

// MasterFile is a preservation-quality file attached to a media item.
type MasterFile struct {
	Role     string
	Filename string
	URL      string
	Label    string
}

// DigitalAsset carries the per-file ML approval flag.
type DigitalAsset struct {
	Filename     string
	UseForML     bool
	MLAnnotation string
}

// MediaItem is one media attachment of an authority record.
type MediaItem struct {
	PID           string
	Title         string
	PDFFiles      []MasterFile
	TIFFFiles     []MasterFile
	Derivatives   []MasterFile
	DigitalAssets []DigitalAsset
}

// AuthorityRecord is a top-level cataloged entity fetched from the archive.
type AuthorityRecord struct {
	ID               string
	PID              string
	Title            string
	ScopeAndContent  *string
	Period           *string
	Theme            *string
	Methodology      *string
	Stance           *string
	ProjectTitle     *string
	ProjectStartDate *string
	CopyrightHolder  *string
	RightsHolders    *string
	AttachedMedia    []MediaItem
}

// Eligibility is the classification outcome for one media item.
type Eligibility struct {
	Files     []MasterFile
	PDFCount  int
	TIFFCount int
}

// ParsedRecord is the normalized form of an authority record, ready for
// reconciliation against the corpus.
type ParsedRecord struct {
	PID             string
	Title           string
	PublicationYear int
	PDFCount        int
	TIFFCount       int
	Metadata        map[string]any
}

// ParseFailure describes one rejected record. PID may be empty when the
// rejection reason is a missing pid.
type ParseFailure struct {
	PID    string
	Reason string
}

// DocumentRecord is the persisted corpus entry for one pid.
type DocumentRecord struct {
	ID              int64          `db:"id"`
	DocumentID      string         `db:"document_id"`
	PID             string         `db:"pid"`
	Title           string         `db:"title"`
	PublicationYear int            `db:"publication_year"`
	Filename        string         `db:"filename"`
	PDFCount        int            `db:"pdf_count"`
	TIFFCount       int            `db:"tiff_count"`
	Metadata        map[string]any `db:"-"`
	LastSyncedAt    time.Time      `db:"last_synced_at"`
	SyncVersion     int            `db:"sync_version"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}
