package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"corpus_syncer/internal/domain"
)

type DocumentStore struct {
	db *sqlx.DB
}

func NewDocumentStore(db *sqlx.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// ExistsByPID reports whether a corpus entry exists for the pid.
func (s *DocumentStore) ExistsByPID(ctx context.Context, pid string) (bool, error) {
	exec := GetExecutor(ctx, s.db)

	var exists bool
	err := sqlx.GetContext(ctx, exec, &exists,
		"SELECT EXISTS (SELECT 1 FROM documents WHERE pid = $1)", pid)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Insert creates the corpus entry for a newly seen pid. Runs against the
// transaction carried in ctx when present.
func (s *DocumentStore) Insert(ctx context.Context, doc *domain.DocumentRecord) (int64, error) {
	exec := GetExecutor(ctx, s.db)

	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return 0, fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO documents (
			document_id, pid, title, publication_year, filename,
			pdf_count, tiff_count, doc_metadata, last_synced_at, sync_version
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8::jsonb, NOW(), 1
		)
		RETURNING id`

	var id int64
	err = exec.QueryRowxContext(ctx, query,
		doc.DocumentID,
		doc.PID,
		doc.Title,
		doc.PublicationYear,
		doc.Filename,
		doc.PDFCount,
		doc.TIFFCount,
		metadata,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

// Update refreshes the existing entry for a pid and bumps its sync version.
func (s *DocumentStore) Update(ctx context.Context, doc *domain.DocumentRecord) error {
	exec := GetExecutor(ctx, s.db)

	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		UPDATE documents SET
			title = $1,
			publication_year = $2,
			pdf_count = $3,
			tiff_count = $4,
			doc_metadata = $5::jsonb,
			last_synced_at = NOW(),
			sync_version = sync_version + 1,
			updated_at = NOW()
		WHERE pid = $6`

	result, err := exec.ExecContext(ctx, query,
		doc.Title,
		doc.PublicationYear,
		doc.PDFCount,
		doc.TIFFCount,
		metadata,
		doc.PID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListPIDs returns every pid currently in the corpus, ordered by pid.
func (s *DocumentStore) ListPIDs(ctx context.Context) ([]string, error) {
	exec := GetExecutor(ctx, s.db)

	var pids []string
	err := sqlx.SelectContext(ctx, exec, &pids,
		"SELECT pid FROM documents ORDER BY pid")
	if err != nil {
		return nil, err
	}
	return pids, nil
}

// GetByPID loads a full corpus entry, metadata included.
func (s *DocumentStore) GetByPID(ctx context.Context, pid string) (*domain.DocumentRecord, error) {
	exec := GetExecutor(ctx, s.db)

	query := `
		SELECT id, document_id, pid, title, publication_year, filename,
		       pdf_count, tiff_count, doc_metadata, last_synced_at,
		       sync_version, created_at, updated_at
		FROM documents
		WHERE pid = $1`

	row := exec.QueryRowxContext(ctx, query, pid)

	var doc domain.DocumentRecord
	var rawMetadata []byte
	err := row.Scan(
		&doc.ID,
		&doc.DocumentID,
		&doc.PID,
		&doc.Title,
		&doc.PublicationYear,
		&doc.Filename,
		&doc.PDFCount,
		&doc.TIFFCount,
		&rawMetadata,
		&doc.LastSyncedAt,
		&doc.SyncVersion,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(rawMetadata) > 0 {
		if err := json.Unmarshal(rawMetadata, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return &doc, nil
}
