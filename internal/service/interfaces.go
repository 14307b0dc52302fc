package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"corpus_syncer/internal/domain"
)

type DocumentStore interface {
	Insert(ctx context.Context, doc *domain.DocumentRecord) (int64, error)
	Update(ctx context.Context, doc *domain.DocumentRecord) error
	ListPIDs(ctx context.Context) ([]string, error)
}

type SyncRunStore interface {
	Create(ctx context.Context, run *domain.SyncRun) error
	Finalize(ctx context.Context, run *domain.SyncRun) error
	LastSuccessfulRun(ctx context.Context, source string) (*domain.SyncRun, error)
}

type Source interface {
	ID() string
	Name() string
	FetchRecords(ctx context.Context, modifiedSince *time.Time) ([]domain.AuthorityRecord, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, doc *domain.DocumentRecord, isNew bool, syncID string) error
	Close() error
}
