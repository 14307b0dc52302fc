package ddr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"corpus_syncer/internal/domain"
)

const (
	SourceID   = "ddr_graphql"
	SourceName = "DDR Archive GraphQL"
)

// recordsQuery fetches all published parent authority records with their
// attached media, master files, and per-file ML approval flags.
const recordsQuery = `
query Records($modified_since: String) {
  records_v1(status: "published", modified_since: $modified_since) {
    id
    pid
    title
    status
    scope_and_content
    ddr_period
    project_theme
    methodology
    epistemic_stance
    project_title
    project_start_date
    copyright_holder
    rights_holders
    attached_media {
      id
      pid
      title
      pdf_files { role url filename label }
      tiff_files { role url filename label }
      jpg_derivatives { role url filename label }
      digital_assets { filename use_for_ml ml_annotation }
    }
  }
}`

// Config holds DDR Archive source configuration.
type Config struct {
	Endpoint       string
	APIToken       string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source fetches authority records from the DDR Archive GraphQL API.
type Source struct {
	httpClient     *http.Client
	endpoint       string
	apiToken       string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// New creates a new DDR Archive source. MaxAttempts is floored at one so a
// zero-value Config still performs a single fetch.
func New(cfg Config, logger *slog.Logger) *Source {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint:       cfg.Endpoint,
		apiToken:       cfg.APIToken,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceID),
	}
}

// ID returns the source identifier recorded in sync provenance.
func (s *Source) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// FetchRecords runs the records query once, with bounded retries on transport
// failure. modifiedSince is an advisory incremental hint; a nil value fetches
// the full published set.
func (s *Source) FetchRecords(ctx context.Context, modifiedSince *time.Time) ([]domain.AuthorityRecord, error) {
	var variables map[string]any
	if modifiedSince != nil && !modifiedSince.IsZero() {
		variables = map[string]any{"modified_since": modifiedSince.UTC().Format(time.RFC3339)}
	}

	var resp *graphqlResponse
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		resp, err = s.doRequest(ctx, variables)
		if err == nil {
			break
		}

		if attempt == s.maxAttempts {
			return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	records := transform(resp.Data.Records)
	s.logger.Debug("fetched records", "count", len(records))
	return records, nil
}

func (s *Source) doRequest(ctx context.Context, variables map[string]any) (*graphqlResponse, error) {
	body, err := json.Marshal(graphqlRequest{Query: recordsQuery, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var gqlResp graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", gqlResp.Errors[0].Message)
	}
	if gqlResp.Data == nil {
		return nil, fmt.Errorf("empty response data")
	}

	return &gqlResp, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

func transform(records []rawRecord) []domain.AuthorityRecord {
	result := make([]domain.AuthorityRecord, 0, len(records))

	for _, r := range records {
		record := domain.AuthorityRecord{
			ID:               r.ID,
			PID:              r.PID,
			Title:            r.Title,
			ScopeAndContent:  r.ScopeAndContent,
			Period:           r.DDRPeriod,
			Theme:            r.ProjectTheme,
			Methodology:      r.Methodology,
			Stance:           r.EpistemicStance,
			ProjectTitle:     r.ProjectTitle,
			ProjectStartDate: r.ProjectStartDate,
			CopyrightHolder:  r.CopyrightHolder,
			RightsHolders:    r.RightsHolders,
		}

		for _, m := range r.AttachedMedia {
			record.AttachedMedia = append(record.AttachedMedia, domain.MediaItem{
				PID:           m.PID,
				Title:         m.Title,
				PDFFiles:      transformFiles(m.PDFFiles),
				TIFFFiles:     transformFiles(m.TIFFFiles),
				Derivatives:   transformFiles(m.JPGDerivatives),
				DigitalAssets: transformAssets(m.DigitalAssets),
			})
		}

		result = append(result, record)
	}

	return result
}

func transformFiles(files []rawFile) []domain.MasterFile {
	if len(files) == 0 {
		return nil
	}
	result := make([]domain.MasterFile, 0, len(files))
	for _, f := range files {
		result = append(result, domain.MasterFile{
			Role:     f.Role,
			Filename: f.Filename,
			URL:      f.URL,
			Label:    f.Label,
		})
	}
	return result
}

func transformAssets(assets []rawDigitalAsset) []domain.DigitalAsset {
	if len(assets) == 0 {
		return nil
	}
	result := make([]domain.DigitalAsset, 0, len(assets))
	for _, a := range assets {
		result = append(result, domain.DigitalAsset{
			Filename:     a.Filename,
			UseForML:     a.UseForML,
			MLAnnotation: a.MLAnnotation,
		})
	}
	return result
}
