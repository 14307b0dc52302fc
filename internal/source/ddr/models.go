package ddr

import "encoding/json"

// graphqlRequest is the POST body sent to the archive endpoint.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the archive's response envelope. Errors alongside data
// are treated as a fetch failure: a partially evaluated query cannot be
// reconciled safely.
type graphqlResponse struct {
	Data   *responseData  `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type graphqlError struct {
	Message string          `json:"message"`
	Path    json.RawMessage `json:"path"`
}

type responseData struct {
	Records []rawRecord `json:"records_v1"`
}

// rawRecord mirrors a published parent authority record.
type rawRecord struct {
	ID               string     `json:"id"`
	PID              string     `json:"pid"`
	Title            string     `json:"title"`
	Status           string     `json:"status"`
	ScopeAndContent  *string    `json:"scope_and_content"`
	DDRPeriod        *string    `json:"ddr_period"`
	ProjectTheme     *string    `json:"project_theme"`
	Methodology      *string    `json:"methodology"`
	EpistemicStance  *string    `json:"epistemic_stance"`
	ProjectTitle     *string    `json:"project_title"`
	ProjectStartDate *string    `json:"project_start_date"`
	CopyrightHolder  *string    `json:"copyright_holder"`
	RightsHolders    *string    `json:"rights_holders"`
	AttachedMedia    []rawMedia `json:"attached_media"`
}

type rawMedia struct {
	ID             string            `json:"id"`
	PID            string            `json:"pid"`
	Title          string            `json:"title"`
	PDFFiles       []rawFile         `json:"pdf_files"`
	TIFFFiles      []rawFile         `json:"tiff_files"`
	JPGDerivatives []rawFile         `json:"jpg_derivatives"`
	DigitalAssets  []rawDigitalAsset `json:"digital_assets"`
}

type rawFile struct {
	Role     string `json:"role"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Label    string `json:"label"`
}

type rawDigitalAsset struct {
	Filename     string `json:"filename"`
	UseForML     bool   `json:"use_for_ml"`
	MLAnnotation string `json:"ml_annotation"`
}
