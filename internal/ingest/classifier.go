package ingest

import "corpus_syncer/internal/domain"

// Policy decides which master files of a media item may enter the training
// corpus. Implementations must be pure and safe for concurrent use.
type Policy interface {
	Name() string
	Classify(item domain.MediaItem) domain.Eligibility
}

// FileLevelPolicy is the permanent ML gate: a master file is eligible only
// when a digital asset with the same filename carries use_for_ml=true.
// Browser-friendly derivatives are never eligible, flagged or not. A filename
// present in the asset list but absent from the masters (or vice versa) is a
// known upstream data-quality gap and resolves to exclusion, not an error.
type FileLevelPolicy struct{}

func (FileLevelPolicy) Name() string { return "file_level" }

func (FileLevelPolicy) Classify(item domain.MediaItem) domain.Eligibility {
	if len(item.DigitalAssets) == 0 {
		// No assets means no approvals. Fail closed.
		return domain.Eligibility{}
	}

	approved := make(map[string]bool, len(item.DigitalAssets))
	for _, asset := range item.DigitalAssets {
		approved[asset.Filename] = approved[asset.Filename] || asset.UseForML
	}

	var result domain.Eligibility
	for _, f := range masterFiles(item) {
		if !approved[f.Filename] {
			continue
		}
		result.Files = append(result.Files, f)
		switch f.Role {
		case domain.RolePDFMaster:
			result.PDFCount++
		case domain.RoleTIFFMaster:
			result.TIFFCount++
		}
	}
	return result
}

// ItemLevelPolicy is the legacy gate kept for comparison runs: any asset
// flagged use_for_ml=true approves every master file of the item. It double
// counts items that carry both master and browser variants under matching
// approval and is superseded by FileLevelPolicy.
type ItemLevelPolicy struct{}

func (ItemLevelPolicy) Name() string { return "item_level" }

func (ItemLevelPolicy) Classify(item domain.MediaItem) domain.Eligibility {
	anyApproved := false
	for _, asset := range item.DigitalAssets {
		if asset.UseForML {
			anyApproved = true
			break
		}
	}
	if !anyApproved {
		return domain.Eligibility{}
	}

	var result domain.Eligibility
	for _, f := range masterFiles(item) {
		result.Files = append(result.Files, f)
		switch f.Role {
		case domain.RolePDFMaster:
			result.PDFCount++
		case domain.RoleTIFFMaster:
			result.TIFFCount++
		}
	}
	return result
}

// masterFiles returns the item's files with a master role, in discovery order
// (PDF masters first, matching the archive's payload layout).
func masterFiles(item domain.MediaItem) []domain.MasterFile {
	files := make([]domain.MasterFile, 0, len(item.PDFFiles)+len(item.TIFFFiles))
	for _, f := range item.PDFFiles {
		if f.Role == domain.RolePDFMaster {
			files = append(files, f)
		}
	}
	for _, f := range item.TIFFFiles {
		if f.Role == domain.RoleTIFFMaster {
			files = append(files, f)
		}
	}
	return files
}
