package domain

import "time"

// EnrichmentOptions mirror the CLI surface: a company, how many records to
// sample (All overrides Count), and whether this is a dry run that must not
// write anything.
type EnrichmentOptions struct {
	Company string
	Count   int
	All     bool
	DryRun  bool
}

// EnrichedMetadata is what locating one chunk in its source PDF yields.
type EnrichedMetadata struct {
	PageNumber          int
	HierarchicalSection string
	MainSectionName     string
	MainSectionTitle    string
	SubsectionName      string
	SubsectionTitle     string
	ExactMatch          bool
}

// Update renders the located metadata as the fields written back to the
// record. Absent section parts are omitted rather than written empty.
func (m EnrichedMetadata) Update() MetadataUpdate {
	update := MetadataUpdate{
		"page_number": m.PageNumber,
	}
	if m.HierarchicalSection != "" {
		update["hierarchical_section"] = m.HierarchicalSection
	}
	if m.MainSectionName != "" {
		update["main_section_name"] = m.MainSectionName
		update["main_section_title"] = m.MainSectionTitle
	}
	if m.SubsectionName != "" {
		update["subsection_name"] = m.SubsectionName
		update["subsection_title"] = m.SubsectionTitle
	}
	return update
}

type EnrichmentSummary struct {
	Company      string `json:"company"`
	SourceFile   string `json:"source_file"`
	TotalRecords int    `json:"total_records"`
	Candidates   int    `json:"candidates"`
	Processed    int    `json:"processed"`
	Enriched     int    `json:"enriched"`
	Failed       int    `json:"failed"`
	Resumed      int    `json:"resumed"`
	DryRun       bool   `json:"dry_run"`
}

func (s EnrichmentSummary) SuccessRate() float64 {
	if s.Processed == 0 {
		return 0
	}
	return float64(s.Enriched) / float64(s.Processed) * 100
}

// EnrichmentRun is the persisted checkpoint header for one live run.
type EnrichmentRun struct {
	ID         string
	Company    string
	StartedAt  time.Time
	FinishedAt time.Time
	Processed  int
	Enriched   int
	Failed     int
}
