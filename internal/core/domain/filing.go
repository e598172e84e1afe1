package domain

import "time"

type FilingStatus string

const (
	FilingStatusRegistered FilingStatus = "registered"
	FilingStatusExtracting FilingStatus = "sections_extracting"
	FilingStatusReady      FilingStatus = "sections_ready"
	FilingStatusFailed     FilingStatus = "failed"
)

// Filing tracks one company's 10-K through the section-extraction pipeline.
type Filing struct {
	Company      string       `json:"company"`
	SourceFile   string       `json:"source_file"`
	Status       FilingStatus `json:"status"`
	SectionCount int          `json:"section_count"`
	Error        string       `json:"error,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
