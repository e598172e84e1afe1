package domain

import (
	"fmt"
	"strconv"
)

// VectorRecord is a stored chunk as the vector index returns it: an ID plus
// the metadata map written at ingestion time. Vectors themselves never
// travel through enrichment.
type VectorRecord struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

// MetadataUpdate is the set of metadata fields written back to a record.
// Updates only ever add or overwrite keys; they never touch the embedding.
type MetadataUpdate map[string]any

func (r VectorRecord) Text() string {
	return MetadataString(r.Metadata, "text")
}

func (r VectorRecord) SourceFile() string {
	return MetadataString(r.Metadata, "source_file")
}

// Enriched reports whether the record already carries a located page
// number, which marks a completed enrichment pass.
func (r VectorRecord) Enriched() bool {
	return MetadataInt(r.Metadata, "page_number") > 0
}

func (r VectorRecord) PageNumber() int {
	return MetadataInt(r.Metadata, "page_number")
}

func (r VectorRecord) HierarchicalSection() string {
	return MetadataString(r.Metadata, "hierarchical_section")
}

func MetadataString(metadata map[string]any, key string) string {
	v, ok := metadata[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func MetadataInt(metadata map[string]any, key string) int {
	v, ok := metadata[key]
	if !ok || v == nil {
		return 0
	}
	switch typed := v.(type) {
	case int:
		return typed
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	case string:
		n, err := strconv.Atoi(typed)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
