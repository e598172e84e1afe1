package domain

import (
	"fmt"
	"strings"
)

// FormatChunksXML renders retrieved chunks as the <documents> block fed to
// the answer model. Chunks enriched with a located page carry a trailing
// citation line so the model can attribute statements.
func FormatChunksXML(chunks []RetrievedChunk) string {
	if len(chunks) == 0 {
		return "<documents></documents>"
	}

	var b strings.Builder
	b.WriteString("<documents>\n")
	for _, chunk := range chunks {
		b.WriteString(formatChunkXML(chunk))
		b.WriteString("\n")
	}
	b.WriteString("</documents>")
	return b.String()
}

func formatChunkXML(chunk RetrievedChunk) string {
	var attrs strings.Builder
	if chunk.SourceFile != "" {
		fmt.Fprintf(&attrs, " source_file=%q", chunk.SourceFile)
	}
	if chunk.PageNumber > 0 {
		fmt.Fprintf(&attrs, " page_number=%q", fmt.Sprint(chunk.PageNumber))
	}
	if chunk.Section != "" {
		fmt.Fprintf(&attrs, " section=%q", chunk.Section)
	}

	content := chunk.Text
	if citation := chunkCitation(chunk); citation != "" {
		content = fmt.Sprintf("%s\n\n[Citation: %s]", chunk.Text, citation)
	}
	return fmt.Sprintf("<document%s>\n%s\n</document>", attrs.String(), content)
}

func chunkCitation(chunk RetrievedChunk) string {
	parts := make([]string, 0, 2)
	if chunk.PageNumber > 0 {
		parts = append(parts, fmt.Sprintf("Page %d", chunk.PageNumber))
	}
	if chunk.Section != "" {
		parts = append(parts, chunk.Section)
	}
	if len(parts) == 0 {
		return ""
	}

	file := chunk.SourceFile
	if idx := strings.LastIndex(file, "/"); idx >= 0 {
		file = file[idx+1:]
	}
	if file == "" {
		file = "document"
	}
	return fmt.Sprintf("%s from %s", strings.Join(parts, ", "), file)
}
