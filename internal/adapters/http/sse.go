package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/chipfilings/assistant/internal/core/domain"
)

const sseChunkChars = 120

// writeAnswerSSE streams the answer text as delta events, then one final
// event carrying the route and sources, then the [DONE] sentinel.
func writeAnswerSSE(w http.ResponseWriter, answer *domain.Answer) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming is not supported by response writer")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for _, part := range splitByRunes(answer.Text, sseChunkChars) {
		if err := writeSSEEvent(w, map[string]any{"delta": part}); err != nil {
			return err
		}
		flusher.Flush()
	}

	final := map[string]any{
		"route":   answer.Route,
		"sources": answer.Sources,
	}
	if err := writeSSEEvent(w, final); err != nil {
		return err
	}
	flusher.Flush()

	if _, err := io.WriteString(w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func writeSSEEvent(w http.ResponseWriter, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", raw)
	return err
}

func splitByRunes(text string, chunkChars int) []string {
	if text == "" {
		return nil
	}
	if chunkChars <= 0 {
		chunkChars = sseChunkChars
	}

	var parts []string
	for len(text) > 0 {
		count := 0
		end := 0
		for end < len(text) && count < chunkChars {
			_, size := utf8.DecodeRuneInString(text[end:])
			end += size
			count++
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}
