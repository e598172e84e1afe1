package openai

import (
	"fmt"

	"github.com/chipfilings/assistant/internal/core/domain"
)

const answerSystemPrompt = `You are a financial analyst assistant answering questions about SEC 10-K annual reports of semiconductor companies.
Answer only from the provided filing excerpts. If the excerpts are insufficient, say so directly.
When an excerpt carries a citation line, repeat that citation after the claim it supports.`

func buildAnswerPrompt(question string, chunks []domain.RetrievedChunk) string {
	return fmt.Sprintf(`Filing excerpts:
%s

Question:
%s
`, domain.FormatChunksXML(chunks), question)
}
