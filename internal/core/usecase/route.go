package usecase

import (
	"strings"

	"github.com/chipfilings/assistant/internal/core/domain"
)

// RouteDecision is the outcome of keyword classification: the answering
// strategy plus the filing source files detected in the question.
type RouteDecision struct {
	Route       domain.Route
	SourceFiles []string
}

// QueryRouter classifies a question into one of the three answering
// strategies. Classification is stateless keyword matching; ambiguous
// questions fall through to the filing route.
type QueryRouter struct {
	registry *domain.Registry
}

func NewQueryRouter(registry *domain.Registry) *QueryRouter {
	return &QueryRouter{registry: registry}
}

var (
	comparisonCues = []string{
		"compare", "compared", "comparison", "versus", "vs", "vs.",
		"difference", "differences", "better", "against", "between", "outperform",
	}
	timeSensitiveCues = []string{
		"latest", "current", "currently", "recent", "recently", "today", "now",
		"this week", "this month", "this year", "news", "stock price",
		"share price", "market cap",
	}
	filingDetailCues = []string{
		"revenue", "10-k", "10k", "filing", "filings", "risk factor",
		"risk factors", "fiscal", "segment", "segments", "annual report",
		"gross margin", "operating margin", "r&d", "research and development",
		"balance sheet", "cash flow",
	}
)

func (qr *QueryRouter) Route(question string) RouteDecision {
	normalized := normalizeQuestion(question)
	files := qr.registry.DetectSourceFiles(question)

	if len(files) >= 2 && hasAnyCue(normalized, comparisonCues) {
		return RouteDecision{Route: domain.RouteComparison, SourceFiles: files}
	}
	if hasAnyCue(normalized, timeSensitiveCues) && !hasAnyCue(normalized, filingDetailCues) {
		return RouteDecision{Route: domain.RouteWeb, SourceFiles: files}
	}
	return RouteDecision{Route: domain.RouteFiling, SourceFiles: files}
}

func normalizeQuestion(question string) string {
	return strings.ToLower(strings.Join(strings.Fields(question), " "))
}

// hasAnyCue matches single-word cues on word boundaries and multi-word cues
// by substring, so "vs" hits but "investors" does not.
func hasAnyCue(normalized string, cues []string) bool {
	if normalized == "" {
		return false
	}
	words := questionWords(normalized)
	for _, cue := range cues {
		if strings.ContainsAny(cue, " -&.") || strings.Contains(cue, " ") {
			if strings.Contains(normalized, cue) {
				return true
			}
			continue
		}
		if _, ok := words[cue]; ok {
			return true
		}
	}
	return false
}

func questionWords(normalized string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, field := range strings.Fields(normalized) {
		word := strings.Trim(field, ".,!?:;()'\"")
		if word != "" {
			words[word] = struct{}{}
		}
	}
	return words
}
