package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chipfilings/assistant/internal/core/domain"
	"github.com/chipfilings/assistant/internal/core/ports"
)

// AskUseCase is the top-level question entrypoint. It routes the question to
// one of the three answer paths (single-filing retrieval, cross-company
// comparison, live web search) and synthesizes the final answer.
type AskUseCase struct {
	router    *QueryRouter
	query     *QueryUseCase
	compare   *CompareUseCase
	web       ports.WebSearcher
	generator ports.AnswerGenerator
	agent     *AgentAnswerUseCase
	telemetry ports.AnswerTelemetry
}

// NewAskUseCase wires the routing entrypoint. agent may be nil, in which case
// filing questions are answered by plain retrieval without the planner loop;
// telemetry may be nil to disable recording.
func NewAskUseCase(
	router *QueryRouter,
	query *QueryUseCase,
	compare *CompareUseCase,
	web ports.WebSearcher,
	generator ports.AnswerGenerator,
	agent *AgentAnswerUseCase,
	telemetry ports.AnswerTelemetry,
) *AskUseCase {
	return &AskUseCase{
		router:    router,
		query:     query,
		compare:   compare,
		web:       web,
		generator: generator,
		agent:     agent,
		telemetry: telemetry,
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, question string, topK int) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", fmt.Errorf("question is required"))
	}

	decision := uc.router.Route(question)
	slog.Debug("question_routed",
		slog.String("route", string(decision.Route)),
		slog.Int("source_files", len(decision.SourceFiles)),
	)

	switch decision.Route {
	case domain.RouteWeb:
		return uc.answerFromWeb(ctx, question)
	case domain.RouteComparison:
		return uc.compare.Compare(ctx, question, decision.SourceFiles)
	default:
		return uc.answerFromFilings(ctx, question, decision.SourceFiles, topK)
	}
}

func (uc *AskUseCase) answerFromFilings(ctx context.Context, question string, sourceFiles []string, topK int) (*domain.Answer, error) {
	var (
		chunks []domain.RetrievedChunk
		err    error
	)
	switch {
	case len(sourceFiles) > 1:
		// Several companies mentioned without comparison language: still pull
		// a balanced context so no company dominates the answer.
		chunks, err = uc.compare.RetrieveBalanced(ctx, question, sourceFiles)
	case len(sourceFiles) == 1:
		chunks, err = uc.query.Retrieve(ctx, question, topK, domain.SearchFilter{SourceFile: sourceFiles[0]})
	default:
		chunks, err = uc.query.Retrieve(ctx, question, topK, domain.SearchFilter{})
	}
	if err != nil {
		return nil, err
	}

	if uc.agent != nil {
		result, agentErr := uc.agent.Run(ctx, question, chunks)
		if agentErr == nil && strings.TrimSpace(result.Answer) != "" {
			return &domain.Answer{
				Text:    result.Answer,
				Route:   domain.RouteFiling,
				Sources: chunks,
			}, nil
		}
		slog.Warn("agent_run_failed_falling_back", slog.Any("error", agentErr))
	}

	text, err := uc.generator.GenerateAnswer(ctx, question, chunks)
	if err != nil {
		return nil, err
	}
	return &domain.Answer{
		Text:    text,
		Route:   domain.RouteFiling,
		Sources: chunks,
	}, nil
}

func (uc *AskUseCase) answerFromWeb(ctx context.Context, question string) (*domain.Answer, error) {
	resp, err := uc.web.Search(ctx, question)
	if uc.telemetry != nil {
		uc.telemetry.WebSearchFinished(err)
	}
	if err != nil {
		return nil, err
	}

	text, genErr := uc.generator.GenerateFromPrompt(ctx, buildWebAnswerPrompt(question, resp))
	if genErr != nil || strings.TrimSpace(text) == "" {
		// The search provider already returns a short synthesized answer;
		// use it when the model is unavailable.
		if strings.TrimSpace(resp.Answer) != "" {
			text = resp.Answer
		} else if genErr != nil {
			return nil, genErr
		}
	}

	return &domain.Answer{
		Text:  text,
		Route: domain.RouteWeb,
	}, nil
}

func buildWebAnswerPrompt(question string, resp *domain.WebSearchResponse) string {
	var b strings.Builder
	b.WriteString("Answer the question using the web search results below. Cite result URLs inline where relevant.\n\n")
	if strings.TrimSpace(resp.Answer) != "" {
		fmt.Fprintf(&b, "Search engine summary: %s\n\n", resp.Answer)
	}
	b.WriteString("Results:\n")
	for i, r := range resp.Results {
		fmt.Fprintf(&b, "%d. %s (%s)\n%s\n\n", i+1, r.Title, r.URL, r.Content)
	}
	fmt.Fprintf(&b, "Question: %s\n", question)
	return b.String()
}
