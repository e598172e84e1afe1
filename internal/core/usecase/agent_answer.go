package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chipfilings/assistant/internal/core/domain"
	"github.com/chipfilings/assistant/internal/core/ports"
)

const (
	agentToolIndustryAnalysis = "industry_analysis"
	agentToolWebSearch        = "web_search"
)

// AgentAnswerUseCase runs a bounded planner loop over an already-retrieved
// filing context. Each iteration the planner either calls a tool
// (industry-wide balanced retrieval or live web search) or emits the final
// answer. Planner failures fall back to a plain retrieval answer.
type AgentAnswerUseCase struct {
	compare   *CompareUseCase
	web       ports.WebSearcher
	generator ports.AnswerGenerator
	registry  *domain.Registry
	limits    domain.AgentLimits
	telemetry ports.AnswerTelemetry
}

func NewAgentAnswerUseCase(
	compare *CompareUseCase,
	web ports.WebSearcher,
	generator ports.AnswerGenerator,
	registry *domain.Registry,
	limits domain.AgentLimits,
	telemetry ports.AnswerTelemetry,
) *AgentAnswerUseCase {
	if limits.MaxIterations <= 0 {
		limits.MaxIterations = 4
	}
	if limits.Timeout <= 0 {
		limits.Timeout = 45 * time.Second
	}
	if limits.PlannerTimeout <= 0 {
		limits.PlannerTimeout = 20 * time.Second
	}
	if limits.ToolTimeout <= 0 {
		limits.ToolTimeout = 25 * time.Second
	}

	return &AgentAnswerUseCase{
		compare:   compare,
		web:       web,
		generator: generator,
		registry:  registry,
		limits:    limits,
		telemetry: telemetry,
	}
}

func (uc *AgentAnswerUseCase) Run(
	ctx context.Context,
	question string,
	retrieved []domain.RetrievedChunk,
) (*domain.AgentRunResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "agent run", fmt.Errorf("question is required"))
	}

	loopCtx, cancel := context.WithTimeout(ctx, uc.limits.Timeout)
	defer cancel()

	scratchpad := make([]string, 0, uc.limits.MaxIterations)
	toolEvents := make([]domain.AgentToolEvent, 0, uc.limits.MaxIterations)
	toolsInvoked := make([]string, 0, uc.limits.MaxIterations)
	toolSet := make(map[string]struct{})
	finalAnswer := ""
	fallbackReason := ""
	iterations := 0

	for i := 1; i <= uc.limits.MaxIterations; i++ {
		if loopCtx.Err() != nil {
			fallbackReason = "timeout"
			break
		}

		iterations = i
		plannerCtx, plannerCancel := context.WithTimeout(loopCtx, uc.limits.PlannerTimeout)
		planRaw, err := uc.generator.GenerateJSONFromPrompt(plannerCtx, buildPlannerPrompt(question, retrieved, scratchpad))
		plannerCancel()
		if err != nil {
			if isAgentTimeoutError(err) {
				fallbackReason = "timeout"
			} else {
				fallbackReason = "planner_error"
			}
			break
		}

		step, err := parseAgentStep(planRaw)
		if err != nil {
			repairCtx, repairCancel := context.WithTimeout(loopCtx, uc.limits.PlannerTimeout)
			repairedRaw, repairErr := uc.generator.GenerateJSONFromPrompt(repairCtx, buildPlannerRepairPrompt(planRaw))
			repairCancel()
			if repairErr != nil {
				if isAgentTimeoutError(repairErr) {
					fallbackReason = "timeout"
				} else {
					fallbackReason = "planner_invalid_json"
				}
				break
			}
			step, err = parseAgentStep(repairedRaw)
			if err != nil {
				fallbackReason = "planner_invalid_json"
				break
			}
		}

		switch step.Type {
		case "final":
			finalAnswer = strings.TrimSpace(step.Answer)
			if finalAnswer == "" {
				fallbackReason = "empty_final_answer"
			}
		case "tool":
			toolCtx, toolCancel := context.WithTimeout(loopCtx, uc.limits.ToolTimeout)
			event, execErr := uc.executeTool(toolCtx, step, question)
			toolCancel()
			if execErr != nil {
				if isAgentTimeoutError(execErr) {
					fallbackReason = "timeout"
				}
				errorPayload, _ := json.Marshal(map[string]string{"error": execErr.Error()})
				event = domain.AgentToolEvent{
					Tool:   step.Tool,
					Status: "error",
					Output: string(errorPayload),
				}
			}
			toolEvents = append(toolEvents, event)
			if uc.telemetry != nil {
				uc.telemetry.AgentToolCalled(event.Tool, event.Status)
			}
			if event.Tool != "" {
				if _, seen := toolSet[event.Tool]; !seen {
					toolSet[event.Tool] = struct{}{}
					toolsInvoked = append(toolsInvoked, event.Tool)
				}
			}
			scratchpad = append(scratchpad, fmt.Sprintf("%s:%s", event.Tool, event.Output))
		default:
			fallbackReason = "unsupported_step_type"
		}

		if finalAnswer != "" || fallbackReason != "" {
			break
		}
	}

	if fallbackReason == "" && finalAnswer == "" {
		fallbackReason = "max_iterations"
	}
	if uc.telemetry != nil {
		status := fallbackReason
		if status == "" {
			status = "final"
		}
		uc.telemetry.AgentRunFinished(status, iterations)
	}
	if finalAnswer == "" && shouldFallbackToRetrieval(fallbackReason) {
		fallbackAnswer, fallbackErr := uc.generator.GenerateAnswer(ctx, question, retrieved)
		if fallbackErr == nil && strings.TrimSpace(fallbackAnswer) != "" {
			finalAnswer = fallbackAnswer
		}
	}
	if finalAnswer == "" {
		finalAnswer = "I reached the current execution limits. Please refine the question and try again."
	}

	return &domain.AgentRunResult{
		Answer:         finalAnswer,
		Iterations:     iterations,
		ToolsInvoked:   toolsInvoked,
		FallbackReason: fallbackReason,
		ToolEvents:     toolEvents,
	}, nil
}

func shouldFallbackToRetrieval(reason string) bool {
	switch reason {
	case "planner_invalid_json", "planner_error", "timeout", "max_iterations", "empty_final_answer":
		return true
	default:
		return false
	}
}

func isAgentTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func parseAgentStep(raw string) (domain.AgentPlanStep, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.AgentPlanStep{}, fmt.Errorf("empty planner response")
	}
	var step domain.AgentPlanStep
	if err := json.Unmarshal([]byte(raw), &step); err != nil {
		return domain.AgentPlanStep{}, fmt.Errorf("unmarshal planner json: %w", err)
	}
	step.Type = strings.ToLower(strings.TrimSpace(step.Type))
	step.Tool = strings.ToLower(strings.TrimSpace(step.Tool))
	return step, nil
}

func buildPlannerPrompt(question string, retrieved []domain.RetrievedChunk, scratchpad []string) string {
	if len(scratchpad) == 0 {
		scratchpad = append(scratchpad, "(no tool outputs yet)")
	}

	return fmt.Sprintf(`You are a planning component for a semiconductor filings assistant.
The retrieved 10-K excerpts below may already be enough to answer. Use
industry_analysis when the question needs perspective across all covered
companies; use web_search only for current events the filings cannot cover.
Return ONLY a valid JSON object with one step.
Schema:
{"type":"tool","tool":"industry_analysis","input":{"query":"..."}}
or
{"type":"tool","tool":"web_search","input":{"query":"..."}}
or
{"type":"final","answer":"..."}

Retrieved filing excerpts:
%s

Scratchpad with previous tool outputs:
%s

Current user question:
%s
`, domain.FormatChunksXML(retrieved), strings.Join(scratchpad, "\n"), question)
}

func buildPlannerRepairPrompt(raw string) string {
	return fmt.Sprintf(`Convert the following text into a valid JSON object for this schema:
{"type":"tool","tool":"industry_analysis","input":{"query":"..."}}
or {"type":"tool","tool":"web_search","input":{"query":"..."}}
or {"type":"final","answer":"..."}
Return only JSON.
Text:
%s`, raw)
}

func (uc *AgentAnswerUseCase) executeTool(ctx context.Context, step domain.AgentPlanStep, fallbackQuery string) (domain.AgentToolEvent, error) {
	query := stringInput(step.Input, "query", fallbackQuery)

	switch step.Tool {
	case agentToolIndustryAnalysis:
		chunks, err := uc.compare.RetrieveBalanced(ctx, query, uc.registry.SourceFiles())
		if err != nil {
			return domain.AgentToolEvent{}, fmt.Errorf("industry analysis: %w", err)
		}
		payload, _ := json.Marshal(map[string]any{
			"query":     query,
			"documents": domain.FormatChunksXML(chunks),
			"companies": uc.registry.Names(),
		})
		return domain.AgentToolEvent{
			Tool:   agentToolIndustryAnalysis,
			Status: "ok",
			Output: string(payload),
		}, nil
	case agentToolWebSearch:
		resp, err := uc.web.Search(ctx, query)
		if err != nil {
			return domain.AgentToolEvent{}, fmt.Errorf("web search: %w", err)
		}
		payload, _ := json.Marshal(resp)
		return domain.AgentToolEvent{
			Tool:   agentToolWebSearch,
			Status: "ok",
			Output: string(payload),
		}, nil
	default:
		return domain.AgentToolEvent{}, fmt.Errorf("unsupported tool: %s", step.Tool)
	}
}

func stringInput(input map[string]any, key, fallback string) string {
	if input == nil {
		return fallback
	}
	value, ok := input[key]
	if !ok || value == nil {
		return fallback
	}
	switch typed := value.(type) {
	case string:
		if strings.TrimSpace(typed) == "" {
			return fallback
		}
		return typed
	default:
		return fmt.Sprint(typed)
	}
}
