package domain

import "time"

type AgentLimits struct {
	MaxIterations  int
	Timeout        time.Duration
	PlannerTimeout time.Duration
	ToolTimeout    time.Duration
}

// AgentPlanStep is the single JSON step the planner model returns: either a
// tool invocation or a final answer.
type AgentPlanStep struct {
	Type   string         `json:"type"`
	Tool   string         `json:"tool"`
	Input  map[string]any `json:"input"`
	Answer string         `json:"answer"`
}

type AgentToolEvent struct {
	Tool   string `json:"tool"`
	Status string `json:"status"`
	Output string `json:"output"`
}

type AgentRunResult struct {
	Answer         string           `json:"answer"`
	Iterations     int              `json:"iterations"`
	ToolsInvoked   []string         `json:"tools_invoked,omitempty"`
	FallbackReason string           `json:"fallback_reason,omitempty"`
	ToolEvents     []AgentToolEvent `json:"tool_events,omitempty"`
}
