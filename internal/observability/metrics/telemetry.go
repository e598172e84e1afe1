package metrics

// AnswerTelemetry binds the answer-path counters to a fixed service label
// so the core can record events without knowing about prometheus.
type AnswerTelemetry struct {
	service string
	metrics *HTTPServerMetrics
}

func NewAnswerTelemetry(service string, m *HTTPServerMetrics) *AnswerTelemetry {
	return &AnswerTelemetry{service: service, metrics: m}
}

func (t *AnswerTelemetry) AgentRunFinished(status string, iterations int) {
	t.metrics.RecordAgentRun(t.service, status, iterations)
}

func (t *AnswerTelemetry) AgentToolCalled(tool, status string) {
	t.metrics.RecordAgentToolCall(t.service, tool, status)
}

func (t *AnswerTelemetry) WebSearchFinished(err error) {
	t.metrics.RecordWebSearch(t.service, err)
}

// ExtractTelemetry binds the worker extraction counters to a service label.
type ExtractTelemetry struct {
	service string
	metrics *WorkerMetrics
}

func NewExtractTelemetry(service string, m *WorkerMetrics) *ExtractTelemetry {
	return &ExtractTelemetry{service: service, metrics: m}
}

func (t *ExtractTelemetry) ModelCalled(kind string) {
	t.metrics.RecordModelCall(t.service, kind)
}

func (t *ExtractTelemetry) BlockCacheHit() {
	t.metrics.RecordCacheHit(t.service)
}

func (t *ExtractTelemetry) SectionsFound(count int) {
	t.metrics.RecordSectionsFound(t.service, count)
}
