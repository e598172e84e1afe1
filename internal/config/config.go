package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	APIPort  string
	LogLevel string

	PineconeAPIKey    string
	PineconeIndexName string
	PineconeIndexHost string

	OpenAIAPIKey     string
	OpenAIGenModel   string
	OpenAIEmbedModel string

	TavilyAPIKey string

	// PostgresDSN is optional: without it filing state and enrichment
	// checkpoints are kept in memory only.
	PostgresDSN string

	NATSURL     string
	NATSSubject string

	StoragePath   string
	FilingsDir    string
	SectionsDir   string
	CompaniesFile string

	RAGTopK           int
	RAGPerCompany     int
	RetrievalMinScore float64

	AgentModeEnabled    bool
	AgentMaxIterations  int
	AgentTimeoutSeconds int

	RateLimitRPS       float64
	RateLimitBurst     int
	MaxInFlight        int
	BackpressureWaitMS int

	WorkerMetricsPort string
	MCPHTTPPort       string
}

// Load reads the full environment for the API and worker binaries. The four
// provider credentials are mandatory there; use LoadCLI for the enrichment
// CLI, which only talks to Pinecone directly.
func Load() (Config, error) {
	cfg := load()
	var missing []string
	if cfg.PineconeAPIKey == "" {
		missing = append(missing, "PINECONE_API_KEY")
	}
	if cfg.PineconeIndexName == "" {
		missing = append(missing, "PINECONE_INDEX_NAME")
	}
	if cfg.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if cfg.TavilyAPIKey == "" {
		missing = append(missing, "TAVILY_API_KEY")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

// LoadCLI validates only what the filings CLI always needs: the Pinecone
// pair. Subcommands that call the model check OPENAI_API_KEY themselves.
func LoadCLI() (Config, error) {
	cfg := load()
	var missing []string
	if cfg.PineconeAPIKey == "" {
		missing = append(missing, "PINECONE_API_KEY")
	}
	if cfg.PineconeIndexName == "" {
		missing = append(missing, "PINECONE_INDEX_NAME")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

func load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		PineconeAPIKey:    mustEnv("PINECONE_API_KEY", ""),
		PineconeIndexName: mustEnv("PINECONE_INDEX_NAME", ""),
		PineconeIndexHost: mustEnv("PINECONE_INDEX_HOST", ""),

		OpenAIAPIKey:     mustEnv("OPENAI_API_KEY", ""),
		OpenAIGenModel:   mustEnv("OPENAI_GEN_MODEL", "gpt-4o-mini"),
		OpenAIEmbedModel: mustEnv("OPENAI_EMBED_MODEL", "text-embedding-3-small"),

		TavilyAPIKey: mustEnv("TAVILY_API_KEY", ""),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "filings.sections.extract"),

		StoragePath:   mustEnv("STORAGE_PATH", "./data/storage"),
		FilingsDir:    mustEnv("FILINGS_DIR", "./data/filings"),
		SectionsDir:   mustEnv("SECTIONS_DIR", "./data/sections"),
		CompaniesFile: mustEnv("COMPANIES_FILE", ""),

		RAGTopK:           mustEnvInt("RAG_TOP_K", 5),
		RAGPerCompany:     mustEnvInt("RAG_PER_COMPANY", 2),
		RetrievalMinScore: mustEnvFloat("RETRIEVAL_MIN_SCORE", 0),

		AgentModeEnabled:    mustEnvBool("AGENT_MODE_ENABLED", false),
		AgentMaxIterations:  mustEnvInt("AGENT_MAX_ITERATIONS", 4),
		AgentTimeoutSeconds: mustEnvInt("AGENT_TIMEOUT_SECONDS", 45),

		RateLimitRPS:       mustEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     mustEnvInt("RATE_LIMIT_BURST", 20),
		MaxInFlight:        mustEnvInt("MAX_IN_FLIGHT", 64),
		BackpressureWaitMS: mustEnvInt("BACKPRESSURE_WAIT_MS", 200),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
		MCPHTTPPort:       mustEnv("MCP_HTTP_PORT", ""),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
