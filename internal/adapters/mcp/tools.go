package mcpadapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chipfilings/assistant/internal/core/domain"
)

type FilingSearchInput struct {
	Query   string `json:"query" jsonschema:"the question to answer from the filing"`
	Company string `json:"company,omitempty" jsonschema:"tracked company name or ticker; omit to search every filing"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of chunks to return"`
}

type IndustryComparisonInput struct {
	Query     string   `json:"query" jsonschema:"the comparison question"`
	Companies []string `json:"companies,omitempty" jsonschema:"companies to compare; omit to compare every tracked company"`
}

type WebSearchInput struct {
	Query string `json:"query" jsonschema:"the web search query"`
}

type ChunkOutput struct {
	ID         string  `json:"id"`
	SourceFile string  `json:"source_file"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	PageNumber int     `json:"page_number,omitempty"`
	Section    string  `json:"section,omitempty"`
}

type RetrievalOutput struct {
	Chunks []ChunkOutput `json:"chunks"`
	Count  int           `json:"count"`
}

type WebSearchOutput struct {
	Answer  string             `json:"answer,omitempty"`
	Results []domain.WebResult `json:"results"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "filing_search",
		Description: "Retrieve relevant excerpts from one tracked company's 10-K filing, or from all filings when no company is named",
	}, s.handleFilingSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "industry_comparison",
		Description: "Retrieve a balanced set of excerpts across several companies' 10-K filings for side-by-side comparison",
	}, s.handleIndustryComparison)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "web_search",
		Description: "Search the live web for current information the filings cannot answer",
	}, s.handleWebSearch)
}

func (s *Server) handleFilingSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FilingSearchInput,
) (*mcp.CallToolResult, RetrievalOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, RetrievalOutput{}, fmt.Errorf("query is required")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = s.deps.TopK
	}

	var filter domain.SearchFilter
	if input.Company != "" {
		sourceFile, err := s.deps.Registry.SourceFileFor(input.Company)
		if err != nil {
			return nil, RetrievalOutput{}, err
		}
		filter.SourceFile = sourceFile
	}

	chunks, err := s.deps.Query.Retrieve(ctx, input.Query, limit, filter)
	if err != nil {
		return nil, RetrievalOutput{}, err
	}
	return nil, toRetrievalOutput(chunks), nil
}

func (s *Server) handleIndustryComparison(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndustryComparisonInput,
) (*mcp.CallToolResult, RetrievalOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, RetrievalOutput{}, fmt.Errorf("query is required")
	}

	var sourceFiles []string
	if len(input.Companies) == 0 {
		sourceFiles = s.deps.Registry.SourceFiles()
	} else {
		for _, company := range input.Companies {
			sourceFile, err := s.deps.Registry.SourceFileFor(company)
			if err != nil {
				return nil, RetrievalOutput{}, err
			}
			sourceFiles = append(sourceFiles, sourceFile)
		}
	}

	chunks, err := s.deps.Compare.RetrieveBalanced(ctx, input.Query, sourceFiles)
	if err != nil {
		return nil, RetrievalOutput{}, err
	}
	return nil, toRetrievalOutput(chunks), nil
}

func (s *Server) handleWebSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input WebSearchInput,
) (*mcp.CallToolResult, WebSearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, WebSearchOutput{}, fmt.Errorf("query is required")
	}

	resp, err := s.deps.Web.Search(ctx, input.Query)
	if err != nil {
		return nil, WebSearchOutput{}, err
	}
	return nil, WebSearchOutput{Answer: resp.Answer, Results: resp.Results}, nil
}

func toRetrievalOutput(chunks []domain.RetrievedChunk) RetrievalOutput {
	out := RetrievalOutput{
		Chunks: make([]ChunkOutput, len(chunks)),
		Count:  len(chunks),
	}
	for i, chunk := range chunks {
		out.Chunks[i] = ChunkOutput{
			ID:         chunk.ID,
			SourceFile: chunk.SourceFile,
			Text:       chunk.Text,
			Score:      chunk.Score,
			PageNumber: chunk.PageNumber,
			Section:    chunk.Section,
		}
	}
	return out
}
