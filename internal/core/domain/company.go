package domain

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Company is one covered issuer: a canonical name, the aliases that may
// appear in user questions (tickers included), and the 10-K source file
// its chunks are tagged with in the vector index.
type Company struct {
	Name       string   `yaml:"name" json:"name"`
	Aliases    []string `yaml:"aliases" json:"aliases"`
	SourceFile string   `yaml:"source_file" json:"source_file"`
}

// Registry is the closed set of companies the assistant knows about.
// Alias matching is case-insensitive on word boundaries, so "AMD" matches
// but "amendment" does not.
type Registry struct {
	companies []Company
	patterns  []aliasPattern
	bySource  map[string]Company
	byName    map[string]Company
}

type aliasPattern struct {
	re         *regexp.Regexp
	sourceFile string
}

func NewRegistry(companies []Company) (*Registry, error) {
	if len(companies) == 0 {
		return nil, fmt.Errorf("company registry is empty")
	}

	r := &Registry{
		companies: companies,
		bySource:  make(map[string]Company, len(companies)),
		byName:    make(map[string]Company, len(companies)),
	}
	for _, c := range companies {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.SourceFile) == "" {
			return nil, fmt.Errorf("company entry requires name and source_file")
		}
		r.bySource[c.SourceFile] = c
		r.byName[strings.ToLower(c.Name)] = c

		aliases := c.Aliases
		if len(aliases) == 0 {
			aliases = []string{c.Name}
		}
		for _, alias := range aliases {
			alias = strings.ToLower(strings.TrimSpace(alias))
			if alias == "" {
				continue
			}
			re, err := regexp.Compile(`\b` + regexp.QuoteMeta(alias) + `\b`)
			if err != nil {
				return nil, fmt.Errorf("compile alias pattern %q: %w", alias, err)
			}
			r.patterns = append(r.patterns, aliasPattern{re: re, sourceFile: c.SourceFile})
		}
	}
	return r, nil
}

// DefaultRegistry covers the four semiconductor 10-K filings the index is
// built from.
func DefaultRegistry() *Registry {
	r, err := NewRegistry([]Company{
		{Name: "nvidia", Aliases: []string{"nvidia", "nvda"}, SourceFile: "nvidia_10k.pdf"},
		{Name: "amd", Aliases: []string{"amd"}, SourceFile: "amd_10k.pdf"},
		{Name: "intel", Aliases: []string{"intel", "intc"}, SourceFile: "intel_10k.pdf"},
		{Name: "broadcom", Aliases: []string{"broadcom", "avgo"}, SourceFile: "broadcom_10k.pdf"},
	})
	if err != nil {
		panic(err)
	}
	return r
}

// LoadRegistryFile reads a YAML company list, replacing the built-in set.
func LoadRegistryFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read companies file: %w", err)
	}
	var doc struct {
		Companies []Company `yaml:"companies"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse companies file: %w", err)
	}
	return NewRegistry(doc.Companies)
}

// DetectSourceFiles returns the source files for every company mentioned in
// the question, ordered by first registry match, deduplicated. An empty
// result means an industry-wide question.
func (r *Registry) DetectSourceFiles(question string) []string {
	lowered := strings.ToLower(question)

	var detected []string
	seen := make(map[string]struct{})
	for _, p := range r.patterns {
		if !p.re.MatchString(lowered) {
			continue
		}
		if _, ok := seen[p.sourceFile]; ok {
			continue
		}
		seen[p.sourceFile] = struct{}{}
		detected = append(detected, p.sourceFile)
	}
	return detected
}

// SourceFileFor resolves a company name (or alias) to its filing source
// file. Unknown companies fail with ErrCompanyUnknown before any remote
// call is made.
func (r *Registry) SourceFileFor(company string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(company))
	if c, ok := r.byName[key]; ok {
		return c.SourceFile, nil
	}
	for _, c := range r.companies {
		for _, alias := range c.Aliases {
			if strings.EqualFold(alias, key) {
				return c.SourceFile, nil
			}
		}
	}
	return "", WrapError(ErrCompanyUnknown, "resolve company", fmt.Errorf("%q is not in the registry (known: %s)", company, strings.Join(r.Names(), ", ")))
}

func (r *Registry) Companies() []Company {
	out := make([]Company, len(r.companies))
	copy(out, r.companies)
	return out
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.companies))
	for _, c := range r.companies {
		names = append(names, c.Name)
	}
	return names
}

// SourceFiles returns every registered filing source file in registry order.
func (r *Registry) SourceFiles() []string {
	files := make([]string, 0, len(r.companies))
	for _, c := range r.companies {
		files = append(files, c.SourceFile)
	}
	return files
}

func (r *Registry) CompanyForSource(sourceFile string) (Company, bool) {
	c, ok := r.bySource[sourceFile]
	return c, ok
}
