package domain

import "fmt"

// Section is one entry of a filing's two-level section index. Main sections
// are the 10-K Parts/Items; subsections nest beneath the nearest preceding
// main section.
type Section struct {
	SectionName     string `json:"section_name"`
	SectionTitle    string `json:"section_title"`
	StartPageNumber int    `json:"start_page_number"`
	IsSubsection    bool   `json:"is_subsection"`
}

// SectionMatch pairs the main section and subsection covering a page.
type SectionMatch struct {
	Main *Section
	Sub  *Section
}

// FindSectionForPage picks the most recent main section and subsection
// starting at or before the page. A page before every known section falls
// back to the first entry of the index.
func FindSectionForPage(sections []Section, page int) *SectionMatch {
	if len(sections) == 0 {
		return nil
	}

	match := &SectionMatch{}
	for i := range sections {
		s := &sections[i]
		if s.StartPageNumber > page {
			continue
		}
		if s.IsSubsection {
			if match.Sub == nil || s.StartPageNumber >= match.Sub.StartPageNumber {
				match.Sub = s
			}
			continue
		}
		if match.Main == nil || s.StartPageNumber >= match.Main.StartPageNumber {
			match.Main = s
		}
	}

	if match.Main == nil && match.Sub == nil {
		first := &sections[0]
		if first.IsSubsection {
			match.Sub = first
		} else {
			match.Main = first
		}
	}
	return match
}

// Hierarchical renders the match as "Item 1A (Risk Factors) > Competition",
// collapsing name/title pairs that are identical.
func (m *SectionMatch) Hierarchical() string {
	if m == nil || (m.Main == nil && m.Sub == nil) {
		return "Unknown"
	}

	out := ""
	if m.Main != nil {
		out = sectionLabel(m.Main)
	}
	if m.Sub != nil {
		if out != "" {
			out += " > "
		}
		out += sectionLabel(m.Sub)
	}
	return out
}

func sectionLabel(s *Section) string {
	name := s.SectionName
	title := s.SectionTitle
	if name == "" {
		name = "Unknown"
	}
	if title == "" || title == name {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, title)
}
