// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// SourceList displays the chunks an answer was grounded on.
type SourceList struct {
	sources  []domain.ScoredChunk
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates a new source list component.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the source list.
func (r *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		//nolint:exhaustive // handling only relevant key types
		switch msg.Type {
		case tea.KeyUp:
			r.MoveUp()
		case tea.KeyDown:
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the list with the selected chunk expanded.
func (r *SourceList) View() string {
	if len(r.sources) == 0 {
		return r.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(r.sources)+4)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(r.sources))), "")

	for i := range r.sources {
		lines = append(lines, r.renderSource(i, &r.sources[i]))
	}

	if sel := r.SelectedSource(); sel != nil {
		lines = append(lines, "", r.styles.Normal.Render(truncate(sel.Chunk.Content, r.previewLimit())))
	}
	return strings.Join(lines, "\n")
}

func (r *SourceList) renderSource(index int, hit *domain.ScoredChunk) string {
	label := fmt.Sprintf("%s %s", Citation(hit.Chunk.Provenance), fmt.Sprintf("%.3f", hit.Score))
	if index == r.selected {
		return r.styles.Selected.Render("> " + label)
	}
	return r.styles.Citation.Render("  " + label)
}

func (r *SourceList) previewLimit() int {
	// each listed source takes one line, plus header and spacing
	rows := r.height - len(r.sources) - 4
	if rows < 2 {
		rows = 2
	}
	return rows * r.width
}

// Citation formats provenance as "name p.N" with a one-based page number.
// Uploads are marked so they can be told apart from corpus files.
func Citation(p domain.Provenance) string {
	c := fmt.Sprintf("%s p.%d", p.Source, p.Page+1)
	if p.Origin == domain.OriginUpload {
		c += " (upload)"
	}
	return c
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// SetSources replaces the list and selects the first entry.
func (r *SourceList) SetSources(sources []domain.ScoredChunk) {
	r.sources = sources
	r.selected = 0
}

// Sources returns the current sources.
func (r *SourceList) Sources() []domain.ScoredChunk {
	return r.sources
}

// Selected returns the index of the selected source.
func (r *SourceList) Selected() int {
	return r.selected
}

// SelectedSource returns the selected source, or nil if the list is empty.
func (r *SourceList) SelectedSource() *domain.ScoredChunk {
	if len(r.sources) == 0 || r.selected < 0 || r.selected >= len(r.sources) {
		return nil
	}
	return &r.sources[r.selected]
}

// MoveUp moves selection up.
func (r *SourceList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *SourceList) MoveDown() {
	if r.selected < len(r.sources)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *SourceList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of sources.
func (r *SourceList) Count() int {
	return len(r.sources)
}

// IsEmpty returns whether the list is empty.
func (r *SourceList) IsEmpty() bool {
	return len(r.sources) == 0
}
