// Package chunker provides a recursive character text splitter.
//
// Page text is split on the highest-priority separator it contains; pieces
// still longer than the chunk size are split again with the next separator,
// down to a hard cut. Pieces are then merged greedily into windows of at most
// the chunk size, carrying trailing pieces of up to the overlap length into the
// next window. All lengths are in runes.
package chunker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Splitter = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// DefaultSeparators are tried in order. The empty separator hard-cuts.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// chunkNamespace scopes chunk ids.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://ragdesk.dev/chunk"))

// Processor splits pages into overlapping chunks.
type Processor struct {
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithSeparators replaces the separator priority list. A trailing empty
// separator is added when missing so long pieces can always be cut.
func WithSeparators(seps ...string) Option {
	return func(p *Processor) {
		if len(seps) == 0 {
			return
		}
		out := append([]string(nil), seps...)
		if out[len(out)-1] != "" {
			out = append(out, "")
		}
		p.separators = out
	}
}

// New creates a new chunker processor with the given options.
// Invalid sizes are reported by Split.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Split chunks pages in order. Positions count chunks per document.
func (p *Processor) Split(ctx context.Context, pages []domain.Page) ([]domain.Chunk, error) {
	if err := validate(p.chunkSize, p.overlap); err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	positions := make(map[string]int)
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, w := range p.splitText(page.Content) {
			pos := positions[page.DocumentID]
			positions[page.DocumentID]++
			chunks = append(chunks, domain.Chunk{
				ID:       chunkID(page.DocumentID, page.Index, w.offset, len([]rune(w.text))),
				Content:  w.text,
				Position: pos,
				Provenance: domain.Provenance{
					DocumentID: page.DocumentID,
					Source:     page.Source,
					Origin:     page.Origin,
					Page:       page.Index,
					Offset:     w.offset,
				},
			})
		}
	}
	return chunks, nil
}

// Split chunks pages with the default separators.
func Split(pages []domain.Page, chunkSize, overlap int) ([]domain.Chunk, error) {
	return New(WithChunkSize(chunkSize), WithOverlap(overlap)).Split(context.Background(), pages)
}

func validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrInvalidInput, size, overlap)
	}
	return nil
}

// span is a half-open rune range of the page text.
type span struct {
	start, end int
}

func (s span) len() int { return s.end - s.start }

type window struct {
	text   string
	offset int
}

func (p *Processor) splitText(content string) []window {
	text := []rune(content)
	if len(text) == 0 {
		return nil
	}

	pieces := p.splitSpan(text, span{0, len(text)}, 0)

	var out []window
	emit := func(cur []span) {
		if len(cur) == 0 {
			return
		}
		raw := text[cur[0].start:cur[len(cur)-1].end]
		lead := 0
		for lead < len(raw) && unicode.IsSpace(raw[lead]) {
			lead++
		}
		trimmed := strings.TrimRightFunc(string(raw[lead:]), unicode.IsSpace)
		if trimmed == "" {
			return
		}
		out = append(out, window{text: trimmed, offset: cur[0].start + lead})
	}

	var cur []span
	total := 0
	for _, piece := range pieces {
		n := piece.len()
		if total+n > p.chunkSize && len(cur) > 0 {
			emit(cur)
			// Keep trailing pieces within the overlap that still leave room for piece.
			for total > p.overlap || (total+n > p.chunkSize && total > 0) {
				total -= cur[0].len()
				cur = cur[1:]
			}
		}
		cur = append(cur, piece)
		total += n
	}
	emit(cur)
	return out
}

// splitSpan returns consecutive spans covering s, each at most chunkSize runes.
// Separators stay attached to the end of the piece they terminate.
func (p *Processor) splitSpan(text []rune, s span, sepIdx int) []span {
	if s.len() <= p.chunkSize {
		return []span{s}
	}

	for i := sepIdx; i < len(p.separators); i++ {
		sep := []rune(p.separators[i])
		if len(sep) == 0 {
			return runeSpans(s)
		}
		parts := cutAfter(text, s, sep)
		if len(parts) < 2 {
			continue
		}
		var out []span
		for _, part := range parts {
			if part.len() <= p.chunkSize {
				out = append(out, part)
				continue
			}
			out = append(out, p.splitSpan(text, part, i+1)...)
		}
		return out
	}
	return runeSpans(s)
}

// cutAfter splits s after every occurrence of sep.
func cutAfter(text []rune, s span, sep []rune) []span {
	var parts []span
	start := s.start
	for i := s.start; i+len(sep) <= s.end; {
		if runesEqual(text[i:i+len(sep)], sep) {
			parts = append(parts, span{start, i + len(sep)})
			i += len(sep)
			start = i
			continue
		}
		i++
	}
	if start < s.end {
		parts = append(parts, span{start, s.end})
	}
	return parts
}

// runeSpans is the hard cut: one span per rune, so the merge step in
// splitText packs them into full windows that carry the overlap.
func runeSpans(s span) []span {
	out := make([]span, 0, s.len())
	for i := s.start; i < s.end; i++ {
		out = append(out, span{i, i + 1})
	}
	return out
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// chunkID is stable for the same document, page, offset and length.
func chunkID(documentID string, page, offset, length int) string {
	key := documentID + "/" + strconv.Itoa(page) + "/" + strconv.Itoa(offset) + "/" + strconv.Itoa(length)
	return uuid.NewSHA1(chunkNamespace, []byte(key)).String()
}
