package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// registryMockSplitter is a simple mock for testing registry functionality.
type registryMockSplitter struct {
	name string
}

func (m *registryMockSplitter) Name() string { return m.name }
func (m *registryMockSplitter) Split(_ context.Context, _ []domain.Page) ([]domain.Chunk, error) {
	return nil, nil
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if len(r.builders) != 0 {
		t.Errorf("expected empty builders, got %d", len(r.builders))
	}
}

func TestRegistry_Build_Success(t *testing.T) {
	r := NewRegistry()

	r.Register("test", func(cfg map[string]any) (driven.Splitter, error) {
		name := "default"
		if n, ok := cfg["name"].(string); ok {
			name = n
		}
		return &registryMockSplitter{name: name}, nil
	})

	s, err := r.Build("test", map[string]any{"name": "custom"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if s.Name() != "custom" {
		t.Errorf("expected name 'custom', got %q", s.Name())
	}
}

func TestRegistry_Build_UnknownSplitter(t *testing.T) {
	if _, err := NewRegistry().Build("unknown", nil); err == nil {
		t.Error("expected error for unknown splitter")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := DefaultRegistry()

	names := r.Names()
	if len(names) != 2 || names[0] != SplitterRecursive || names[1] != SplitterSentence {
		t.Errorf("unexpected names %v", names)
	}
	if r.Has("nonexistent") {
		t.Error("expected Has to return false for nonexistent splitter")
	}
}

func TestBuildRecursive_WithConfig(t *testing.T) {
	s, err := DefaultRegistry().Build(SplitterRecursive, map[string]any{
		"chunk_size": int64(12),
		"overlap":    float64(0),
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	chunks, err := s.Split(context.Background(), []domain.Page{{DocumentID: "d", Content: "alpha beta gamma delta"}})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	for _, c := range chunks {
		if len([]rune(c.Content)) > 12 {
			t.Errorf("chunk %q exceeds configured size", c.Content)
		}
	}
}

func TestBuildRecursive_InvalidConfigFailsOnSplit(t *testing.T) {
	s, err := DefaultRegistry().Build(SplitterRecursive, map[string]any{"chunk_size": 10, "overlap": 10})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	_, err = s.Split(context.Background(), []domain.Page{{Content: "x"}})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBuildSentence_BreaksOnKoreanSentenceEnd(t *testing.T) {
	s, err := DefaultRegistry().Build(SplitterSentence, map[string]any{"chunk_size": 20, "overlap": 0})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	chunks, err := s.Split(context.Background(), []domain.Page{{
		DocumentID: "d",
		Content:    "졸업 요건을 확인합니다. 수강 신청은 다음 주입니다.",
	}})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Content != "졸업 요건을 확인합니다." {
		t.Errorf("unexpected first chunk %q", chunks[0].Content)
	}
}

func TestGetIntFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      map[string]any
		key      string
		expected int
	}{
		{"int value", map[string]any{"size": 100}, "size", 100},
		{"int64 value", map[string]any{"size": int64(200)}, "size", 200},
		{"float64 value", map[string]any{"size": float64(300)}, "size", 300},
		{"string value", map[string]any{"size": "400"}, "size", 0},
		{"missing key", map[string]any{"other": 100}, "size", 0},
		{"nil config", nil, "size", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := getIntFromConfig(tt.cfg, tt.key)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}
