package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// buildPDF renders a minimal PDF with one Helvetica text line per page.
// An empty string produces a blank page.
func buildPDF(pages ...string) []byte {
	var objects []string
	n := len(pages)

	// 1: catalog, 2: pages, 3: font, then page/content pairs.
	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)
	for i, text := range pages {
		var stream string
		if text != "" {
			stream = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func writePDF(t *testing.T, dir, name string, pages ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buildPDF(pages...), 0o600))
	return path
}

func TestLoadPath_File(t *testing.T) {
	dir := t.TempDir()
	path := writePDF(t, dir, "handbook.pdf", "Graduation requires 130 credits", "", "Library hours")

	pages, err := New().LoadPath(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	assert.Contains(t, pages[0].Content, "Graduation requires 130 credits")
	assert.Empty(t, pages[1].Content)
	assert.Contains(t, pages[2].Content, "Library hours")

	for i, p := range pages {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, "handbook.pdf", p.Source)
		assert.Equal(t, domain.OriginCorpus, p.Origin)
		assert.Equal(t, pages[0].DocumentID, p.DocumentID)
	}
}

func TestLoadPath_DirectoryInLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	writePDF(t, dir, "b.pdf", "second")
	writePDF(t, dir, "a.PDF", "first")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o700))

	pages, err := New().LoadPath(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, "a.PDF", pages[0].Source)
	assert.Equal(t, "b.pdf", pages[1].Source)
	assert.NotEqual(t, pages[0].DocumentID, pages[1].DocumentID)
}

func TestLoadPath_EmptyDirectory(t *testing.T) {
	pages, err := New().LoadPath(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestLoadPath_StableIDs(t *testing.T) {
	dir := t.TempDir()
	path := writePDF(t, dir, "doc.pdf", "same")

	first, err := New().LoadPath(context.Background(), path)
	require.NoError(t, err)
	second, err := New().LoadPath(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, first[0].DocumentID, second[0].DocumentID)
}

func TestLoadPath_Missing(t *testing.T) {
	_, err := New().LoadPath(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoadPath_NotAPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o600))

	_, err := New().LoadPath(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestLoadUpload(t *testing.T) {
	staging := t.TempDir()
	loader := New(WithTempDir(staging))

	pages, err := loader.LoadUpload(context.Background(), "syllabus.pdf", buildPDF("Uploaded content"))
	require.NoError(t, err)
	require.Len(t, pages, 1)

	assert.Equal(t, "syllabus.pdf", pages[0].Source)
	assert.Equal(t, domain.OriginUpload, pages[0].Origin)
	assert.Contains(t, pages[0].Content, "Uploaded content")

	entries, err := os.ReadDir(staging)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged upload must be removed")
}

func TestLoadUpload_InvalidRemovesTempFile(t *testing.T) {
	staging := t.TempDir()
	loader := New(WithTempDir(staging))

	_, err := loader.LoadUpload(context.Background(), "broken.pdf", []byte("%PDF-1.4 garbage"))
	assert.ErrorIs(t, err, domain.ErrParse)

	entries, err := os.ReadDir(staging)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadUpload_Empty(t *testing.T) {
	_, err := New().LoadUpload(context.Background(), "empty.pdf", nil)
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestLoadUpload_DifferentContentDifferentID(t *testing.T) {
	loader := New(WithTempDir(t.TempDir()))

	a, err := loader.LoadUpload(context.Background(), "same-name.pdf", buildPDF("one"))
	require.NoError(t, err)
	b, err := loader.LoadUpload(context.Background(), "same-name.pdf", buildPDF("two"))
	require.NoError(t, err)

	assert.NotEqual(t, a[0].DocumentID, b[0].DocumentID)
}
