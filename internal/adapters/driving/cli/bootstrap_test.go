package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func offlineEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("CLAUDE_API_KEY", "")
	t.Setenv("RAGDESK_EMBEDDING_PROVIDER", "local")
	corpus := t.TempDir()
	t.Setenv("RAGDESK_CORPUS_DIR", corpus)
	return corpus
}

func TestBootstrap_OfflineWithoutGenerator(t *testing.T) {
	offlineEnv(t)
	dir := t.TempDir()

	rt, err := Bootstrap(context.Background(), BootstrapOptions{ConfigDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	assert.Equal(t, dir, rt.ConfigDir)
	assert.Equal(t, domain.StateEmpty, rt.Pipeline.State())
	require.NotNil(t, rt.Sessions)
	require.NotNil(t, rt.Compare)

	report, err := rt.Pipeline.Ingest(context.Background(), domain.IngestRequest{})
	require.NoError(t, err)
	assert.Zero(t, report.Documents)
	assert.Equal(t, domain.StateReady, rt.Pipeline.State())

	_, _, err = rt.Pipeline.Answer(context.Background(), domain.Conversation{}, "졸업 학점은?")
	assert.ErrorIs(t, err, domain.ErrEmptyIndex)
}

func TestBootstrap_RequiresGenerator(t *testing.T) {
	offlineEnv(t)

	_, err := Bootstrap(context.Background(), BootstrapOptions{
		ConfigDir:        t.TempDir(),
		RequireGenerator: true,
	})

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestBootstrap_InvalidChunking(t *testing.T) {
	offlineEnv(t)
	t.Setenv("RAGDESK_CHUNKING_OVERLAP", "5000")

	_, err := Bootstrap(context.Background(), BootstrapOptions{ConfigDir: t.TempDir()})

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewSettings_ReadsConfigDir(t *testing.T) {
	dir := t.TempDir()

	svc, resolved, err := NewSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, resolved)

	require.NoError(t, svc.Set("chunking.size", "640"))
	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, 640, settings.Chunking.Size)
}
