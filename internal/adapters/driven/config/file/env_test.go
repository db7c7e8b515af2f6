package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_LoadsAndKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	content := "RAGDESK_TEST_ENV_A=from-file\nRAGDESK_TEST_ENV_B=file-b\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, EnvFile), []byte(content), 0600))

	t.Setenv("RAGDESK_TEST_ENV_B", "from-process")
	t.Setenv("RAGDESK_TEST_ENV_A", "")
	require.NoError(t, os.Unsetenv("RAGDESK_TEST_ENV_A"))

	loaded, err := LoadEnv(dir)

	require.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.Equal(t, "from-file", os.Getenv("RAGDESK_TEST_ENV_A"))
	assert.Equal(t, "from-process", os.Getenv("RAGDESK_TEST_ENV_B"))
}

func TestLoadEnv_FirstDirectoryWins(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(first, EnvFile), []byte("RAGDESK_TEST_ENV_C=first\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(second, EnvFile), []byte("RAGDESK_TEST_ENV_C=second\n"), 0600))

	t.Setenv("RAGDESK_TEST_ENV_C", "")
	require.NoError(t, os.Unsetenv("RAGDESK_TEST_ENV_C"))

	loaded, err := LoadEnv(first, second, first)

	require.NoError(t, err)
	assert.Len(t, loaded, 2)
	assert.Equal(t, "first", os.Getenv("RAGDESK_TEST_ENV_C"))
}

func TestLoadEnv_MissingFilesSkipped(t *testing.T) {
	loaded, err := LoadEnv(t.TempDir(), filepath.Join(t.TempDir(), "nope"))

	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestWriteEnvValue_PreservesOtherEntries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, EnvFile), []byte("KEEP_ME=1\nOPENAI_API_KEY=old\n"), 0600))

	require.NoError(t, WriteEnvValue(dir, "OPENAI_API_KEY", "sk-new"))

	values, err := godotenv.Read(filepath.Join(dir, EnvFile))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"KEEP_ME": "1", "OPENAI_API_KEY": "sk-new"}, values)

	info, err := os.Stat(filepath.Join(dir, EnvFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestWriteEnvValue_CreatesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")

	require.NoError(t, WriteEnvValue(dir, "ANTHROPIC_API_KEY", "key with spaces"))

	values, err := godotenv.Read(filepath.Join(dir, EnvFile))
	require.NoError(t, err)
	assert.Equal(t, "key with spaces", values["ANTHROPIC_API_KEY"])
}
