package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change chunking, retrieval, model provider and storage settings.

Values come from, in order: RAGDESK_* environment variables, the config file
(~/.ragdesk/config.toml), and built-in defaults.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings and where each value comes from",
	RunE:  runSettingsShow,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Change one setting in the config file.

Examples:
  ragdesk settings set chunking.size 800
  ragdesk settings set llm.provider anthropic
  ragdesk settings set index.persist true`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured model providers respond",
	RunE:  runSettingsCheck,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Choose embedding and language model providers step by step.`,
	RunE:  runSettingsWizard,
}

// settingsDir is the config directory the settings service was opened on.
var settingsDir string

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := ensureSettings(); err != nil {
		return err
	}

	cmd.Println("Current Settings")
	cmd.Println("================")

	section := ""
	for _, key := range settingsService.Keys() {
		value, source, err := settingsService.Lookup(key)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", key, err)
		}
		if s, _, _ := strings.Cut(key, "."); s != section {
			section = s
			cmd.Println()
			cmd.Printf("[%s]\n", section)
		}
		cmd.Printf("  %-24s %s (%s)\n", key, displayValue(key, value), source)
	}
	cmd.Println()

	settings, err := settingsService.Get()
	if err != nil {
		cmd.Printf("Warning: %v\n", err)
		return nil
	}
	if err := settings.Embedding.ValidateEmbedding(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'ragdesk settings wizard' to choose a provider.")
	}
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if err := ensureSettings(); err != nil {
		return err
	}
	value, _, err := settingsService.Lookup(args[0])
	if err != nil {
		return err
	}
	cmd.Println(displayValue(args[0], value))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if err := ensureSettings(); err != nil {
		return err
	}
	key, value := args[0], args[1]
	if settingsService.IsSecret(key) {
		cmd.PrintErrf("Note: %s is stored in plain text. Prefer %s or a .env file.\n",
			key, services.EnvName(key))
	}
	if err := settingsService.Set(key, value); err != nil {
		return err
	}
	cmd.Printf("%s = %s\n", key, displayValue(key, value))
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if err := ensureSettings(); err != nil {
		return err
	}

	var failed error
	cmd.Print("Embedding provider... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		failed = errors.Join(failed, err)
	} else {
		cmd.Println("OK")
	}

	cmd.Print("LLM provider... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		failed = errors.Join(failed, err)
	} else {
		cmd.Println("OK")
	}

	if failed != nil {
		return fmt.Errorf("provider check failed: %w", failed)
	}
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if err := ensureSettings(); err != nil {
		return err
	}
	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("ragdesk Setup Wizard")
	cmd.Println("====================")
	cmd.Println()

	if err := configureProvider(cmd, reader, "Embedding", domain.AllEmbeddingProviders(),
		domain.DefaultEmbeddingModels(), services.KeyEmbedProvider, services.KeyEmbedModel); err != nil {
		return err
	}
	if err := configureProvider(cmd, reader, "LLM", domain.AllLLMProviders(),
		domain.DefaultLLMModels(), services.KeyLLMProvider, services.KeyLLMModel); err != nil {
		return err
	}

	cmd.Println("Setup complete. Run 'ragdesk settings check' to test the providers.")
	return nil
}

// configureProvider asks for a provider and model, stores them and asks for
// an API key when the provider needs one and none is set.
func configureProvider(
	cmd *cobra.Command,
	reader *bufio.Reader,
	label string,
	providers []domain.AIProvider,
	models map[domain.AIProvider]string,
	providerKey, modelKey string,
) error {
	cmd.Printf("Select %s Provider\n", label)
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]

	defaultModel := models[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	if err := settingsService.Set(providerKey, selected.String()); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", label, err)
	}
	if err := settingsService.Set(modelKey, model); err != nil {
		return fmt.Errorf("failed to configure %s model: %w", label, err)
	}

	if env := services.ProviderKeyEnv(selected); env != "" && settingsDir != "" {
		settings, err := settingsService.Get()
		if err != nil {
			return err
		}
		if !hasKey(settings, selected) {
			cmd.Printf("Enter %s (saved to %s/.env): ", env, settingsDir)
			key := readLine(reader)
			if key == "" {
				return fmt.Errorf("%w: API key is required for %s", domain.ErrConfiguration, selected)
			}
			if err := file.WriteEnvValue(settingsDir, env, key); err != nil {
				return fmt.Errorf("save %s: %w", env, err)
			}
		}
	}

	cmd.Printf("%s provider configured: %s (%s)\n\n", label, selected.Description(), model)
	return nil
}

func hasKey(s domain.Settings, p domain.AIProvider) bool {
	return (s.Embedding.Provider == p && s.Embedding.APIKey != "") ||
		(s.LLM.Provider == p && s.LLM.APIKey != "")
}

func displayValue(key, value string) string {
	if settingsService != nil && settingsService.IsSecret(key) {
		if value == "" {
			return "(not set)"
		}
		return maskAPIKey(value)
	}
	if value == "" {
		return `""`
	}
	return value
}

func readLine(reader *bufio.Reader) string {
	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
