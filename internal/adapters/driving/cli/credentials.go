package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/services"
)

// terminalPrompt returns a hidden-input prompt when stdin is a terminal,
// and nil otherwise.
func terminalPrompt(cmd *cobra.Command) PromptFunc {
	fd := int(os.Stdin.Fd()) //nolint:gosec // G115: file descriptors fit in int
	if !term.IsTerminal(fd) {
		return nil
	}
	return func(label string) (string, error) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read %s: %w", label, err)
		}
		return strings.TrimSpace(string(secret)), nil
	}
}

// ensureAPIKeys asks for provider keys that are required but missing and
// saves them to the .env file in dir. It reports whether any key was added.
func ensureAPIKeys(settings domain.Settings, dir string, withGenerator bool, prompt PromptFunc) (bool, error) {
	type need struct {
		provider domain.AIProvider
		key      string
	}
	needs := []need{{settings.Embedding.Provider, settings.Embedding.APIKey}}
	if withGenerator {
		needs = append(needs, need{settings.LLM.Provider, settings.LLM.APIKey})
	}

	changed := false
	asked := make(map[domain.AIProvider]bool)
	for _, n := range needs {
		if !n.provider.RequiresAPIKey() || n.key != "" || asked[n.provider] {
			continue
		}
		asked[n.provider] = true

		env := services.ProviderKeyEnv(n.provider)
		value, err := prompt(fmt.Sprintf("%s API key (%s)", n.provider.Description(), env))
		if err != nil {
			return changed, err
		}
		if value == "" {
			return changed, fmt.Errorf("%w: %s is not set", domain.ErrConfiguration, env)
		}
		if err := file.WriteEnvValue(dir, env, value); err != nil {
			return changed, fmt.Errorf("save %s: %w", env, err)
		}
		if err := os.Setenv(env, value); err != nil {
			return changed, fmt.Errorf("set %s: %w", env, err)
		}
		changed = true
	}
	return changed, nil
}
