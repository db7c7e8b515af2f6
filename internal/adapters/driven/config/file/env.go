package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvFile is the dotenv file name looked up in the working and config directories.
const EnvFile = ".env"

// LoadEnv loads .env files into the process environment. Variables that are
// already set win, and earlier directories win over later ones. Missing files
// are skipped. It returns the files that were loaded.
func LoadEnv(dirs ...string) ([]string, error) {
	var loaded []string
	seen := make(map[string]bool)
	for _, dir := range dirs {
		path := filepath.Join(dir, EnvFile)
		abs, err := filepath.Abs(path)
		if err == nil {
			path = abs
		}
		if seen[path] {
			continue
		}
		seen[path] = true

		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, fmt.Errorf("load %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// WriteEnvValue stores key=value in dir/.env, keeping any other entries.
// The file is created with owner-only permissions.
func WriteEnvValue(dir, key, value string) error {
	path := filepath.Join(dir, EnvFile)

	values := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		existing, err := godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		values = existing
	}
	values[key] = value

	content, err := godotenv.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
