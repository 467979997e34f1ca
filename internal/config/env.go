package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
)

// LoadEnv loads KEY=value pairs from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped. With no arguments it tries ".env".
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("config: env file not found, skipping", "path", f)
			continue
		}
		if err != nil {
			return fmt.Errorf("config: load env %q: %w", f, err)
		}
		slog.Info("config: env file loaded", "path", f)
	}
	return nil
}
