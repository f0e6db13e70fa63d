package config

import (
	"bufio"
	"log/slog"
	"os"
	"strings"
)

// LoadDotenv loads KEY=VALUE pairs from the being's .env file (written by
// `being wake`) into the process environment. Real environment variables
// always win: a key that is already set is left untouched. A missing file is
// fine; the being then relies on the environment alone.
func LoadDotenv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	loaded := 0
	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Tolerate shell-style "export KEY=VALUE" so the file can be
		// sourced directly too.
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			slog.Warn("dotenv: skipping malformed line", "path", path, "line", lineNo)
			continue
		}

		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
		loaded++
	}
	if loaded > 0 {
		slog.Debug("dotenv: loaded variables", "path", path, "count", loaded)
	}
	return scanner.Err()
}

// unquote strips one pair of matching surrounding quotes, single or double.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
