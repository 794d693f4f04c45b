package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
)

// loadDotEnv loads .env when present.
func loadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// readJSONInput decodes path into dst. "-" reads stdin.
func readJSONInput(path string, stdin io.Reader, dst any) error {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func validFormat(format string) error {
	if format != "table" && format != "json" {
		return fmt.Errorf("invalid format: %s (valid: table, json)", format)
	}
	return nil
}
