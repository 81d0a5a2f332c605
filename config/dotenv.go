package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotenv finds the nearest .env file, starting in the working directory
// and walking up to the filesystem root, and loads it into the process
// environment. Variables already set are left alone. A missing .env file is
// not an error.
func LoadDotenv() error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}
	path, ok := findDotenv(dir)
	if !ok {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func findDotenv(dir string) (string, bool) {
	for {
		path := filepath.Join(dir, ".env")
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
