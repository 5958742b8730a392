// Package env resolves DOCRAG_* overrides from the process environment
// and optional .env files.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure Environment implements the interface.
var _ driven.Environment = (*Environment)(nil)

// DefaultFile is the dotenv file read from the working directory.
const DefaultFile = ".env"

// Environment looks keys up in the process environment first, then in
// values read from dotenv files. Files never modify the process environment.
type Environment struct {
	lookup func(string) (string, bool)
	file   map[string]string
}

// Load reads the given dotenv files; later files override earlier ones.
// Missing files are skipped. With no files, DefaultFile is tried.
func Load(files ...string) (*Environment, error) {
	if len(files) == 0 {
		files = []string{DefaultFile}
	}

	values := make(map[string]string)
	for _, f := range files {
		read, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		logger.Debug("env: loaded %d values from %s", len(read), f)
		for k, v := range read {
			values[k] = v
		}
	}

	return &Environment{lookup: os.LookupEnv, file: values}, nil
}

// FromMap builds an Environment from fixed values only.
func FromMap(values map[string]string) *Environment {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Environment{file: copied}
}

// Lookup returns the value for key and whether it is set.
func (e *Environment) Lookup(key string) (string, bool) {
	if e.lookup != nil {
		if v, ok := e.lookup(key); ok {
			return v, true
		}
	}
	v, ok := e.file[key]
	return v, ok
}
