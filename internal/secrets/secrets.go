// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// The acquisition stage reads download-token, sent with every download as the
// configured auth header. Any key can also come from the environment as
// KB_INGEST_<KEY>, upper case with dashes replaced by underscores.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DownloadToken is the key of the bearer token used for source downloads.
const DownloadToken = "download-token"

// EnvPrefix is prepended to environment variable names consulted by Lookup.
const EnvPrefix = "KB_INGEST_"

// Secrets is a set of loaded secrets with environment fallback.
type Secrets map[string]string

// EnvName returns the environment variable consulted for key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Lookup returns the value for key. A file in the secrets directory takes
// precedence over the environment.
func (s Secrets) Lookup(key string) (string, bool) {
	if v, ok := s[key]; ok {
		return v, true
	}
	v := strings.TrimSpace(os.Getenv(EnvName(key)))
	return v, v != ""
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}
