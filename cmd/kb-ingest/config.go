// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/kb-ingest/internal/chunk"
	"github.com/pdiddy/kb-ingest/internal/ingest"
	"github.com/pdiddy/kb-ingest/internal/layout"
	"github.com/pdiddy/kb-ingest/internal/secrets"
	"github.com/pdiddy/kb-ingest/pkg/types"
)

// Configuration keys. Nested keys map to environment variables with dots
// replaced by underscores, e.g. http.timeout is KB_INGEST_HTTP_TIMEOUT.
const (
	keyRoot             = "root"
	keyChunkSize        = "chunk_size"
	keyOverlap          = "overlap"
	keyBackend          = "backend"
	keyKinds            = "kinds"
	keyContainerRuntime = "container.runtime"
	keyContainerImage   = "container.image"
	keyHTTPTimeout      = "http.timeout"
	keyHTTPUserAgent    = "http.user_agent"
	keyHTTPMaxRetries   = "http.max_retries"
	keyAuthHeader       = "auth.header"
	keyAuthPrefix       = "auth.prefix"
	keyDownloadDelay    = "download_delay"
	keyMaxResults       = "max_results"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyRoot, layout.DefaultRoot)
	v.SetDefault(keyChunkSize, chunk.DefaultSize)
	v.SetDefault(keyOverlap, chunk.DefaultOverlap)
	v.SetDefault(keyBackend, string(types.BackendNative))
	v.SetDefault(keyContainerRuntime, "")
	v.SetDefault(keyContainerImage, "")
	v.SetDefault(keyHTTPTimeout, 60*time.Second)
	v.SetDefault(keyHTTPUserAgent, "kb-ingest/"+version)
	v.SetDefault(keyHTTPMaxRetries, 5)
	v.SetDefault(keyAuthHeader, "Authorization")
	v.SetDefault(keyAuthPrefix, "Bearer")
	v.SetDefault(keyDownloadDelay, time.Second)
	v.SetDefault(keyMaxResults, 20)
}

// kbPaths resolves the knowledge base layout from the configured root.
func kbPaths(v *viper.Viper) layout.Paths {
	return layout.Resolve(v.GetString(keyRoot))
}

// ingestConfig builds the ingest settings from configuration. Directory
// overrides left empty fall back to the knowledge base layout.
func ingestConfig(v *viper.Viper, input, output, manifestPath string) (types.IngestConfig, error) {
	paths := kbPaths(v)
	if input == "" {
		input = paths.Sources
	}
	if output == "" {
		output = paths.Chunks
	}
	if manifestPath == "" {
		manifestPath = paths.Manifest
	}

	kinds, err := ingest.ParseKinds(splitList(v.GetStringSlice(keyKinds)))
	if err != nil {
		return types.IngestConfig{}, err
	}

	return types.IngestConfig{
		ChunkConfig: types.ChunkConfig{
			Size:    v.GetInt(keyChunkSize),
			Overlap: v.GetInt(keyOverlap),
		},
		InputDir:     input,
		OutputDir:    output,
		ManifestPath: manifestPath,
		Backend:      types.ExtractionBackend(v.GetString(keyBackend)),
		Container: types.ContainerConfig{
			Runtime: v.GetString(keyContainerRuntime),
			Image:   v.GetString(keyContainerImage),
		},
		Kinds: kinds,
	}, nil
}

// acquisitionConfig builds the add settings. The download token comes from
// the secrets directory or the environment.
func acquisitionConfig(v *viper.Viper, s secrets.Secrets) types.AcquisitionConfig {
	token, _ := s.Lookup(secrets.DownloadToken)
	return types.AcquisitionConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:    v.GetDuration(keyHTTPTimeout),
			UserAgent:  v.GetString(keyHTTPUserAgent),
			MaxRetries: v.GetInt(keyHTTPMaxRetries),
		},
		Auth: types.AuthConfig{
			Header: v.GetString(keyAuthHeader),
			Prefix: v.GetString(keyAuthPrefix),
			Token:  token,
		},
		DownloadDelay: v.GetDuration(keyDownloadDelay),
		SourcesDir:    kbPaths(v).Sources,
	}
}

// splitList flattens values that may hold comma-separated items, as env
// variables and config strings do (KB_INGEST_KINDS=pdf,md).
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func indexConfig(v *viper.Viper) types.IndexConfig {
	paths := kbPaths(v)
	return types.IndexConfig{
		ChunksDir:    paths.Chunks,
		IndexDir:     paths.Index,
		ManifestPath: paths.Manifest,
		MaxResults:   v.GetInt(keyMaxResults),
	}
}
