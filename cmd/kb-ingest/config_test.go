// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/kb-ingest/internal/secrets"
	"github.com/pdiddy/kb-ingest/pkg/types"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestIngestConfig_Defaults(t *testing.T) {
	cfg, err := ingestConfig(newTestViper(), "", "", "")
	require.NoError(t, err)

	assert.Equal(t, types.ChunkConfig{Size: 1200, Overlap: 150}, cfg.ChunkConfig)
	assert.Equal(t, filepath.Join("kb", "sources"), cfg.InputDir)
	assert.Equal(t, filepath.Join("kb", "chunks"), cfg.OutputDir)
	assert.Equal(t, filepath.Join("kb", "manifest.yaml"), cfg.ManifestPath)
	assert.Equal(t, types.BackendNative, cfg.Backend)
	assert.Empty(t, cfg.Kinds)
}

func TestIngestConfig_Overrides(t *testing.T) {
	v := newTestViper()
	v.Set(keyRoot, "library")
	v.Set(keyChunkSize, 500)
	v.Set(keyOverlap, 50)
	v.Set(keyBackend, "pdftotext")
	v.Set(keyKinds, []string{"pdf", "md"})
	v.Set(keyContainerImage, "poppler:24")

	cfg, err := ingestConfig(v, "in", "", "")
	require.NoError(t, err)

	assert.Equal(t, "in", cfg.InputDir)
	assert.Equal(t, filepath.Join("library", "chunks"), cfg.OutputDir)
	assert.Equal(t, types.ChunkConfig{Size: 500, Overlap: 50}, cfg.ChunkConfig)
	assert.Equal(t, types.BackendPdftotext, cfg.Backend)
	assert.Equal(t, []types.SourceKind{types.KindPDF, types.KindMarkdown}, cfg.Kinds)
	assert.Equal(t, "poppler:24", cfg.Container.Image)
}

func TestIngestConfig_KindsFromEnv(t *testing.T) {
	t.Setenv("KB_INGEST_KINDS", "pdf,md")
	v := newTestViper()
	v.SetEnvPrefix("KB_INGEST")
	v.AutomaticEnv()

	cfg, err := ingestConfig(v, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, []types.SourceKind{types.KindPDF, types.KindMarkdown}, cfg.Kinds)
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, nil},
		{"separate values", []string{"pdf", "md"}, []string{"pdf", "md"}},
		{"comma list", []string{"pdf,md"}, []string{"pdf", "md"}},
		{"spaces and blanks", []string{" pdf , ,text "}, []string{"pdf", "text"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitList(tt.in))
		})
	}
}

func TestIngestConfig_BadKind(t *testing.T) {
	v := newTestViper()
	v.Set(keyKinds, []string{"docx"})

	_, err := ingestConfig(v, "", "", "")
	assert.ErrorContains(t, err, "unknown source kind")
}

func TestAcquisitionConfig(t *testing.T) {
	v := newTestViper()
	v.Set(keyAuthPrefix, "Token")

	cfg := acquisitionConfig(v, secrets.Secrets{secrets.DownloadToken: "abc"})
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.DownloadDelay)
	assert.Equal(t, types.AuthConfig{Header: "Authorization", Prefix: "Token", Token: "abc"}, cfg.Auth)
	assert.Equal(t, filepath.Join("kb", "sources"), cfg.SourcesDir)
}

func TestNewRegistry(t *testing.T) {
	_, err := newRegistry(types.IngestConfig{Backend: types.BackendNative})
	assert.NoError(t, err)

	_, err = newRegistry(types.IngestConfig{Backend: "ocr"})
	assert.ErrorContains(t, err, "unknown backend")

	_, err = newRegistry(types.IngestConfig{
		Backend:   types.BackendPdftotext,
		Container: types.ContainerConfig{Runtime: "lxc"},
	})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "é...", truncate("éééééé", 4))
	assert.Equal(t, "a b c", oneLine(" a\n b\t c "))
}
