// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire copies local documents and downloads remote ones into the
// knowledge base sources directory.
package acquire

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/kb-ingest/internal/extract"
	"github.com/pdiddy/kb-ingest/internal/httputil"
	"github.com/pdiddy/kb-ingest/pkg/types"
)

// pdfMagic opens every PDF file.
var pdfMagic = []byte("%PDF-")

// BatchResult holds the outcome of a batch add run.
type BatchResult struct {
	Added   int
	Skipped int
	Failed  int
	Paths   []string
}

// Total returns the total number of references processed.
func (r BatchResult) Total() int {
	return r.Added + r.Skipped + r.Failed
}

// HasFailures reports whether any reference failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// NewClient returns an HTTP client configured from cfg.
func NewClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// Add places one reference in cfg.SourcesDir. Local files are copied and
// URLs downloaded; both go through a temporary file renamed on success.
// An existing target is left untouched and reported as skipped.
func Add(ctx context.Context, client *http.Client, ref string, cfg types.AcquisitionConfig, w io.Writer) (dest string, skipped bool, err error) {
	refType, normalized := Classify(ref)
	if refType == TypeUnknown {
		return "", false, fmt.Errorf("not an http(s) URL or readable file: %q", ref)
	}

	name := FileName(refType, normalized)
	if !safeName(name) {
		return "", false, fmt.Errorf("refusing unsafe file name %q from %q", name, ref)
	}
	if _, ok := extract.KindOf(name); !ok {
		return "", false, fmt.Errorf("unsupported file type %q", filepath.Ext(name))
	}
	dest = filepath.Join(cfg.SourcesDir, name)

	if _, err := os.Stat(dest); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", name)
		return dest, true, nil
	}

	if err := os.MkdirAll(cfg.SourcesDir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating directory %s: %w", cfg.SourcesDir, err)
	}

	switch refType {
	case TypeFile:
		fmt.Fprintf(w, "copying: %s\n", name)
		err = copyFile(normalized, dest)
	case TypeURL:
		fmt.Fprintf(w, "downloading: %s\n", name)
		err = downloadFile(ctx, client, normalized, dest, cfg)
	}
	if err != nil {
		return "", false, fmt.Errorf("adding %s: %w", name, err)
	}
	return dest, false, nil
}

// AddBatch processes multiple references, printing per-item status and
// returning a summary. It continues after individual failures and applies
// cfg.DownloadDelay between consecutive downloads.
func AddBatch(ctx context.Context, client *http.Client, refs []string, cfg types.AcquisitionConfig, w io.Writer) (BatchResult, error) {
	var result BatchResult
	downloaded := false
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		isURL := false
		if t, _ := Classify(ref); t == TypeURL {
			isURL = true
		}
		if isURL && downloaded && cfg.DownloadDelay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(cfg.DownloadDelay):
			}
		}

		dest, wasSkipped, err := Add(ctx, client, ref, cfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", ref, err)
			result.Failed++
			continue
		}
		if wasSkipped {
			result.Skipped++
		} else {
			result.Added++
			downloaded = downloaded || isURL
		}
		result.Paths = append(result.Paths, dest)
	}
	fmt.Fprintf(w, "\nBatch summary: %d added, %d skipped, %d failed (total: %d)\n",
		result.Added, result.Skipped, result.Failed, result.Total())
	return result, nil
}

// authorize sets the configured auth header when a token is present.
func authorize(req *http.Request, auth types.AuthConfig) {
	if auth.Token == "" {
		return
	}
	header := auth.Header
	if header == "" {
		header = "Authorization"
	}
	value := auth.Token
	if auth.Prefix != "" {
		value = auth.Prefix + " " + auth.Token
	}
	req.Header.Set(header, value)
}

// downloadFile fetches url to destPath using a temporary file. A download
// saved as .pdf must start with the PDF signature so error pages served
// with status 200 are not mistaken for documents.
func downloadFile(ctx context.Context, client *http.Client, url, destPath string, cfg types.AcquisitionConfig) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	authorize(req, cfg.Auth)

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	body := io.Reader(resp.Body)
	if strings.EqualFold(filepath.Ext(destPath), ".pdf") {
		head := make([]byte, len(pdfMagic))
		n, _ := io.ReadFull(resp.Body, head)
		if !bytes.Equal(head[:n], pdfMagic) {
			return fmt.Errorf("response from %s is not a PDF (content type %q)", url, resp.Header.Get("Content-Type"))
		}
		body = io.MultiReader(bytes.NewReader(head[:n]), resp.Body)
	}

	return writeAtomic(destPath, body)
}

func copyFile(src, destPath string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeAtomic(destPath, f)
}

func writeAtomic(destPath string, r io.Reader) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".acquire-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, r)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing file: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
