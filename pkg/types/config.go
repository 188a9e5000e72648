package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "kb-ingest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on 429 and 503 responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// AuthConfig describes the authorization header attached to downloads.
// An empty Token disables the header.
type AuthConfig struct {
	// Header is the header name (default "Authorization").
	Header string `json:"header" yaml:"header" mapstructure:"header"`

	// Prefix is prepended to the token with a space (default "Bearer").
	// An empty prefix sends the bare token.
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`

	Token string `json:"-" yaml:"-" mapstructure:"-"`
}

// AcquisitionConfig holds settings for adding documents to the sources directory.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	Auth AuthConfig `json:"auth" yaml:"auth" mapstructure:"auth"`

	// DownloadDelay is the delay between consecutive downloads.
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay" mapstructure:"download_delay"`

	// SourcesDir is the directory documents are copied into.
	SourcesDir string `json:"sources_dir" yaml:"sources_dir" mapstructure:"sources_dir"`
}

// ExtractionBackend identifies the PDF text extraction tool.
type ExtractionBackend string

const (
	BackendNative    ExtractionBackend = "native"
	BackendPdftotext ExtractionBackend = "pdftotext"
)

// ContainerConfig selects the container runtime and image used by the
// pdftotext backend.
type ContainerConfig struct {
	// Runtime is "docker", "podman", or empty to detect.
	Runtime string `json:"runtime" yaml:"runtime" mapstructure:"runtime"`

	// Image is the pdftotext image (default "pdftotext:latest").
	Image string `json:"image" yaml:"image" mapstructure:"image"`
}

// ChunkConfig holds the fixed-window chunking parameters, counted in
// Unicode code points.
type ChunkConfig struct {
	// Size is the window length (default 1200).
	Size int `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size"`

	// Overlap is the number of code points shared by consecutive windows
	// (default 150).
	Overlap int `json:"overlap" yaml:"overlap" mapstructure:"overlap"`
}

// Chunking returns the manifest form of the chunk settings.
func (c ChunkConfig) Chunking() Chunking {
	return Chunking{ChunkSize: c.Size, Overlap: c.Overlap}
}

// IngestConfig holds settings for the ingest stage.
type IngestConfig struct {
	ChunkConfig `yaml:",inline" mapstructure:",squash"`

	// InputDir holds the source documents.
	InputDir string `json:"input_dir" yaml:"input_dir" mapstructure:"input_dir"`

	// OutputDir receives one <id>.jsonl file per source.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// ManifestPath is the manifest file. Empty disables the manifest and
	// with it incremental skipping.
	ManifestPath string `json:"manifest_path" yaml:"manifest_path" mapstructure:"manifest_path"`

	// Backend selects the PDF extractor: native or pdftotext.
	Backend ExtractionBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Container configures the pdftotext backend.
	Container ContainerConfig `json:"container" yaml:"container" mapstructure:"container"`

	// Kinds restricts discovery to these source kinds. Empty means all.
	Kinds []SourceKind `json:"kinds,omitempty" yaml:"kinds,omitempty" mapstructure:"kinds"`

	// Force re-ingests sources the manifest reports as current.
	Force bool `json:"force" yaml:"force" mapstructure:"force"`
}

// IndexConfig holds settings for the full-text index.
type IndexConfig struct {
	// ChunksDir holds the chunk files to index.
	ChunksDir string `json:"chunks_dir" yaml:"chunks_dir" mapstructure:"chunks_dir"`

	// IndexDir holds the SQLite database and exports.
	IndexDir string `json:"index_dir" yaml:"index_dir" mapstructure:"index_dir"`

	// ManifestPath supplies source metadata. Optional.
	ManifestPath string `json:"manifest_path" yaml:"manifest_path" mapstructure:"manifest_path"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Root        string            `json:"root" yaml:"root" mapstructure:"root"`
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition" mapstructure:"acquisition"`
	Ingest      IngestConfig      `json:"ingest" yaml:"ingest" mapstructure:"ingest"`
	Index       IndexConfig       `json:"index" yaml:"index" mapstructure:"index"`
}
