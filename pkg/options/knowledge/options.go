// Package knowledge provides knowledge base pipeline configuration options.
package knowledge

import (
	"fmt"
	"time"

	"github.com/lexfisc/lexfisc/pkg/options"
	"github.com/spf13/pflag"
)

var _ options.IOptions = (*Options)(nil)

// Options contains knowledge pipeline configuration.
type Options struct {
	// ChunkSize is the size of text chunks in characters.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`

	// ChunkOverlap is the overlap between consecutive chunks in characters.
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`

	// BatchSize is the number of chunks embedded per provider call.
	BatchSize int `json:"batch-size" mapstructure:"batch-size"`

	// TopK is the number of results to return from similarity search.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// MinScore is the cosine similarity threshold below which results are discarded.
	MinScore float64 `json:"min-score" mapstructure:"min-score"`

	// Collection is the name of the Milvus collection.
	Collection string `json:"collection" mapstructure:"collection"`

	// EmbeddingDim is the dimension of embedding vectors.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// IngestTimeout is the wall-clock budget for a single ingestion run.
	IngestTimeout time.Duration `json:"ingest-timeout" mapstructure:"ingest-timeout"`

	// MinTextChars is the minimum extracted text length for a document
	// to be considered readable.
	MinTextChars int `json:"min-text-chars" mapstructure:"min-text-chars"`

	// CandidateLimit caps how many chunks the fallback scanner loads per query.
	CandidateLimit int `json:"candidate-limit" mapstructure:"candidate-limit"`

	// DataDir is the directory for storing uploaded source documents.
	DataDir string `json:"data-dir" mapstructure:"data-dir"`

	// SystemPrompt is the synthesis prompt template.
	SystemPrompt string `json:"system-prompt" mapstructure:"system-prompt"`
}

// DefaultSystemPrompt is the default synthesis prompt. The model is told to
// mark every claim with a source marker so the answer can be tied back to
// the passages it was built from.
const DefaultSystemPrompt = `You are a tax research assistant. Answer the question using ONLY the provided excerpts.
After every claim, cite the excerpt it came from using the exact marker format [<title> §<number>]
where <title> and <number> come from the excerpt header.
If the excerpts do not contain the answer, say you cannot answer from the available sources.

Excerpts:
{{context}}

Question: {{question}}

Answer:`

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		ChunkSize:      900,
		ChunkOverlap:   150,
		BatchSize:      10,
		TopK:           8,
		MinScore:       0.5,
		Collection:     "lexfisc_chunks",
		EmbeddingDim:   768, // nomic-embed-text dimension
		IngestTimeout:  4 * time.Minute,
		MinTextChars:   50,
		CandidateLimit: 5000,
		DataDir:        "_output/knowledge-data",
		SystemPrompt:   DefaultSystemPrompt,
	}
}

// AddFlags adds flags for knowledge options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.ChunkSize, options.Join(prefixes...)+"knowledge.chunk-size", o.ChunkSize, "Size of text chunks in characters.")
	fs.IntVar(&o.ChunkOverlap, options.Join(prefixes...)+"knowledge.chunk-overlap", o.ChunkOverlap, "Overlap between consecutive chunks in characters.")
	fs.IntVar(&o.BatchSize, options.Join(prefixes...)+"knowledge.batch-size", o.BatchSize, "Number of chunks embedded per provider call.")
	fs.IntVar(&o.TopK, options.Join(prefixes...)+"knowledge.top-k", o.TopK, "Number of results from similarity search.")
	fs.Float64Var(&o.MinScore, options.Join(prefixes...)+"knowledge.min-score", o.MinScore, "Minimum cosine similarity score for retrieved chunks.")
	fs.StringVar(&o.Collection, options.Join(prefixes...)+"knowledge.collection", o.Collection, "Milvus collection name.")
	fs.IntVar(&o.EmbeddingDim, options.Join(prefixes...)+"knowledge.embedding-dim", o.EmbeddingDim, "Embedding vector dimension.")
	fs.DurationVar(&o.IngestTimeout, options.Join(prefixes...)+"knowledge.ingest-timeout", o.IngestTimeout, "Wall-clock budget for a single ingestion run.")
	fs.IntVar(&o.MinTextChars, options.Join(prefixes...)+"knowledge.min-text-chars", o.MinTextChars, "Minimum extracted text length for a readable document.")
	fs.IntVar(&o.CandidateLimit, options.Join(prefixes...)+"knowledge.candidate-limit", o.CandidateLimit, "Maximum chunks loaded per query by the fallback scanner.")
	fs.StringVar(&o.DataDir, options.Join(prefixes...)+"knowledge.data-dir", o.DataDir, "Directory for storing uploaded documents.")
}

// Validate validates the knowledge options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk-size must be positive"))
	}
	if o.ChunkOverlap < 0 {
		errs = append(errs, fmt.Errorf("chunk-overlap cannot be negative"))
	}
	if o.ChunkOverlap >= o.ChunkSize {
		errs = append(errs, fmt.Errorf("chunk-overlap must be smaller than chunk-size"))
	}
	if o.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch-size must be positive"))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("top-k must be positive"))
	}
	if o.MinScore < -1 || o.MinScore > 1 {
		errs = append(errs, fmt.Errorf("min-score must be within [-1, 1]"))
	}
	if o.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("embedding-dim must be positive"))
	}
	if o.IngestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ingest-timeout must be positive"))
	}
	return errs
}

// Complete completes the knowledge options with defaults.
func (o *Options) Complete() error {
	if o.SystemPrompt == "" {
		o.SystemPrompt = DefaultSystemPrompt
	}
	if o.MinTextChars <= 0 {
		o.MinTextChars = 50
	}
	if o.CandidateLimit <= 0 {
		o.CandidateLimit = 5000
	}
	return nil
}
