// Package options contains flags and options for initializing the knowledge server.
package options

import (
	"fmt"
	"time"

	"go.uber.org/multierr"

	knowledgesvc "github.com/lexfisc/lexfisc/internal/knowledge"
	"github.com/lexfisc/lexfisc/pkg/infra/app"
	knowledgeopts "github.com/lexfisc/lexfisc/pkg/options/knowledge"
	llmopts "github.com/lexfisc/lexfisc/pkg/options/llm"
	logopts "github.com/lexfisc/lexfisc/pkg/options/logger"
	milvusopts "github.com/lexfisc/lexfisc/pkg/options/milvus"
	postgresopts "github.com/lexfisc/lexfisc/pkg/options/postgres"
	redisopts "github.com/lexfisc/lexfisc/pkg/options/redis"
	httpopts "github.com/lexfisc/lexfisc/pkg/options/server/http"
)

var _ app.CliOptions = (*ServerOptions)(nil)

// ServerOptions contains the configuration options for the knowledge server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// PostgresOptions contains PostgreSQL configuration.
	PostgresOptions *postgresopts.Options `json:"postgres" mapstructure:"postgres"`

	// MilvusOptions contains Milvus vector database configuration.
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// RedisOptions contains Redis configuration for the embedding cache.
	RedisOptions *redisopts.Options `json:"redis" mapstructure:"redis"`

	// CacheEnabled toggles the Redis-backed embedding cache.
	CacheEnabled bool `json:"cache-enabled" mapstructure:"cache-enabled"`

	// EmbeddingOptions contains embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// ChatOptions contains chat provider configuration.
	ChatOptions *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// KnowledgeOptions contains knowledge pipeline configuration.
	KnowledgeOptions *knowledgeopts.Options `json:"knowledge" mapstructure:"knowledge"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	httpOpts := httpopts.NewOptions()
	httpOpts.Addr = ":8120"

	return &ServerOptions{
		HTTPOptions:      httpOpts,
		LogOptions:       logopts.NewOptions(),
		PostgresOptions:  postgresopts.NewOptions(),
		MilvusOptions:    milvusopts.NewOptions(),
		RedisOptions:     redisopts.NewOptions(),
		CacheEnabled:     true,
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		ChatOptions:      llmopts.NewChatOptions(),
		KnowledgeOptions: knowledgeopts.NewOptions(),
		ShutdownTimeout:  30 * time.Second,
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss app.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.PostgresOptions.AddFlags(fss.FlagSet("postgres"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.ChatOptions.AddFlags(fss.FlagSet("chat"), "chat")
	o.KnowledgeOptions.AddFlags(fss.FlagSet("knowledge"))

	fs := fss.FlagSet("misc")
	fs.BoolVar(&o.CacheEnabled, "cache-enabled", o.CacheEnabled, "Enable the Redis-backed embedding cache")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout")

	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := o.ChatOptions.Complete(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if err := o.KnowledgeOptions.Complete(); err != nil {
		return fmt.Errorf("knowledge: %w", err)
	}
	return nil
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	var errs []error

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate())
	errs = append(errs, o.PostgresOptions.Validate())
	errs = append(errs, o.MilvusOptions.Validate()...)
	errs = append(errs, o.RedisOptions.Validate())
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	errs = append(errs, o.ChatOptions.Validate()...)
	errs = append(errs, o.KnowledgeOptions.Validate()...)

	return multierr.Combine(errs...)
}

// Config builds a knowledgesvc.Config based on ServerOptions.
func (o *ServerOptions) Config() (*knowledgesvc.Config, error) {
	return &knowledgesvc.Config{
		HTTPOptions:      o.HTTPOptions,
		LogOptions:       o.LogOptions,
		PostgresOptions:  o.PostgresOptions,
		MilvusOptions:    o.MilvusOptions,
		RedisOptions:     o.RedisOptions,
		CacheEnabled:     o.CacheEnabled,
		EmbeddingOptions: o.EmbeddingOptions,
		ChatOptions:      o.ChatOptions,
		KnowledgeOptions: o.KnowledgeOptions,
		ShutdownTimeout:  o.ShutdownTimeout,
	}, nil
}
