// Package app provides the knowledge server application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lexfisc/lexfisc/cmd/knowledge/app/options"
	"github.com/lexfisc/lexfisc/pkg/infra/app"
)

const (
	// Name is the name of the application.
	Name = "lexfisc-knowledge"

	// commandDesc is the description of the command.
	commandDesc = `LexFisc Knowledge Service

The tenant-aware tax knowledge core for the LexFisc platform.

This server provides:
  - PDF ingestion with text extraction, chunking and vector embeddings
  - Semantic similarity retrieval over the indexed corpus
  - Question answering with source citations
  - QA session logging per tenant`
)

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewServerOptions()
	application := app.NewApp(
		app.WithName(Name),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)

	return application
}

// run contains the main logic for initializing and running the server.
func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx := setupSignalContext()

		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		return server.Run(ctx)
	}
}

// setupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
// A second signal exits immediately.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
