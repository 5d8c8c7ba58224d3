package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"catalogstream/catalogsearch/internal/app"
	"catalogstream/catalogsearch/internal/domain"
)

type resolver interface {
	Resolve(ctx context.Context, query string, filter domain.KindFilter, page string, language string) domain.SearchAnswer
}

// resolverFactory builds the resolver lazily so --help never touches Redis.
type resolverFactory func(ctx context.Context) resolver

func defaultResolverFactory(ctx context.Context) resolver {
	cfg := app.LoadConfig()
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	logger := app.NewLogger(os.Stderr, level, cfg.LogFormat)
	return app.BuildSearchService(ctx, cfg, logger)
}

func newRootCommand(factory resolverFactory) *cobra.Command {
	if factory == nil {
		factory = defaultResolverFactory
	}

	rootCmd := &cobra.Command{
		Use:           "catalogq",
		Short:         "Query the film and TV catalog resolver",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newSearchCommand(factory))
	return rootCmd
}
