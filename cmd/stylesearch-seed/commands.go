package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/stylesearch/internal/config"
	dbRedis "github.com/kailas-cloud/stylesearch/internal/db/redis"
	"github.com/kailas-cloud/stylesearch/internal/domain"
	dombatch "github.com/kailas-cloud/stylesearch/internal/domain/batch"
	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	logpkg "github.com/kailas-cloud/stylesearch/internal/logger"
	catalogrepo "github.com/kailas-cloud/stylesearch/internal/repository/catalog"
	"github.com/kailas-cloud/stylesearch/internal/usecase/ingest"
	"github.com/kailas-cloud/stylesearch/internal/version"
)

// maxReportedErrors caps the per-item failures printed after a load.
const maxReportedErrors = 20

type rootOptions struct {
	configPath string
	env        string
	timeout    time.Duration
}

type loadOptions struct {
	recreate bool
}

type generateOptions struct {
	count  int
	seed   uint64
	output string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "stylesearch-seed",
		Short:         "Seed the stylesearch catalog",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (default: config/<env>.yaml)")
	root.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "environment name selecting the config file")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Minute, "overall load deadline")

	root.AddCommand(newLoadCmd(opts), newGenerateCmd(opts), newDeleteCmd(opts))
	return root
}

func newLoadCmd(opts *rootOptions) *cobra.Command {
	load := &loadOptions{}
	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Load catalog items from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readItems(args[0])
			if err != nil {
				return err
			}
			return runLoad(cmd, opts, load, items)
		},
	}
	cmd.Flags().BoolVar(&load.recreate, "recreate", false, "drop and rebuild the search index before loading; item hashes are kept")
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete catalog items by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, opts, func(ctx context.Context, repo *catalogrepo.Repo, _ *zap.Logger, _ config.Config) error {
				return deleteItems(ctx, cmd.OutOrStdout(), repo, args)
			})
		},
	}
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	gen := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic catalog and load it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if gen.count <= 0 {
				return fmt.Errorf("--count must be positive, got %d", gen.count)
			}
			items := ingest.NewGenerator(gen.seed, time.Now()).Generate(gen.count)
			if gen.output != "" {
				return writeItems(cmd.OutOrStdout(), gen.output, items)
			}
			return runLoad(cmd, opts, &loadOptions{}, items)
		},
	}
	cmd.Flags().IntVarP(&gen.count, "count", "n", 100, "number of items to generate")
	cmd.Flags().Uint64Var(&gen.seed, "seed", 42, "random seed; equal seeds give equal catalogs")
	cmd.Flags().StringVarP(&gen.output, "output", "o", "", "write YAML to this file (\"-\" for stdout) instead of loading")
	return cmd
}

func readItems(path string) ([]catalog.Item, error) {
	format, err := ingest.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	items, err := ingest.Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return items, nil
}

func writeItems(stdout io.Writer, path string, items []catalog.Item) error {
	out := stdout
	if path != "-" {
		f, err := os.Create(filepath.Clean(path))
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(map[string][]catalog.Item{"items": items}); err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	return enc.Close()
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath)
	}
	return config.Load(o.env)
}

func runLoad(cmd *cobra.Command, opts *rootOptions, load *loadOptions, items []catalog.Item) error {
	return withCatalog(cmd, opts, func(ctx context.Context, repo *catalogrepo.Repo, logger *zap.Logger, cfg config.Config) error {
		if load.recreate {
			if err := recreateIndex(ctx, repo, logger); err != nil {
				return err
			}
		}
		svc := ingest.New(repo, logger).WithBatchSize(cfg.Storage.BatchSize)
		results, err := svc.Load(ctx, items)
		if err != nil {
			return err
		}
		return report(cmd.OutOrStdout(), dombatch.Summarize(results), logger)
	})
}

// withCatalog connects to the configured store and runs fn against the catalog repository.
func withCatalog(
	cmd *cobra.Command,
	opts *rootOptions,
	fn func(ctx context.Context, repo *catalogrepo.Repo, logger *zap.Logger, cfg config.Config) error,
) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(opts.env, "stylesearch-seed", cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return fmt.Errorf("create catalog store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("catalog store not ready: %w", err)
	}
	return fn(ctx, catalogrepo.New(store, cfg.Storage.KeyPrefix), logger, cfg)
}

type indexRecreator interface {
	RecreateIndex(ctx context.Context) error
	IndexName() string
}

func recreateIndex(ctx context.Context, idx indexRecreator, logger *zap.Logger) error {
	if err := idx.RecreateIndex(ctx); err != nil {
		return fmt.Errorf("recreate index: %w", err)
	}
	logger.Info("Search index recreated", zap.String("index", idx.IndexName()))
	return nil
}

type itemDeleter interface {
	Delete(ctx context.Context, id string) error
}

// deleteItems removes every id, reporting unknown ids without stopping.
// Store failures abort the run.
func deleteItems(ctx context.Context, w io.Writer, d itemDeleter, ids []string) error {
	var missing int
	for _, id := range ids {
		err := d.Delete(ctx, id)
		switch {
		case err == nil:
			fmt.Fprintf(w, "deleted: %s\n", id)
		case errors.Is(err, domain.ErrNotFound):
			missing++
			fmt.Fprintf(w, "not found: %s\n", id)
		default:
			return fmt.Errorf("delete %s: %w", id, err)
		}
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d items not found", missing, len(ids))
	}
	return nil
}

func report(w io.Writer, sum dombatch.Summary, logger *zap.Logger) error {
	fmt.Fprintf(w, "written: %d, failed: %d\n", sum.Written, sum.Failed)
	for i, r := range sum.Errors {
		if i == maxReportedErrors {
			fmt.Fprintf(w, "... and %d more\n", len(sum.Errors)-maxReportedErrors)
			break
		}
		fmt.Fprintf(w, "  %s: %v\n", r.ID(), r.Err())
	}
	if sum.Failed > 0 {
		logger.Warn("Some items were not loaded", zap.Int("failed", sum.Failed))
		return errors.New("catalog load finished with failures")
	}
	return nil
}
