// Command docdistill turns a documentation corpus into a question/answer
// training dataset: it fetches and splits the corpus, generates pairs through
// an LLM provider (one call at a time or as one asynchronous batch job),
// persists them as JSON-Lines, and offers merge, conversion, and report
// tooling over the result.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/phrazzld/docdistill/internal/config"
	"github.com/phrazzld/docdistill/internal/convert"
	"github.com/phrazzld/docdistill/internal/corpus"
	"github.com/phrazzld/docdistill/internal/domain"
	"github.com/phrazzld/docdistill/internal/pipeline"
	"github.com/phrazzld/docdistill/internal/platform"
	"github.com/phrazzld/docdistill/internal/platform/logger"
	"github.com/phrazzld/docdistill/internal/prompt"
	"github.com/phrazzld/docdistill/internal/redact"
	"github.com/phrazzld/docdistill/internal/store"
	"github.com/phrazzld/docdistill/internal/visualize"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		// Provider errors can echo request headers; never print a key.
		fmt.Fprintln(os.Stderr, "error:", redact.Error(err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docdistill",
		Usage: "generate QA training data from a documentation corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the configuration file",
				Value:   "config.yaml",
			},
		},
		Commands: []*cli.Command{
			fetchCommand(),
			generateCommand(),
			batchCommand(),
			mergeCommand(),
			convertCommand(),
			visualizeCommand(),
			serveCommand(),
			modelsCommand(),
		},
	}
}

// env ties together the pieces every command needs: validated configuration
// and a configured logger.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

func bootstrap(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	log, err := logger.Setup(cfg.Log)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", cfg.Output.Dir, err)
	}

	return &env{cfg: cfg, logger: log}, nil
}

func (e *env) datasetPath() string {
	return filepath.Join(e.cfg.Output.Dir, e.cfg.Output.DatasetFile)
}

func (e *env) markerPath() string {
	return filepath.Join(e.cfg.Output.Dir, e.cfg.Output.MarkerFile)
}

// loadEntries fetches the corpus, splits it on section markers, and drops
// entries below the configured length floor.
func (e *env) loadEntries(ctx context.Context) ([]domain.Entry, error) {
	doc, err := corpus.NewFetcher(e.logger).Fetch(ctx, e.cfg.Corpus.Source)
	if err != nil {
		return nil, err
	}

	entries := corpus.NewSplitter(e.cfg.Corpus.MarkerPrefix, e.logger).Split(doc)
	entries = corpus.FilterShort(entries, e.cfg.Corpus.MinEntryLength, e.logger)

	if len(entries) == 0 {
		return nil, errors.New("corpus yielded no usable entries, check marker_prefix and min_entry_length")
	}

	e.logger.Info("corpus loaded", "source", e.cfg.Corpus.Source, "entries", len(entries))
	return entries, nil
}

func (e *env) promptBuilder() (*prompt.Builder, error) {
	if path := e.cfg.Generation.PromptTemplatePath; path != "" {
		return prompt.NewBuilderFromFile(path)
	}
	return prompt.NewBuilder()
}

// signalContext returns a context canceled on SIGINT or SIGTERM so long runs
// stop between entries instead of mid-write.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "fetch and split the corpus, then list the resulting entries without generating anything",
		Action: func(c *cli.Context) error {
			e, err := bootstrap(c)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			entries, err := e.loadEntries(ctx)
			if err != nil {
				return err
			}

			for _, entry := range entries {
				fmt.Printf("%s\t%d chars\n", entry.ID, len(entry.Content))
			}
			fmt.Printf("%d entries\n", len(entries))
			return nil
		},
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "generate pairs entry by entry with one provider call each",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "resume",
				Usage: "resumption strategy: marker or count",
				Value: string(pipeline.ResumeMarker),
			},
		},
		Action: func(c *cli.Context) error {
			e, err := bootstrap(c)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			entries, err := e.loadEntries(ctx)
			if err != nil {
				return err
			}

			provider, err := platform.NewProvider(ctx, e.logger, e.cfg.Provider)
			if err != nil {
				return err
			}

			builder, err := e.promptBuilder()
			if err != nil {
				return err
			}

			runner, err := pipeline.NewSequential(
				provider,
				builder,
				store.NewRecordStore(e.datasetPath()),
				store.NewMarker(e.markerPath()),
				e.logger,
				pipeline.SequentialConfig{
					PairsPerEntry: e.cfg.Generation.PairsPerEntry,
					Temperature:   e.cfg.Generation.Temperature,
					Resume:        pipeline.ResumeMode(c.String("resume")),
				},
			)
			if err != nil {
				return err
			}

			return runner.Run(ctx, entries)
		},
	}
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "generate pairs through the provider's asynchronous batch API",
		Action: func(c *cli.Context) error {
			e, err := bootstrap(c)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			entries, err := e.loadEntries(ctx)
			if err != nil {
				return err
			}

			provider, err := platform.NewProvider(ctx, e.logger, e.cfg.Provider)
			if err != nil {
				return err
			}

			builder, err := e.promptBuilder()
			if err != nil {
				return err
			}

			runner, err := pipeline.NewBatch(
				provider,
				builder,
				store.NewRecordStore(e.datasetPath()),
				e.logger,
				pipeline.BatchConfig{
					PairsPerEntry: e.cfg.Generation.PairsPerEntry,
					Temperature:   e.cfg.Generation.Temperature,
					PollInterval:  e.cfg.Generation.PollInterval,
					MaxPollWait:   e.cfg.Generation.MaxPollWait,
				},
			)
			if err != nil {
				return err
			}

			return runner.Run(ctx, entries)
		},
	}
}

func mergeCommand() *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "merge several dataset files into one, sorted by source",
		ArgsUsage: "<input.jsonl> [<input.jsonl>...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "merged output file",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New("merge requires at least one input file")
			}
			return store.Merge(c.Args().Slice(), c.String("output"))
		},
	}
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "convert the dataset to a fine-tuning format",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "input",
				Usage: "dataset to convert (defaults to the configured output dataset)",
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "converted output file",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "target format: messages or conversations",
				Value: string(convert.FormatMessages),
			},
			&cli.StringFlag{
				Name:  "system",
				Usage: "optional system prompt prepended to every example (messages format only)",
			},
		},
		Action: func(c *cli.Context) error {
			e, err := bootstrap(c)
			if err != nil {
				return err
			}

			format, err := convert.ParseFormat(c.String("format"))
			if err != nil {
				return err
			}

			input := c.String("input")
			if input == "" {
				input = e.datasetPath()
			}

			return convert.Dataset(input, c.String("output"), format, c.String("system"))
		},
	}
}

func visualizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "visualize",
		Usage: "render the dataset as an HTML report",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "report file",
				Value:   "report.html",
			},
		},
		Action: func(c *cli.Context) error {
			e, err := bootstrap(c)
			if err != nil {
				return err
			}

			records, err := store.NewRecordStore(e.datasetPath()).All()
			if err != nil {
				return err
			}

			if err := visualize.RenderFile(c.String("output"), records); err != nil {
				return err
			}

			e.logger.Info("report written", "path", c.String("output"), "records", len(records))
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve a live HTML report of the dataset over HTTP",
		Action: func(c *cli.Context) error {
			e, err := bootstrap(c)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			records := store.NewRecordStore(e.datasetPath())
			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", e.cfg.Server.Port),
				Handler:           visualize.NewServer(records, e.logger).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				e.logger.Info("report server listening", "addr", srv.Addr, "dataset", records.Path())
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func modelsCommand() *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "list the models the configured provider exposes",
		Action: func(c *cli.Context) error {
			e, err := bootstrap(c)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			provider, err := platform.NewProvider(ctx, e.logger, e.cfg.Provider)
			if err != nil {
				return err
			}

			models, err := provider.Models(ctx)
			if err != nil {
				return err
			}

			for _, model := range models {
				fmt.Println(model)
			}
			return nil
		},
	}
}
