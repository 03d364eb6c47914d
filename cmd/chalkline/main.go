// Package main provides the chalkline CLI entry point.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rowanvale/chalkline/artifacts"
	"github.com/rowanvale/chalkline/bus"
	"github.com/rowanvale/chalkline/config"
	"github.com/rowanvale/chalkline/deck"
	"github.com/rowanvale/chalkline/gate"
	"github.com/rowanvale/chalkline/internal/logging"
	"github.com/rowanvale/chalkline/llm"
	"github.com/rowanvale/chalkline/pipeline"
	"github.com/rowanvale/chalkline/research"
	"github.com/rowanvale/chalkline/storage"
)

var (
	// Global flags
	provider string
	dbPath   string
	noStore  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "chalkline",
		Short: "Multi-agent lesson-package generator",
		Long: `chalkline turns a natural-language request into a multi-lesson
educational package: teacher guides, slide decks, a quiz, and a sources
document, fact-checked against encyclopedia research.`,
	}

	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "openai",
		fmt.Sprintf("LLM provider (%s)", strings.Join(config.SupportedProviders(), ", ")))
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Job-history database path (overrides CHALKLINE_DB)")
	rootCmd.PersistentFlags().BoolVar(&noStore, "no-store", false, "Disable job-history persistence")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles the wired components for one process.
type app struct {
	settings config.Settings
	log      *zap.SugaredLogger
	gen      *llm.Generator
	reviewer *gate.Reviewer
	orch     *pipeline.Orchestrator
	bus      *bus.Bus
	builder  *deck.Builder
	store    storage.JobStore
}

// wire builds the full component graph from settings and flags.
func wire() (*app, error) {
	settings, err := config.New(provider)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		settings.DBPath = dbPath
	}

	log, err := logging.New(settings.LogMode)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}
	llmProvider, err := llm.NewProvider(settings.LLM.Provider, apiKey, settings.LLM.Model)
	if err != nil {
		return nil, err
	}

	genCfg := llm.DefaultGeneratorConfig()
	genCfg.DefaultMaxTokens = settings.LLM.MaxTokens
	genCfg.DefaultTemperature = settings.LLM.Temperature
	gen := llm.NewGenerator(llmProvider, genCfg, log)

	var store storage.JobStore
	if !noStore {
		store, err = storage.OpenSqlite(settings.DBPath)
		if err != nil {
			return nil, err
		}
	}

	b := bus.New(bus.DefaultCapacity)
	writer := artifacts.NewWriter(settings.Pipeline.OutputDir, log)
	builder := deck.NewBuilder(log, func(n deck.BuildNotice) { b.Results <- n })
	handoff := deck.NewHandoff(b.Decks, settings.Pipeline.OutputDir,
		settings.Deck.PollInterval, settings.Deck.PollAttempts, log)

	wiki := research.NewWikipediaAdapter(log)
	fetch := func(ctx context.Context, topic string) string { return wiki.Lookup(ctx, topic) }

	pipeCfg := pipeline.Config{
		SlideTarget:   settings.Pipeline.SlideTarget,
		TopicCap:      settings.Pipeline.TopicCap,
		RevisionCap:   settings.Pipeline.RevisionCap,
		SummaryWindow: settings.Pipeline.SummaryWindow,
	}
	pipe := pipeline.NewPipeline(gen, fetch, pipeline.NewGate(gen, log), writer, handoff, pipeCfg, log)
	orch := pipeline.NewOrchestrator(gen, pipe, writer, store, pipeCfg, log)

	return &app{
		settings: settings,
		log:      log,
		gen:      gen,
		reviewer: gate.NewReviewer(gen, log),
		orch:     orch,
		bus:      b,
		builder:  builder,
		store:    store,
	}, nil
}

func (a *app) close() {
	if usage := a.gen.Usage(); usage.TotalTokens > 0 {
		a.log.Infow("session token usage",
			"prompt", usage.PromptTokens,
			"completion", usage.CompletionTokens,
			"total", usage.TotalTokens)
	}
	if a.store != nil {
		a.store.Close()
	}
	_ = a.log.Sync()
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [request]",
		Short: "Process one request and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wire()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			go a.builder.Run(ctx, a.bus.Decks)

			approved, message := a.reviewer.Review(ctx, args[0])
			fmt.Println(message)
			if !approved {
				a.orch.RecordRejection(args[0], message)
				return nil
			}

			report := a.orch.Run(ctx, args[0])
			printReport(report)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run planner and deck-builder workers over the queues, reading requests from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wire()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			go a.builder.Run(ctx, a.bus.Decks)
			go a.planner(ctx)

			fmt.Println("chalkline ready; one request per line (Ctrl-D to exit)")
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)
			for scanner.Scan() {
				request := strings.TrimSpace(scanner.Text())
				if request == "" {
					continue
				}

				approved, message := a.reviewer.Review(ctx, request)
				fmt.Println(message)
				if !approved {
					a.orch.RecordRejection(request, message)
					continue
				}

				a.bus.Tasks <- request
				printReport(a.awaitReport(ctx))
			}
			return scanner.Err()
		},
	}
}

// planner drains the task queue, running each job and posting its report
// to the result queue.
func (a *app) planner(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case request, ok := <-a.bus.Tasks:
			if !ok {
				return
			}
			a.bus.Results <- a.orch.Run(ctx, request)
		}
	}
}

// awaitReport reads the result queue until the next final report string,
// skipping internal deck notices by type.
func (a *app) awaitReport(ctx context.Context) string {
	for {
		select {
		case <-ctx.Done():
			return fmt.Sprintf("Error: %v", ctx.Err())
		case msg := <-a.bus.Results:
			switch m := msg.(type) {
			case string:
				return m
			case deck.BuildNotice:
				a.log.Debugw("deck notice", "filename", m.Filename, "path", m.Path)
			default:
				a.log.Debugw("skipping unexpected result", "type", fmt.Sprintf("%T", msg))
			}
		}
	}
}

// printReport splits file markers out of the report, prints the display
// text in transport-sized chunks, then lists the artifacts.
func printReport(report string) {
	paths, display := pipeline.ExtractFiles(report)
	for _, chunk := range pipeline.ChunkMessage(display, pipeline.DefaultChunkLimit) {
		fmt.Println(chunk)
	}
	if len(paths) > 0 {
		fmt.Println("\nArtifacts:")
		for _, p := range paths {
			if _, err := os.Stat(p); err != nil {
				fmt.Printf("  %s (missing)\n", p)
				continue
			}
			fmt.Printf("  %s\n", p)
		}
	}
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent jobs from the job-history database",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.New(provider)
			if err != nil {
				return err
			}
			if dbPath != "" {
				settings.DBPath = dbPath
			}

			store, err := storage.OpenSqlite(settings.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No jobs recorded.")
				return nil
			}

			for _, rec := range records {
				fmt.Printf("%s  %s  [%s]\n", rec.CreatedAt.Format("2006-01-02 15:04"), rec.ID, rec.Status)
				fmt.Printf("  request: %s\n", rec.Request)
				if rec.FirstGo+rec.RevisedGo+rec.Warnings > 0 {
					fmt.Printf("  fact-check: %d first-attempt, %d revised, %d warnings\n",
						rec.FirstGo, rec.RevisedGo, rec.Warnings)
				}
				for _, p := range rec.ArtifactPaths {
					fmt.Printf("  artifact: %s\n", p)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum jobs to list")
	return cmd
}
