package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/doc2book/originality/internal/config"
	"github.com/doc2book/originality/internal/llm"
	"github.com/doc2book/originality/internal/llm/anthropic"
	"github.com/doc2book/originality/internal/llm/openai"
	"github.com/doc2book/originality/internal/observability"
	"github.com/doc2book/originality/internal/oracle"
	"github.com/doc2book/originality/internal/render"
	"github.com/doc2book/originality/internal/report"
	"github.com/doc2book/originality/internal/vectorstore"
	"github.com/doc2book/originality/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath  string
		inputPath   string
		sourcePaths  []string
		jsonOutput   bool
		snapshotPath string
	)

	rootCmd := &cobra.Command{
		Use:   "originality",
		Short: "Originality detection for documents against reference sources",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "originality.yaml", "Config file path")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Generate a full originality report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), configPath, inputPath, sourcePaths, jsonOutput, snapshotPath)
		},
	}
	checkCmd.Flags().StringVar(&inputPath, "input", "", "Candidate document file")
	checkCmd.Flags().StringSliceVar(&sourcePaths, "sources", nil, "Source files or directories")
	checkCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
	checkCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Write the embedded source corpus to this JSON file")
	_ = checkCmd.MarkFlagRequired("input")
	_ = checkCmd.MarkFlagRequired("sources")

	quickCmd := &cobra.Command{
		Use:   "quick",
		Short: "Lightweight plagiarism verdict without a full report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuick(cmd.Context(), configPath, inputPath, sourcePaths)
		},
	}
	quickCmd.Flags().StringVar(&inputPath, "input", "", "Candidate document file")
	quickCmd.Flags().StringSliceVar(&sourcePaths, "sources", nil, "Source files or directories")
	_ = quickCmd.MarkFlagRequired("input")
	_ = quickCmd.MarkFlagRequired("sources")

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Index reference sources into the Qdrant corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), configPath, sourcePaths)
		},
	}
	indexCmd.Flags().StringSliceVar(&sourcePaths, "sources", nil, "Source files or directories")
	_ = indexCmd.MarkFlagRequired("sources")

	var query string
	var topK int
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search the Qdrant corpus for similar sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), configPath, query, topK)
		},
	}
	searchCmd.Flags().StringVar(&query, "query", "", "Query text")
	searchCmd.Flags().IntVar(&topK, "top", 5, "Number of results")
	_ = searchCmd.MarkFlagRequired("query")

	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "List available LLM providers",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Available LLM providers:")
			fmt.Println()
			names := make([]string, 0, len(llm.KnownProviders))
			for name := range llm.KnownProviders {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %-12s %s\n", name, llm.KnownProviders[name])
			}
			fmt.Println("  custom       (set base_url to any OpenAI-compatible endpoint)")
			fmt.Println("  none         (deterministic fallbacks only, no remote calls)")
			fmt.Println()
			fmt.Println("Configure in originality.yaml or via environment:")
			fmt.Println("  ORIGINALITY_LLM_PROVIDER=openai")
			fmt.Println("  ORIGINALITY_LLM_API_KEY=sk-...")
			fmt.Println("  ORIGINALITY_LLM_MODEL=gpt-4o-mini")
		},
	}

	rootCmd.AddCommand(checkCmd, quickCmd, indexCmd, searchCmd, providersCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads config, configures logging and tracing, and builds the oracle.
// The returned shutdown func flushes tracing.
func setup(ctx context.Context, configPath string) (*config.Config, oracle.Oracle, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	initLogging(cfg.Log)

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    "originality",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init tracing: %w", err)
	}
	shutdown := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}

	provider, err := buildProvider(cfg.LLM)
	if err != nil {
		shutdown()
		return nil, nil, nil, err
	}
	var o oracle.Oracle
	if provider != nil {
		llmOracle, err := oracle.NewLLMOracle(provider)
		if err != nil {
			shutdown()
			return nil, nil, nil, err
		}
		o = llmOracle
	}
	return cfg, o, shutdown, nil
}

func buildProvider(cfg config.LLMConfig) (llm.Provider, error) {
	factory := llm.NewFactory()
	factory.Register("openai", func(pc llm.ProviderConfig) (llm.Provider, error) {
		return openai.New(pc.APIKey, pc.Model, pc.BaseURL, pc.EmbedModel), nil
	})
	factory.Register("anthropic", func(pc llm.ProviderConfig) (llm.Provider, error) {
		return anthropic.New(pc.APIKey, pc.Model, pc.BaseURL), nil
	})
	factory.Register("custom", func(pc llm.ProviderConfig) (llm.Provider, error) {
		return openai.New(pc.APIKey, pc.Model, pc.BaseURL, pc.EmbedModel), nil
	})

	return factory.Create(llm.ProviderConfig{
		Provider:   cfg.Provider,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		EmbedModel: cfg.EmbedModel,
	})
}

func initLogging(cfg config.LogConfig) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func runCheck(ctx context.Context, configPath, inputPath string, sourcePaths []string, jsonOutput bool, snapshotPath string) error {
	cfg, o, shutdown, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer shutdown()

	text, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	sources, err := readSources(sourcePaths)
	if err != nil {
		return err
	}

	gen := report.NewGenerator(o, report.Options{
		Threshold:   cfg.Check.Threshold,
		ChunkSize:   cfg.Check.ChunkSize,
		MaxMatches:  cfg.Check.MaxMatches,
		Workers:     cfg.Check.Workers,
		Dimension:   cfg.Vector.Dimension,
		Suggestions: cfg.Check.Suggestions,
	})
	rep := gen.GenerateReport(ctx, string(text), sources)

	if snapshotPath != "" {
		if err := writeSnapshot(ctx, o, cfg.Vector.Dimension, sources, snapshotPath); err != nil {
			return err
		}
	}

	if jsonOutput {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(render.Report(rep))
	return nil
}

// writeSnapshot embeds the sources into a fresh store and persists the
// exported corpus as JSON.
func writeSnapshot(ctx context.Context, o oracle.Oracle, dim int, sources []string, path string) error {
	store := vectorstore.New(o, dim)
	defer store.Clear()
	for i, src := range sources {
		store.Add(ctx, src, map[string]string{"source_index": fmt.Sprintf("%d", i)})
	}
	data, err := json.MarshalIndent(store.Export(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	slog.Info("snapshot written", "path", path, "sources", len(sources))
	return nil
}

func runQuick(ctx context.Context, configPath, inputPath string, sourcePaths []string) error {
	cfg, o, shutdown, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer shutdown()

	text, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	sources, err := readSources(sourcePaths)
	if err != nil {
		return err
	}

	gen := report.NewGenerator(o, report.Options{
		Threshold: cfg.Check.Threshold,
		ChunkSize: cfg.Check.ChunkSize,
		Workers:   cfg.Check.Workers,
	})
	res := gen.QuickCheck(ctx, string(text), sources)
	if res.IsPlagiarized {
		fmt.Printf("疑似抄袭（相似度 %.1f%%）\n", res.Score*100)
	} else {
		fmt.Printf("未发现明显抄袭（相似度 %.1f%%）\n", res.Score*100)
	}
	return nil
}

func runIndex(ctx context.Context, configPath string, sourcePaths []string) error {
	cfg, o, shutdown, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer shutdown()

	sources, err := readSources(sourcePaths)
	if err != nil {
		return err
	}

	idx, err := qdrant.New(cfg.Vector.Host, cfg.Vector.Port, cfg.Vector.Collection)
	if err != nil {
		return err
	}
	defer idx.Close()

	store := vectorstore.New(o, cfg.Vector.Dimension)
	defer store.Clear()
	for i, src := range sources {
		store.Add(ctx, src, map[string]string{"source_index": fmt.Sprintf("%d", i)})
	}
	snap := store.Export()
	if err := idx.Upsert(ctx, snap.Entries); err != nil {
		return fmt.Errorf("indexing sources: %w", err)
	}
	fmt.Printf("Indexed %d sources into %q\n", len(snap.Entries), cfg.Vector.Collection)
	return nil
}

func runSearch(ctx context.Context, configPath, query string, topK int) error {
	cfg, o, shutdown, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer shutdown()

	idx, err := qdrant.New(cfg.Vector.Host, cfg.Vector.Port, cfg.Vector.Collection)
	if err != nil {
		return err
	}
	defer idx.Close()

	vec := vectorstore.Embed(ctx, o, query, cfg.Vector.Dimension)
	results, err := idx.Search(ctx, vec, topK)
	if err != nil {
		return fmt.Errorf("searching corpus: %w", err)
	}
	for i, r := range results {
		fmt.Printf("%2d. %.4f  %s\n", i+1, r.Similarity, firstLine(r.Text))
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
	}
	return nil
}

// readSources reads each path; directories contribute every regular file.
func readSources(paths []string) ([]string, error) {
	var sources []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading source %s: %w", p, err)
		}
		if !info.IsDir() {
			data, err := os.ReadFile(p)
			if err != nil {
				return nil, fmt.Errorf("reading source %s: %w", p, err)
			}
			sources = append(sources, string(data))
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading source dir %s: %w", p, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			data, err := os.ReadFile(filepath.Join(p, e.Name()))
			if err != nil {
				return nil, fmt.Errorf("reading source %s: %w", e.Name(), err)
			}
			sources = append(sources, string(data))
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources found in %v", paths)
	}
	return sources, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	runes := []rune(s)
	if len(runes) > 80 {
		return string(runes[:80]) + "…"
	}
	return s
}
