package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/hakwonlab/mathbank/internal/classify"
	"github.com/hakwonlab/mathbank/internal/handler"
	appI18n "github.com/hakwonlab/mathbank/internal/i18n"
	"github.com/hakwonlab/mathbank/internal/importer"
	"github.com/hakwonlab/mathbank/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mathbank",
		Short: "Math problem-bank taxonomy, classification and exam assembly server",
	}

	serve := serveCmd()
	root.AddCommand(serve, importCmd(), classifyCmd(), statsCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `mathbank --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "mathbank.db", "SQLite database path")
	f.StringSlice("types", nil, "Taxonomy files to import on startup (.json or .xlsx, repeatable)")
	f.StringSlice("problems", nil, "Problem seed files to import on startup (repeatable)")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for the classification model")
	f.String("llm-model", "llama3.2", "Classification model name")
	f.StringP("lang", "l", "ko", "API message language (ko, en)")
	f.String("admin-token", "", "Admin API token (or set MATHBANK_ADMIN_TOKEN)")
	f.Int("exam-points", 0, "Per-problem points on assembled exams (0 = default)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import taxonomy and problem files",
		RunE:  runImport,
	}
	f := cmd.Flags()
	f.String("db", "mathbank.db", "SQLite database path")
	f.StringSlice("types", nil, "Taxonomy files (.json or .xlsx, repeatable)")
	f.StringSlice("problems", nil, "Problem seed files (repeatable)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify all unclassified problems in the bank",
		RunE:  runClassify,
	}
	f := cmd.Flags()
	f.String("db", "mathbank.db", "SQLite database path")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for the classification model")
	f.String("llm-model", "llama3.2", "Classification model name")
	f.String("mode", "light", "Classification mode (light, full)")
	f.String("level", "", "Restrict candidate types to one level code")
	f.Int("limit", 0, "Maximum problems to classify (0 = all)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print taxonomy statistics as JSON",
		RunE:  runStats,
	}
	f := cmd.Flags()
	f.String("db", "mathbank.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("MATHBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("mathbank")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/mathbank")
	v.AddConfigPath("/etc/mathbank")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := importFiles(db, v.GetStringSlice("types"), v.GetStringSlice("problems")); err != nil {
		return err
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	llmClient := classify.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
	)
	if err := llmClient.Ping(context.Background()); err != nil {
		return fmt.Errorf("model health check: %w", err)
	}
	slog.Info("model endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))

	cfg := handler.Config{ExamPoints: v.GetInt("exam-points")}
	if token := v.GetString("admin-token"); token != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin token: %w", err)
		}
		cfg.AdminTokenHash = string(hash)
	} else {
		slog.Warn("no admin token configured, admin routes are disabled")
	}

	h, err := handler.New(db, llmClient, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
	)
	return http.ListenAndServe(addr, r)
}

func runImport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	return importFiles(db, v.GetStringSlice("types"), v.GetStringSlice("problems"))
}

func importFiles(db *store.Store, typeFiles, problemFiles []string) error {
	for _, path := range typeFiles {
		n, err := importer.ImportTypes(db, path)
		if err != nil {
			return fmt.Errorf("import types: %w", err)
		}
		slog.Info("imported taxonomy file", "path", path, "count", n)
	}
	for _, path := range problemFiles {
		n, err := importer.ImportProblems(db, path)
		if err != nil {
			return fmt.Errorf("import problems: %w", err)
		}
		slog.Info("imported problem file", "path", path, "count", n)
	}
	return nil
}

func runClassify(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	mode := strings.ToLower(strings.TrimSpace(v.GetString("mode")))
	if !classify.ValidMode(mode) {
		return fmt.Errorf("invalid mode %q: must be light or full", mode)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	llmClient := classify.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
	)
	ctx := context.Background()
	if err := llmClient.Ping(ctx); err != nil {
		return fmt.Errorf("model health check: %w", err)
	}

	snapshot, err := db.ActiveTypes()
	if err != nil {
		return fmt.Errorf("load taxonomy snapshot: %w", err)
	}
	problems, err := db.UnclassifiedProblems()
	if err != nil {
		return fmt.Errorf("load unclassified problems: %w", err)
	}
	if limit := v.GetInt("limit"); limit > 0 && limit < len(problems) {
		problems = problems[:limit]
	}
	slog.Info("classifying problems", "count", len(problems), "mode", mode)

	opts := classify.PromptOptions{
		Mode:      classify.Mode(mode),
		LevelCode: v.GetString("level"),
	}
	var failed int
	for _, p := range problems {
		cls, _, err := llmClient.Classify(ctx, p, snapshot, opts)
		if err != nil {
			slog.Error("classification failed", "problem_id", p.ID, "error", err)
			failed++
			continue
		}
		if _, err := db.SaveClassification(cls); err != nil {
			return fmt.Errorf("save classification for problem %d: %w", p.ID, err)
		}
		slog.Info("classified",
			"problem_id", p.ID,
			"type_code", cls.TypeCode,
			"difficulty", cls.Difficulty,
			"warnings", len(cls.Warnings))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d problems failed to classify", failed, len(problems))
	}
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	stats, err := db.Stats()
	if err != nil {
		return fmt.Errorf("collect stats: %w", err)
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}
