package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"podium-server-go/config"
	"podium-server-go/db"
	"podium-server-go/export"
	"podium-server-go/handlers"
	"podium-server-go/parser"
	"podium-server-go/scheduler"
)

var (
	configPath string
	verbose    bool
	port       int

	exportDay      string
	finalBlockTime string
	podiumTime     string
	resultsSheet   string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "podium",
	Short: "Medal ceremony backend: results, final block, VIPs and live screens",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		zcfg := zap.NewProductionConfig()
		if lvl, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
			zcfg.Level = lvl
		}
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var parseResultsCmd = &cobra.Command{
	Use:   "parse-results <file>",
	Short: "Parse a results export (.txt, .csv or .xlsx) and print the categories as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runParseResults(args[0])
	},
}

var exportCmd = &cobra.Command{
	Use:   "export-xlsx <out>",
	Short: "Write the final block overview workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: "+config.DefaultFile+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides config)")

	parseResultsCmd.Flags().StringVar(&resultsSheet, "sheet", "", "Sheet to read from an xlsx file (default: first)")

	exportCmd.Flags().StringVar(&exportDay, "day", "", "Day to export (ALL or 1..N; empty exports everything)")
	exportCmd.Flags().StringVar(&finalBlockTime, "final-block-time", "", "Final block start time printed in the header")
	exportCmd.Flags().StringVar(&podiumTime, "podium-time", "", "Podium start time printed in the header")

	rootCmd.AddCommand(serveCmd, parseResultsCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore builds the document store over the configured backend. The
// returned func releases the backend.
func openStore(ctx context.Context) (*db.DocumentStore, func(), error) {
	switch cfg.Backend {
	case config.BackendRedis:
		client, err := db.InitializeRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr), zap.Int("db", cfg.Redis.DB))
		store := db.NewDocumentStore(db.NewRedisService(client, logger), logger)
		return store, func() { _ = client.Close() }, nil
	default:
		backend, err := db.NewFileBackend(cfg.DataDir, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using file storage", zap.String("dir", cfg.DataDir))
		return db.NewDocumentStore(backend, logger), func() {}, nil
	}
}

func runServe(ctx context.Context) error {
	store, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	store.EnsureSettings()
	if cfg.Seed {
		store.CheckAndSeed()
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	apiHandler := handlers.NewAPIHandler(store, cfg.PhotosDir, logger)
	apiHandler.RegisterRoutes(router.Group("/api"))

	if port > 0 {
		cfg.Port = port
	}
	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("starting server", zap.String("addr", addr), zap.String("backend", cfg.Backend))
	return router.Run(addr)
}

// requestLogger logs one line per request through zap.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func runParseResults(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var out any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
		var rows [][]string
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			rows, err = parser.ReadCSV(f)
		} else {
			rows, err = parser.ReadXLSX(f, resultsSheet)
		}
		if err != nil {
			return err
		}
		cats, err := parser.ParseResultsRows(rows)
		if err != nil {
			return err
		}
		out = map[string]any{"categories": cats}
	default:
		data, err := io.ReadAll(f)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		cats, stats := parser.ParseResultsText(string(data))
		logger.Info("results parsed",
			zap.Int("categories", stats.CategoriesParsed),
			zap.Int("medalists", stats.Imported),
			zap.Int("skipped", stats.Skipped))
		out = map[string]any{"categories": cats, "stats": stats}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}

func runExport(ctx context.Context, out string) error {
	store, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	sched := scheduler.New(store, logger)
	fb := sched.Load()
	fb.Finals = scheduler.FilterByDay(fb.Finals, exportDay, store.FinalsDays())

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	header := export.Header{
		CompetitionName: store.Settings().CompetitionName,
		Day:             exportDay,
		FinalBlockTime:  finalBlockTime,
		PodiumTime:      podiumTime,
		GeneratedAt:     time.Now(),
	}
	if err := export.Write(f, fb, sched.Titles(), header); err != nil {
		f.Close()
		_ = os.Remove(out)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", out, err)
	}
	logger.Info("final block exported", zap.String("file", out), zap.String("day", exportDay))
	return nil
}
