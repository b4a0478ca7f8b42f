package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"academic-advisor-go/advisor"
	"academic-advisor-go/config"
	"academic-advisor-go/db"
	"academic-advisor-go/handlers"
	"academic-advisor-go/llm"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "advisor",
	Short: "Academic advising query engine",
	Long: `Answers student questions about marks, attendance, predicted final
scores and study plans from per-student academic records.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadFromPath(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return config.SetupLogging(cfg.Logging, os.Stderr)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (defaults plus ADVISOR_* env when empty)")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// openStore connects the configured record store.
func openStore(ctx context.Context, c *config.Config) (db.Store, error) {
	switch c.Store.Driver {
	case config.DriverRedis:
		client, err := db.InitializeRedisClient(ctx, c.RedisOptions())
		if err != nil {
			return nil, err
		}
		return db.NewRedisStore(client), nil
	case config.DriverSQLite:
		return db.OpenSQLiteStore(c.SQLite.Path, c.SQLite.ReadRetries)
	case config.DriverMemory:
		return db.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
}

// seedIfEmpty loads the demo data when the catalog is empty.
func seedIfEmpty(ctx context.Context, store db.Store) {
	courses, err := store.GetCatalog(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not check for existing courses, skipping demo data")
		return
	}
	if len(courses) > 0 {
		log.Info().Int("courses", len(courses)).Msg("existing courses found, skipping demo data")
		return
	}
	if err := db.SeedDemoData(ctx, store); err != nil {
		log.Error().Err(err).Msg("failed to seed demo data")
	}
}

// newAdvisor builds the query engine. The returned func releases the
// completion client when one is configured.
func newAdvisor(ctx context.Context, store db.Repository, c *config.Config) (*advisor.Advisor, func(), error) {
	opts := []advisor.Option{advisor.WithScale(c.Scale())}
	cleanup := func() {}
	if c.LLM.Enabled {
		gemini, err := llm.NewGemini(ctx, c.CompleterConfig())
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, advisor.WithCompleter(gemini))
		cleanup = func() {
			if err := gemini.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close Gemini client")
			}
		}
	}
	return advisor.New(store, opts...), cleanup, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Store.SeedDemo {
		seedIfEmpty(ctx, store)
	}

	adv, closeAdvisor, err := newAdvisor(ctx, store, cfg)
	if err != nil {
		return err
	}
	defer closeAdvisor()

	apiHandler := handlers.NewAPIHandler(store, store, adv, cfg.Scale())

	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Debug {
		router.Use(gin.Logger())
	}
	handlers.RegisterRoutes(router, apiHandler)

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("store", cfg.Store.Driver).Msg("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
