package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dinoplay/config"
	"dinoplay/handlers"
	"dinoplay/logging"
	"dinoplay/player"
	"dinoplay/services"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var configFile string
	v := viper.New()

	root := &cobra.Command{
		Use:           "dinoplay",
		Short:         "Video browsing backend with a persistent player session",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.BindFlags(v, cmd.Root().PersistentFlags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), v, configFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "path to a YAML config file")
	flags.String("port", "8080", "HTTP listen port")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("api-key", "", "require this Bearer token on API requests")
	flags.String("pexels-key", "", "Pexels API key; the fallback dataset is used when empty")
	flags.String("pexels-url", "https://api.pexels.com/videos", "Pexels API base URL")
	flags.Int("related", 5, "number of related videos shown under the player")
	flags.Bool("fullscreen", true, "allow fullscreen requests")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), v, configFile)
		},
	}
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
	root.AddCommand(serve, versionCmd)

	return root
}

func runServe(ctx context.Context, v *viper.Viper, configFile string) error {
	// Load configuration
	cfg, err := config.LoadConfig(v, configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Configure(logging.Config{Level: cfg.LogLevel, Service: "dinoplay"})
	log := logging.WithComponent("main")

	// Initialize services
	catalog, err := services.NewCatalogService(cfg.Pexels)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create catalog service")
		return err
	}
	library := services.NewLibraryService(catalog)

	p := player.New(player.Options{
		Lookup:           catalog,
		RelatedLimit:     cfg.Player.RelatedLimit,
		DragThreshold:    cfg.Player.DragThreshold,
		CountdownSeconds: cfg.Player.CountdownSeconds,
		SkipSeconds:      cfg.Player.SkipSeconds,
		AllowFullscreen:  cfg.Player.AllowFullscreen,
	})
	library.OnChange(p.SetCatalog)

	// Initialize handlers
	events := handlers.NewEventsHandler(p)
	r := handlers.NewRouter(handlers.Handlers{
		Player:  handlers.NewPlayerHandler(p),
		Catalog: handlers.NewCatalogHandler(library),
		Events:  events,
		Version: version,
		APIKey:  cfg.APIKey,
	})

	// Set up CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{handlers.RequestIDHeader},
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := library.LoadInitial(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to load initial listing")
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("version", version).
			Bool("pexels", cfg.Pexels.APIKey != "").
			Bool("auth", cfg.APIKey != "").
			Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("Server failed")
			events.Close()
			p.Close()
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Server shutdown incomplete")
	}
	events.Close()
	p.Close()
	log.Info().Msg("Server stopped")
	return nil
}
