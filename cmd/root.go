package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"bookhunt/cmd/search"
	"bookhunt/cmd/serve"
	"bookhunt/cmd/sources"
	"bookhunt/internal/config"
)

var (
	runSearch = search.Run
	runServe  = func(ctx context.Context, addr string) error {
		server, err := serve.NewFromConfig()
		if err != nil {
			return err
		}
		return server.Run(ctx, addr)
	}
)

// CLI represents the complete command structure for the bookhunt application
type CLI struct {
	// Global flags
	Overwrite      bool `help:"Overwrite existing report files"`
	DownloadCovers bool `help:"Download the cover image of the selected book"`

	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file" default:"./cache.db"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 720h for 30 days)" default:"720h"`

	Search  SearchCmd  `cmd:"" help:"Search the configured sources for a book"`
	Sources SourcesCmd `cmd:"" help:"List the configured sources and their capabilities"`
	Serve   ServeCmd   `cmd:"" help:"Serve the search API over HTTP"`
}

// SearchCmd represents the search command
type SearchCmd struct {
	Query         string `arg:"" help:"ISBN or title to search for"`
	Source        string `help:"Restrict the search to one configured source"`
	NoInteractive bool   `help:"Auto-select the first candidate instead of asking" default:"false"`
	Save          bool   `help:"Save the report as a markdown file"`
	JSON          bool   `help:"Also write the report as JSON"`
	YAML          bool   `help:"Also write the report as YAML"`
}

// SourcesCmd represents the sources command
type SourcesCmd struct{}

// ServeCmd represents the serve command
type ServeCmd struct {
	Addr string `help:"Address to listen on" default:":8080"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging()
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("bookhunt"),
		kong.Description("Search bookstores, libraries and local shelves for one book at a time."),
		kong.UsageOnError(),
	)

	updateGlobalConfig(&cli)

	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	// API keys live in the environment; a .env file is optional.
	_ = godotenv.Load()

	viper.SetDefault("OutputDir", "./reports/")
	viper.SetDefault("OverwriteFiles", false)

	// Cache defaults
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h") // 30 days

	// Search defaults
	viper.SetDefault("search.source_timeout", "30s")
	viper.SetDefault("search.max_results", 20)
	viper.SetDefault("search.max_candidates", 10)

	// Enable environment variable support. API keys are referenced from
	// descriptor settings as ${ALADIN_TTB_KEY} etc. and expanded at load
	// time, so no per-key bindings are needed here.
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("Config file not found, writing default config file...")
			if err := viper.SafeWriteConfig(); err != nil {
				slog.Error("Error writing config file", "error", err)
			}
			os.Exit(0)
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	// Initialize global config
	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	config.SetOverwriteFiles(cli.Overwrite)
	if cli.DownloadCovers {
		config.SetDownloadCovers(true)
	}

	// Update cache config
	viper.Set("cache.dbfile", cli.CacheDBFile)
	viper.Set("cache.ttl", cli.CacheTTL)
}

// Run methods for each command

func (s *SearchCmd) Run() error {
	return runSearch(context.Background(), search.Options{
		Query:         s.Query,
		Source:        s.Source,
		NoInteractive: s.NoInteractive,
		Save:          s.Save,
		JSON:          s.JSON,
		YAML:          s.YAML,
	})
}

func (s *SourcesCmd) Run() error {
	return sources.Run(os.Stdout)
}

func (s *ServeCmd) Run() error {
	// Ctrl-C / SIGTERM cancel the context so in-flight requests drain
	// through the server's graceful shutdown instead of being killed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runServe(ctx, s.Addr)
}

func initLogging() {
	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: slog.LevelInfo,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
