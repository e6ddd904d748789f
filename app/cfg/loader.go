package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Inputs
	SiteFile        string `long:"site" env:"SITE_FILE" default:"./site.yml" description:"Route registry YAML file"`
	ArticlesFile    string `long:"articles" env:"ARTICLES_FILE" description:"Static article collection (YAML or JSON, optional)"`
	ArticlesFeedURL string `long:"articles-feed-url" env:"ARTICLES_FEED_URL" description:"Remote CMS feed with articles (optional)"`

	// Build
	OutputDir       string `long:"output-dir" env:"OUTPUT_DIR" default:"./dist" description:"Directory the compiled application and emitted pages live in"`
	AssetsSubdir    string `long:"assets-subdir" env:"ASSETS_SUBDIR" default:"assets" description:"Subdirectory of the output dir holding compiled bundles"`
	AppBuildCommand string `long:"app-build-command" env:"APP_BUILD_COMMAND" description:"Shell command that builds the client application (optional)"`
	AppDir          string `long:"app-dir" env:"APP_DIR" default:"." description:"Working directory for the application build command"`
	WorkerCount     int    `long:"worker-count" env:"WORKER_COUNT" default:"0" description:"Number of routes emitted in parallel (0 = twice the CPU count)"`
	LedgerPath      string `long:"ledger" env:"LEDGER_PATH" description:"SQLite build ledger file (optional)"`

	// Preview server
	Port string `long:"port" env:"PORT" default:"8080" description:"Preview server port"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"routesnap/1.0" description:"User agent string for remote fetches"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses the global options from args without any sub-commands.
func Load(args []string) (*Cfg, error) {
	loadDotenv()

	var raw rawCfg
	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	return publish(&raw)
}

// NewParser returns a parser for the global options. Sub-commands are added
// by the caller; the configuration is validated and published before the
// selected command's Execute runs, so commands can rely on Get.
func NewParser() *flags.Parser {
	loadDotenv()

	raw := &rawCfg{}
	parser := flags.NewParser(raw, flags.Default)
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		if _, err := publish(raw); err != nil {
			return err
		}
		if command == nil {
			return nil
		}
		return command.Execute(args)
	}
	return parser
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func publish(raw *rawCfg) (*Cfg, error) {
	if raw.WorkerCount < 0 {
		return nil, fmt.Errorf("worker count must not be negative, got %d", raw.WorkerCount)
	}
	if raw.SiteFile == "" {
		return nil, fmt.Errorf("site file is required")
	}
	if raw.OutputDir == "" {
		return nil, fmt.Errorf("output dir is required")
	}

	cfg := &Cfg{
		SiteFile:        raw.SiteFile,
		ArticlesFile:    raw.ArticlesFile,
		ArticlesFeedURL: raw.ArticlesFeedURL,
		OutputDir:       raw.OutputDir,
		AssetsSubdir:    raw.AssetsSubdir,
		AppBuildCommand: raw.AppBuildCommand,
		AppDir:          raw.AppDir,
		WorkerCount:     raw.WorkerCount,
		LedgerPath:      raw.LedgerPath,
		Port:            raw.Port,
		UserAgent:       raw.UserAgent,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	globalCfg = cfg

	return cfg, nil
}

// loadDotenv fills the environment from ./.env without overriding variables
// that are already set.
func loadDotenv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			slog.Debug("Timezone configured", "timezone", timezone)
		}
	}
	return nil
}
