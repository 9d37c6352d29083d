package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/baseer-ai/baseer/internal/api"
	"github.com/baseer-ai/baseer/internal/cloudapi"
	"github.com/baseer-ai/baseer/internal/dialogue"
	"github.com/baseer-ai/baseer/internal/flow"
	"github.com/baseer-ai/baseer/internal/genai"
	"github.com/baseer-ai/baseer/internal/lockfile"
	"github.com/baseer-ai/baseer/internal/messaging"
	"github.com/baseer-ai/baseer/internal/scheduler"
	"github.com/baseer-ai/baseer/internal/store"
	"github.com/baseer-ai/baseer/internal/twiliowhatsapp"
	"github.com/baseer-ai/baseer/internal/util"
	"github.com/baseer-ai/baseer/internal/whatsapp"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Baseer state data
	DefaultStateDir = "/var/lib/baseer"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "baseer.db"
	// DefaultWhatsAppDBFileName is the default whatsmeow session database filename
	DefaultWhatsAppDBFileName = "whatsmeow.db"
	// DefaultBackend is the messaging backend used when none is configured
	DefaultBackend = "cloudapi"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping Baseer with configured modules")
	slog.Debug("Final configuration",
		"state_dir", *flags.stateDir,
		"dsn_set", *flags.dbDSN != "",
		"backend", *flags.backend,
		"api_addr", *flags.apiAddr,
		"seed_csv", *flags.seedCSV)

	if err := run(ctx, flags); err != nil {
		slog.Error("Baseer failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Baseer exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseDSN   string
	WhatsAppDSN   string
	StateDir      string
	OpenAIKey     string
	OpenAIModel   string
	APIAddr       string
	Backend       string
	CountryPrefix string
	SeedCSV       string
	RefreshCron   string
	NumericCode   bool
}

// Flags holds command line flag values
type Flags struct {
	qrOutput      *string
	numeric       *bool
	stateDir      *string
	dbDSN         *string
	whatsappDSN   *string
	openaiKey     *string
	openaiModel   *string
	apiAddr       *string
	backend       *string
	countryPrefix *string
	seedCSV       *string
	refreshCron   *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		WhatsAppDSN:   os.Getenv("WHATSAPP_DB_DSN"),
		StateDir:      os.Getenv("BASEER_STATE_DIR"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   os.Getenv("OPENAI_MODEL"),
		APIAddr:       os.Getenv("API_ADDR"),
		Backend:       os.Getenv("MESSAGING_BACKEND"),
		CountryPrefix: os.Getenv("COUNTRY_PREFIX"),
		SeedCSV:       os.Getenv("SEED_CSV"),
		RefreshCron:   os.Getenv("CONTACT_REFRESH_CRON"),
		NumericCode:   util.ParseBoolEnv("WHATSAPP_NUMERIC_CODE", false),
	}

	// Legacy deployments configure the application database as DATABASE_URL
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = os.Getenv("DATABASE_URL")
		if config.DatabaseDSN != "" {
			slog.Debug("Using DATABASE_URL as DATABASE_DSN", "dsn_set", true)
		}
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No BASEER_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database DSN is provided, default to SQLite in the state directory
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseDSN)
	}
	if config.WhatsAppDSN == "" {
		config.WhatsAppDSN = filepath.Join(config.StateDir, DefaultWhatsAppDBFileName)
	}

	if config.Backend == "" {
		config.Backend = DefaultBackend
	}
	if config.RefreshCron == "" {
		config.RefreshCron = flow.DefaultContactRefreshCron
	}

	slog.Debug("environment variables loaded",
		"DATABASE_DSN_SET", config.DatabaseDSN != "",
		"WHATSAPP_DB_DSN_SET", config.WhatsAppDSN != "",
		"BASEER_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"OPENAI_MODEL", config.OpenAIModel,
		"API_ADDR", config.APIAddr,
		"MESSAGING_BACKEND", config.Backend,
		"COUNTRY_PREFIX", config.CountryPrefix,
		"SEED_CSV", config.SeedCSV,
		"CONTACT_REFRESH_CRON", config.RefreshCron,
		"WHATSAPP_NUMERIC_CODE", config.NumericCode)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		qrOutput:      flag.String("qr-output", "", "path to write WhatsApp login QR code"),
		numeric:       flag.Bool("numeric-code", config.NumericCode, "use numeric WhatsApp login code instead of QR code (overrides $WHATSAPP_NUMERIC_CODE)"),
		stateDir:      flag.String("state-dir", config.StateDir, "state directory for Baseer data (overrides $BASEER_STATE_DIR)"),
		dbDSN:         flag.String("db-dsn", config.DatabaseDSN, "application database DSN (overrides $DATABASE_DSN or $DATABASE_URL)"),
		whatsappDSN:   flag.String("whatsapp-db-dsn", config.WhatsAppDSN, "whatsmeow session database DSN (overrides $WHATSAPP_DB_DSN)"),
		openaiKey:     flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		openaiModel:   flag.String("openai-model", config.OpenAIModel, "chat completion model (overrides $OPENAI_MODEL)"),
		apiAddr:       flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		backend:       flag.String("backend", config.Backend, "messaging backend: cloudapi, twilio, whatsmeow or mock (overrides $MESSAGING_BACKEND)"),
		countryPrefix: flag.String("country-prefix", config.CountryPrefix, "country prefix prepended to local phone numbers (overrides $COUNTRY_PREFIX)"),
		seedCSV:       flag.String("seed-csv", config.SeedCSV, "path to the seed dialogue CSV (overrides $SEED_CSV)"),
		refreshCron:   flag.String("refresh-cron", config.RefreshCron, "cron schedule for contact directory reloads (overrides $CONTACT_REFRESH_CRON)"),
	}

	flag.Parse()

	// Re-anchor default DSNs when only the state directory changed
	if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated db-dsn based on state directory", "new_state_dir", *flags.stateDir)
	}
	if *flags.whatsappDSN == filepath.Join(config.StateDir, DefaultWhatsAppDBFileName) && *flags.stateDir != config.StateDir {
		*flags.whatsappDSN = filepath.Join(*flags.stateDir, DefaultWhatsAppDBFileName)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if store.DetectDSNType(*flags.dbDSN) == "sqlite" {
		stateDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// buildStore opens the application store matching the configured DSN.
func buildStore(flags Flags) (store.Store, error) {
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_set", true)
		return store.NewPostgresStore(store.WithDSN(*flags.dbDSN))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", *flags.dbDSN)
	return store.NewSQLiteStore(store.WithDSN(*flags.dbDSN))
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.openaiModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.openaiModel))
	}
	return genaiOpts
}

// buildSender constructs the messaging backend selected by configuration.
// The whatsmeow backend returns a cleanup func that tears the session down.
func buildSender(flags Flags) (messaging.Sender, func(), error) {
	prefix := *flags.countryPrefix
	switch *flags.backend {
	case "twilio":
		client, err := twiliowhatsapp.NewClient()
		if err != nil {
			return nil, nil, err
		}
		return messaging.NewTwilioService(client, prefix), func() {}, nil

	case "whatsmeow":
		var waOpts []whatsapp.Option
		if *flags.whatsappDSN != "" {
			waOpts = append(waOpts, whatsapp.WithDBDSN(*flags.whatsappDSN))
		}
		if *flags.qrOutput != "" {
			waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
		}
		if *flags.numeric {
			waOpts = append(waOpts, whatsapp.WithNumericCode())
		}
		client, err := whatsapp.NewClient(waOpts...)
		if err != nil {
			return nil, nil, err
		}
		return messaging.NewWhatsAppService(client, prefix), client.Disconnect, nil

	case "mock":
		slog.Warn("buildSender: mock messaging backend selected, notifications will not be delivered")
		return messaging.NewMockSender(), func() {}, nil

	default:
		client, err := cloudapi.NewClient()
		if err != nil {
			return nil, nil, err
		}
		return messaging.NewCloudService(client, prefix), func() {}, nil
	}
}

// loadSeedDialogue loads the configured seed CSV, or returns an empty seed
// when none is configured.
func loadSeedDialogue(flags Flags) (*dialogue.Seed, error) {
	if *flags.seedCSV == "" {
		slog.Warn("loadSeedDialogue: no seed dialogue configured, model runs without a steering prefix")
		return dialogue.EmptySeed(), nil
	}
	return dialogue.LoadSeed(*flags.seedCSV)
}

// run wires the modules together and serves until ctx is cancelled.
func run(ctx context.Context, flags Flags) error {
	// The SQLite database and whatsmeow session tolerate one writer, so an
	// exclusive lock guards the state directory.
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	st, err := buildStore(flags)
	if err != nil {
		return err
	}
	defer st.Close()

	model, err := genai.NewClient(buildGenAIOptions(flags)...)
	if err != nil {
		return err
	}

	sender, senderCleanup, err := buildSender(flags)
	if err != nil {
		return err
	}
	defer senderCleanup()

	seed, err := loadSeedDialogue(flags)
	if err != nil {
		return err
	}

	contacts := flow.NewContactCache(st)
	if err := contacts.Refresh(ctx); err != nil {
		// The cache falls back to direct store reads until a refresh lands.
		slog.Warn("run: initial contact directory load failed", "error", err)
	}

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := sched.AddJob(*flags.refreshCron, func() {
		if err := contacts.Refresh(context.Background()); err != nil {
			slog.Error("run: scheduled contact directory refresh failed", "error", err)
		}
	}); err != nil {
		return err
	}

	orchestrator := flow.NewOrchestrator(model, st, sender, seed, contacts)

	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	server := api.NewServer(orchestrator, st, apiOpts...)
	return server.Run(ctx)
}
