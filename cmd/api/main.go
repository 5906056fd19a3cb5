package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"ctaboard.trainboard.dev/internal/app"
	"ctaboard.trainboard.dev/internal/appconf"
	"ctaboard.trainboard.dev/internal/arrivals"
	"ctaboard.trainboard.dev/internal/cache"
	"ctaboard.trainboard.dev/internal/cta"
	"ctaboard.trainboard.dev/internal/logging"
	"ctaboard.trainboard.dev/internal/restapi"
)

func main() {
	if err := appconf.LoadDotEnv(".env", ".env.local"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := loadConfig(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.NewStructuredLogger(os.Stdout, logging.LevelForEnvironment(cfg.Env.String()))

	application := buildApplication(cfg, logger)
	api := restapi.NewRestAPI(application)
	defer api.Shutdown()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 5*time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	logger.Info("starting server",
		"addr", srv.Addr,
		"env", cfg.Env.String(),
		"cache_ttl", cfg.CacheTTL,
		"batch_size", cfg.BatchSize,
		"holiday_run", cfg.HolidayRun)
	err = srv.ListenAndServe()
	logger.Error(err.Error())
	os.Exit(1)
}

// loadConfig layers defaults, flags, the optional YAML file and the
// environment, in that order, and validates the result.
func loadConfig(args []string, getenv func(string) string) (appconf.Config, error) {
	cfg := appconf.Default()

	var env, configPath, defaultIDs, trustedProxies string
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "API server port")
	fs.StringVar(&env, "env", "development", "Environment (development|test|production)")
	fs.StringVar(&configPath, "config", "", "Optional YAML config file")
	fs.StringVar(&cfg.CTABaseURL, "cta-base-url", cfg.CTABaseURL, "Train Tracker API base URL")
	fs.DurationVar(&cfg.UpstreamTimeout, "upstream-timeout", cfg.UpstreamTimeout, "Timeout for each upstream call")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "How long fetched arrivals are served from cache")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Identifiers per upstream request")
	fs.IntVar(&cfg.HolidayRun, "holiday-run", cfg.HolidayRun, "Run number probed for the holiday train (0 disables)")
	fs.IntVar(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "Requests per second per client (0 disables)")
	fs.StringVar(&trustedProxies, "trusted-proxies", "", "Comma separated proxy addresses or CIDRs whose X-Forwarded-For is trusted")
	fs.StringVar(&cfg.DefaultKind, "default-kind", "", "Identifier kind served when a request names none (stpid|mapid)")
	fs.StringVar(&defaultIDs, "default-ids", "", "Comma separated identifiers served when a request names none")
	if err := fs.Parse(args); err != nil {
		return appconf.Config{}, err
	}

	cfg.Env = appconf.EnvFlagToEnvironment(env)
	cfg.DefaultIDs = splitFlagList(defaultIDs)
	cfg.TrustedProxies = splitFlagList(trustedProxies)

	if configPath != "" {
		if err := appconf.LoadFile(configPath, &cfg); err != nil {
			return appconf.Config{}, err
		}
	}
	if err := appconf.ApplyEnv(&cfg, getenv); err != nil {
		return appconf.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return appconf.Config{}, err
	}
	return cfg, nil
}

func buildApplication(cfg appconf.Config, logger *slog.Logger) *app.Application {
	client := cta.NewClient(cta.Config{
		BaseURL: cfg.CTABaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.UpstreamTimeout,
		Logger:  logger,
	})
	store := cache.NewStore(cfg.CacheTTL, nil)
	service := arrivals.NewService(client, store, arrivals.Config{
		BatchSize:  cfg.BatchSize,
		HolidayRun: cfg.HolidayRun,
	}, logger)

	return &app.Application{
		Config:   cfg,
		Logger:   logger,
		Arrivals: service,
	}
}

func splitFlagList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
