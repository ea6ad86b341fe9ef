// Package main wires the data-lake ETL job end-to-end. This file keeps the
// CLI layer thin: it loads and validates the job config, optionally
// initializes a metrics backend, establishes the processing session, and
// executes the run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"sparkify/internal/config"
	"sparkify/internal/job"
	"sparkify/internal/metrics"
	"sparkify/internal/metrics/prompush"
	"sparkify/internal/session"
)

// main is the entry point for the ETL binary. Running it with no flags
// reproduces the canonical invocation: read the public song/log trees from
// S3 using dl.cfg credentials and write the five tables under analytics/.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "", "job config JSON path (empty = built-in defaults)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "http://localhost:9091", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	// Validate job config.
	issues := config.ValidateJob(cfg)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Error().Str("config", cfgPath).Msg("configuration is invalid")
		os.Exit(1)
	}

	// If validate flag is set, only validate the configuration and exit.
	if validate {
		log.Info().Str("config", cfgPath).Msg("configuration is valid")
		os.Exit(0)
	}

	// Decide metrics backend: flag → env → disabled.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		gwURL := pushGatewayURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		b, err := prompush.NewBackend(cfg.Name, gwURL)
		if err != nil {
			log.Warn().Err(err).Msg("metrics: failed to init prom push backend; using nop")
		} else {
			log.Info().Str("url", gwURL).Str("backend", backendName).Str("job", cfg.Name).Msg("metrics enabled")
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Warn().Err(err).Msg("metrics: flush error")
				}
			}()
		}

	case "", "none":
		// metrics disabled; nop backend remains
		log.Debug().Str("backend", backendName).Msg("metrics disabled")

	default:
		log.Warn().Str("backend", backendName).Msg("metrics: unknown backend; metrics disabled")
	}

	sess, err := session.New(cfg)
	if err != nil {
		log.Error().Err(err).Msg("session init failed")
		os.Exit(1)
	}

	log.Debug().
		Str("source", cfg.Source.Kind).
		Str("sink", cfg.Sink.Kind).
		Str("write_mode", cfg.Sink.WriteMode).
		Msg("job starting")

	ctx := context.Background()
	start := time.Now()

	if _, err := job.New(cfg, sess, log).Run(ctx); err != nil {
		log.Error().Err(err).Msg("run failed")
		// os.Exit skips defers; push the failure metrics explicitly.
		if ferr := metrics.Flush(); ferr != nil {
			log.Warn().Err(ferr).Msg("metrics: flush error")
		}
		os.Exit(1)
	}

	log.Debug().Dur("elapsed", time.Since(start).Truncate(time.Millisecond)).Msg("completed")
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
