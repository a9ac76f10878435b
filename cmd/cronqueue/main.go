// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

// Command cronqueue operates the queues declared in its configuration file.
//
// Settings are read from the YAML file named by --config or CRONQUEUE_CONFIG,
// then overridden by CRONQUEUE_* environment variables. A .env file in the
// working directory is loaded first when present.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hemant/cronqueue"
	"github.com/hemant/cronqueue/cli"
	"github.com/hemant/cronqueue/internal/config"
	"github.com/hemant/cronqueue/internal/log"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// A missing .env is fine.
	_ = godotenv.Load(".env")

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	var level cronqueue.LogLevel
	if err := level.Set(cfg.LogLevel); err != nil {
		return err
	}
	stderr := log.NewBase(os.Stderr)
	app := cronqueue.NewApp(cronqueue.Config{
		Logger:   stderr,
		LogLevel: level,
		Metrics:  cronqueue.NewMetrics(prometheus.DefaultRegisterer),
	})
	app.AddLogger("stderr", stderr)
	app.AddLogger("stdout", log.NewBase(os.Stdout))

	client, err := cronqueue.NewRedisClient(cronqueue.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	if err := registerQueues(app, client, cfg); err != nil {
		return err
	}

	cli.SetWorkDefaults(cli.WorkDefaults{
		Interval:    cfg.Worker.Interval,
		BatchSize:   cfg.Worker.BatchSize,
		RateLimit:   cfg.Worker.RateLimit,
		MetricsAddr: cfg.Worker.MetricsAddr,
	})
	root := cli.NewRootCommand(app)
	// Parsed by loadConfig; declared here for the help output.
	root.PersistentFlags().String("config", "", "path to the YAML configuration file")
	root.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return root.ExecuteContext(ctx)
}

// loadConfig resolves the configuration file from --config or
// CRONQUEUE_CONFIG and applies the environment overrides.
func loadConfig(args []string) (config.Config, error) {
	fs := pflag.NewFlagSet("cronqueue", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	path := fs.String("config", os.Getenv(config.EnvPrefix+"CONFIG"), "")
	fs.BoolP("help", "h", false, "")
	_ = fs.Parse(args)

	cfg, err := config.Load(*path)
	if err != nil {
		return config.Config{}, err
	}
	if err := config.FromEnv(&cfg); err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
