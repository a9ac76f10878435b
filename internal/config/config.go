// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

// Package config loads the configuration of the cronqueue binary from a YAML
// file and CRONQUEUE_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Redis         Redis         `yaml:"redis"`
	LogLevel      string        `yaml:"log_level"`
	LockTTL       time.Duration `yaml:"lock_ttl"`
	MetadataTTL   time.Duration `yaml:"metadata_ttl"`
	TrimBatchSize int           `yaml:"trim_batch_size"`
	Worker        Worker        `yaml:"worker"`
	Queues        []Queue       `yaml:"queues"`
}

// Redis holds the connection settings of the store.
type Redis struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Worker holds the settings of the work command.
type Worker struct {
	Interval    time.Duration `yaml:"interval"`
	BatchSize   int           `yaml:"batch_size"`
	RateLimit   float64       `yaml:"rate_limit"`
	MetricsAddr string        `yaml:"metrics_addr"`
}

// Queue declares a queue the binary registers at startup.
type Queue struct {
	Name    string  `yaml:"name"`
	Fetcher Fetcher `yaml:"fetcher"`
	Handler Handler `yaml:"handler"`
}

// Supported fetcher types.
const (
	FetcherStatic = "static" // items listed in the config
	FetcherFile   = "file"   // one item per line of a file
)

// Fetcher selects where new items come from.
type Fetcher struct {
	Type  string   `yaml:"type"`
	Items []string `yaml:"items"`
	Path  string   `yaml:"path"`
}

// Supported handler types.
const (
	HandlerLog  = "log"  // log the payload
	HandlerExec = "exec" // run a command with the payload on stdin
)

// Handler selects what is done with a dequeued entry.
type Handler struct {
	Type    string   `yaml:"type"`
	Command []string `yaml:"command"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Redis:         Redis{Addr: "127.0.0.1:6379"},
		LogLevel:      "info",
		LockTTL:       5 * time.Minute,
		MetadataTTL:   30 * 24 * time.Hour,
		TrimBatchSize: 100,
		Worker: Worker{
			Interval:  time.Minute,
			BatchSize: 0,
		},
	}
}

// Load reads configuration from a YAML file. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %v", path, err)
	}
	return cfg, nil
}

// Validate reports the first problem found in cfg.
func (c *Config) Validate() error {
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr must be set")
	}
	seen := make(map[string]bool)
	for i, q := range c.Queues {
		if q.Name == "" {
			return fmt.Errorf("config: queues[%d]: name must be set", i)
		}
		if seen[q.Name] {
			return fmt.Errorf("config: queue %q is declared twice", q.Name)
		}
		seen[q.Name] = true
		switch q.Fetcher.Type {
		case "", FetcherStatic:
		case FetcherFile:
			if q.Fetcher.Path == "" {
				return fmt.Errorf("config: queue %q: file fetcher needs a path", q.Name)
			}
		default:
			return fmt.Errorf("config: queue %q: unknown fetcher type %q", q.Name, q.Fetcher.Type)
		}
		switch q.Handler.Type {
		case "", HandlerLog:
		case HandlerExec:
			if len(q.Handler.Command) == 0 {
				return fmt.Errorf("config: queue %q: exec handler needs a command", q.Name)
			}
		default:
			return fmt.Errorf("config: queue %q: unknown handler type %q", q.Name, q.Handler.Type)
		}
	}
	return nil
}
