// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"

	"github.com/spf13/cast"
)

// EnvPrefix is the prefix of every environment variable read by FromEnv.
const EnvPrefix = "CRONQUEUE_"

// FromEnv overlays CRONQUEUE_* environment variables onto cfg.
// It fails on the first variable that cannot be converted.
func FromEnv(cfg *Config) error {
	if v, ok := lookup("REDIS_ADDR"); ok {
		cfg.Redis.Addr = v
	}
	if v, ok := lookup("REDIS_USERNAME"); ok {
		cfg.Redis.Username = v
	}
	if v, ok := lookup("REDIS_PASSWORD"); ok {
		cfg.Redis.Password = v
	}
	if v, ok := lookup("REDIS_DB"); ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return envErr("REDIS_DB", err)
		}
		cfg.Redis.DB = n
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := lookup("LOCK_TTL"); ok {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return envErr("LOCK_TTL", err)
		}
		cfg.LockTTL = d
	}
	if v, ok := lookup("METADATA_TTL"); ok {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return envErr("METADATA_TTL", err)
		}
		cfg.MetadataTTL = d
	}
	if v, ok := lookup("TRIM_BATCH_SIZE"); ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return envErr("TRIM_BATCH_SIZE", err)
		}
		cfg.TrimBatchSize = n
	}
	if v, ok := lookup("WORKER_INTERVAL"); ok {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return envErr("WORKER_INTERVAL", err)
		}
		cfg.Worker.Interval = d
	}
	if v, ok := lookup("WORKER_BATCH_SIZE"); ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return envErr("WORKER_BATCH_SIZE", err)
		}
		cfg.Worker.BatchSize = n
	}
	if v, ok := lookup("WORKER_RATE_LIMIT"); ok {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return envErr("WORKER_RATE_LIMIT", err)
		}
		cfg.Worker.RateLimit = f
	}
	if v, ok := lookup("METRICS_ADDR"); ok {
		cfg.Worker.MetricsAddr = v
	}
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envErr(name string, err error) error {
	return fmt.Errorf("config: %s%s: %v", EnvPrefix, name, err)
}
