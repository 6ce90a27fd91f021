// Package config provides configuration for the inactivity watcher.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every option the watcher recognizes. Values resolve in
// order: environment variable > config file > default. The environment
// names are the historical ALBERT_* ones so existing deployments keep
// working unchanged.
type Config struct {
	// AccessLog is the nginx access log attributing HTTP traffic to sandboxes.
	AccessLog string `mapstructure:"access_log"`
	// InactivitySeconds is the idle threshold before a sandbox is stopped.
	InactivitySeconds int64 `mapstructure:"inactivity_seconds"`
	// StateFile is where the activity ledger is persisted between runs.
	StateFile string `mapstructure:"state_file"`
	// ManagerScript is the external lifecycle tool invoked to stop sandboxes.
	ManagerScript string `mapstructure:"manager_script"`
	// RegistryFile is the manager-owned registry carrying published ports.
	RegistryFile string `mapstructure:"registry_file"`
	// ReservedPrefixes are first path segments that never map to a sandbox
	// (the manager's own routes).
	ReservedPrefixes []string `mapstructure:"reserved_prefixes"`
	// Debug enables debug-level logging.
	Debug bool `mapstructure:"debug"`
}

// Load reads albert-watcher.yaml (if present) and the ALBERT_* environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("albert-watcher")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/albert")

	v.SetDefault("access_log", "/var/log/nginx/access.log")
	v.SetDefault("inactivity_seconds", 600)
	v.SetDefault("state_file", "/opt/albert-ai-sandbox-manager/data/container-activity.json")
	v.SetDefault("manager_script", "/opt/albert-ai-sandbox-manager/scripts/albert-ai-sandbox-manager.sh")
	v.SetDefault("registry_file", "/opt/albert-ai-sandbox-manager/config/container-registry.json")
	v.SetDefault("reserved_prefixes", []string{"manager", "mcphub"})
	v.SetDefault("debug", false)

	v.BindEnv("access_log", "ALBERT_NGINX_ACCESS_LOG")
	v.BindEnv("inactivity_seconds", "ALBERT_INACTIVITY_SECONDS")
	v.BindEnv("state_file", "ALBERT_INACTIVITY_STATE")
	v.BindEnv("manager_script", "ALBERT_MANAGER_SCRIPT")
	v.BindEnv("registry_file", "ALBERT_REGISTRY_FILE")
	v.BindEnv("reserved_prefixes", "ALBERT_RESERVED_PREFIXES")
	v.BindEnv("debug", "ALBERT_INACTIVITY_DEBUG")

	if err := v.ReadInConfig(); err != nil {
		// Env-only deployments have no config file; that's fine.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.ReservedPrefixes = splitList(cfg.ReservedPrefixes)
	return &cfg, nil
}

// splitList expands comma-separated entries, so the env form
// "manager,mcphub" and the YAML list form behave the same.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
