package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

// AppEnv represents the application environment
// ENUM(local,production,development,testing)
type AppEnv string

// DefaultRelays is used when neither the config file nor the environment
// provides a relay list. Always overridable.
var DefaultRelays = []string{
	"wss://relay.damus.io",
	"wss://nos.lol",
	"wss://relay.nostr.band",
	"wss://nostr.wine",
}

type Config struct {
	Relays        []string `koanf:"relays"`
	StoragePath   string   `koanf:"storage_path"`
	HTTPPort      string   `koanf:"http_port"`
	FetchTimeout  int      `koanf:"fetch_timeout"`  // seconds, feed/HTML fetch
	ScrapeTimeout int      `koanf:"scrape_timeout"` // seconds, channel-page scrape
	QueryWindow   int      `koanf:"query_window"`   // seconds, relay fan-out wait
	SyncInterval  int      `koanf:"sync_interval"`  // seconds, subscription sync monitor
	PublicKey     string   `koanf:"public_key"`     // hex pubkey or npub of the list author
	AppEnv        AppEnv   `koanf:"app_env"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load config file from various formats
	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	// Use lo.Find to find the first existing config file
	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Load environment variables (they override config file values)
	// Convert NFR_STORAGE_PATH -> storage_path
	if err := k.Load(env.Provider("NFR_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "NFR_"))
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	// Set defaults
	if !k.Exists("storage_path") {
		k.Set("storage_path", "./data")
	}
	if !k.Exists("http_port") {
		k.Set("http_port", "8080")
	}
	if !k.Exists("fetch_timeout") {
		k.Set("fetch_timeout", 10)
	}
	if !k.Exists("scrape_timeout") {
		k.Set("scrape_timeout", 5)
	}
	if !k.Exists("query_window") {
		k.Set("query_window", 5)
	}
	if !k.Exists("sync_interval") {
		k.Set("sync_interval", 300)
	}
	if !k.Exists("app_env") {
		k.Set("app_env", "production")
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	// Relays may arrive as a comma-separated string from env vars
	if relays := k.Get("relays"); relays != nil {
		if s, ok := relays.(string); ok {
			cfg.Relays = ParseRelayList(s)
		}
	}
	if len(cfg.Relays) == 0 {
		cfg.Relays = DefaultRelays
	}

	// Parse AppEnv from string if needed
	if appEnvStr := k.String("app_env"); appEnvStr != "" {
		if env, err := ParseAppEnv(appEnvStr); err == nil {
			cfg.AppEnv = env
		} else {
			cfg.AppEnv = AppEnvProduction
		}
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	return &cfg, nil
}

// ParseRelayList parses a comma-separated relay address string
func ParseRelayList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	return lo.FilterMap(parts, func(part string, _ int) (string, bool) {
		part = strings.TrimSpace(part)
		return part, part != ""
	})
}
