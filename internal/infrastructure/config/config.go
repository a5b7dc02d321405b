package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

type ExchangeConfig struct {
	Enabled    bool   `toml:"enabled"`
	RestURL    string `toml:"rest_url"`
	FuturesURL string `toml:"futures_url"`
}

type Config struct {
	App struct {
		RefreshSec      int `toml:"refresh_sec"`
		CommentaryEvery int `toml:"commentary_every"` // cycles between AI calls, 0 disables
		FeedCapacity    int `toml:"feed_capacity"`    // liquidation window
		LogCapacity     int `toml:"log_capacity"`     // log line window
	} `toml:"app"`

	View struct {
		Sort     string `toml:"sort"`  // symbol|last|change|volume|spread|volatility
		Order    string `toml:"order"` // asc|desc
		Quote    string `toml:"quote"` // quote-asset filter, empty = all
		PageSize int    `toml:"page_size"`
	} `toml:"view"`

	Symbols struct {
		QuoteAssets []string `toml:"quote_assets"`
	} `toml:"symbols"`

	Exchanges map[string]ExchangeConfig `toml:"exchanges"`

	Equities struct {
		Enabled bool     `toml:"enabled"`
		URL     string   `toml:"url"`
		Symbols []string `toml:"symbols"`
	} `toml:"equities"`

	Proxy struct {
		Relays []string `toml:"relays"`
	} `toml:"proxy"`

	Stream struct {
		Enabled bool   `toml:"enabled"`
		WsURL   string `toml:"ws_url"` // e.g. wss://fstream.binance.com
	} `toml:"stream"`

	Storage struct {
		Drivers     []string `toml:"drivers"` // sqlite|postgres|redis, empty = no persistence
		SQLitePath  string   `toml:"sqlite_path"`
		PostgresDSN string   `toml:"postgres_dsn"`
		RedisAddr   string   `toml:"redis_addr"`
		RedisPrefix string   `toml:"redis_prefix"`
	} `toml:"storage"`

	AI struct {
		Endpoint string `toml:"endpoint"`
		Model    string `toml:"model"`
		KeyEnv   string `toml:"key_env"` // env var holding the API key
	} `toml:"ai"`
}

var validSorts = map[string]bool{
	"symbol": true, "last": true, "change": true,
	"volume": true, "spread": true, "volatility": true,
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.RefreshSec <= 0 {
		cfg.App.RefreshSec = 10
	}
	if cfg.App.FeedCapacity <= 0 {
		cfg.App.FeedCapacity = 500
	}
	if cfg.App.LogCapacity <= 0 {
		cfg.App.LogCapacity = 50
	}
	if cfg.View.Sort == "" {
		cfg.View.Sort = "volume"
	}
	if cfg.View.Order == "" {
		cfg.View.Order = "desc"
	}
	if cfg.View.PageSize <= 0 {
		cfg.View.PageSize = 25
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/marketdash.db"
	}
	if cfg.Storage.RedisPrefix == "" {
		cfg.Storage.RedisPrefix = "marketdash"
	}
	if cfg.AI.KeyEnv == "" {
		cfg.AI.KeyEnv = "MARKETDASH_AI_KEY"
	}
	if cfg.Equities.Enabled && len(cfg.Equities.Symbols) == 0 {
		cfg.Equities.Symbols = []string{"SPY", "QQQ", "^VIX"}
	}
}

func validate(cfg *Config) error {
	if !validSorts[cfg.View.Sort] {
		return fmt.Errorf("view.sort %q is not a sortable column", cfg.View.Sort)
	}
	if cfg.View.Order != "asc" && cfg.View.Order != "desc" {
		return fmt.Errorf("view.order %q must be asc or desc", cfg.View.Order)
	}
	cfg.View.Quote = strings.ToUpper(strings.TrimSpace(cfg.View.Quote))

	cfg.Symbols.QuoteAssets = normalizeList(cfg.Symbols.QuoteAssets)

	if len(cfg.EnabledExchanges()) == 0 && !cfg.Equities.Enabled {
		return errors.New("no exchanges enabled and equities disabled")
	}

	for _, d := range cfg.Storage.Drivers {
		switch d {
		case "sqlite", "postgres", "redis":
		default:
			return fmt.Errorf("storage.drivers: unknown driver %q", d)
		}
	}
	if contains(cfg.Storage.Drivers, "postgres") && strings.TrimSpace(cfg.Storage.PostgresDSN) == "" {
		return errors.New("storage.postgres_dsn empty but postgres driver selected")
	}
	if contains(cfg.Storage.Drivers, "redis") && strings.TrimSpace(cfg.Storage.RedisAddr) == "" {
		return errors.New("storage.redis_addr empty but redis driver selected")
	}
	return nil
}

// EnabledExchanges returns enabled venue names upper-cased and sorted.
func (cfg *Config) EnabledExchanges() []string {
	out := make([]string, 0, len(cfg.Exchanges))
	for name, ec := range cfg.Exchanges {
		if ec.Enabled {
			out = append(out, strings.ToUpper(name))
		}
	}
	sort.Strings(out)
	return out
}

// Exchange looks up a venue config case-insensitively.
func (cfg *Config) Exchange(name string) ExchangeConfig {
	for k, v := range cfg.Exchanges {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ExchangeConfig{}
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
