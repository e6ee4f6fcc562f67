package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// TokenConfig declares a token the daemon registers at startup.
type TokenConfig struct {
	Symbol string `toml:"Symbol"`
	FeeBps uint64 `toml:"FeeBps"`
}

type Config struct {
	ListenAddress string        `toml:"ListenAddress"`
	Environment   string        `toml:"Environment"`
	OwnerAddress  string        `toml:"OwnerAddress"`
	KeystorePath  string        `toml:"KeystorePath"`
	AuditLogPath  string        `toml:"AuditLogPath"`
	Tokens        []TokenConfig `toml:"Tokens"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}

	for _, undecoded := range meta.Undecoded() {
		key := strings.TrimSpace(undecoded.String())
		if key == "" {
			continue
		}
		return nil, fmt.Errorf("config: unknown key %q in %s", key, path)
	}

	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8645"
	}
	if strings.TrimSpace(cfg.KeystorePath) == "" {
		cfg.KeystorePath = "./owner-keystore.json"
	}
	if strings.TrimSpace(cfg.AuditLogPath) == "" {
		cfg.AuditLogPath = "./flashpool-audit.log"
	}
}

func validate(cfg *Config) error {
	seen := make(map[string]struct{}, len(cfg.Tokens))
	for _, token := range cfg.Tokens {
		symbol := strings.ToUpper(strings.TrimSpace(token.Symbol))
		if symbol == "" {
			return fmt.Errorf("config: token entry with empty symbol")
		}
		if _, dup := seen[symbol]; dup {
			return fmt.Errorf("config: duplicate token %q", symbol)
		}
		seen[symbol] = struct{}{}
		if token.FeeBps > 1000 {
			return fmt.Errorf("config: token %q fee %d exceeds 1000 basis points", symbol, token.FeeBps)
		}
	}
	return nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
