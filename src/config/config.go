package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides: VIBE_LLM_PROVIDER sets
// llm.provider.
const EnvPrefix = "VIBE_"

// Config represents the application configuration
type Config struct {
	LLM struct {
		Provider string        `koanf:"provider"`
		Model    string        `koanf:"model"`
		Timeout  time.Duration `koanf:"timeout"`
		RPS      float64       `koanf:"rps"`
		Burst    int           `koanf:"burst"`
	} `koanf:"llm"`

	Store struct {
		Backend string `koanf:"backend"`
		Path    string `koanf:"path"`
	} `koanf:"store"`

	Preview struct {
		Addr      string `koanf:"addr"`
		CacheSize int    `koanf:"cache_size"`
	} `koanf:"preview"`

	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
		File   string `koanf:"file"`
	} `koanf:"log"`

	UTCP struct {
		ProvidersFile string `koanf:"providers_file"`
	} `koanf:"utcp"`

	// APIKey is never read from the config file.
	APIKey string `koanf:"-"`
}

// HomeDir is the per-user data directory, ~/.vibe-code.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".vibe-code"
	}
	return filepath.Join(home, ".vibe-code")
}

func defaults() map[string]interface{} {
	home, _ := os.UserHomeDir()
	return map[string]interface{}{
		"llm.provider":        "gemini",
		"llm.model":           "gemini-2.5-flash",
		"llm.timeout":         "0s",
		"llm.rps":             0.0,
		"llm.burst":           1,
		"store.backend":       "file",
		"store.path":          HomeDir(),
		"preview.addr":        "127.0.0.1:8787",
		"preview.cache_size":  32,
		"log.level":           "info",
		"log.format":          "console",
		"log.file":            "",
		"utcp.providers_file": filepath.Join(home, "utcp", "provider.json"),
	}
}

// DefaultPaths are tried in order when no config path is given.
func DefaultPaths() []string {
	return []string{"./vibe.toml", filepath.Join(HomeDir(), "vibe.toml")}
}

// LoadConfig layers defaults, the TOML file and VIBE_ environment variables.
// An explicit configPath must exist; the default locations are optional.
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		for _, path := range DefaultPaths() {
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
					return nil, fmt.Errorf("error loading config %s: %w", path, err)
				}
				break
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	config.APIKey = APIKeyFromEnv()
	return &config, nil
}

// envKey maps VIBE_PREVIEW_CACHE_SIZE to preview.cache_size: only the first
// underscore separates the section from the key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// APIKeyFromEnv returns the first non-empty of GEMINI_API_KEY,
// GOOGLE_API_KEY and API_KEY.
func APIKeyFromEnv() string {
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}
	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	sampleConfig := `# vibe-code configuration
# The API key is read from GEMINI_API_KEY, GOOGLE_API_KEY or API_KEY.

[llm]
provider = "gemini"   # gemini | langchain | lattice
model = "gemini-2.5-flash"
timeout = "0s"        # 0 disables the per-request timeout
rps = 0.0             # 0 disables rate limiting
burst = 1

[store]
backend = "file"      # file | sqlite
path = "~/.vibe-code"

[preview]
addr = "127.0.0.1:8787"
cache_size = 32

[log]
level = "info"
format = "console"    # console | json
file = ""

[utcp]
providers_file = "~/utcp/provider.json"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.LLM.Provider == "" {
		return fmt.Errorf("llm provider is required")
	}
	if config.LLM.RPS < 0 {
		return fmt.Errorf("llm rps must not be negative")
	}
	switch config.Store.Backend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown store backend %q", config.Store.Backend)
	}
	if config.Preview.CacheSize <= 0 {
		return fmt.Errorf("preview cache_size must be positive")
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return os.ExpandEnv(p)
}
