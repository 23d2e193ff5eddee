package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Cache backends accepted by CacheBackend.
const (
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
	CacheMemory = "memory"
)

type Config struct {
	APIBaseURL     string        `env:"API_BASE_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	ResolveTimeout time.Duration `env:"RESOLVE_TIMEOUT"`

	CacheDir     string `env:"CACHE_DIR"`
	DBPath       string `env:"DB_PATH"`
	LogPath      string `env:"LOG_PATH"`
	CookiePath   string `env:"COOKIE_PATH"`
	LogLevel     string `env:"LOG_LEVEL"`
	CacheBackend string `env:"CACHE_BACKEND"`

	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX"`

	LandingPath         string        `env:"LANDING_PATH"`
	LoginPath           string        `env:"LOGIN_PATH"`
	LoginDestination    string        `env:"LOGIN_DESTINATION"`
	SocialRedirectDelay time.Duration `env:"SOCIAL_REDIRECT_DELAY"`
	FetchPageSize       int           `env:"FETCH_PAGE_SIZE"`

	// RevalidateInterval re-checks a signed-in session in the background.
	// Zero disables it.
	RevalidateInterval time.Duration `env:"REVALIDATE_INTERVAL"`
}

func Default() Config {
	cacheDir := filepath.Join(userConfigDir(), "panda")
	return Config{
		APIBaseURL:       "https://panda-nextjs-be.vercel.app",
		RequestTimeout:   10 * time.Second,
		ResolveTimeout:   12 * time.Second,
		CacheDir:         cacheDir,
		DBPath:           filepath.Join(cacheDir, "cache.db"),
		LogPath:          filepath.Join(cacheDir, "debug.log"),
		CookiePath:       filepath.Join(cacheDir, "cookies.json"),
		LogLevel:         "info",
		CacheBackend:     CacheSQLite,
		RedisAddr:        "localhost:6379",
		RedisKeyPrefix:   "panda:session:",
		LandingPath:      "/",
		LoginPath:        "/auth",
		LoginDestination: "/products",
		FetchPageSize:    10,

		RevalidateInterval: 5 * time.Minute,
	}
}

// Load starts from Default and applies PANDA_* environment overrides.
// Paths derived from CacheDir follow it unless set explicitly.
func Load() (Config, error) {
	return load(env.Options{Prefix: "PANDA_"})
}

func load(opts env.Options) (Config, error) {
	cfg := Default()
	defaultDir := cfg.CacheDir
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}
	if cfg.CacheDir != defaultDir {
		if cfg.DBPath == filepath.Join(defaultDir, "cache.db") {
			cfg.DBPath = filepath.Join(cfg.CacheDir, "cache.db")
		}
		if cfg.LogPath == filepath.Join(defaultDir, "debug.log") {
			cfg.LogPath = filepath.Join(cfg.CacheDir, "debug.log")
		}
		if cfg.CookiePath == filepath.Join(defaultDir, "cookies.json") {
			cfg.CookiePath = filepath.Join(cfg.CacheDir, "cookies.json")
		}
	}
	switch cfg.CacheBackend {
	case CacheSQLite, CacheRedis, CacheMemory:
	default:
		return Config{}, fmt.Errorf("config: unknown cache backend %q", cfg.CacheBackend)
	}
	if cfg.ResolveTimeout <= 0 {
		return Config{}, fmt.Errorf("config: resolve timeout must be positive")
	}
	return cfg, nil
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}
