package main

import (
	"fmt"
	"log"
	"net/url"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pandamarket/panda/internal/api"
	"github.com/pandamarket/panda/internal/cache"
	"github.com/pandamarket/panda/internal/config"
	"github.com/pandamarket/panda/internal/logging"
	"github.com/pandamarket/panda/internal/monitor"
	"github.com/pandamarket/panda/internal/session"
	"github.com/pandamarket/panda/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		log.Fatalf("creating cache dir: %v", err)
	}

	logger, logFile, err := logging.Open(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logFile.Close()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("opening session cache: %v", err)
	}
	defer store.Close()

	// A provider redirect URL on the command line opens the callback view.
	startPath := cfg.LandingPath
	if len(os.Args) > 1 {
		cb, err := session.ParseCallback(os.Args[1])
		if err != nil {
			log.Fatalf("reading callback url: %v", err)
		}
		startPath = callbackPath(cb, os.Args[1])
	}

	client := api.NewClient(cfg.APIBaseURL, api.WithTimeout(cfg.RequestTimeout))
	if err := client.LoadCookies(cfg.CookiePath); err != nil {
		logger.Warn("restoring cookies", "err", err)
	}
	defer func() {
		if err := client.SaveCookies(cfg.CookiePath); err != nil {
			logger.Warn("saving cookies", "err", err)
		}
	}()
	nav := ui.NewNavigator()
	mgr := session.New(client, store, nav, session.Options{
		Logger:              logger,
		ResolveTimeout:      cfg.ResolveTimeout,
		LandingPath:         cfg.LandingPath,
		LoginPath:           cfg.LoginPath,
		LoginDestination:    cfg.LoginDestination,
		SocialRedirectDelay: cfg.SocialRedirectDelay,
	})
	defer mgr.Close()

	logger.Info("starting", "api", client.BaseURL(), "cache", cfg.CacheBackend, "path", startPath)

	app := ui.NewApp(cfg, client, mgr, logger, startPath)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	nav.SetProgram(p)
	app.SetProgram(p)
	defer app.Close()

	mon := monitor.New(mgr, cfg.RevalidateInterval, logger)
	mon.Start(p.Send)
	defer mon.Stop()

	if _, err := p.Run(); err != nil {
		logger.Error("program exited", "err", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openStore(cfg config.Config) (cache.Store, error) {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		return cache.NewRedisFromConfig(cache.RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
	case config.CacheMemory:
		return cache.NewMemory(), nil
	default:
		return cache.Open(cfg.DBPath)
	}
}

// callbackPath keeps the path and query of a redirect URL, dropping the
// scheme and host the provider sent it to.
func callbackPath(cb session.Callback, raw string) string {
	path := "/auth/" + string(cb.Provider) + "/callback"
	if u, err := url.Parse(raw); err == nil && u.RawQuery != "" {
		return path + "?" + u.RawQuery
	}
	return path
}
