package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	charmLog "github.com/charmbracelet/log"
	"github.com/hylla/krets/internal/adapters/registry"
	"github.com/hylla/krets/internal/adapters/server"
	"github.com/hylla/krets/internal/app"
	"github.com/hylla/krets/internal/config"
	"github.com/hylla/krets/internal/platform"
	"github.com/hylla/krets/internal/tui"
	"github.com/hylla/krets/internal/view"
)

// version stores a package-level helper value.
var version = "dev"

// defaultRegistryURL points at a local splinterd admin surface.
const defaultRegistryURL = "http://localhost:8085"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("krets", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configPath  string
		registryURL string
		actorID     string
		bindAddr    string
		devMode     bool
		showVer     bool
	)
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("KRETS_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	fs.StringVar(&configPath, "config", "", "path to config TOML")
	fs.StringVar(&registryURL, "url", "", "registry base URL (overrides config)")
	fs.StringVar(&actorID, "actor", "", "local node id for the action-required filter (overrides config)")
	fs.StringVar(&bindAddr, "bind", "", "serve-mode bind address (overrides config)")
	fs.BoolVar(&devMode, "dev", defaultDevMode, "use dev mode paths (krets-dev)")
	fs.BoolVar(&showVer, "version", false, "show version")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVer {
		_, _ = fmt.Fprintf(stdout, "krets %s\n", version)
		return nil
	}

	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: "krets",
		DevMode: devMode,
	})
	if err != nil {
		return err
	}

	command := firstArg(fs.Args())
	switch command {
	case "paths":
		_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", devMode)
		_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
		_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
		return nil
	case "", "serve":
		// Continue.
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("KRETS_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}

	defaultURL := defaultRegistryURL
	if envURL := strings.TrimSpace(os.Getenv("KRETS_REGISTRY_URL")); envURL != "" {
		defaultURL = envURL
	}
	cfg, err := config.Load(configPath, config.Default(defaultURL))
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	if v := strings.TrimSpace(registryURL); v != "" {
		cfg.Registry.URL = v
	}
	if v := strings.TrimSpace(actorID); v != "" {
		cfg.Sync.ActorID = v
	}
	if v := strings.TrimSpace(bindAddr); v != "" {
		cfg.Server.Bind = v
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger := charmLog.NewWithOptions(stderr, charmLog.Options{
		ReportTimestamp: true,
		Prefix:          "krets",
	})
	if devMode {
		logger.SetLevel(charmLog.DebugLevel)
	}
	if command == "" {
		// Keep TUI rendering clean: runtime logs stay quiet while the list is active.
		logger.SetOutput(io.Discard)
	}
	charmLog.SetDefault(logger)

	logger.Info("startup configuration resolved", "dev_mode", devMode, "command", commandLabel(command))
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir)
	logger.Info("configuration loaded", "registry_url", cfg.Registry.URL, "interval_seconds", cfg.Sync.IntervalSeconds)

	client := registry.New(cfg.Registry.URL,
		registry.WithTimeout(time.Duration(cfg.Registry.TimeoutSeconds)*time.Second))
	interval := time.Duration(cfg.Sync.IntervalSeconds) * time.Second
	store := view.NewStore(view.SortSpec{
		Key:       view.SortKey(cfg.View.SortKey),
		Ascending: cfg.View.Ascending,
	})
	svc := app.NewService(client, store, nil, app.ServiceConfig{RefreshInterval: interval})
	logger.Debug("synchronizer initialized", "actor_id", cfg.Sync.ActorID, "sort_key", cfg.View.SortKey)

	if command == "serve" {
		logger.Info("command flow start", "command", "serve")
		runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		go svc.Run(runCtx)
		if err := server.Run(runCtx, server.Config{
			HTTPBind:      cfg.Server.Bind,
			APIEndpoint:   cfg.Server.APIEndpoint,
			MCPEndpoint:   cfg.Server.MCPEndpoint,
			ServerName:    "krets",
			ServerVersion: version,
		}, server.Dependencies{
			Source:   store,
			Resolver: svc,
		}); err != nil {
			logger.Error("command flow failed", "command", "serve", "err", err)
			return fmt.Errorf("run serve command: %w", err)
		}
		logger.Info("command flow complete", "command", "serve")
		return nil
	}

	m := tui.NewModel(svc, store,
		tui.WithActorID(cfg.Sync.ActorID),
		tui.WithRefreshInterval(interval),
	)
	logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

// firstArg returns the leading positional argument, if any.
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// commandLabel maps the empty command to its display name.
func commandLabel(command string) string {
	if command == "" {
		return "tui"
	}
	return command
}

// parseBoolEnv reads a boolean environment value and whether it was set.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
