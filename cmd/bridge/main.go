package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	businput "hue-bus-bridge/internal/adapters/input/bus"
	httpapi "hue-bus-bridge/internal/adapters/input/http"
	"hue-bus-bridge/internal/adapters/output/hue"
	"hue-bus-bridge/internal/adapters/output/influx"
	"hue-bus-bridge/internal/adapters/output/mqtt"
	"hue-bus-bridge/internal/adapters/output/persistence"
	"hue-bus-bridge/internal/adapters/output/ssdp"
	"hue-bus-bridge/internal/domain/alias"
	"hue-bus-bridge/internal/domain/model"
	"hue-bus-bridge/internal/domain/service"
	"hue-bus-bridge/internal/logging"
	"hue-bus-bridge/internal/ports"
)

const (
	exitOK = iota
	exitConfig
	exitTooManyErrors
	exitBus
	exitUnauthorized
	exitBridge
)

const ssdpWait = 3 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("hue-bus-bridge", flag.ContinueOnError)
	configPath := fs.String("config", envOr("CONFIG_PATH", "config.yaml"), "path to the YAML configuration file")
	aliasList := fs.String("aliases", "", "extra aliases, e.g. \"ext=key,ext2=ignore\"")
	logLevel := fs.String("log-level", "", "override logging.level")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: hue-bus-bridge [flags] run|register [name]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitConfig
	}

	repo := persistence.NewYAMLConfigRepository(*configPath)
	cfg, err := repo.Get(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitConfig
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *aliasList != "" {
		extra, err := alias.ParseList(*aliasList)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			return exitConfig
		}
		for k, v := range extra {
			cfg.Aliases[k] = v
		}
	}
	log := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := fs.Arg(0)
	if cmd == "" {
		cmd = "run"
	}

	client := hue.NewClient()
	if cfg.Bridge.Host == "" {
		host, err := hue.Discover(ctx, ssdp.NewSearcher(ssdpWait), log)
		if err != nil {
			log.Error().Err(err).Msg("no bridge configured and discovery failed")
			return exitBridge
		}
		cfg.Bridge.Host = host
	}

	switch cmd {
	case "run":
		return runBridge(ctx, cfg, repo, client, log)
	case "register":
		return register(ctx, cfg, repo, client, fs.Arg(1), log)
	default:
		fs.Usage()
		return exitConfig
	}
}

func register(ctx context.Context, cfg *model.Config, repo ports.ConfigRepository, client *hue.Client, name string, log zerolog.Logger) int {
	if name == "" {
		name, _ = os.Hostname()
	}
	client.Configure(cfg.Bridge.Host, "")

	user, err := service.NewConfigService(repo, client).Register(ctx, cfg.Bridge.Host, "hue-bus-bridge#"+name)
	switch {
	case err == nil:
	case user != "":
		log.Error().Err(err).Str("username", user).Msg("registered but the config file was not updated")
		return exitConfig
	default:
		log.Error().Err(err).Msg("registration failed, press the link button and retry")
		return exitBridge
	}
	log.Info().Str("host", cfg.Bridge.Host).Str("username", user).Msg("registered")
	return exitOK
}

func runBridge(ctx context.Context, cfg *model.Config, repo ports.ConfigRepository, client *hue.Client, log zerolog.Logger) int {
	if cfg.Bridge.Username == "" {
		log.Error().Msg("no bridge username configured, run \"hue-bus-bridge register\" first")
		return exitUnauthorized
	}
	client.Configure(cfg.Bridge.Host, cfg.Bridge.Username)
	log.Info().Stringer("config", cfg).Msg("starting")

	busClient, err := mqtt.Connect(cfg.Bus, log)
	if err != nil {
		log.Error().Err(err).Str("broker", cfg.Bus.Broker).Msg("bus connection failed")
		return exitBus
	}
	defer busClient.Close()

	var recorders []ports.ChangeRecorder
	if cfg.Telemetry.Enabled {
		rec, err := influx.Connect(cfg.Telemetry, log)
		if err != nil {
			log.Warn().Err(err).Msg("telemetry disabled")
		} else {
			defer rec.Close()
			recorders = append(recorders, rec)
		}
	}

	svc := service.NewBridgeService(client, busClient, alias.NewResolver(cfg.Aliases), service.Options{
		PollInterval:         cfg.Bridge.PollInterval,
		RetryDelay:           cfg.Bridge.RetryDelay,
		GroupRefreshInterval: cfg.Bridge.GroupRefreshInterval,
		Recorders:            recorders,
		Logger:               log,
	})

	listener, err := businput.NewListener(svc, busClient, busClient.Topics(), log)
	if err != nil {
		log.Error().Err(err).Msg("listener setup failed")
		return exitBus
	}
	if err := listener.Start(ctx); err != nil {
		log.Error().Err(err).Msg("command subscription failed")
		return exitBus
	}
	defer listener.Wait()

	if cfg.HTTP.Listen != "" {
		bodies, err := businput.NewValidator()
		if err != nil {
			log.Error().Err(err).Msg("command schema setup failed")
			return exitConfig
		}
		srv := httpapi.NewServer(svc, svc, service.NewConfigService(repo, client), bodies, log)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.HTTP.Listen); err != nil {
				log.Error().Err(err).Msg("http server stopped")
			}
		}()
	}

	err = svc.Run(ctx)
	switch {
	case err == nil:
		log.Info().Msg("shutdown")
		return exitOK
	case errors.Is(err, ports.ErrUnauthorized):
		log.Error().Err(err).Msg("bridge rejected the username, run \"hue-bus-bridge register\"")
		return exitUnauthorized
	case errors.Is(err, service.ErrTooManyErrors):
		log.Error().Err(err).Msg("giving up on the bridge")
		return exitTooManyErrors
	default:
		log.Error().Err(err).Msg("bridge loop failed")
		return exitBridge
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
