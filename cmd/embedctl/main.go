// Command embedctl inspects the viewembed shared table and serves its health.
//
//	embedctl [-config file] inspect [-all]
//	embedctl [-config file] serve [-addr host:port]
//	embedctl [-config file] remove
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/srediag/viewembed/internal/config"
	"github.com/srediag/viewembed/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("embedctl", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "YAML configuration file")
	region := fs.String("region", "", "Shared table name (overrides configuration)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: embedctl [-config file] [-region name] inspect|serve|remove")
		return 2
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *region != "" {
		cfg.Region = *region
	}

	log, err := logging.New(logging.Config{
		Level:       cfg.Log.Level,
		Development: true,
		Stdout:      true,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "inspect":
		err = inspect(ctx, cfg, rest, os.Stdout)
	case "serve":
		err = serve(ctx, cfg, rest, log.Named("serve"))
	case "remove":
		err = remove(cfg)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error(cmd+" failed", zap.Error(err))
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}
