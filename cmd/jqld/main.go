package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/tobsdb/jqldb/internal/config"
	"github.com/tobsdb/jqldb/internal/conn"
	"github.com/tobsdb/jqldb/internal/filelock"
	"github.com/tobsdb/jqldb/internal/query"
	"github.com/tobsdb/jqldb/internal/schema"
	"github.com/tobsdb/jqldb/pkg"
)

func main() {
	config_path := flag.String("config", "jqld.yaml", "path to the YAML config file")
	root := flag.String("root", "", "servers root directory (overrides config)")
	listen := flag.String("listen", "", "listen address (overrides config)")
	log_level := flag.String("log-level", "", "none, error or debug (overrides config)")
	poll := flag.Duration("lock-poll", 0, "table lock poll interval (overrides config)")
	no_metrics := flag.Bool("no-metrics", false, "disable the /metrics endpoint")

	flag.Parse()

	cfg, err := config.Load(*config_path)
	if err != nil {
		pkg.FatalLog("loading config", "err", err)
	}
	if *root != "" {
		cfg.Root = *root
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *log_level != "" {
		cfg.LogLevel = *log_level
	}
	if *poll > 0 {
		cfg.Lock.PollInterval = *poll
	}
	if *no_metrics {
		cfg.Metrics = false
	}
	if err := cfg.Validate(); err != nil {
		pkg.FatalLog("invalid flags", "err", err)
	}
	pkg.SetLogLevel(pkg.ParseLogLevel(cfg.LogLevel))

	if err := os.MkdirAll(cfg.Root, 0755); err != nil {
		pkg.FatalLog("creating root", "root", cfg.Root, "err", err)
	}
	engine := query.NewEngine(schema.NewStore(cfg.Root), filelock.New(cfg.Lock.PollInterval))

	var metrics *conn.Metrics
	if cfg.Metrics {
		metrics = conn.NewMetrics()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := conn.NewServer(engine, metrics).Listen(ctx, cfg.Listen); err != nil {
		pkg.FatalLog("server stopped", "err", err)
	}
}
