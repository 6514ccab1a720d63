package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/weaponry/snapwatch/internal/config"
	"github.com/weaponry/snapwatch/internal/log"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	gitCommit, gitBranch string
)

func main() {
	var (
		showVersion  = kingpin.Flag("version", "show version and exit").Default().Bool()
		logLevel     = kingpin.Flag("log-level", "set log level: debug, info, warn, error").Default("info").Envar("LOG_LEVEL").String()
		configFile   = kingpin.Flag("config-file", "path to config file").Default("/etc/snapwatchd.json").Envar("CONFIG_FILE").String()
		rootDirFlag  = kingpin.Flag("root-dir", "override chunk store root directory").String()
		intervalFlag = kingpin.Flag("interval", "override collector tick interval, seconds").Int()
	)
	kingpin.Parse()
	log.SetLevel(*logLevel)

	if *showVersion {
		fmt.Printf("snapwatchd %s-%s\n", gitCommit, gitBranch)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Errorf("cannot start snapwatchd, unable to load config: %s", err)
		os.Exit(1)
	}

	if *rootDirFlag != "" {
		cfg.ChunkStore.RootDir = *rootDirFlag
	}
	if *intervalFlag > 0 {
		cfg.TickIntervalSeconds = *intervalFlag
	}

	if err := cfg.Validate(); err != nil {
		log.Errorf("cannot start snapwatchd, unable to validate config: %s", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	doExit := make(chan error, 2)
	go func() {
		doExit <- listenSignals()
		cancel()
	}()

	go func() {
		doExit <- run(ctx, cfg)
		cancel()
	}()

	log.Warnf("shutdown: %s", <-doExit)
}

func listenSignals() error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	return fmt.Errorf("got %s", <-c)
}
