package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/sensorstack/telemetryd/internal/constants"
	"github.com/sensorstack/telemetryd/internal/database"
	"github.com/sensorstack/telemetryd/internal/log"
	"github.com/sensorstack/telemetryd/internal/server"
	"github.com/sensorstack/telemetryd/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to YAML configuration file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("telemetryd %s\n", constants.Version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Load configuration
	filename, _ := filepath.Abs(*cfgFile)
	cfgData, err := config.NewYAMLProvider(filename).LoadConfig()
	if err != nil {
		log.Errorf("Failed to load configuration. Did you pass the -config flag? Run with -h for help: %v", err)
		os.Exit(1)
	}

	// Connect to the measurement database
	db := database.NewClient(cfgData.Database.ConnectionString, log.GetSugaredLogger())
	if err := db.Connect(); err != nil {
		log.Errorf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	srv := server.New(cfgData.HTTP, db, log.GetSugaredLogger())
	srv.Start(ctx, &wg)

	// Run until interrupted
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	log.Info("Shutting down...")
	cancel()
	wg.Wait()
}
