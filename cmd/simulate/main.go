package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"banker/internal/allocator"
	"banker/internal/common"
	"banker/internal/events"
	"banker/internal/simulator"

	"go.uber.org/zap"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file path (defaults to the built-in scenario)")
		rounds     = flag.Int("rounds", 0, "Requests queued per node (overrides config)")
		seed       = flag.Int64("seed", 0, "Random seed (0 uses the current time)")
		delay      = flag.Duration("delay", -1, "Pause between requests (overrides config)")
	)
	flag.Parse()

	config, err := common.LoadConfig(*configFile)
	if err != nil {
		panic(err)
	}
	if *rounds > 0 {
		config.Simulation.Rounds = *rounds
	}
	if *delay >= 0 {
		config.Simulation.Delay = *delay
	}
	if *seed != 0 {
		config.Simulation.Seed = *seed
	}
	if config.Simulation.Seed == 0 {
		config.Simulation.Seed = time.Now().UnixNano()
	}

	if err := common.InitLoggerFromConfig(&config.Log); err != nil {
		panic(err)
	}
	defer common.Sync()
	logger := common.ComponentLogger("simulate")

	handler := events.NewDefaultHandler(logger)
	handler.RegisterProcessor(events.TypeAll, events.LogSink(common.ComponentLogger("events")))
	if config.Events.Kafka.Enabled {
		sink := events.NewKafkaSink(config.Events.Kafka, logger)
		defer func() {
			if err := sink.Close(); err != nil {
				logger.Error("Error closing Kafka sink", zap.Error(err))
			}
		}()
		handler.RegisterProcessor(events.TypeAll, sink.Process)
	}

	svc, err := allocator.NewServiceFromConfig(config,
		allocator.WithLogger(common.ComponentLogger("allocator")),
		allocator.WithEventHandler(handler))
	if err != nil {
		logger.Fatal("Failed to initialize allocator", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting simulation",
		zap.Int("rounds", config.Simulation.Rounds),
		zap.Int64("seed", config.Simulation.Seed),
		zap.Duration("delay", config.Simulation.Delay),
		zap.Strings("resources", config.ResourceNames()),
		zap.Bool("initially_safe", svc.IsSafe()))

	sim := simulator.New(svc,
		simulator.NewRandomSource(config.Simulation.Seed),
		simulator.ConfigFromCommon(config.Simulation),
		common.ComponentLogger("simulator"))

	report, err := sim.Run(ctx)
	if err != nil {
		logger.Warn("Simulation interrupted", zap.Error(err))
	}
	for node, nr := range report.Nodes {
		logger.Info("Node summary",
			zap.String("node", svc.NodeName(node)),
			zap.Int("requests", nr.Requests),
			zap.Int("granted", nr.Granted),
			zap.Int("denied", nr.Denied),
			zap.Int("errors", nr.Errors))
	}
	logger.Info("Simulation finished",
		zap.Bool("safe", svc.IsSafe()),
		zap.Any("metrics", svc.Metrics().GetSnapshot()))
}
