package main

import (
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"banker/internal/allocator"
	"banker/internal/common"
	"banker/internal/events"
	"banker/internal/server"

	"go.uber.org/zap"
)

func main() {
	var (
		configFile  = flag.String("config", "configs/banker.yaml", "Configuration file path")
		development = flag.Bool("dev", false, "Enable development mode")
	)
	flag.Parse()

	// 加载配置文件
	config, err := common.LoadConfig(*configFile)
	if err != nil {
		panic(err)
	}
	if *development {
		config.Log.Development = true
	}

	// 初始化日志系统
	if err := common.InitLoggerFromConfig(&config.Log); err != nil {
		panic(err)
	}
	defer common.Sync()

	logger := common.ComponentLogger("bankerd")
	logger.Info("Starting allocator daemon",
		zap.String("config_file", *configFile),
		zap.String("cluster_name", config.Cluster.Name),
		zap.Int("port", config.Server.Port),
		zap.Int("nodes", len(config.Nodes)),
		zap.Strings("resources", config.ResourceNames()),
		zap.Int64s("total", config.Resources.Total))

	handler := events.NewDefaultHandler(logger)
	if config.Events.Log {
		handler.RegisterProcessor(events.TypeAll, events.LogSink(common.ComponentLogger("events")))
	}
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
	logger.Info("Allocation state initialized", zap.Bool("safe", svc.IsSafe()))

	srv := server.NewHTTPServer(svc, config.Server, common.ComponentLogger("http"))

	// 优雅关闭处理
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Received shutdown signal")
		if err := srv.Stop(); err != nil {
			logger.Error("Error stopping HTTP server", zap.Error(err))
		}
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP server failed", zap.Error(err))
		return
	}

	logger.Info("Allocator daemon exited gracefully")
}
