package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"smartfarmer_console/internal/config"
	"smartfarmer_console/internal/console"
	"smartfarmer_console/internal/device"
	"smartfarmer_console/internal/diag"
	"smartfarmer_console/internal/handlers"
	"smartfarmer_console/internal/logger"
	"smartfarmer_console/internal/server"
	"smartfarmer_console/internal/service"
	"smartfarmer_console/internal/tasks"
)

const (
	hubBuffer       = 4
	shutdownTimeout = 10 * time.Second
)

// @title        SmartFarmer Console API
// @version      1.0
// @description  Monitoring and pump control for a SmartFarmer edge node.
// @BasePath     /
func main() {
	cfg, err := config.Load("configs")
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.LogLevel)

	// diagnostics: always logged, mirrored to MQTT when a broker is configured
	reporter, mqttClient := newReporter(cfg.MQTT, log)

	reg := tasks.NewRegistry(cfg.Console.RequestTTL)
	dev := device.NewClient(cfg.Device.BaseURL, cfg.Device.RequestTimeout)
	hub := service.NewHub(hubBuffer)
	c := console.New(dev, hub, reporter, reg, log.Named("console"), console.Options{
		PollInterval:          cfg.Console.PollInterval,
		StaleAfterFailures:    cfg.Console.StaleAfterFailures,
		DiscardStaleResponses: cfg.Console.DiscardStaleResponses,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	services := service.NewService(c, hub)
	apiHandler := handlers.NewHandler(services, log.Named("http"))

	srv := server.New(cfg.Port, apiHandler.InitRoutes())
	go func() {
		log.Infow("console_listening", "addr", srv.Addr(), "device", cfg.Device.BaseURL)
		if err := srv.Run(); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()

	waitForShutdown(cancel, c, srv, reg, mqttClient, log)
}

func newReporter(cfg config.MQTTConfig, log *logger.Logger) (diag.Reporter, mqtt.Client) {
	logRep := diag.NewLogReporter(log.Named("diag"))
	if cfg.Broker == "" {
		return logRep, nil
	}
	client, err := diag.Connect(diag.MQTTOptions{
		Broker:   cfg.Broker,
		ClientID: cfg.ClientID,
		Username: cfg.Username,
		Password: cfg.Password,
	}, log)
	if err != nil {
		log.Errorw("mqtt_diagnostics_disabled", "err", err)
		return logRep, nil
	}
	return diag.Multi{logRep, diag.NewMQTTReporter(client, cfg.Topic, byte(cfg.QoS), log)}, client
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, c *console.Console, srv *server.Server, reg *tasks.Registry, mqttClient mqtt.Client, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down console...")

	// no new toggles once the server is down
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	// stop the loop, then abandon outstanding device requests
	cancel()
	<-c.Done()
	if n := reg.Len(); n > 0 {
		log.Infow("abandoning_device_requests", "count", n)
		for _, t := range reg.Outstanding() {
			log.Debugw("device_request_abandoned", "request_id", t.ID, "kind", t.Kind, "age", time.Since(t.Started))
		}
	}
	if err := reg.Close(); err != nil {
		log.Warnw("task_registry_close_failed", "err", err)
	}
	diag.Disconnect(mqttClient)
}
