// Command devicesim serves a simulated SmartFarmer node on the local machine.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"smartfarmer_console/internal/devicesim"
	"smartfarmer_console/internal/logger"
	"smartfarmer_console/internal/server"
)

func main() {
	port := flag.String("port", "8081", "listen port")
	tick := flag.Duration("tick", time.Second, "simulation step")
	latency := flag.Duration("latency", 0, "delay added to every request")
	failRate := flag.Float64("fail-rate", 0, "share of requests answered with 503 (0..1)")
	level := flag.String("log-level", logger.InfoLevel, "log level")
	flag.Parse()

	log := logger.Get(*level).Named("devicesim")
	gin.SetMode(gin.ReleaseMode)

	sim := devicesim.NewSimulator(log)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go sim.Run(ctx, *tick)

	srv := server.New(*port, sim.InitRoutes(devicesim.Faults{Latency: *latency, FailRate: *failRate}))
	go func() {
		log.Infow("devicesim_listening", "addr", srv.Addr(), "fail_rate", *failRate, "latency", *latency)
		if err := srv.Run(); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
