package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	adactor "github.com/berfenger/sunspec2mqtt/internal/adapter/actor"
	"github.com/berfenger/sunspec2mqtt/internal/config"
	"github.com/berfenger/sunspec2mqtt/internal/core/actor"
	"github.com/berfenger/sunspec2mqtt/internal/scheduler"
	"github.com/berfenger/sunspec2mqtt/internal/server"
	"github.com/berfenger/sunspec2mqtt/internal/util/actorutil"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	slog.Info("Using", "config", cfg.Redacted())

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	// init SunSpec actor provider
	sunspecProv, err := sunspecActorProvider(cfg, logger)
	if err != nil {
		panic(err)
	}

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, sunspecProv, mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		return
	}

	// poll scheduler
	var poller *scheduler.PollScheduler
	if cfg.Poll.Enabled {
		poller, err = scheduler.NewPollScheduler(time.Duration(cfg.Poll.IntervalMillis)*time.Millisecond, ctx, pid, logger)
		if err != nil {
			panic(err)
		}
		if err := poller.Start(context.Background()); err != nil {
			panic(err)
		}
	}

	server := server.NewServer(*cfg, ctx, pid)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	if poller != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		poller.Stop(stopCtx)
		cancel()
	}
	ctx.Stop(pid)
	as.Shutdown()
}

func newRegisterReader(cfg config.DeviceConfig, logger *zap.Logger) (sunspec_modbus.RegisterReaderCloser, error) {
	timeout := time.Duration(cfg.TimeoutMillis) * time.Millisecond
	switch cfg.Driver {
	case config.DRIVER_MODBUS:
		url := sunspec_modbus.TCPURL(cfg.Host, cfg.Port)
		if cfg.SerialURL != "" {
			url = "rtu://" + cfg.SerialURL
		}
		client, err := sunspec_modbus.CreateModbusClient(sunspec_modbus.ModbusClientConfig{
			URL:      url,
			BaudRate: cfg.BaudRate,
			UnitId:   cfg.UnitId,
			Timeout:  timeout,
		}, logger, nil)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.DRIVER_GOBURROW:
		var address string
		if cfg.SerialURL == "" {
			address = net.JoinHostPort(cfg.Host, strconv.FormatUint(uint64(cfg.Port), 10))
		}
		client, err := sunspec_modbus.CreateGoburrowClient(sunspec_modbus.GoburrowClientConfig{
			Address:    address,
			SerialPort: cfg.SerialURL,
			BaudRate:   int(cfg.BaudRate),
			UnitId:     cfg.UnitId,
			Timeout:    timeout,
		}, logger, nil)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.DRIVER_TEST:
		return sunspec_modbus.CreateTestRegisterReader(), nil
	}
	return nil, fmt.Errorf("unknown device driver %q", cfg.Driver)
}

func sunspecActorProvider(cfg *config.Config, logger *zap.Logger) (actor.SunSpecActorProvider, error) {

	reader, err := newRegisterReader(cfg.Device, logger)
	if err != nil {
		return nil, err
	}

	return func(es *eventstream.EventStream) *adactor.SunSpecActor {
		return adactor.NewSunSpecActor(cfg.Device, reader, es, logger)
	}, nil
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}
