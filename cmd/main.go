package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/a-powelson/Ryu-Firewall/config"
	"github.com/a-powelson/Ryu-Firewall/controller"
	"github.com/a-powelson/Ryu-Firewall/discovery"
	"github.com/a-powelson/Ryu-Firewall/metrics"
	"github.com/a-powelson/Ryu-Firewall/protocol"
	"github.com/a-powelson/Ryu-Firewall/southbound"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func setupLogging(cfg config.LogConfig) error {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return fmt.Errorf("create log dir %s: %w", cfg.Dir, err)
	}

	fileLogger := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, "controller.log"),
		MaxSize:    100,  // MB
		MaxBackups: 7,    // Keep 7 old log files
		MaxAge:     30,   // Days
		Compress:   true, // Compress old log files
	}

	// Output to both file and stdout (for systemd)
	log.SetOutput(io.MultiWriter(os.Stdout, fileLogger))
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	log.Infof("Logging initialized: file=%s, level=%s, stdout=enabled", fileLogger.Filename, level)
	return nil
}

func configPath() string {
	path := flag.String("config", "", "path to controller_config.toml (env CONTROLLER_CONFIG)")
	flag.Parse()
	if *path != "" {
		return *path
	}
	if env := os.Getenv("CONTROLLER_CONFIG"); env != "" {
		return env
	}
	return "controller_config.toml"
}

func serveMetrics(addr string, reg *metrics.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server on %s failed: %v", addr, err)
		}
	}()
	log.Infof("metrics listening on %s", addr)
	return srv
}

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatalf("loading configuration failed, err:%v", err)
	}
	if err := setupLogging(cfg.Log); err != nil {
		log.Fatalf("logging init failed, err:%v", err)
	}

	reg := metrics.NewRegistry()
	sessions := southbound.NewSessionPool()

	var sb protocol.Southbound
	switch cfg.Southbound.Mode {
	case config.ModeLog:
		sb = southbound.LogSender{}
		log.Warnf("southbound in log mode, commands are not delivered")
	default:
		sender, err := southbound.NewSmuxSender(sessions, cfg.Southbound.Workers)
		if err != nil {
			log.Fatalf("creating command sender failed, err:%v", err)
		}
		defer sender.Close()
		sb = sender
	}

	ctrl, err := controller.NewFromConfig(sb, cfg.Controller.Policy, cfg.Controller.Algorithm, reg)
	if err != nil {
		log.Fatalf("creating controller failed, err:%v", err)
	}
	log.Infof("controller ready: policy=%s algorithm=%s", cfg.Controller.Policy, cfg.Controller.Algorithm)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsSrv := serveMetrics(cfg.Metrics.ListenAddr, reg)

	server := southbound.NewServer(sessions, ctrl.Handle, nil)
	go func() {
		if err := server.ListenAndServe(ctx, cfg.Southbound.ListenAddr); err != nil {
			log.Fatalf("southbound server failed, err:%v", err)
		}
	}()

	if cfg.Discovery.Enabled {
		watcher, err := discovery.NewWatcher(discovery.EtcdConfig{
			Endpoints:   cfg.Discovery.Endpoints,
			DialTimeout: cfg.Discovery.DialTimeout.Duration,
			Prefix:      cfg.Discovery.Prefix,
		}, func(snap protocol.TopologySnapshot) { ctrl.Handle(snap) })
		if err != nil {
			log.Fatalf("creating discovery watcher failed, err:%v", err)
		}
		defer watcher.Close()

		go func() {
			if err := watcher.Start(ctx); err != nil {
				log.Errorf("discovery watcher stopped: %v", err)
			}
		}()
	}

	log.Infof("controller init success")
	<-signalChan
	log.Infof("received signal, shutting down")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("metrics shutdown: %v", err)
	}
	server.Close()
	ctrl.Topology().LogTopology()
}
