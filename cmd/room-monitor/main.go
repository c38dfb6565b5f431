package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"room-monitor/internal/config"
	"room-monitor/internal/core"
	"room-monitor/internal/hardware"
	"room-monitor/internal/logger"
	"room-monitor/internal/messaging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	defaultLevel, ok := logger.ParseLevel(cfg.LogLevel)
	if !ok {
		log.Printf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
	}

	// Service log level
	var serviceLogLevel int
	flag.IntVar(&serviceLogLevel, "log", int(defaultLevel), "Service log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Trace every state transition")
	flag.IntVar(&cfg.Room, "room", cfg.Room, "Room number")
	flag.IntVar(&cfg.Threshold, "threshold", cfg.Threshold, "Capacity threshold")

	// One-shot client mode
	command := flag.String("command", "", "Send a command (admit, discharge, reset) to a room monitor and exit")
	target := flag.Int("target", 0, "Room to send -command to (defaults to -room)")

	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create standard logger with appropriate format
	var stdLogger *log.Logger
	if os.Getenv("INVOCATION_ID") != "" {
		// Running under systemd, use minimal format
		stdLogger = log.New(os.Stdout, "", 0)
	} else {
		// Running interactively, use timestamps
		stdLogger = log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds|log.Lmsgprefix)
	}

	// Create leveled logger
	l := logger.NewLogger(stdLogger, logger.LogLevel(serviceLogLevel))

	if *command != "" {
		room := *target
		if room == 0 {
			room = cfg.Room
		}
		if err := sendCommand(cfg, room, *command, l); err != nil {
			l.Fatalf("Failed to send command: %v", err)
		}
		return
	}

	l.Infof("Starting room monitor (instance %s)...", cfg.InstanceID)

	io := hardware.NewLinuxHardwareIO(cfg.Pins(), l.WithTag("gpio"))

	var buzzer core.Buzzer
	pwm := hardware.NewPassiveBuzzer(hardware.PwmSysfsRoot, cfg.BuzzerPWMChip, cfg.BuzzerPWMChannel, clockwork.NewRealClock(), l.WithTag("buzzer"))
	if err := pwm.Init(); err != nil {
		l.Warnf("Buzzer unavailable: %v", err)
	} else {
		buzzer = pwm
	}

	var display core.Display
	if lcd, err := hardware.OpenLCD(cfg.LCDBus, cfg.LCDAddress); err != nil {
		l.Warnf("LCD unavailable: %v", err)
	} else {
		display = lcd
	}

	var redis core.MessagingClient
	if cfg.RedisAddr != "" {
		redis = messaging.NewRedisClient(cfg.RedisAddr, cfg.Room, l.WithTag("redis"), messaging.Callbacks{})
	}

	system, err := core.NewRoomSystem(core.Options{
		Room:           cfg.Room,
		Threshold:      cfg.Threshold,
		Instance:       cfg.InstanceID,
		TickPeriod:     cfg.TickPeriod,
		SensorCooldown: cfg.SensorCooldown,
		ButtonDebounce: cfg.ButtonDebounce,
		BeepDuration:   cfg.BeepDuration,
		Debug:          cfg.Debug,
	}, io, redis, buzzer, display, l)
	if err != nil {
		l.Fatalf("Failed to create system: %v", err)
	}

	if err := system.Start(); err != nil {
		l.Fatalf("Failed to start system: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- system.Run(ctx) }()

	l.Infof("System started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		l.Infof("Received signal %v, shutting down...", sig)
	case err := <-done:
		if err != nil {
			l.Errorf("State model stopped: %v", err)
		}
	}
	cancel()
	system.Shutdown()
	l.Infof("Shutdown complete")
}

func sendCommand(cfg config.Config, room int, value string, l *logger.Logger) error {
	cmd, err := messaging.ParseCommand(value)
	if err != nil {
		return err
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "127.0.0.1:6379"
	}

	client := messaging.NewRedisClient(cfg.RedisAddr, room, l.WithTag("redis"), messaging.Callbacks{})
	defer client.Close()
	return client.SendCommand(room, cmd)
}
