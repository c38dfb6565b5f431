package config

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Room != 6106 || cfg.Threshold != 3 {
		t.Errorf("unexpected room defaults: %+v", cfg)
	}
	if cfg.TickPeriod != 100*time.Millisecond {
		t.Errorf("TickPeriod = %v", cfg.TickPeriod)
	}
	if cfg.SensorPin != 28 || !cfg.SensorActiveLow {
		t.Errorf("unexpected sensor defaults: pin=%d activeLow=%v", cfg.SensorPin, cfg.SensorActiveLow)
	}
	if cfg.LCDAddress != 0x27 {
		t.Errorf("LCDAddress = 0x%02x", cfg.LCDAddress)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("Redis should be disabled by default, got %q", cfg.RedisAddr)
	}
	if _, err := uuid.Parse(cfg.InstanceID); err != nil {
		t.Errorf("InstanceID %q is not a UUID: %v", cfg.InstanceID, err)
	}
}

func TestOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"ROOM_NUMBER":        "12",
		"CAPACITY_THRESHOLD": "5",
		"TICK_PERIOD":        "250ms",
		"SENSOR_ACTIVE_LOW":  "false",
		"REDIS_ADDR":         "127.0.0.1:6379",
		"INSTANCE_ID":        "ward-a",
	})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Room != 12 || cfg.Threshold != 5 || cfg.TickPeriod != 250*time.Millisecond {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.SensorActiveLow {
		t.Error("SENSOR_ACTIVE_LOW=false ignored")
	}
	if cfg.InstanceID != "ward-a" || cfg.RedisAddr != "127.0.0.1:6379" {
		t.Errorf("unexpected bus settings: %+v", cfg)
	}

	pins := cfg.Pins()
	if pins.Inputs["sensor"].ActiveLow {
		t.Error("sensor pin should follow SENSOR_ACTIVE_LOW")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"negative threshold", map[string]string{"CAPACITY_THRESHOLD": "-1"}},
		{"zero tick", map[string]string{"TICK_PERIOD": "0s"}},
		{"shared pin", map[string]string{"LED_RED_PIN": "28"}},
		{"bad i2c address", map[string]string{"LCD_I2C_ADDRESS": "200"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.env)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	_, err := LoadFrom(map[string]string{"CAPACITY_THRESHOLD": "many"})
	if err == nil {
		t.Fatal("expected parse error")
	}
	if errors.Is(err, ErrInvalidConfig) {
		t.Fatal("parse errors are not validation errors")
	}
}
