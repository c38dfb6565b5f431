package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"room-monitor/internal/hardware"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is read from the environment, optionally seeded from a .env file
type Config struct {
	Room       int           `env:"ROOM_NUMBER" envDefault:"6106"`
	Threshold  int           `env:"CAPACITY_THRESHOLD" envDefault:"3"`
	TickPeriod time.Duration `env:"TICK_PERIOD" envDefault:"100ms"`
	LogLevel   string        `env:"LOG_LEVEL" envDefault:"info"`
	Debug      bool          `env:"DEBUG"`

	GPIOChip        string        `env:"GPIO_CHIP" envDefault:"gpiochip0"`
	SensorPin       int           `env:"SENSOR_PIN" envDefault:"28"`
	SensorActiveLow bool          `env:"SENSOR_ACTIVE_LOW" envDefault:"true"`
	SensorCooldown  time.Duration `env:"SENSOR_COOLDOWN" envDefault:"2s"`
	Button1Pin      int           `env:"BUTTON1_PIN" envDefault:"15"`
	Button2Pin      int           `env:"BUTTON2_PIN" envDefault:"2"`
	ButtonDebounce  time.Duration `env:"BUTTON_DEBOUNCE" envDefault:"50ms"`
	LedGreenPin     int           `env:"LED_GREEN_PIN" envDefault:"5"`
	LedYellowPin    int           `env:"LED_YELLOW_PIN" envDefault:"9"`
	LedRedPin       int           `env:"LED_RED_PIN" envDefault:"13"`

	BuzzerPWMChip    int           `env:"BUZZER_PWM_CHIP" envDefault:"0"`
	BuzzerPWMChannel int           `env:"BUZZER_PWM_CHANNEL" envDefault:"0"`
	BeepDuration     time.Duration `env:"BEEP_DURATION" envDefault:"150ms"`

	LCDBus     int `env:"LCD_I2C_BUS" envDefault:"1"`
	LCDAddress int `env:"LCD_I2C_ADDRESS" envDefault:"39"` // 0x27

	// Empty disables the local Redis mirror
	RedisAddr  string `env:"REDIS_ADDR"`
	InstanceID string `env:"INSTANCE_ID"`
}

// Load reads .env (if present) and then the process environment
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return finish(cfg)
}

// LoadFrom parses cfg from the given variables only
func LoadFrom(environment map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return finish(cfg)
}

func finish(cfg Config) (Config, error) {
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Threshold < 0 {
		errs = append(errs, fmt.Errorf("capacity threshold %d is negative", c.Threshold))
	}
	if c.TickPeriod <= 0 {
		errs = append(errs, fmt.Errorf("tick period %v must be positive", c.TickPeriod))
	}
	if c.ButtonDebounce < 0 || c.SensorCooldown < 0 || c.BeepDuration < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.LCDAddress < 0x03 || c.LCDAddress > 0x77 {
		errs = append(errs, fmt.Errorf("I2C address 0x%02x out of range", c.LCDAddress))
	}
	if err := c.Pins().Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// Pins is the GPIO map the configuration describes. Buttons are wired to
// ground with the internal pull-up enabled.
func (c Config) Pins() hardware.Pins {
	return hardware.Pins{
		Chip: c.GPIOChip,
		Inputs: map[string]hardware.InputLine{
			hardware.ChannelSensor:          {Offset: c.SensorPin, ActiveLow: c.SensorActiveLow},
			hardware.ChannelButtonDischarge: {Offset: c.Button1Pin, ActiveLow: true, PullUp: true},
			hardware.ChannelButtonReset:     {Offset: c.Button2Pin, ActiveLow: true, PullUp: true},
		},
		Outputs: map[string]int{
			hardware.ChannelLedGreen:  c.LedGreenPin,
			hardware.ChannelLedYellow: c.LedYellowPin,
			hardware.ChannelLedRed:    c.LedRedPin,
		},
	}
}
