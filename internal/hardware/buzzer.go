package hardware

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"room-monitor/internal/logger"

	"github.com/jonboulle/clockwork"
)

// Note frequencies in Hz, fourth octave
const (
	DO = 262
	RE = 294
	MI = 330
	FA = 349
	SO = 392
	LA = 440
	SI = 494
)

const (
	minFrequency = 20
	maxFrequency = 20000
)

// PassiveBuzzer drives a passive piezo from a sysfs PWM channel
type PassiveBuzzer struct {
	logger  *logger.Logger
	clock   clockwork.Clock
	chipDir string
	dir     string
	channel int

	mu   sync.Mutex
	stop clockwork.Timer
	gen  uint64
}

// NewPassiveBuzzer uses channel of /sys/class/pwm/pwmchipN under root.
// An empty root uses PwmSysfsRoot.
func NewPassiveBuzzer(root string, chip, channel int, clock clockwork.Clock, l *logger.Logger) *PassiveBuzzer {
	if root == "" {
		root = PwmSysfsRoot
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if l == nil {
		l = logger.Nop()
	}
	chipDir := filepath.Join(root, fmt.Sprintf("pwmchip%d", chip))
	return &PassiveBuzzer{
		logger:  l,
		clock:   clock,
		chipDir: chipDir,
		dir:     filepath.Join(chipDir, fmt.Sprintf("pwm%d", channel)),
		channel: channel,
	}
}

// Init exports the PWM channel if needed and silences it
func (b *PassiveBuzzer) Init() error {
	if _, err := os.Stat(b.chipDir); err != nil {
		return fmt.Errorf("PWM chip not available: %w", err)
	}
	if _, err := os.Stat(b.dir); os.IsNotExist(err) {
		if err := writeSysfsInt(filepath.Join(b.chipDir, "export"), int64(b.channel)); err != nil {
			return fmt.Errorf("failed to export PWM channel %d: %w", b.channel, err)
		}
	}
	b.logger.Infof("Buzzer using %s", b.dir)
	return b.silence()
}

func (b *PassiveBuzzer) silence() error {
	return writeSysfs(filepath.Join(b.dir, "enable"), "0")
}

// Beep starts a tone and returns; the tone is stopped after duration.
// A new beep replaces one still sounding.
func (b *PassiveBuzzer) Beep(frequency int, duration time.Duration) error {
	if !InRange(frequency, minFrequency, maxFrequency) {
		return fmt.Errorf("frequency %d Hz out of range", frequency)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stop != nil {
		b.stop.Stop()
		b.stop = nil
	}

	period := int64(time.Second) / int64(frequency)
	// duty_cycle may never exceed period, so drop it before changing period
	if err := writeSysfsInt(filepath.Join(b.dir, "duty_cycle"), 0); err != nil {
		return err
	}
	if err := writeSysfsInt(filepath.Join(b.dir, "period"), period); err != nil {
		return err
	}
	if err := writeSysfsInt(filepath.Join(b.dir, "duty_cycle"), period/2); err != nil {
		return err
	}
	if err := writeSysfs(filepath.Join(b.dir, "enable"), "1"); err != nil {
		return err
	}

	b.gen++
	gen := b.gen
	b.stop = b.clock.AfterFunc(duration, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if gen != b.gen {
			return
		}
		b.stop = nil
		if err := b.silence(); err != nil {
			b.logger.Warnf("Failed to stop buzzer: %v", err)
		}
	})
	return nil
}

// Period reads back the configured PWM period in nanoseconds
func (b *PassiveBuzzer) Period() (int64, error) {
	return readSysfsInt(filepath.Join(b.dir, "period"))
}

// Close silences the buzzer
func (b *PassiveBuzzer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stop != nil {
		b.stop.Stop()
		b.stop = nil
	}
	b.gen++
	return b.silence()
}
