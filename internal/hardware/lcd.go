package hardware

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const i2cSlave = 0x0703 // I2C_SLAVE ioctl

// PCF8574 backpack wiring
const (
	lcdRS        = 0x01
	lcdEnable    = 0x04
	lcdBacklight = 0x08
)

// HD44780 instructions
const (
	lcdClear        = 0x01
	lcdEntryMode    = 0x06 // increment, no shift
	lcdDisplayOn    = 0x0C // display on, cursor off, blink off
	lcdFunctionSet  = 0x28 // 4-bit bus, 2 lines, 5x8 font
	lcdSetDDRAMAddr = 0x80
)

var lcdRowOffsets = [...]byte{0x00, 0x40, 0x14, 0x54}

// i2cDevice is an I2C character device bound to one slave address
type i2cDevice struct {
	fd int
}

func openI2C(bus, addr int) (*i2cDevice, error) {
	path := fmt.Sprintf(I2CDevFormat, bus)
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := unix.IoctlSetInt(fd, i2cSlave, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to select I2C address 0x%02x: %w", addr, err)
	}
	return &i2cDevice{fd: fd}, nil
}

func (d *i2cDevice) Write(p []byte) (int, error) {
	return unix.Write(d.fd, p)
}

func (d *i2cDevice) Close() error {
	return unix.Close(d.fd)
}

// LCD is an HD44780 character display behind a PCF8574 I2C expander
type LCD struct {
	bus       io.WriteCloser
	cols      int
	rows      int
	backlight byte
	sleep     func(time.Duration)
	mu        sync.Mutex
}

// OpenLCD opens /dev/i2c-<bus> and initialises the display at addr
func OpenLCD(bus, addr int) (*LCD, error) {
	dev, err := openI2C(bus, addr)
	if err != nil {
		return nil, err
	}
	lcd := NewLCD(dev, LCDColumns, LCDRows)
	if err := lcd.Init(); err != nil {
		dev.Close()
		return nil, err
	}
	return lcd, nil
}

// NewLCD wraps an already addressed bus. Call Init before use.
func NewLCD(bus io.WriteCloser, cols, rows int) *LCD {
	if rows > len(lcdRowOffsets) {
		rows = len(lcdRowOffsets)
	}
	return &LCD{
		bus:       bus,
		cols:      cols,
		rows:      rows,
		backlight: lcdBacklight,
		sleep:     time.Sleep,
	}
}

func (l *LCD) write4(nibble byte) error {
	data := nibble | l.backlight
	_, err := l.bus.Write([]byte{data | lcdEnable, data})
	return err
}

func (l *LCD) send(value, mode byte) error {
	if err := l.write4(value&0xF0 | mode); err != nil {
		return err
	}
	return l.write4(value<<4&0xF0 | mode)
}

func (l *LCD) command(cmd byte) error {
	return l.send(cmd, 0)
}

// Init runs the 4-bit initialisation sequence
func (l *LCD) Init() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sleep(50 * time.Millisecond)
	for _, d := range []time.Duration{5 * time.Millisecond, time.Millisecond, time.Millisecond} {
		if err := l.write4(0x30); err != nil {
			return fmt.Errorf("lcd init: %w", err)
		}
		l.sleep(d)
	}
	if err := l.write4(0x20); err != nil {
		return fmt.Errorf("lcd init: %w", err)
	}

	for _, cmd := range []byte{lcdFunctionSet, lcdDisplayOn, lcdEntryMode} {
		if err := l.command(cmd); err != nil {
			return fmt.Errorf("lcd init: %w", err)
		}
	}
	return l.clearLocked()
}

func (l *LCD) clearLocked() error {
	if err := l.command(lcdClear); err != nil {
		return fmt.Errorf("lcd clear: %w", err)
	}
	l.sleep(2 * time.Millisecond)
	return nil
}

// Clear blanks the display
func (l *LCD) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clearLocked()
}

// ShowText replaces the display contents, wrapping text across the rows
func (l *LCD) ShowText(text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.clearLocked(); err != nil {
		return err
	}
	for row, line := range layoutText(text, l.cols, l.rows) {
		if err := l.command(lcdSetDDRAMAddr | lcdRowOffsets[row]); err != nil {
			return fmt.Errorf("lcd cursor: %w", err)
		}
		for i := 0; i < len(line); i++ {
			if err := l.send(line[i], lcdRS); err != nil {
				return fmt.Errorf("lcd write: %w", err)
			}
		}
	}
	return nil
}

// Close blanks the display, switches the backlight off and releases the bus
func (l *LCD) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	errClear := l.clearLocked()
	l.backlight = 0
	_, errBl := l.bus.Write([]byte{0})
	return errors.Join(errClear, errBl, l.bus.Close())
}

// layoutText splits text into at most rows lines of at most cols printable
// ASCII characters. Explicit newlines start a new row.
func layoutText(text string, cols, rows int) []string {
	if cols <= 0 || rows <= 0 {
		return nil
	}

	var lines []string
	for _, segment := range strings.Split(text, "\n") {
		b := make([]byte, 0, len(segment))
		for _, r := range segment {
			if r < 0x20 || r > 0x7E {
				r = '?'
			}
			b = append(b, byte(r))
		}
		if len(b) == 0 {
			lines = append(lines, "")
		}
		for len(b) > 0 {
			n := min(cols, len(b))
			lines = append(lines, string(b[:n]))
			b = b[n:]
		}
		if len(lines) >= rows {
			break
		}
	}
	if len(lines) > rows {
		lines = lines[:rows]
	}
	return lines
}
