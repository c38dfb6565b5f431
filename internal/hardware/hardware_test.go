package hardware

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-monitor/internal/types"
)

func TestPinsValidate(t *testing.T) {
	require.NoError(t, DefaultPins().Validate())

	pins := DefaultPins()
	pins.Outputs[ChannelLedRed] = 28
	err := pins.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 28")

	pins = DefaultPins()
	pins.Inputs[ChannelSensor] = InputLine{Offset: -1}
	require.Error(t, pins.Validate())
}

func TestDefaultPinsAreCopies(t *testing.T) {
	pins := DefaultPins()
	pins.Outputs[ChannelLedGreen] = 99
	assert.Equal(t, 5, DefaultOutputs[ChannelLedGreen])
}

func TestOutputOptions(t *testing.T) {
	// requested low with the service consumer, nothing else
	assert.Len(t, outputOptions(), 2)
}

func TestInputOptions(t *testing.T) {
	assert.Len(t, inputOptions(InputLine{Offset: 1}), 2)
	assert.Len(t, inputOptions(InputLine{Offset: 1, ActiveLow: true, PullUp: true, Debounce: time.Millisecond}), 5)
}

type recordingOutputs struct {
	mu     sync.Mutex
	values map[string]bool
	writes []string
	fail   string
}

func newRecordingOutputs() *recordingOutputs {
	return &recordingOutputs{values: make(map[string]bool)}
}

func (r *recordingOutputs) WriteDigitalOutput(channel string, value bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if channel == r.fail {
		return errors.New("line busy")
	}
	r.values[channel] = value
	r.writes = append(r.writes, channel)
	return nil
}

func TestLedBankShowsOneLevel(t *testing.T) {
	out := newRecordingOutputs()
	bank := NewLedBank(out)

	require.NoError(t, bank.Show(types.LevelMedium))
	assert.Equal(t, map[string]bool{
		ChannelLedGreen:  false,
		ChannelLedYellow: true,
		ChannelLedRed:    false,
	}, out.values)
	assert.Equal(t, ChannelLedYellow, out.writes[len(out.writes)-1], "lit LED is written last")

	require.NoError(t, bank.Show(types.LevelHigh))
	assert.True(t, out.values[ChannelLedRed])
	assert.False(t, out.values[ChannelLedYellow])

	require.NoError(t, bank.Off())
	for ch, on := range out.values {
		assert.False(t, on, ch)
	}

	require.Error(t, bank.Show(types.CapacityLevel("unknown")))
}

func TestLedBankReportsWriteErrors(t *testing.T) {
	out := newRecordingOutputs()
	out.fail = ChannelLedRed
	bank := NewLedBank(out)

	require.Error(t, bank.Show(types.LevelLow))
	assert.True(t, out.values[ChannelLedGreen], "other LEDs are still driven")
}

func newPwmTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pwmchip0", "pwm1"), 0o755))
	return root
}

func readAttr(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "pwmchip0", "pwm1", name))
	require.NoError(t, err)
	return string(data)
}

func TestBuzzerBeep(t *testing.T) {
	root := newPwmTree(t)
	clock := clockwork.NewFakeClock()
	b := NewPassiveBuzzer(root, 0, 1, clock, nil)
	require.NoError(t, b.Init())
	assert.Equal(t, "0", readAttr(t, root, "enable"))

	require.NoError(t, b.Beep(LA, 150*time.Millisecond))
	assert.Equal(t, "1", readAttr(t, root, "enable"))
	assert.Equal(t, "2272727", readAttr(t, root, "period"))
	assert.Equal(t, "1136363", readAttr(t, root, "duty_cycle"))

	period, err := b.Period()
	require.NoError(t, err)
	assert.Equal(t, int64(2272727), period)

	clock.Advance(150 * time.Millisecond)
	assert.Eventually(t, func() bool {
		return readAttr(t, root, "enable") == "0"
	}, time.Second, 5*time.Millisecond)
}

func TestBuzzerRejectsInaudibleFrequency(t *testing.T) {
	root := newPwmTree(t)
	b := NewPassiveBuzzer(root, 0, 1, clockwork.NewFakeClock(), nil)
	require.NoError(t, b.Init())

	require.Error(t, b.Beep(5, time.Second))
	assert.Equal(t, "0", readAttr(t, root, "enable"))
}

func TestBuzzerExportsMissingChannel(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pwmchip0"), 0o755))
	b := NewPassiveBuzzer(root, 0, 1, clockwork.NewFakeClock(), nil)

	// export is written, but nothing creates pwm1 outside the kernel
	require.Error(t, b.Init())
	data, err := os.ReadFile(filepath.Join(root, "pwmchip0", "export"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestBuzzerMissingChip(t *testing.T) {
	b := NewPassiveBuzzer(t.TempDir(), 3, 0, nil, nil)
	require.Error(t, b.Init())
}

type recordingBus struct {
	bytes.Buffer
	closed bool
}

func (b *recordingBus) Close() error {
	b.closed = true
	return nil
}

func newTestLCD() (*LCD, *recordingBus) {
	bus := &recordingBus{}
	lcd := NewLCD(bus, LCDColumns, LCDRows)
	lcd.sleep = func(time.Duration) {}
	return lcd, bus
}

// decodeData recovers the characters written with RS set
func decodeData(raw []byte) string {
	var sb strings.Builder
	var high byte
	nibble := 0
	for i := 0; i+1 < len(raw); i += 2 {
		b := raw[i+1]
		if b&lcdRS == 0 {
			nibble = 0
			continue
		}
		if nibble == 0 {
			high = b & 0xF0
			nibble = 1
			continue
		}
		sb.WriteByte(high | b>>4)
		nibble = 0
	}
	return sb.String()
}

func TestLCDInitSequence(t *testing.T) {
	lcd, bus := newTestLCD()
	require.NoError(t, lcd.Init())

	raw := bus.Bytes()
	require.True(t, len(raw) >= 8)
	// first nibble is 0x3 strobed with enable and backlight on
	assert.Equal(t, []byte{0x30 | lcdBacklight | lcdEnable, 0x30 | lcdBacklight}, raw[:2])
	// every write is an enable strobe followed by the latched value
	for i := 0; i+1 < len(raw); i += 2 {
		assert.Equal(t, raw[i]&^lcdEnable, raw[i+1])
		assert.NotZero(t, raw[i]&lcdEnable)
	}
}

func TestLCDShowText(t *testing.T) {
	lcd, bus := newTestLCD()
	require.NoError(t, lcd.ShowText("Patient Count: 3 State: 0"))
	assert.Equal(t, "Patient Count: 3 State: 0", decodeData(bus.Bytes()))

	require.NoError(t, lcd.Close())
	assert.True(t, bus.closed)
}

func TestLayoutText(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"", []string{""}},
		{"short", []string{"short"}},
		{"Patient Count: 12", []string{"Patient Count: 1", "2"}},
		{"a\nb", []string{"a", "b"}},
		{"0123456789abcdefXYZ0123456789abcdefOVERFLOW", []string{"0123456789abcdef", "XYZ0123456789abc"}},
		{"héllo", []string{"h?llo"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, layoutText(tt.text, 16, 2), tt.text)
	}
	assert.Nil(t, layoutText("x", 0, 2))
}
