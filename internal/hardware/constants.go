package hardware

const (
	Consumer    = "room-monitor"
	DefaultChip = "gpiochip0"

	PwmSysfsRoot = "/sys/class/pwm"
	I2CDevFormat = "/dev/i2c-%d"

	DefaultLCDAddress = 0x27
	LCDColumns        = 16
	LCDRows           = 2
)

// Channel names
const (
	ChannelSensor          = "sensor"
	ChannelButtonDischarge = "button1"
	ChannelButtonReset     = "button2"
	ChannelLedGreen        = "led_green"
	ChannelLedYellow       = "led_yellow"
	ChannelLedRed          = "led_red"
)

// DefaultInputs are the line offsets of the wiring the monitor was built on
var DefaultInputs = map[string]InputLine{
	ChannelSensor:          {Offset: 28, ActiveLow: true},
	ChannelButtonDischarge: {Offset: 15, ActiveLow: true, PullUp: true},
	ChannelButtonReset:     {Offset: 2, ActiveLow: true, PullUp: true},
}

var DefaultOutputs = map[string]int{
	ChannelLedGreen:  5,
	ChannelLedYellow: 9,
	ChannelLedRed:    13,
}
