package led

import (
	"log/slog"
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// board describes the LEDs of a known board. status names the LED that
// mirrors the node state.
type board struct {
	match  string
	leds   map[string]string
	status string
}

var boards = []board{
	{"Raspberry Pi", map[string]string{"act": "ACT", "pwr": "PWR"}, "act"},
	{"NanoPC-T6", map[string]string{"user": "usr_led", "system": "sys_led"}, "user"},
	{"Orange Pi", map[string]string{"blue": "blue_led", "green": "green_led"}, "green"},
}

// New detects the board and returns its controller together with the name
// of the status LED. Unknown boards get a no-op controller.
func New(logger *slog.Logger) (Controller, string) {
	return detect(detectBoard(), sysfsLEDPath, logger)
}

func detect(model, root string, logger *slog.Logger) (Controller, string) {
	for _, b := range boards {
		if strings.Contains(model, b.match) {
			logger.Info("Using sysfs status LED", "board_model", model, "led", b.status)
			return newSysfs(root, b.leds), b.status
		}
	}
	logger.Info("No status LED support detected", "board_model", model)
	return newNoop(logger), ""
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}
	return strings.TrimRight(string(data), "\x00")
}
