package led

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeLEDs creates a sysfs-like tree with one directory per LED.
func fakeLEDs(t *testing.T, dirs ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestNoopController(t *testing.T) {
	ctrl := newNoop(testLogger())

	if err := ctrl.Set("act", true, PatternSolid); err != nil {
		t.Errorf("Set() returned error: %v", err)
	}
	if names := ctrl.Available(); len(names) != 0 {
		t.Errorf("Available() = %v, want empty slice", names)
	}
	if patterns := ctrl.Patterns(); len(patterns) != 0 {
		t.Errorf("Patterns() = %v, want empty slice", patterns)
	}
}

func TestSysfsController_Set(t *testing.T) {
	tests := []struct {
		name        string
		enabled     bool
		pattern     string
		wantTrigger string
		wantValue   string
	}{
		{"solid", true, PatternSolid, "none", "1"},
		{"blink", true, PatternBlink, "timer", "1"},
		{"heartbeat", true, PatternHeartbeat, "heartbeat", "1"},
		{"off", false, PatternHeartbeat, "none", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := fakeLEDs(t, "ACT")
			ctrl := newSysfs(root, map[string]string{"act": "ACT"})

			if err := ctrl.Set("act", tt.enabled, tt.pattern); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if got := readFile(t, filepath.Join(root, "ACT", "trigger")); got != tt.wantTrigger {
				t.Errorf("trigger = %q, want %q", got, tt.wantTrigger)
			}
			if got := readFile(t, filepath.Join(root, "ACT", "brightness")); got != tt.wantValue {
				t.Errorf("brightness = %q, want %q", got, tt.wantValue)
			}
		})
	}
}

func TestSysfsController_SetKeepsTriggerWithoutPattern(t *testing.T) {
	root := fakeLEDs(t, "ACT")
	ctrl := newSysfs(root, map[string]string{"act": "ACT"})

	if err := ctrl.Set("act", true, ""); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "ACT", "trigger")); !os.IsNotExist(err) {
		t.Error("trigger written without a pattern")
	}
}

func TestSysfsController_Errors(t *testing.T) {
	root := fakeLEDs(t, "ACT")
	ctrl := newSysfs(root, map[string]string{"act": "ACT", "pwr": "PWR"})

	tests := []struct {
		name    string
		led     string
		pattern string
	}{
		{"unknown led", "user", PatternSolid},
		{"missing directory", "pwr", PatternSolid},
		{"unknown pattern", "act", "disco"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ctrl.Set(tt.led, true, tt.pattern); err == nil {
				t.Error("Set() error = nil, want error")
			}
		})
	}
}

func TestSysfsController_Available(t *testing.T) {
	ctrl := newSysfs(sysfsLEDPath, map[string]string{"pwr": "PWR", "act": "ACT"})
	if got, want := ctrl.Available(), []string{"act", "pwr"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Available() = %v, want %v", got, want)
	}
	if got := ctrl.Patterns(); len(got) != 3 {
		t.Errorf("Patterns() = %v, want 3 patterns", got)
	}
}
