package reload

import (
	"errors"
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	notify := NotifyAvailable()
	auto := StrategyStat
	if notify {
		auto = StrategyWatchdog
	}

	tests := []struct {
		name     string
		strategy string
		want     string
		wantErr  error
	}{
		{"stat stays stat", StrategyStat, StrategyStat, nil},
		{"auto resolves by capability", StrategyAuto, auto, nil},
		{"empty string counts as auto", "", auto, nil},
		{"unknown name rejected", "poll", "", ErrUnknownStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.strategy)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve(%q) error = %v, want %v", tt.strategy, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.strategy, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.strategy, got, tt.want)
			}
		})
	}
}

// TestResolve_WatchdogExplicit verifies an explicit watchdog request either
// resolves or fails with the dedicated sentinel, depending on what the
// host supports.
func TestResolve_WatchdogExplicit(t *testing.T) {
	got, err := Resolve(StrategyWatchdog)
	if NotifyAvailable() {
		if err != nil || got != StrategyWatchdog {
			t.Fatalf("Resolve(watchdog) = %q, %v; want watchdog, nil", got, err)
		}
		return
	}
	if !errors.Is(err, ErrWatchdogUnavailable) {
		t.Fatalf("Resolve(watchdog) error = %v, want %v", err, ErrWatchdogUnavailable)
	}
}

func TestRunMain(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", false},
		{"TRUE", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("value "+tt.value, func(t *testing.T) {
			t.Setenv(EnvRunMain, tt.value)
			if got := RunMain(); got != tt.want {
				t.Errorf("RunMain() with %q = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestOptions_Defaults(t *testing.T) {
	var opts Options
	if got := opts.interval(); got != DefaultInterval {
		t.Errorf("interval() = %v, want %v", got, DefaultInterval)
	}
	if opts.logger() == nil {
		t.Error("logger() = nil, want the default logger")
	}

	opts.Interval = 250 * time.Millisecond
	if got := opts.interval(); got != 250*time.Millisecond {
		t.Errorf("interval() = %v, want 250ms", got)
	}
	opts.Interval = -1
	if got := opts.interval(); got != DefaultInterval {
		t.Errorf("interval() with negative value = %v, want %v", got, DefaultInterval)
	}
}

func TestNewDetector(t *testing.T) {
	d, err := NewDetector(StrategyStat, Options{Loop: &manualLoop{}})
	if err != nil {
		t.Fatalf("NewDetector(stat) error = %v", err)
	}
	if d.Name() != StrategyStat {
		t.Errorf("Name() = %q, want %q", d.Name(), StrategyStat)
	}

	if _, err := NewDetector("poll", Options{}); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("NewDetector(poll) error = %v, want %v", err, ErrUnknownStrategy)
	}
}

// TestStart_ChildMode verifies that with the run-main marker set Start
// brings up a detector and hands control back to the caller instead of
// supervising.
func TestStart_ChildMode(t *testing.T) {
	t.Setenv(EnvRunMain, "true")

	loop := &manualLoop{}
	rec := &exitRecorder{}
	logger, _ := newTestLogger()
	code, supervised, err := Start(StrategyStat, Options{
		Loop: loop,
		Log:  logger,
		Exit: rec.exit,
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if supervised {
		t.Error("Start() reported supervised in child mode")
	}
	if code != 0 {
		t.Errorf("Start() code = %d, want 0", code)
	}
	if len(loop.pending) != 1 {
		t.Errorf("detector scheduled %d ticks, want 1", len(loop.pending))
	}
}
