package policy

import (
	"testing"
	"time"
)

func TestBuildWindowLaunchFloor(t *testing.T) {
	p := LaunchAwarePolicy()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		launch time.Time
		wantOK bool
	}{
		{
			name:   "launched 1 hour ago with 3h idle duration is too young",
			launch: now.Add(-1 * time.Hour),
			wantOK: false,
		},
		{
			name:   "launched exactly at the buffer boundary is old enough",
			launch: now.Add(-(3*time.Hour + 30*time.Minute)),
			wantOK: true,
		},
		{
			name:   "launched just inside the buffer is too young",
			launch: now.Add(-(3*time.Hour + 29*time.Minute)),
			wantOK: false,
		},
		{
			name:   "long-running instance is old enough",
			launch: now.Add(-72 * time.Hour),
			wantOK: true,
		},
		{
			name:   "zero launch time is insufficient",
			launch: time.Time{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := p.BuildWindow(tt.launch, now)
			if ok != tt.wantOK {
				t.Errorf("BuildWindow ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestBuildWindowAnchorsAtLaunch(t *testing.T) {
	p := LaunchAwarePolicy()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Old instance: window is the plain trailing idle duration.
	launch := now.Add(-48 * time.Hour)
	w, ok := p.BuildWindow(launch, now)
	if !ok {
		t.Fatal("expected window for old instance")
	}
	if want := now.Add(-3 * time.Hour); !w.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", w.Start, want)
	}
	if !w.End.Equal(now) {
		t.Errorf("End = %v, want %v", w.End, now)
	}
	if w.Period != 5*time.Minute {
		t.Errorf("Period = %v, want 5m", w.Period)
	}
}

func TestBuildWindowNeverStartsBeforeLaunch(t *testing.T) {
	// With a loosened runtime floor the lookback can reach past the launch
	// time; the window start must clamp to launch.
	p := LaunchAwarePolicy()
	p.LaunchBuffer = -90 * time.Minute

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	launch := now.Add(-2 * time.Hour)

	w, ok := p.BuildWindow(launch, now)
	if !ok {
		t.Fatal("expected window")
	}
	if !w.Start.Equal(launch) {
		t.Errorf("Start = %v, want launch time %v", w.Start, launch)
	}
}

func TestBuildWindowSimpleVariant(t *testing.T) {
	p := SimplePolicy()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// The simple variant never applies a launch floor, even for a
	// freshly launched instance.
	w, ok := p.BuildWindow(now.Add(-10*time.Minute), now)
	if !ok {
		t.Fatal("simple variant must never reject on launch time")
	}
	if want := now.Add(-3 * time.Hour); !w.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", w.Start, want)
	}
}
