package audio_test

import (
	"errors"
	"testing"

	"github.com/edumarques81/songdle/internal/audio"
)

type fakeBackend struct {
	played  []string
	pauses  int
	playErr error
	ended   func()
}

func (f *fakeBackend) Play(source string) error {
	if f.playErr != nil {
		return f.playErr
	}
	f.played = append(f.played, source)
	return nil
}

func (f *fakeBackend) Pause() error {
	f.pauses++
	return nil
}

func (f *fakeBackend) OnEnded(fn func()) { f.ended = fn }

func TestNewController(t *testing.T) {
	ctrl := audio.NewController(&fakeBackend{})
	status := ctrl.Status()

	if status.Playing {
		t.Error("expected playing to be false initially")
	}
	if status.Source != "" {
		t.Error("expected no source initially")
	}
}

func TestPlayPause(t *testing.T) {
	backend := &fakeBackend{}
	ctrl := audio.NewController(backend)

	if err := ctrl.Play("/audio/a.mp3"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if s := ctrl.Status(); !s.Playing || s.Source != "/audio/a.mp3" {
		t.Errorf("unexpected status after play: %+v", s)
	}

	ctrl.Pause()
	ctrl.Pause()
	if backend.pauses != 1 {
		t.Errorf("expected a single backend pause, got %d", backend.pauses)
	}
	if s := ctrl.Status(); s.Playing || s.Source != "/audio/a.mp3" {
		t.Errorf("pause should keep the source, got %+v", s)
	}
}

func TestPlayBackendFailure(t *testing.T) {
	ctrl := audio.NewController(&fakeBackend{playErr: errors.New("blocked")})
	if err := ctrl.Play("/audio/a.mp3"); err == nil {
		t.Error("expected error")
	}
	if ctrl.Status().Playing {
		t.Error("failed play must not mark the controller as playing")
	}
}

func TestPlayWithoutSource(t *testing.T) {
	backend := &fakeBackend{}
	ctrl := audio.NewController(backend)

	if err := ctrl.Play(""); err != nil {
		t.Fatalf("empty source should be skipped, got %v", err)
	}
	if len(backend.played) != 0 || ctrl.Status().Playing {
		t.Errorf("nothing should reach the backend: played=%v status=%+v", backend.played, ctrl.Status())
	}
}

func TestEndedCallback(t *testing.T) {
	backend := &fakeBackend{}
	ctrl := audio.NewController(backend)

	calls := 0
	ctrl.OnEnded(func() { calls++ })

	// Not playing: nothing to end.
	backend.ended()
	if calls != 0 {
		t.Errorf("ended while idle should not fire, got %d", calls)
	}

	ctrl.Play("/audio/a.mp3")
	backend.ended()
	if calls != 1 || ctrl.Status().Playing {
		t.Errorf("expected one ended call and stopped status, got %d %+v", calls, ctrl.Status())
	}
}

func TestSync(t *testing.T) {
	tests := []struct {
		name        string
		startPlay   bool
		state       string
		wantChanged bool
		wantPlaying bool
		wantEnded   int
	}{
		{"idle stays idle", false, "stop", false, false, 0},
		{"external start", false, "play", true, true, 0},
		{"playing stays playing", true, "play", false, true, 0},
		{"stop while playing ends", true, "stop", true, false, 1},
		{"pause while playing ends", true, "pause", true, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := audio.NewController(&fakeBackend{})
			ended := 0
			ctrl.OnEnded(func() { ended++ })
			if tt.startPlay {
				ctrl.Play("/audio/a.mp3")
			}

			if got := ctrl.Sync(tt.state); got != tt.wantChanged {
				t.Errorf("Sync(%q) changed = %v, want %v", tt.state, got, tt.wantChanged)
			}
			if ctrl.Status().Playing != tt.wantPlaying {
				t.Errorf("playing = %v, want %v", ctrl.Status().Playing, tt.wantPlaying)
			}
			if ended != tt.wantEnded {
				t.Errorf("ended calls = %d, want %d", ended, tt.wantEnded)
			}
		})
	}
}
