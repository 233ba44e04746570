package version_test

import (
	"strings"
	"testing"

	"github.com/edumarques81/songdle/internal/version"
)

func TestGetInfo(t *testing.T) {
	info := version.GetInfo()

	if info.Name != "Songdle" {
		t.Errorf("expected name 'Songdle', got %q", info.Name)
	}
	if info.Version == "" {
		t.Error("version should not be empty")
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		info version.Info
		want string
	}{
		{"plain", version.Info{Name: "Songdle", Version: "1.2.3"}, "Songdle v1.2.3"},
		{"short commit kept", version.Info{Name: "Songdle", Version: "1.2.3", GitCommit: "abc"}, "Songdle v1.2.3 (abc)"},
		{"long commit truncated", version.Info{Name: "Songdle", Version: "1.2.3", GitCommit: "0123456789abcdef"}, "Songdle v1.2.3 (0123456)"},
		{"build time", version.Info{Name: "Songdle", Version: "1.2.3", BuildTime: "2025-01-01"}, "Songdle v1.2.3 built 2025-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	ua := version.UserAgent()
	if !strings.HasPrefix(ua, version.Name+"/"+version.Version) {
		t.Errorf("unexpected user agent %q", ua)
	}
}
