package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edumarques81/songdle/internal/domain/catalog"
	"github.com/edumarques81/songdle/internal/infra/probe"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeCatalog(t *testing.T, songs []catalog.Song) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := writeJSONFile(path, songs); err != nil {
		t.Fatal(err)
	}
	return path
}

func boolPtr(b bool) *bool { return &b }

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "chart.csv")
	csv := "id,songTitle,artistName,Género,Década,País,Idioma,Voz,mediaUrl,youtubeUrl\n" +
		"s1,Bailando,Enrique Iglesias,Pop,Los 10,España,Español,Masculinas,https://cdn/s1.mp3,\n" +
		"s2,,Nadie,Pop,Los 90,,,,,\n" +
		"s3,Macarena,Los del Río,Dance,Los 95,España,Español,Mixto,,https://youtube.com/m\n"
	if err := os.WriteFile(csvPath, []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "out", "catalog.json")

	out, err := run(t, "convert", csvPath, "-o", outPath, "--top", "3")
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if !strings.Contains(out, "Wrote 2 songs") || !strings.Contains(out, "1 skipped") {
		t.Errorf("unexpected output: %q", out)
	}

	c, err := catalog.Load(outPath)
	if err != nil {
		t.Fatalf("converted catalog does not load: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("catalog has %d songs, want 2", c.Len())
	}
	if got := c.At(1); got.Decade != "1995s" || got.AudioURL != "https://youtube.com/m" {
		t.Errorf("second song = %+v", got)
	}
}

func TestConvertCommandRequiresFile(t *testing.T) {
	if _, err := run(t, "convert"); err == nil {
		t.Error("expected an argument error")
	}
	if _, err := run(t, "convert", filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestVerifyCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok.mp3" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	path := writeCatalog(t, []catalog.Song{
		{ID: "1", Title: "Works", Artist: "A", AudioURL: "/ok.mp3"},
		{ID: "2", Title: "Broken", Artist: "B", AudioURL: "/gone.mp3"},
	})
	reportPath := filepath.Join(t.TempDir(), "report.json")

	out, err := run(t, "verify", "-c", path, "--out=", "--base-url", srv.URL, "--report", reportPath, "--concurrency", "2")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !strings.Contains(out, "1 working, 1 not working") {
		t.Errorf("unexpected output: %q", out)
	}

	c, err := catalog.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !c.At(0).Playable() || c.At(1).Playable() || !c.At(1).Verified() {
		t.Errorf("audioWorking not recorded: %+v %+v", c.At(0), c.At(1))
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	var report probe.Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatal(err)
	}
	if report.TotalSongs != 2 || report.WorkingSongs != 1 || report.NotWorkingSongs != 1 {
		t.Errorf("report = %+v", report)
	}
	if report.VerifiedAt.IsZero() {
		t.Error("report should carry a verification time")
	}
}

func TestScheduleCommand(t *testing.T) {
	path := writeCatalog(t, []catalog.Song{
		{ID: "0", Title: "P0", Artist: "A", NumberOneDate: "1 de enero de 2020", SpotifyURL: "https://open.spotify.com/x", AudioWorking: boolPtr(true)},
		{ID: "1", Title: "P1", Artist: "A", NumberOneDate: "2 de enero de 2020", SpotifyURL: "https://open.spotify.com/y", AudioWorking: boolPtr(true)},
		{ID: "2", Title: "R1", Artist: "A", AudioWorking: boolPtr(true)},
		{ID: "3", Title: "R2", Artist: "A", AudioWorking: boolPtr(true)},
		{ID: "4", Title: "N", Artist: "A", AudioWorking: boolPtr(false)},
	})

	out, err := run(t, "schedule", "-c", path, "--tz", "UTC", "--year", "2024")
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}

	for _, want := range []string{
		"premium 2, regular 2, non-working 1",
		"premium      Jan 01  Jan 01  1",
		"regular      Jan 02  Jan 03  2",
		"non-working  Jan 04  Dec 31  363",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestScheduleCommandDegraded(t *testing.T) {
	out, err := run(t, "schedule", "-c", "", "--tz", "UTC", "--year", "2024", "--fixed-index", "2")
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	if !strings.Contains(out, "song #2 is served every day") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestTodayCommand(t *testing.T) {
	out, err := run(t, "today", "-c", "", "--tz", "UTC", "--date", "2024-02-01", "--fixed-index", "2")
	if err != nil {
		t.Fatalf("today failed: %v", err)
	}
	for _, want := range []string{"Songdle #32 (2024-02-01)", "Hotel California - Eagles", "fixed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "today", "--date", "01/02/2024"); err == nil {
		t.Error("expected an error for a malformed date")
	}
	if _, err := run(t, "today", "--date", "", "--tz", "Nowhere/Nothing"); err == nil {
		t.Error("expected an error for an unknown time zone")
	}
}
