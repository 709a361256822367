package metadata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/artemshloyda/mediaconverter/internal/tools"
)

func TestPropagator_Propagate_MagickNoop(t *testing.T) {
	// Для magick exiftool не нужен вовсе
	p := New(tools.Binding{Name: "exiftool"}, nil)

	if !p.Propagate(context.Background(), "src.jpg", "dst.heic", "magick") {
		t.Error("Propagate() = false, want true для бэкенда magick")
	}
}

func TestPropagator_Propagate_ExiftoolMissing(t *testing.T) {
	var warnings []string
	warn := func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	p := New(tools.Binding{Name: "exiftool", Found: false}, warn)

	if p.Propagate(context.Background(), "src.jpg", "dst.heic", "ffmpeg") {
		t.Error("Propagate() = true, want false без exiftool")
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "[WARN]") {
		t.Errorf("ожидалось одно [WARN] предупреждение, получено: %v", warnings)
	}
}

func TestPropagator_Propagate_TwoStep(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell-скрипты только для unix")
	}

	// Фальшивый exiftool логирует аргументы каждого вызова
	dir := t.TempDir()
	log := filepath.Join(dir, "calls.log")
	script := filepath.Join(dir, "exiftool")
	body := "#!/bin/sh\necho \"$*\" >> " + log + "\nexit 0\n"
	if err := os.WriteFile(script, []byte(body), 0755); err != nil {
		t.Fatal(err)
	}

	p := New(tools.Binding{Name: "exiftool", Path: script, Found: true}, nil)

	if !p.Propagate(context.Background(), "/in/a.jpg", "/out/a.heic", "ffmpeg") {
		t.Fatal("Propagate() = false, want true")
	}

	data, err := os.ReadFile(log)
	if err != nil {
		t.Fatal(err)
	}
	calls := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(calls) != 2 {
		t.Fatalf("exiftool вызван %d раз, want 2 (копирование тегов + синхронизация даты)", len(calls))
	}
	if !strings.Contains(calls[0], "-TagsFromFile /in/a.jpg") {
		t.Errorf("первый вызов без -TagsFromFile: %q", calls[0])
	}
	if !strings.Contains(calls[1], "-FileModifyDate<=/in/a.jpg") {
		t.Errorf("второй вызов без -FileModifyDate<=: %q", calls[1])
	}
}

func TestPropagator_Propagate_CopyFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell-скрипты только для unix")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "exiftool")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 1\n"), 0755); err != nil {
		t.Fatal(err)
	}

	var warnings []string
	warn := func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	p := New(tools.Binding{Name: "exiftool", Path: script, Found: true}, warn)

	if p.Propagate(context.Background(), "a.jpg", "a.heic", "ffmpeg") {
		t.Error("Propagate() = true, want false при ошибке exiftool")
	}
	if len(warnings) == 0 {
		t.Error("ожидалось предупреждение")
	}
}

func TestPropagator_AlignMtime(t *testing.T) {
	dir := t.TempDir()
	t0 := time.Now().Add(-2 * time.Hour).Truncate(time.Second)

	src := filepath.Join(dir, "src.jpg")
	if err := os.WriteFile(src, []byte("s"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(src, t0, t0); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "dst.heic")
	if err := os.WriteFile(dst, []byte("d"), 0644); err != nil {
		t.Fatal(err)
	}

	p := New(tools.Binding{}, nil)
	if err := p.AlignMtime(src, dst); err != nil {
		t.Fatalf("AlignMtime() error = %v", err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(t0) {
		t.Errorf("mtime = %v, want %v", info.ModTime(), t0)
	}
}

func TestPropagator_AlignMtime_MissingSource(t *testing.T) {
	p := New(tools.Binding{}, nil)
	if err := p.AlignMtime(filepath.Join(t.TempDir(), "missing"), "dst"); err == nil {
		t.Error("AlignMtime() должен вернуть ошибку для отсутствующего источника")
	}
}
