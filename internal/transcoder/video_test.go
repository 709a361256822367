package transcoder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/artemshloyda/mediaconverter/internal/config"
	"github.com/artemshloyda/mediaconverter/internal/tools"
)

// fakeFFmpeg создаёт скрипт, имитирующий ffmpeg.
// probeStderr выводится при probe-вызове (-hide_banner, код выхода 1).
// encodeBody выполняется при кодирующем вызове.
func fakeFFmpeg(t *testing.T, probeStderr, encodeBody string) tools.Binding {
	t.Helper()
	body := `case "$*" in
  *-hide_banner*)
    cat >&2 <<'EOF'
` + probeStderr + `
EOF
    exit 1;;
esac
` + encodeBody
	path := fakeScript(t, "ffmpeg", body)
	return tools.Binding{Name: "ffmpeg", Path: path, Found: true}
}

func TestVideoEncoder_Encode_NoFFmpeg(t *testing.T) {
	enc := NewVideoEncoder(&tools.Toolset{}, config.DefaultConfig())

	_, err := enc.Encode(context.Background(), "a.mov", "a.mp4", "a.mov", nil)
	if !errors.Is(err, tools.ErrToolMissing) {
		t.Errorf("Encode() error = %v, want ErrToolMissing", err)
	}
}

func TestVideoEncoder_Encode_AlreadyHEVC_Copies(t *testing.T) {
	ffmpeg := fakeFFmpeg(t,
		`  Duration: 00:00:10.00, start: 0.000000, bitrate: 1000 kb/s
  Stream #0:0: Video: hevc (Main) (hvc1 / 0x31637668), yuv420p, 1920x1080`,
		"exit 9\n") // кодирование не должно вызываться

	dir := t.TempDir()
	src := filepath.Join(dir, "clip.mov")
	if err := os.WriteFile(src, []byte("original-bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "clip.mp4")

	cfg := config.DefaultConfig() // SkipEncoded=true
	enc := NewVideoEncoder(&tools.Toolset{FFmpeg: ffmpeg}, cfg)

	res, err := enc.Encode(context.Background(), src, dst, "clip.mov", nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !res.Copied {
		t.Error("Copied = false, want true для уже закодированного видео")
	}
	if res.Backend != "copy" {
		t.Errorf("Backend = %q, want %q", res.Backend, "copy")
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("назначение не создано: %v", err)
	}
	if string(data) != "original-bytes" {
		t.Error("копия не байт-в-байт")
	}
}

func TestVideoEncoder_Encode_ConfirmCallback(t *testing.T) {
	ffmpeg := fakeFFmpeg(t,
		`  Duration: 00:00:10.00
  Stream #0:0: Video: hevc`,
		`for last in "$@"; do :; done
printf 'encoded' > "$last"
exit 0
`)

	dir := t.TempDir()
	src := filepath.Join(dir, "clip.mov")
	if err := os.WriteFile(src, []byte("raw"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.SkipEncoded = false

	t.Run("confirm declines skip", func(t *testing.T) {
		enc := NewVideoEncoder(&tools.Toolset{FFmpeg: ffmpeg}, cfg)
		enc.SetConfirmFunc(func(string) bool { return false })

		dst := filepath.Join(dir, "a.mp4")
		res, err := enc.Encode(context.Background(), src, dst, "clip.mov", nil)
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if res.Copied {
			t.Error("Copied = true, want false: confirm запретил пропуск")
		}
	})

	t.Run("nil confirm defaults to copy", func(t *testing.T) {
		enc := NewVideoEncoder(&tools.Toolset{FFmpeg: ffmpeg}, cfg)

		dst := filepath.Join(dir, "b.mp4")
		res, err := enc.Encode(context.Background(), src, dst, "clip.mov", nil)
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if !res.Copied {
			t.Error("Copied = false, want true: без обработчика пропуск по умолчанию")
		}
	})
}

func TestVideoEncoder_Encode_Progress(t *testing.T) {
	ffmpeg := fakeFFmpeg(t,
		`  Duration: 00:00:10.00, start: 0.000000
  Stream #0:0: Video: h264 (High), yuv420p, 1280x720`,
		`for last in "$@"; do :; done
printf 'encoded' > "$last"
echo "out_time_ms=5000000"
echo "out_time_ms=10000000"
echo "progress=end"
exit 0
`)

	dir := t.TempDir()
	src := filepath.Join(dir, "clip.avi")
	if err := os.WriteFile(src, []byte("raw"), 0644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "clip.mp4")

	enc := NewVideoEncoder(&tools.Toolset{FFmpeg: ffmpeg}, config.DefaultConfig())

	var pcts []float64
	res, err := enc.Encode(context.Background(), src, dst, "clip.avi", func(pct float64) {
		pcts = append(pcts, pct)
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if res.Copied {
		t.Error("Copied = true, want false")
	}

	if len(pcts) < 2 {
		t.Fatalf("получено %d прогресс-отсчётов, want >= 2", len(pcts))
	}
	if pcts[0] != 50 {
		t.Errorf("первый отсчёт = %v, want 50", pcts[0])
	}
	if pcts[len(pcts)-1] != 100 {
		t.Errorf("последний отсчёт = %v, want 100", pcts[len(pcts)-1])
	}

	if data, _ := os.ReadFile(dst); string(data) != "encoded" {
		t.Error("назначение не записано кодировщиком")
	}
}

func TestVideoEncoder_Encode_FailureLeavesNoPartial(t *testing.T) {
	ffmpeg := fakeFFmpeg(t,
		`  Duration: 00:00:10.00
  Stream #0:0: Video: h264`,
		`for last in "$@"; do :; done
printf 'partial' > "$last"
echo "x265 error" >&2
exit 1
`)

	dir := t.TempDir()
	src := filepath.Join(dir, "clip.avi")
	if err := os.WriteFile(src, []byte("raw"), 0644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(outDir, "clip.mp4")

	enc := NewVideoEncoder(&tools.Toolset{FFmpeg: ffmpeg}, config.DefaultConfig())

	_, err := enc.Encode(context.Background(), src, dst, "clip.avi", nil)

	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("Encode() error = %v, want *ExecError", err)
	}

	entries, _ := os.ReadDir(outDir)
	if len(entries) != 0 {
		t.Errorf("после ошибки остались файлы: %v", entries)
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	if err := os.WriteFile(src, []byte("payload"), 0644); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "dst.bin")
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Errorf("содержимое = %q, want %q", data, "payload")
	}

	if err := CopyFile(filepath.Join(dir, "missing"), dst); err == nil {
		t.Error("CopyFile() должен вернуть ошибку для отсутствующего источника")
	}
}
