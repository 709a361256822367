// Package transcoder выполняет перекодирование файлов через внешние инструменты.
package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/artemshloyda/mediaconverter/internal/config"
	"github.com/artemshloyda/mediaconverter/internal/tools"
)

// ImageEncoder перекодирует изображения в HEIC через цепочку бэкендов.
// Порядок приоритета: magick (сам переносит метаданные), heif-enc,
// ffmpeg с heic-муксером. Выбирается первый доступный.
type ImageEncoder struct {
	// toolset - привязки инструментов запуска.
	toolset *tools.Toolset

	// cfg - конфигурация.
	cfg *config.Config

	// heicMuxOnce/heicMux - ленивая проверка heic-муксера ffmpeg.
	heicMuxOnce sync.Once
	heicMux     bool
}

// NewImageEncoder создаёт новый ImageEncoder.
func NewImageEncoder(ts *tools.Toolset, cfg *config.Config) *ImageEncoder {
	return &ImageEncoder{toolset: ts, cfg: cfg}
}

// imageBackend описывает один бэкенд цепочки.
type imageBackend struct {
	// name - имя бэкенда для результата и ветвления метаданных.
	name string

	// available проверяет доступность бэкенда.
	available func(ctx context.Context) bool

	// invoke выполняет перекодирование src -> dst.
	invoke func(ctx context.Context, src, dst string) error
}

// backends возвращает цепочку бэкендов в порядке приоритета.
func (e *ImageEncoder) backends() []imageBackend {
	return []imageBackend{
		{
			name:      "magick",
			available: func(context.Context) bool { return e.toolset.Magick.Found },
			invoke:    e.invokeMagick,
		},
		{
			name:      "heif-enc",
			available: func(context.Context) bool { return e.toolset.HeifEnc.Found },
			invoke:    e.invokeHeifEnc,
		},
		{
			name: "ffmpeg",
			available: func(ctx context.Context) bool {
				return e.toolset.FFmpeg.Found && e.supportsHEICMuxer(ctx)
			},
			invoke: e.invokeFFmpeg,
		},
	}
}

// Encode перекодирует изображение в HEIC первым доступным бэкендом.
// Если ни один бэкенд не доступен, возвращается ошибка ToolMissing
// и назначение не создаётся.
func (e *ImageEncoder) Encode(ctx context.Context, src, dst string) (Result, error) {
	for _, b := range e.backends() {
		if !b.available(ctx) {
			continue
		}

		tmp := tmpPath(dst)
		if err := b.invoke(ctx, src, tmp); err != nil {
			_ = os.Remove(tmp)
			return Result{Backend: b.name}, err
		}
		if err := finalize(tmp, dst); err != nil {
			return Result{Backend: b.name}, err
		}

		return Result{Backend: b.name}, nil
	}

	return Result{}, tools.MissingError("кодирования HEIC (нужен magick, heif-enc или ffmpeg с heic-муксером)")
}

// mapQuality переводит CRF в шкалу качества magick/heif-enc (1-100,
// больше = лучше). Отображение монотонно: меньший CRF даёт большее
// качество. Результат ограничен диапазоном [10, 95].
func mapQuality(crf int) int {
	q := 70 - (crf - 18)
	if q < 10 {
		q = 10
	}
	if q > 95 {
		q = 95
	}
	return q
}

// invokeMagick кодирует через ImageMagick 7. Метаданные источника
// magick переносит сам - exiftool после него не нужен.
func (e *ImageEncoder) invokeMagick(ctx context.Context, src, dst string) error {
	q := mapQuality(e.cfg.ImageCRF)
	return e.run(ctx, e.toolset.Magick,
		src,
		"-quality", strconv.Itoa(q),
		"-define", "heic:speed=5",
		dst,
	)
}

// invokeHeifEnc кодирует через heif-enc (libheif).
func (e *ImageEncoder) invokeHeifEnc(ctx context.Context, src, dst string) error {
	q := mapQuality(e.cfg.ImageCRF)
	return e.run(ctx, e.toolset.HeifEnc,
		"-q", strconv.Itoa(q),
		src,
		"-o", dst,
	)
}

// invokeFFmpeg кодирует одиночный кадр HEVC в контейнер HEIC.
func (e *ImageEncoder) invokeFFmpeg(ctx context.Context, src, dst string) error {
	return e.run(ctx, e.toolset.FFmpeg,
		"-y",
		"-i", src,
		"-vf", "format=yuv420p",
		"-c:v", "libx265",
		"-preset", e.cfg.VideoPreset,
		"-crf", strconv.Itoa(e.cfg.ImageCRF),
		"-tag:v", "hvc1",
		"-f", "heic",
		dst,
	)
}

// run выполняет инструмент с захватом stderr.
func (e *ImageEncoder) run(ctx context.Context, b tools.Binding, args ...string) error {
	cmd := exec.CommandContext(ctx, b.Path, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &ExecError{Tool: b.Name, ExitCode: exitErr.ExitCode(), Stderr: trimStderr(stderr.String())}
		}
		return fmt.Errorf("не удалось запустить %s: %w", b.Name, err)
	}
	return nil
}

// supportsHEICMuxer проверяет наличие heic-муксера у ffmpeg.
// Результат кэшируется на время запуска.
func (e *ImageEncoder) supportsHEICMuxer(ctx context.Context) bool {
	e.heicMuxOnce.Do(func() {
		cmd := exec.CommandContext(ctx, e.toolset.FFmpeg.Path, "-hide_banner", "-muxers")
		out, err := cmd.Output()
		if err != nil {
			return
		}
		e.heicMux = strings.Contains(strings.ToLower(string(out)), "heic")
	})
	return e.heicMux
}

/*
Возможные расширения:
- Добавить AVIF как альтернативный целевой формат
- Добавить настройку heic:speed
- Добавить обработку многостраничных TIFF
*/
