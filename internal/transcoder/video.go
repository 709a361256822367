// Package transcoder выполняет перекодирование файлов через внешние инструменты.
package transcoder

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/artemshloyda/mediaconverter/internal/config"
	"github.com/artemshloyda/mediaconverter/internal/tools"
)

// ConfirmFunc запрашивает у вызывающей стороны решение да/нет для
// уже закодированного видео. nil означает "пропустить по умолчанию".
type ConfirmFunc func(relPath string) bool

// ProgressFunc получает процент выполнения кодирования [0,100].
type ProgressFunc func(pct float64)

// VideoEncoder перекодирует видео в H.265/MP4 через ffmpeg.
type VideoEncoder struct {
	// toolset - привязки инструментов запуска.
	toolset *tools.Toolset

	// cfg - конфигурация.
	cfg *config.Config

	// confirm - решение по уже закодированным видео (nil = пропускать).
	confirm ConfirmFunc
}

// NewVideoEncoder создаёт новый VideoEncoder.
func NewVideoEncoder(ts *tools.Toolset, cfg *config.Config) *VideoEncoder {
	return &VideoEncoder{toolset: ts, cfg: cfg}
}

// SetConfirmFunc задаёт обработчик подтверждения для уже
// закодированных видео при выключенном SkipEncoded.
func (e *VideoEncoder) SetConfirmFunc(f ConfirmFunc) {
	e.confirm = f
}

// Encode перекодирует видео src в H.265 по пути dst.
//
// Последовательность: probe источника; если видео уже в HEVC и политика
// разрешает пропуск - копирование байт-в-байт (Result.Copied=true);
// иначе кодирование libx265 с копированием аудио и тегом hvc1.
// onProgress получает монотонный процент, если длительность известна.
// Любая ошибка оставляет назначение отсутствующим.
func (e *VideoEncoder) Encode(ctx context.Context, src, dst, relPath string, onProgress ProgressFunc) (Result, error) {
	if !e.toolset.FFmpeg.Found {
		return Result{}, tools.MissingError("кодирования H.265 (нужен ffmpeg)")
	}

	info := probe(ctx, e.toolset.FFmpeg.Path, src)

	if info.HEVC && e.shouldCopyEncoded(relPath) {
		if err := CopyFile(src, dst); err != nil {
			return Result{Backend: "copy"}, err
		}
		return Result{Backend: "copy", Copied: true}, nil
	}

	if err := e.encode(ctx, src, dst, info.Duration, onProgress); err != nil {
		return Result{Backend: "ffmpeg"}, err
	}

	return Result{Backend: "ffmpeg"}, nil
}

// shouldCopyEncoded решает судьбу уже закодированного видео.
// При включённом SkipEncoded - всегда копировать. Иначе спрашиваем
// confirm; без обработчика по умолчанию тоже копируем.
func (e *VideoEncoder) shouldCopyEncoded(relPath string) bool {
	if e.cfg.SkipEncoded {
		return true
	}
	if e.confirm == nil {
		return true
	}
	return e.confirm(relPath)
}

// encode запускает ffmpeg и следит за прогресс-потоком на stdout.
func (e *VideoEncoder) encode(ctx context.Context, src, dst string, duration float64, onProgress ProgressFunc) error {
	tmp := tmpPath(dst)

	cmd := exec.CommandContext(ctx, e.toolset.FFmpeg.Path,
		"-y",
		"-progress", "pipe:1",
		"-i", src,
		"-c:v", "libx265",
		"-crf", strconv.Itoa(e.cfg.VideoCRF),
		"-preset", e.cfg.VideoPreset,
		"-tag:v", "hvc1",
		"-c:a", "copy",
		"-f", "mp4",
		tmp,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("не удалось открыть stdout ffmpeg: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("не удалось запустить ffmpeg: %w", err)
	}

	// Прогресс best-effort: при неизвестной длительности строки
	// просто вычитываются, кодирование продолжается без процентов.
	parser := NewProgressParser(duration)
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if pct, ok := parser.Feed(scanner.Text()); ok && onProgress != nil {
			onProgress(pct)
		}
	}

	if err := cmd.Wait(); err != nil {
		_ = os.Remove(tmp)
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &ExecError{Tool: "ffmpeg", ExitCode: exitErr.ExitCode(), Stderr: trimStderr(stderr.String())}
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}

	return finalize(tmp, dst)
}

/*
Возможные расширения:
- Добавить аппаратное кодирование (hevc_videotoolbox, hevc_nvenc)
- Добавить выбор аудио-кодека вместо безусловного copy
- Добавить двухпроходное кодирование
*/
