// Package transcoder выполняет перекодирование файлов через внешние
// инструменты (magick, heif-enc, ffmpeg).
package transcoder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Result содержит результат одного перекодирования.
type Result struct {
	// Backend - использованный бэкенд (magick, heif-enc, ffmpeg, copy).
	Backend string

	// Copied - файл скопирован байт-в-байт без перекодирования
	// (видео уже в целевом кодеке).
	Copied bool
}

// ExecError - ненулевой код выхода внешнего инструмента.
type ExecError struct {
	// Tool - имя инструмента.
	Tool string

	// ExitCode - код выхода процесса.
	ExitCode int

	// Stderr - захваченный stderr (обрезанный).
	Stderr string
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s завершился с кодом %d", e.Tool, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// trimStderr обрезает stderr до последних строк для диагностики.
func trimStderr(s string) string {
	s = strings.TrimSpace(s)
	lines := strings.Split(s, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// tmpPath строит путь временного файла рядом с назначением.
// Расширение сохраняется: инструменты определяют формат по нему.
func tmpPath(dstPath string) string {
	ext := filepath.Ext(dstPath)
	return strings.TrimSuffix(dstPath, ext) + ".converting" + ext
}

// finalize переименовывает временный файл в финальный.
// При ошибке временный файл удаляется: назначение либо целиком
// записано, либо отсутствует.
func finalize(tmp, dst string) error {
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("не удалось переименовать %s -> %s: %w", tmp, dst, err)
	}
	return nil
}

// CopyFile копирует файл байт-в-байт через временный файл.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("не удалось открыть %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	tmp := tmpPath(dst)
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("не удалось создать %s: %w", tmp, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("не удалось скопировать %s -> %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("не удалось записать %s: %w", tmp, err)
	}

	return finalize(tmp, dst)
}
