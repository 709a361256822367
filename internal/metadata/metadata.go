// Package metadata переносит метаданные и время модификации
// с исходного файла на результат конвертации.
package metadata

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/artemshloyda/mediaconverter/internal/tools"
)

// Propagator копирует теги через exiftool и выравнивает mtime.
type Propagator struct {
	// exiftool - привязка инструмента exiftool.
	exiftool tools.Binding

	// warn - приёмник предупреждений (не-фатальных ошибок шага).
	warn func(format string, args ...interface{})
}

// New создаёт новый Propagator.
func New(exiftool tools.Binding, warn func(format string, args ...interface{})) *Propagator {
	if warn == nil {
		warn = func(string, ...interface{}) {}
	}
	return &Propagator{exiftool: exiftool, warn: warn}
}

// Propagate копирует все теги с src на dst и синхронизирует тег
// FileModifyDate. Возвращает true, если теги были перенесены.
//
// Для бэкенда magick шаг пропускается: magick переносит метаданные
// при кодировании. Два отдельных вызова exiftool вместо одного:
// совмещённый вариант ненадёжно выставляет FileModifyDate.
// Отсутствие exiftool - предупреждение, не ошибка файла.
func (p *Propagator) Propagate(ctx context.Context, src, dst, backend string) bool {
	if backend == "magick" {
		return true
	}

	if !p.exiftool.Found {
		p.warn("[WARN] exiftool не найден, метаданные %s не перенесены\n", dst)
		return false
	}

	copyArgs := []string{
		"-overwrite_original",
		"-P", // сохранить время файла назначения где возможно
		"-TagsFromFile", src,
		dst,
	}
	if err := p.run(ctx, copyArgs); err != nil {
		p.warn("[WARN] не удалось скопировать теги %s -> %s: %v\n", src, dst, err)
		return false
	}

	syncArgs := []string{
		"-overwrite_original",
		"-FileModifyDate<=" + src,
		dst,
	}
	if err := p.run(ctx, syncArgs); err != nil {
		p.warn("[WARN] не удалось синхронизировать FileModifyDate %s: %v\n", dst, err)
		return false
	}

	return true
}

// run выполняет exiftool с захватом stderr.
func (p *Propagator) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, p.exiftool.Path, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%w: %s", err, stderr.String())
		}
		return err
	}
	return nil
}

// AlignMtime выставляет файловое время модификации dst равным src.
// Выполняется всегда, независимо от бэкенда и наличия exiftool:
// на этом построена skip-эвристика повторных запусков.
// Ошибка не фатальна и уходит в предупреждения.
func (p *Propagator) AlignMtime(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		p.warn("[WARN] не удалось прочитать время %s: %v\n", src, err)
		return err
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		p.warn("[WARN] не удалось выставить mtime: %s <- %s (%v)\n", dst, src, err)
		return err
	}

	return nil
}

/*
Возможные расширения:
- Батчинг вызовов exiftool через -stay_open
- Перенос xattr/ACL
*/
