// Package scanner отвечает за рекурсивный обход входной директории.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/artemshloyda/mediaconverter/internal/config"
)

// File представляет файл для обработки.
type File struct {
	// Path - абсолютный путь к файлу.
	Path string

	// RelPath - относительный путь от входной директории.
	RelPath string

	// Size - размер файла в байтах.
	Size int64

	// Mtime - время последней модификации.
	Mtime time.Time
}

// Scanner сканирует входную директорию.
//
// Scanner отдаёт все обычные файлы без фильтра по расширению:
// классификация (изображение/видео/прочее) выполняется планировщиком.
type Scanner struct {
	cfg *config.Config
}

// New создаёт новый Scanner.
func New(cfg *config.Config) *Scanner {
	return &Scanner{cfg: cfg}
}

// skipDir возвращает true для директорий, которые не нужно обходить.
func skipDir(name string) bool {
	if name == config.StateDirName {
		return true
	}
	return len(name) > 0 && name[0] == '.'
}

// skipFile возвращает true для служебных файлов (macOS AppleDouble ._*).
func skipFile(name string) bool {
	return len(name) >= 2 && name[0] == '.' && name[1] == '_'
}

// Scan запускает сканирование и отправляет найденные файлы в канал.
// Канал закрывается после завершения сканирования.
func (s *Scanner) Scan(ctx context.Context) (<-chan File, <-chan error) {
	files := make(chan File, 100) // Буферизированный канал
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		err := filepath.WalkDir(s.cfg.InputDir, func(path string, d os.DirEntry, err error) error {
			// Проверяем контекст
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err != nil {
				// Логируем ошибку, но продолжаем
				fmt.Fprintf(os.Stderr, "Предупреждение: не удалось прочитать %s: %v\n", path, err)
				return nil
			}

			if d.IsDir() {
				// Корень пропускать нельзя, даже если он скрытый
				if path != s.cfg.InputDir && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			// Только обычные файлы (без симлинков, устройств и т.п.)
			if !d.Type().IsRegular() {
				return nil
			}

			if skipFile(filepath.Base(path)) {
				return nil
			}

			// Получаем информацию о файле
			info, err := d.Info()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Предупреждение: не удалось получить info %s: %v\n", path, err)
				return nil
			}

			// Относительный путь
			relPath, _ := filepath.Rel(s.cfg.InputDir, path)

			// Абсолютный путь
			absPath, err := filepath.Abs(path)
			if err != nil {
				absPath = path
			}

			file := File{
				Path:    absPath,
				RelPath: relPath,
				Size:    info.Size(),
				Mtime:   info.ModTime(),
			}

			// Отправляем в канал
			select {
			case files <- file:
			case <-ctx.Done():
				return ctx.Err()
			}

			return nil
		})

		if err != nil {
			errs <- err
		}
	}()

	return files, errs
}

// CountFiles возвращает количество файлов для обработки (для progress bar).
func (s *Scanner) CountFiles() (int64, error) {
	var count int64

	err := filepath.WalkDir(s.cfg.InputDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Игнорируем ошибки
		}

		if d.IsDir() {
			if path != s.cfg.InputDir && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if skipFile(filepath.Base(path)) {
			return nil
		}

		count++
		return nil
	})

	return count, err
}

/*
Возможные расширения:
- Добавить поддержку glob-паттернов для фильтрации
- Добавить поддержку exclude-паттернов
- Добавить поддержку symlinks
*/
