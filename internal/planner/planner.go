// Package planner классифицирует файлы и планирует пути назначения.
package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind определяет классификацию файла по расширению.
type Kind string

const (
	// KindImage - изображение, перекодируется в HEIC.
	KindImage Kind = "image"
	// KindVideo - видео, перекодируется в H.265/MP4.
	KindVideo Kind = "video"
	// KindOther - не-медиа файл, копируется как есть (при copy-others).
	KindOther Kind = "other"
)

// imageExts - расширения изображений (lowercase, с точкой).
var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".tif": true, ".tiff": true,
	".bmp": true, ".gif": true, ".webp": true, ".jp2": true,
	".nef": true, ".cr2": true, ".arw": true, ".raf": true,
}

// videoExts - расширения видео (lowercase, с точкой).
var videoExts = map[string]bool{
	".mp4": true, ".mov": true, ".m4v": true, ".mkv": true, ".avi": true,
	".wmv": true, ".mts": true, ".m2ts": true, ".flv": true, ".webm": true,
}

// Task представляет один запланированный файл.
// Создаётся на каждый найденный файл и далее не изменяется.
type Task struct {
	// SrcPath - абсолютный путь к исходному файлу.
	SrcPath string

	// RelPath - путь относительно входной директории.
	RelPath string

	// Kind - классификация файла.
	Kind Kind

	// DstPath - запланированный путь назначения.
	DstPath string
}

// Planner строит задачи и принимает skip-решения.
type Planner struct {
	// inputDir - корневая входная директория.
	inputDir string

	// outputDir - корневая выходная директория.
	outputDir string
}

// New создаёт новый Planner.
func New(inputDir, outputDir string) *Planner {
	return &Planner{inputDir: inputDir, outputDir: outputDir}
}

// Classify определяет тип файла по расширению (без учёта регистра).
func Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExts[ext]:
		return KindImage
	case videoExts[ext]:
		return KindVideo
	default:
		return KindOther
	}
}

// Plan строит задачу для исходного файла: классификация и путь назначения.
// Расширение назначения: изображения -> .heic, видео -> .mp4,
// остальные файлы - без изменений. Директории не создаются -
// это делает EnsureDstDir, чтобы dry-run ничего не писал на диск.
func (p *Planner) Plan(srcPath string) (Task, error) {
	relPath, err := filepath.Rel(p.inputDir, srcPath)
	if err != nil {
		return Task{}, fmt.Errorf("не удалось вычислить относительный путь %s: %w", srcPath, err)
	}

	kind := Classify(srcPath)

	dstRel := relPath
	switch kind {
	case KindImage:
		dstRel = replaceExt(relPath, ".heic")
	case KindVideo:
		// Контейнер нормализуется в .mp4 для лучшей совместимости
		dstRel = replaceExt(relPath, ".mp4")
	}

	return Task{
		SrcPath: srcPath,
		RelPath: relPath,
		Kind:    kind,
		DstPath: filepath.Join(p.outputDir, dstRel),
	}, nil
}

// replaceExt заменяет расширение файла, сохраняя базовое имя.
func replaceExt(path, newExt string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + newExt
}

// EnsureDstDir создаёт недостающие родительские директории назначения.
// Идемпотентна: существующая директория не является ошибкой.
func (p *Planner) EnsureDstDir(task Task) error {
	if err := os.MkdirAll(filepath.Dir(task.DstPath), 0755); err != nil {
		return fmt.Errorf("не удалось создать директорию %s: %w", filepath.Dir(task.DstPath), err)
	}
	return nil
}

// ShouldSkip решает, пропустить ли задачу.
// При overwrite существующий файл назначения удаляется и задача
// никогда не пропускается. Иначе пропуск только если назначение
// существует, его mtime >= mtime источника и размер > 0.
// Эвристика сознательно не сравнивает содержимое: скорость важнее
// гарантии, повреждённое назначение с правдоподобным mtime даст
// ложный пропуск.
func ShouldSkip(srcPath, dstPath string, overwrite bool) bool {
	dstInfo, err := os.Stat(dstPath)
	if err != nil {
		return false
	}

	if overwrite {
		_ = os.Remove(dstPath)
		return false
	}

	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return false
	}

	return !dstInfo.ModTime().Before(srcInfo.ModTime()) && dstInfo.Size() > 0
}

/*
Возможные расширения:
- Добавить exclude-паттерны (glob)
- Добавить настраиваемые списки расширений
- Добавить опциональную проверку по хэшу содержимого
*/
