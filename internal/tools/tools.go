// Package tools отвечает за поиск внешних инструментов (ffmpeg, magick,
// heif-enc, exiftool) в системе.
package tools

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrToolMissing возвращается, когда ни один бэкенд задачи не найден.
var ErrToolMissing = errors.New("инструмент не найден")

// Source указывает, откуда взят путь к инструменту.
type Source string

const (
	// SourceExplicit - путь задан явно (флаг или конфиг).
	SourceExplicit Source = "explicit"
	// SourceEnv - путь взят из переменной окружения.
	SourceEnv Source = "env"
	// SourcePath - инструмент найден в PATH.
	SourcePath Source = "path"
	// SourceNone - инструмент не найден.
	SourceNone Source = "none"
)

// Binding содержит результат поиска одного инструмента.
// Поиск только проверяет наличие файла, инструмент не запускается.
type Binding struct {
	// Name - логическое имя инструмента (ffmpeg, magick, heif-enc, exiftool).
	Name string

	// Path - абсолютный путь к бинарнику (пусто если не найден).
	Path string

	// Source - откуда взят путь.
	Source Source

	// Found - найден ли инструмент.
	Found bool
}

// envVars - переменные окружения с переопределением пути для каждого инструмента.
var envVars = map[string]string{
	"ffmpeg":   "MEDIACONVERTER_FFMPEG",
	"magick":   "MEDIACONVERTER_MAGICK",
	"heif-enc": "MEDIACONVERTER_HEIF_ENC",
	"exiftool": "MEDIACONVERTER_EXIFTOOL",
}

// Resolve ищет инструмент по имени.
// Если explicitPath задан, проверяется только он - без отката на PATH.
// Иначе порядок: переменная окружения, затем PATH.
func Resolve(name, explicitPath string) Binding {
	if explicitPath != "" {
		if fileExists(explicitPath) {
			abs, err := filepath.Abs(explicitPath)
			if err != nil {
				abs = explicitPath
			}
			return Binding{Name: name, Path: abs, Source: SourceExplicit, Found: true}
		}
		return Binding{Name: name, Source: SourceNone}
	}

	if envPath := os.Getenv(envVars[name]); envPath != "" && fileExists(envPath) {
		return Binding{Name: name, Path: envPath, Source: SourceEnv, Found: true}
	}

	if p, err := exec.LookPath(name); err == nil {
		return Binding{Name: name, Path: p, Source: SourcePath, Found: true}
	}

	return Binding{Name: name, Source: SourceNone}
}

// fileExists проверяет существование обычного файла по пути.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// MissingToolHandler вызывается, когда инструмент не найден.
// Возвращает новый путь для повторной попытки или ok=false, чтобы
// оставить инструмент ненайденным. Ядро никогда не блокируется на
// терминальном вводе - интерактивный обработчик подключается снаружи.
type MissingToolHandler func(name string) (path string, ok bool)

// Toolset содержит привязки всех инструментов одного запуска.
// Заполняется один раз до начала обработки файлов и далее только читается.
type Toolset struct {
	// FFmpeg - видео-кодировщик и fallback для HEIC.
	FFmpeg Binding

	// Magick - ImageMagick 7, приоритетный кодировщик HEIC.
	Magick Binding

	// HeifEnc - выделенный HEIC кодировщик (libheif).
	HeifEnc Binding

	// Exiftool - копирование метаданных.
	Exiftool Binding
}

// ResolveAll разрешает все инструменты запуска.
// Ненайденный инструмент передаётся в onMissing (если задан):
// обработчик может вернуть новый путь для повторной попытки.
// Неудачное разрешение не кэшируется между попытками.
func ResolveAll(ffmpegPath, magickPath, heifEncPath, exiftoolPath string, onMissing MissingToolHandler) *Toolset {
	return &Toolset{
		FFmpeg:   resolveWithRetry("ffmpeg", ffmpegPath, onMissing),
		Magick:   resolveWithRetry("magick", magickPath, onMissing),
		HeifEnc:  resolveWithRetry("heif-enc", heifEncPath, onMissing),
		Exiftool: resolveWithRetry("exiftool", exiftoolPath, onMissing),
	}
}

// resolveWithRetry разрешает инструмент, переспрашивая через onMissing.
func resolveWithRetry(name, explicitPath string, onMissing MissingToolHandler) Binding {
	b := Resolve(name, explicitPath)
	for !b.Found && onMissing != nil {
		newPath, ok := onMissing(name)
		if !ok {
			break
		}
		b = Resolve(name, newPath)
	}
	return b
}

// MissingError строит ошибку ToolMissing с описанием.
func MissingError(job string) error {
	return fmt.Errorf("%w: нет доступного бэкенда для %s", ErrToolMissing, job)
}

/*
Возможные расширения:
- Поиск рядом с исполняемым файлом в ./bin/<os-arch>/
- Проверка минимальной версии инструмента
- Кэширование между запусками
*/
