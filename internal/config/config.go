// Package config содержит конфигурацию приложения.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config содержит все настройки для одного запуска конвертации.
// Структура создаётся один раз при старте и далее только читается.
type Config struct {
	// InputDir - корневая директория с исходными файлами.
	InputDir string

	// OutputDir - корневая директория для результатов (зеркалит структуру).
	OutputDir string

	// Overwrite - перезаписывать существующие выходные файлы.
	Overwrite bool

	// ImageCRF - качество HEIC (CRF, меньше = лучше качество).
	ImageCRF int

	// VideoCRF - CRF для H.265.
	VideoCRF int

	// VideoPreset - пресет x265 (ultrafast..veryslow).
	VideoPreset string

	// SkipEncoded - копировать уже закодированные в H.265 видео без перекодирования.
	SkipEncoded bool

	// CopyOthers - копировать не-медиа файлы как есть.
	CopyOthers bool

	// DryRun - режим симуляции без записи на диск.
	DryRun bool

	// Workers - количество параллельных воркеров.
	Workers int

	// DBPath - путь к SQLite базе с историей запусков.
	DBPath string

	// FFmpegPath - явный путь к ffmpeg (пусто = env/PATH).
	FFmpegPath string

	// MagickPath - явный путь к magick (пусто = env/PATH).
	MagickPath string

	// HeifEncPath - явный путь к heif-enc (пусто = env/PATH).
	HeifEncPath string

	// ExiftoolPath - явный путь к exiftool (пусто = env/PATH).
	ExiftoolPath string

	// Profile - именованный профиль качества (archive, balanced, compact).
	Profile string

	// Watch - режим слежения за директорией.
	Watch bool

	// MaxMemoryMB - ограничение использования памяти в мегабайтах (0 = без ограничения).
	MaxMemoryMB int

	// Verbose - подробный вывод.
	Verbose bool

	// NoProgress - отключить прогресс-бар.
	NoProgress bool
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() *Config {
	return &Config{
		ImageCRF:    30,
		VideoCRF:    23,
		VideoPreset: "medium",
		SkipEncoded: true,
		Workers:     runtime.NumCPU(),
	}
}

// videoPresets - допустимые значения пресета x265.
var videoPresets = map[string]bool{
	"ultrafast": true, "superfast": true, "veryfast": true, "faster": true,
	"fast": true, "medium": true, "slow": true, "slower": true, "veryslow": true,
}

// Validate проверяет корректность конфигурации.
// Несуществующая входная директория - фатальная ошибка запуска.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("входная директория не указана (--in)")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("выходная директория не указана (--out)")
	}
	info, err := os.Stat(c.InputDir)
	if err != nil {
		return fmt.Errorf("входная директория не найдена: %s", c.InputDir)
	}
	if !info.IsDir() {
		return fmt.Errorf("входной путь не является директорией: %s", c.InputDir)
	}
	if c.ImageCRF < 0 || c.ImageCRF > 51 {
		return fmt.Errorf("image-crf должен быть от 0 до 51, получено: %d", c.ImageCRF)
	}
	if c.VideoCRF < 0 || c.VideoCRF > 51 {
		return fmt.Errorf("video-crf должен быть от 0 до 51, получено: %d", c.VideoCRF)
	}
	if !videoPresets[c.VideoPreset] {
		return fmt.Errorf("неизвестный пресет x265: %s", c.VideoPreset)
	}
	if c.Workers < 1 {
		return fmt.Errorf("количество воркеров должно быть >= 1, получено: %d", c.Workers)
	}

	// Устанавливаем путь к БД по умолчанию
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.OutputDir, StateDirName, "history.sqlite")
	}

	return nil
}

// StateDirName - имя служебной директории внутри OutputDir.
// Сканер и watcher пропускают её.
const StateDirName = ".mediaconverter"

/*
Возможные расширения:
- Добавить per-extension переопределение качества
- Добавить exclude-паттерны для сканера
- Добавить ограничение битрейта аудио
*/
