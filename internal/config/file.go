// Package config содержит конфигурацию приложения.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig представляет структуру конфигурационного файла YAML.
// Все поля опциональны - если не указаны, используются значения по умолчанию.
type FileConfig struct {
	// Input - настройки входных данных.
	Input *InputConfig `yaml:"input,omitempty"`

	// Output - настройки выходных данных.
	Output *OutputConfig `yaml:"output,omitempty"`

	// Encoding - настройки кодирования.
	Encoding *EncodingConfig `yaml:"encoding,omitempty"`

	// Processing - настройки обработки.
	Processing *ProcessingConfig `yaml:"processing,omitempty"`

	// Tools - явные пути к внешним инструментам.
	Tools *ToolsConfig `yaml:"tools,omitempty"`
}

// InputConfig содержит настройки входных данных.
type InputConfig struct {
	// Dir - директория с исходными файлами.
	Dir string `yaml:"dir,omitempty"`
}

// OutputConfig содержит настройки выходных данных.
type OutputConfig struct {
	// Dir - директория для результатов.
	Dir string `yaml:"dir,omitempty"`

	// Overwrite - перезаписывать существующие выходные файлы.
	Overwrite bool `yaml:"overwrite,omitempty"`

	// CopyOthers - копировать не-медиа файлы как есть.
	CopyOthers bool `yaml:"copy_others,omitempty"`
}

// EncodingConfig содержит настройки кодирования.
type EncodingConfig struct {
	// ImageCRF - качество HEIC (CRF).
	ImageCRF *int `yaml:"image_crf,omitempty"`

	// VideoCRF - CRF для H.265.
	VideoCRF *int `yaml:"video_crf,omitempty"`

	// VideoPreset - пресет x265.
	VideoPreset string `yaml:"video_preset,omitempty"`

	// SkipEncoded - не перекодировать уже H.265 видео.
	SkipEncoded *bool `yaml:"skip_encoded,omitempty"`

	// Profile - именованный профиль качества.
	Profile string `yaml:"profile,omitempty"`
}

// ProcessingConfig содержит настройки обработки.
type ProcessingConfig struct {
	// Workers - количество параллельных воркеров.
	Workers int `yaml:"workers,omitempty"`

	// DryRun - режим симуляции.
	DryRun bool `yaml:"dry_run,omitempty"`

	// Verbose - подробный вывод.
	Verbose bool `yaml:"verbose,omitempty"`

	// NoProgress - отключить прогресс-бар.
	NoProgress bool `yaml:"no_progress,omitempty"`

	// MaxMemoryMB - ограничение памяти в мегабайтах.
	MaxMemoryMB int `yaml:"max_memory_mb,omitempty"`
}

// ToolsConfig содержит явные пути к внешним инструментам.
type ToolsConfig struct {
	// FFmpeg - путь к ffmpeg.
	FFmpeg string `yaml:"ffmpeg,omitempty"`

	// Magick - путь к magick (ImageMagick 7).
	Magick string `yaml:"magick,omitempty"`

	// HeifEnc - путь к heif-enc.
	HeifEnc string `yaml:"heif_enc,omitempty"`

	// Exiftool - путь к exiftool.
	Exiftool string `yaml:"exiftool,omitempty"`

	// DB - путь к SQLite базе истории.
	DB string `yaml:"db,omitempty"`
}

// DefaultConfigPaths возвращает список путей для поиска конфигурационного файла.
// Поиск выполняется в следующем порядке:
// 1. ./mediaconverter.yaml (текущая директория)
// 2. ./mediaconverter.yml
// 3. ~/.config/mediaconverter/config.yaml
// 4. ~/.config/mediaconverter/config.yml
func DefaultConfigPaths() []string {
	paths := []string{
		"mediaconverter.yaml",
		"mediaconverter.yml",
	}

	// Добавляем путь в домашней директории
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "mediaconverter", "config.yaml"),
			filepath.Join(home, ".config", "mediaconverter", "config.yml"),
		)
	}

	return paths
}

// LoadFromFile загружает конфигурацию из указанного файла.
// Возвращает nil, nil если файл не существует.
func LoadFromFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("ошибка парсинга YAML в %s: %w", path, err)
	}

	return &fc, nil
}

// FindAndLoadConfig ищет и загружает конфигурационный файл из стандартных путей.
// Если configPath указан явно, использует только его.
// Возвращает nil, nil если файл не найден.
func FindAndLoadConfig(configPath string) (*FileConfig, string, error) {
	// Если путь указан явно
	if configPath != "" {
		fc, err := LoadFromFile(configPath)
		if err != nil {
			return nil, "", err
		}
		if fc == nil {
			return nil, "", fmt.Errorf("файл конфигурации не найден: %s", configPath)
		}
		return fc, configPath, nil
	}

	// Ищем в стандартных путях
	for _, path := range DefaultConfigPaths() {
		fc, err := LoadFromFile(path)
		if err != nil {
			return nil, "", err
		}
		if fc != nil {
			return fc, path, nil
		}
	}

	return nil, "", nil
}

// ApplyToConfig применяет настройки из файла к основной конфигурации.
// CLI флаги имеют приоритет над файлом конфигурации, поэтому
// эта функция должна вызываться до парсинга CLI флагов.
func (fc *FileConfig) ApplyToConfig(cfg *Config) {
	if fc == nil {
		return
	}

	if fc.Input != nil && fc.Input.Dir != "" {
		cfg.InputDir = fc.Input.Dir
	}

	if fc.Output != nil {
		if fc.Output.Dir != "" {
			cfg.OutputDir = fc.Output.Dir
		}
		if fc.Output.Overwrite {
			cfg.Overwrite = true
		}
		if fc.Output.CopyOthers {
			cfg.CopyOthers = true
		}
	}

	if fc.Encoding != nil {
		if fc.Encoding.ImageCRF != nil {
			cfg.ImageCRF = *fc.Encoding.ImageCRF
		}
		if fc.Encoding.VideoCRF != nil {
			cfg.VideoCRF = *fc.Encoding.VideoCRF
		}
		if fc.Encoding.VideoPreset != "" {
			cfg.VideoPreset = fc.Encoding.VideoPreset
		}
		if fc.Encoding.SkipEncoded != nil {
			cfg.SkipEncoded = *fc.Encoding.SkipEncoded
		}
		if fc.Encoding.Profile != "" {
			cfg.Profile = fc.Encoding.Profile
		}
	}

	if fc.Processing != nil {
		if fc.Processing.Workers > 0 {
			cfg.Workers = fc.Processing.Workers
		}
		if fc.Processing.DryRun {
			cfg.DryRun = true
		}
		if fc.Processing.Verbose {
			cfg.Verbose = true
		}
		if fc.Processing.NoProgress {
			cfg.NoProgress = true
		}
		if fc.Processing.MaxMemoryMB > 0 {
			cfg.MaxMemoryMB = fc.Processing.MaxMemoryMB
		}
	}

	if fc.Tools != nil {
		if fc.Tools.FFmpeg != "" {
			cfg.FFmpegPath = fc.Tools.FFmpeg
		}
		if fc.Tools.Magick != "" {
			cfg.MagickPath = fc.Tools.Magick
		}
		if fc.Tools.HeifEnc != "" {
			cfg.HeifEncPath = fc.Tools.HeifEnc
		}
		if fc.Tools.Exiftool != "" {
			cfg.ExiftoolPath = fc.Tools.Exiftool
		}
		if fc.Tools.DB != "" {
			cfg.DBPath = fc.Tools.DB
		}
	}
}

// GenerateExampleConfig генерирует пример конфигурационного файла.
func GenerateExampleConfig() string {
	return `# MediaConverter Configuration File
# Все параметры опциональны - если не указаны, используются значения по умолчанию.
# CLI флаги имеют приоритет над этим файлом.

input:
  # Директория с исходными файлами
  dir: "./media"

output:
  # Директория для результатов (структура зеркалится)
  dir: "./converted"
  # Перезаписывать существующие выходные файлы
  overwrite: false
  # Копировать не-медиа файлы как есть
  copy_others: false

encoding:
  # Качество HEIC (CRF, меньше = лучше качество)
  image_crf: 30
  # CRF для H.265
  video_crf: 23
  # Пресет x265: ultrafast..veryslow
  video_preset: medium
  # Копировать уже закодированные в H.265 видео без перекодирования
  skip_encoded: true
  # Профиль качества: archive, balanced, compact
  profile: ""

processing:
  # Количество параллельных воркеров (по умолчанию = CPU cores)
  workers: 4
  # Симуляция без записи на диск
  dry_run: false
  # Подробный вывод
  verbose: false
  # Отключить прогресс-бар
  no_progress: false

tools:
  # Явные пути к инструментам (по умолчанию env/PATH)
  ffmpeg: ""
  magick: ""
  heif_enc: ""
  exiftool: ""
  # Путь к SQLite базе истории
  db: ""
`
}

/*
Возможные расширения:
- Добавить поддержку TOML формата
- Добавить валидацию значений в файле конфигурации
- Добавить поддержку переменных окружения в конфиге
*/
