package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	// Проверяем значения по умолчанию
	if cfg.ImageCRF != 30 {
		t.Errorf("ImageCRF = %d, want 30", cfg.ImageCRF)
	}

	if cfg.VideoCRF != 23 {
		t.Errorf("VideoCRF = %d, want 23", cfg.VideoCRF)
	}

	if cfg.VideoPreset != "medium" {
		t.Errorf("VideoPreset = %q, want %q", cfg.VideoPreset, "medium")
	}

	if !cfg.SkipEncoded {
		t.Error("SkipEncoded should be true by default")
	}

	if cfg.Workers < 1 {
		t.Errorf("Workers = %d, want >= 1", cfg.Workers)
	}
}

func TestConfig_Validate(t *testing.T) {
	inDir := t.TempDir()

	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: &Config{
				InputDir:    inDir,
				OutputDir:   filepath.Join(t.TempDir(), "out"),
				ImageCRF:    30,
				VideoCRF:    23,
				VideoPreset: "medium",
				Workers:     4,
			},
			wantErr: false,
		},
		{
			name: "missing input dir flag",
			cfg: &Config{
				OutputDir:   "/output",
				ImageCRF:    30,
				VideoCRF:    23,
				VideoPreset: "medium",
				Workers:     4,
			},
			wantErr: true,
		},
		{
			name: "nonexistent input dir",
			cfg: &Config{
				InputDir:    filepath.Join(inDir, "no-such-dir"),
				OutputDir:   "/output",
				ImageCRF:    30,
				VideoCRF:    23,
				VideoPreset: "medium",
				Workers:     4,
			},
			wantErr: true,
		},
		{
			name: "missing output dir",
			cfg: &Config{
				InputDir:    inDir,
				ImageCRF:    30,
				VideoCRF:    23,
				VideoPreset: "medium",
				Workers:     4,
			},
			wantErr: true,
		},
		{
			name: "invalid video crf",
			cfg: &Config{
				InputDir:    inDir,
				OutputDir:   "/output",
				ImageCRF:    30,
				VideoCRF:    99,
				VideoPreset: "medium",
				Workers:     4,
			},
			wantErr: true,
		},
		{
			name: "unknown preset",
			cfg: &Config{
				InputDir:    inDir,
				OutputDir:   "/output",
				ImageCRF:    30,
				VideoCRF:    23,
				VideoPreset: "turbo",
				Workers:     4,
			},
			wantErr: true,
		},
		{
			name: "invalid workers",
			cfg: &Config{
				InputDir:    inDir,
				OutputDir:   "/output",
				ImageCRF:    30,
				VideoCRF:    23,
				VideoPreset: "medium",
				Workers:     0,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_DefaultDBPath(t *testing.T) {
	cfg := &Config{
		InputDir:    t.TempDir(),
		OutputDir:   filepath.Join(t.TempDir(), "out"),
		ImageCRF:    30,
		VideoCRF:    23,
		VideoPreset: "medium",
		Workers:     1,
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	want := filepath.Join(cfg.OutputDir, StateDirName, "history.sqlite")
	if cfg.DBPath != want {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, want)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mediaconverter.yaml")

	content := `
input:
  dir: "./media"
output:
  dir: "./converted"
  copy_others: true
encoding:
  image_crf: 24
  video_crf: 20
  video_preset: slow
  skip_encoded: false
processing:
  workers: 2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	fc, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if fc == nil {
		t.Fatal("LoadFromFile() returned nil for existing file")
	}

	cfg := DefaultConfig()
	fc.ApplyToConfig(cfg)

	if cfg.InputDir != "./media" {
		t.Errorf("InputDir = %q, want %q", cfg.InputDir, "./media")
	}
	if !cfg.CopyOthers {
		t.Error("CopyOthers should be applied from file")
	}
	if cfg.ImageCRF != 24 {
		t.Errorf("ImageCRF = %d, want 24", cfg.ImageCRF)
	}
	if cfg.VideoCRF != 20 {
		t.Errorf("VideoCRF = %d, want 20", cfg.VideoCRF)
	}
	if cfg.VideoPreset != "slow" {
		t.Errorf("VideoPreset = %q, want %q", cfg.VideoPreset, "slow")
	}
	if cfg.SkipEncoded {
		t.Error("SkipEncoded should be false after apply")
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
}

func TestLoadFromFile_NotExist(t *testing.T) {
	fc, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if fc != nil {
		t.Error("LoadFromFile() should return nil for missing file")
	}
}

func TestApplyToConfig_FlagPriority(t *testing.T) {
	// ApplyToConfig вызывается до парсинга флагов:
	// значения из файла не должны затирать нулевые поля значениями-нулями.
	cfg := DefaultConfig()
	fc := &FileConfig{Processing: &ProcessingConfig{Workers: 0}}
	before := cfg.Workers

	fc.ApplyToConfig(cfg)

	if cfg.Workers != before {
		t.Errorf("Workers = %d, want %d (нулевое значение не применяется)", cfg.Workers, before)
	}
}
