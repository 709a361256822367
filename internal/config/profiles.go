// Package config содержит конфигурацию приложения.
package config

import "fmt"

// Profile определяет именованный профиль качества.
type Profile string

const (
	// ProfileArchive - архивное качество: минимальные потери, медленное кодирование.
	ProfileArchive Profile = "archive"
	// ProfileBalanced - баланс качества и размера (значения по умолчанию).
	ProfileBalanced Profile = "balanced"
	// ProfileCompact - максимальное сжатие для мобильных устройств.
	ProfileCompact Profile = "compact"
)

// ProfileConfig содержит настройки кодирования для профиля.
type ProfileConfig struct {
	// ImageCRF - качество HEIC.
	ImageCRF int
	// VideoCRF - CRF для H.265.
	VideoCRF int
	// VideoPreset - пресет x265.
	VideoPreset string
}

// Profiles содержит все доступные профили.
var Profiles = map[Profile]ProfileConfig{
	ProfileArchive: {
		ImageCRF:    18,
		VideoCRF:    18,
		VideoPreset: "slow",
	},
	ProfileBalanced: {
		ImageCRF:    30,
		VideoCRF:    23,
		VideoPreset: "medium",
	},
	ProfileCompact: {
		ImageCRF:    38,
		VideoCRF:    28,
		VideoPreset: "fast",
	},
}

// ApplyProfile применяет профиль к конфигурации.
// Вызывается до парсинга CLI флагов: явные флаги перекрывают профиль.
func ApplyProfile(cfg *Config, name string) error {
	pc, ok := Profiles[Profile(name)]
	if !ok {
		return fmt.Errorf("неизвестный профиль: %s (доступны: archive, balanced, compact)", name)
	}

	cfg.ImageCRF = pc.ImageCRF
	cfg.VideoCRF = pc.VideoCRF
	cfg.VideoPreset = pc.VideoPreset
	cfg.Profile = name

	return nil
}

// ProfileNames возвращает имена всех профилей.
func ProfileNames() []string {
	return []string{string(ProfileArchive), string(ProfileBalanced), string(ProfileCompact)}
}
