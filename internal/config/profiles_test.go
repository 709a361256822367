package config

import "testing"

func TestApplyProfile(t *testing.T) {
	tests := []struct {
		name        string
		profile     string
		wantErr     bool
		imageCRF    int
		videoCRF    int
		videoPreset string
	}{
		{"archive", "archive", false, 18, 18, "slow"},
		{"balanced", "balanced", false, 30, 23, "medium"},
		{"compact", "compact", false, 38, 28, "fast"},
		{"unknown", "ultra", true, 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := ApplyProfile(cfg, tt.profile)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyProfile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg.ImageCRF != tt.imageCRF {
				t.Errorf("ImageCRF = %d, want %d", cfg.ImageCRF, tt.imageCRF)
			}
			if cfg.VideoCRF != tt.videoCRF {
				t.Errorf("VideoCRF = %d, want %d", cfg.VideoCRF, tt.videoCRF)
			}
			if cfg.VideoPreset != tt.videoPreset {
				t.Errorf("VideoPreset = %q, want %q", cfg.VideoPreset, tt.videoPreset)
			}
			if cfg.Profile != tt.profile {
				t.Errorf("Profile = %q, want %q", cfg.Profile, tt.profile)
			}
		})
	}
}

func TestProfileNames(t *testing.T) {
	names := ProfileNames()
	if len(names) != len(Profiles) {
		t.Errorf("ProfileNames() returned %d names, want %d", len(names), len(Profiles))
	}
	for _, n := range names {
		if _, ok := Profiles[Profile(n)]; !ok {
			t.Errorf("профиль %q отсутствует в Profiles", n)
		}
	}
}
