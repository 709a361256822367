package transcoder

import "testing"

// Захваченные фрагменты stderr от ffmpeg -i.
const hevcStderr = `Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'clip.mov':
  Metadata:
    major_brand     : qt
  Duration: 00:01:30.05, start: 0.000000, bitrate: 12050 kb/s
  Stream #0:0[0x1](und): Video: hevc (Main) (hvc1 / 0x31637668), yuv420p(tv, bt709), 1920x1080, 11893 kb/s, 29.97 fps
  Stream #0:1[0x2](und): Audio: aac (LC) (mp4a / 0x6134706D), 44100 Hz, stereo, fltp, 128 kb/s
At least one output file must be specified
`

const h264Stderr = `Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'clip.mp4':
  Duration: 00:10:00.00, start: 0.000000, bitrate: 5000 kb/s
  Stream #0:0[0x1](und): Video: h264 (High) (avc1 / 0x31637661), yuv420p, 1280x720, 25 fps
  Stream #0:1[0x2](und): Audio: aac (LC), 48000 Hz, stereo
At least one output file must be specified
`

func TestParseStreamDescription(t *testing.T) {
	tests := []struct {
		name         string
		out          string
		wantHEVC     bool
		wantDuration float64
	}{
		{"hevc stream", hevcStderr, true, 90.05},
		{"h264 stream", h264Stderr, false, 600},
		{"uppercase alias", "  Stream #0:0: Video: HEVC (Main)\n  Duration: 00:00:01.00, start", true, 1},
		{"h265 alias", "Stream #0:0: Video: h265\n", true, 0},
		{"audio only", "Stream #0:0: Audio: aac hevc-sounding-name\n", false, 0},
		{"empty output", "", false, 0},
		{"broken duration", "Duration: N/A, start\nStream: Video: h264\n", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseStreamDescription(tt.out)
			if info.HEVC != tt.wantHEVC {
				t.Errorf("HEVC = %v, want %v", info.HEVC, tt.wantHEVC)
			}
			if info.Duration != tt.wantDuration {
				t.Errorf("Duration = %v, want %v", info.Duration, tt.wantDuration)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		line string
		want float64
	}{
		{"  Duration: 00:01:30.05, start: 0.000000, bitrate: 1205 kb/s", 90.05},
		{"  Duration: 01:00:00.00, start: 0", 3600},
		{"  Duration: N/A, start: 0", 0},
		{"no duration here", 0},
	}

	for _, tt := range tests {
		if got := parseDuration(tt.line); got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
