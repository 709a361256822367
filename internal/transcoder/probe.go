// Package transcoder выполняет перекодирование файлов через внешние инструменты.
package transcoder

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
)

// StreamInfo содержит сведения об исходном видео из описания потоков ffmpeg.
type StreamInfo struct {
	// HEVC - видеопоток уже закодирован в H.265/HEVC.
	HEVC bool

	// Duration - длительность в секундах (0 = не удалось определить).
	Duration float64
}

// hevcAliases - известные имена целевого кодека в описании потока.
var hevcAliases = []string{"hevc", "h265", "h.265"}

// probe запускает ffmpeg -i и разбирает описание потоков из stderr.
// ffmpeg без выходного файла всегда завершается с ошибкой - код выхода
// игнорируется, важен только текст.
func probe(ctx context.Context, ffmpegPath, src string) StreamInfo {
	cmd := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-i", src)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	_ = cmd.Run()

	return ParseStreamDescription(stderr.String())
}

// ParseStreamDescription разбирает текстовое описание потоков ffmpeg.
// Экспортирована для тестирования без реального ffmpeg.
func ParseStreamDescription(out string) StreamInfo {
	var info StreamInfo

	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Video:") {
			lower := strings.ToLower(line)
			for _, alias := range hevcAliases {
				if strings.Contains(lower, alias) {
					info.HEVC = true
					break
				}
			}
		}

		if info.Duration == 0 && strings.Contains(line, "Duration:") {
			info.Duration = parseDuration(line)
		}
	}

	return info
}

// parseDuration извлекает длительность из строки вида
// "  Duration: 00:01:30.05, start: 0.000000, bitrate: 1205 kb/s".
func parseDuration(line string) float64 {
	_, rest, ok := strings.Cut(line, "Duration:")
	if !ok {
		return 0
	}
	timeStr, _, _ := strings.Cut(rest, ",")
	timeStr = strings.TrimSpace(timeStr)

	parts := strings.Split(timeStr, ":")
	if len(parts) != 3 {
		return 0
	}

	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	s, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0
	}

	return float64(h)*3600 + float64(m)*60 + s
}
