// Package transcoder выполняет перекодирование файлов через внешние инструменты.
package transcoder

import (
	"strconv"
	"strings"
)

// ProgressParser преобразует построчный прогресс-поток ffmpeg
// (-progress pipe:1) в монотонно неубывающий процент [0,100].
// Если общая длительность неизвестна, прогресс не сообщается.
type ProgressParser struct {
	// duration - общая длительность источника в секундах (0 = неизвестна).
	duration float64

	// last - последний сообщённый процент (монотонность).
	last float64
}

// NewProgressParser создаёт парсер для источника заданной длительности.
func NewProgressParser(duration float64) *ProgressParser {
	return &ProgressParser{duration: duration}
}

// Feed обрабатывает одну строку прогресс-потока.
// Возвращает текущий процент и ok=true, если строка содержала
// маркер прошедшего времени и длительность известна.
func (p *ProgressParser) Feed(line string) (pct float64, ok bool) {
	line = strings.TrimSpace(line)

	if p.duration <= 0 {
		return 0, false
	}

	if line == "progress=end" {
		p.last = 100
		return 100, true
	}

	key, value, found := strings.Cut(line, "=")
	if !found {
		return 0, false
	}

	var elapsed float64
	switch key {
	case "out_time_ms", "out_time_us":
		// Оба ключа ffmpeg печатает в микросекундах
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		elapsed = float64(n) / 1e6
	case "out_time":
		elapsed = parseClock(value)
		if elapsed < 0 {
			return 0, false
		}
	default:
		return 0, false
	}

	pct = elapsed / p.duration * 100
	if pct > 100 {
		pct = 100
	}
	if pct < p.last {
		pct = p.last
	}
	p.last = pct

	return pct, true
}

// Percent возвращает последний сообщённый процент.
func (p *ProgressParser) Percent() float64 {
	return p.last
}

// parseClock разбирает время вида "00:01:23.456789".
// Возвращает -1 при ошибке разбора.
func parseClock(s string) float64 {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return -1
	}

	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	sec, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return -1
	}

	return float64(h)*3600 + float64(m)*60 + sec
}
