package transcoder

import (
	"strings"
	"testing"
)

// sampleStream - захваченный фрагмент вывода ffmpeg -progress pipe:1.
const sampleStream = `frame=120
fps=24.00
stream_0_0_q=28.0
bitrate= 950.2kbits/s
total_size=1187840
out_time_us=5000000
out_time_ms=5000000
out_time=00:00:05.000000
dup_frames=0
drop_frames=0
speed=1.01x
progress=continue
frame=240
out_time_ms=10000000
progress=continue
frame=360
out_time_ms=15000000
progress=end
`

func TestProgressParser_SampleStream(t *testing.T) {
	p := NewProgressParser(20.0)

	var pcts []float64
	for _, line := range strings.Split(sampleStream, "\n") {
		if pct, ok := p.Feed(line); ok {
			pcts = append(pcts, pct)
		}
	}

	if len(pcts) == 0 {
		t.Fatal("парсер не сообщил ни одного процента")
	}

	// Монотонность и диапазон
	prev := -1.0
	for i, pct := range pcts {
		if pct < prev {
			t.Errorf("процент убывает на шаге %d: %v -> %v", i, prev, pct)
		}
		if pct < 0 || pct > 100 {
			t.Errorf("процент вне диапазона: %v", pct)
		}
		prev = pct
	}

	// progress=end даёт 100
	if pcts[len(pcts)-1] != 100 {
		t.Errorf("финальный процент = %v, want 100", pcts[len(pcts)-1])
	}
}

func TestProgressParser_Feed(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		line     string
		wantPct  float64
		wantOK   bool
	}{
		{"out_time_ms half", 10, "out_time_ms=5000000", 50, true},
		{"out_time_us half", 10, "out_time_us=5000000", 50, true},
		{"out_time clock", 100, "out_time=00:00:25.000000", 25, true},
		{"clamped above 100", 10, "out_time_ms=99000000", 100, true},
		{"unknown duration", 0, "out_time_ms=5000000", 0, false},
		{"unrelated line", 10, "fps=24.00", 0, false},
		{"garbage value", 10, "out_time_ms=abc", 0, false},
		{"negative value", 10, "out_time_ms=-100", 0, false},
		{"progress end", 10, "progress=end", 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProgressParser(tt.duration)
			pct, ok := p.Feed(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("Feed() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && pct != tt.wantPct {
				t.Errorf("Feed() pct = %v, want %v", pct, tt.wantPct)
			}
		})
	}
}

func TestProgressParser_Monotonic(t *testing.T) {
	p := NewProgressParser(10)

	if pct, _ := p.Feed("out_time_ms=8000000"); pct != 80 {
		t.Fatalf("pct = %v, want 80", pct)
	}

	// Откат времени назад не должен уменьшать процент
	pct, ok := p.Feed("out_time_ms=4000000")
	if !ok {
		t.Fatal("Feed() ok = false")
	}
	if pct != 80 {
		t.Errorf("pct = %v, want 80 (монотонность)", pct)
	}

	if p.Percent() != 80 {
		t.Errorf("Percent() = %v, want 80", p.Percent())
	}
}
