// Package progress предоставляет прогресс-бар для отображения хода конвертации.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar представляет общий прогресс-бар запуска.
// Проценты кодирования отдельных видео выводятся через WriteMessage,
// чтобы строки разных воркеров не перемешивались с баром.
type Bar struct {
	// bar - внутренний progressbar.
	bar *progressbar.ProgressBar

	// mu защищает доступ к bar и счётчикам.
	mu sync.Mutex

	// disabled - флаг отключения прогресс-бара.
	disabled bool

	// converted/copied/skipped/failed - счётчики итогов.
	converted int64
	copied    int64
	skipped   int64
	failed    int64

	// startTime - время начала обработки.
	startTime time.Time

	// writer - куда выводить (по умолчанию os.Stderr).
	writer io.Writer
}

// Options содержит настройки для прогресс-бара.
type Options struct {
	// Total - общее количество файлов (0 = неизвестно).
	Total int64

	// Description - описание задачи.
	Description string

	// Disabled - отключить прогресс-бар (только текстовый вывод).
	Disabled bool

	// Writer - куда выводить (по умолчанию os.Stderr).
	Writer io.Writer
}

// New создаёт новый прогресс-бар.
func New(opts Options) *Bar {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	b := &Bar{
		disabled:  opts.Disabled,
		startTime: time.Now(),
		writer:    writer,
	}

	if !opts.Disabled && opts.Total > 0 {
		description := opts.Description
		if description == "" {
			description = "Конвертация"
		}

		b.bar = progressbar.NewOptions64(
			opts.Total,
			progressbar.OptionSetWriter(writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("файл"),
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]█[reset]",
				SaucerHead:    "[green]▓[reset]",
				SaucerPadding: "░",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(writer)
			}),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	return b
}

// add продвигает бар на один файл.
func (b *Bar) add() {
	if b.bar != nil {
		_ = b.bar.Add(1)
	}
}

// Increment продвигает бар, не меняя счётчиков итогов (dry-run).
func (b *Bar) Increment() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.add()
}

// IncrementConverted учитывает перекодированный файл.
func (b *Bar) IncrementConverted() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.converted++
	b.add()
}

// IncrementCopied учитывает скопированный файл.
func (b *Bar) IncrementCopied() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.copied++
	b.add()
}

// IncrementSkipped учитывает пропущенный файл.
func (b *Bar) IncrementSkipped() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.skipped++
	b.add()
}

// IncrementFailed учитывает файл с ошибкой.
func (b *Bar) IncrementFailed() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failed++
	b.add()
}

// Finish завершает прогресс-бар.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Finish()
	}
}

// Stats возвращает текущие счётчики.
func (b *Bar) Stats() (converted, copied, skipped, failed int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.converted, b.copied, b.skipped, b.failed
}

// Duration возвращает время с начала обработки.
func (b *Bar) Duration() time.Duration {
	return time.Since(b.startTime)
}

// IsDisabled возвращает true, если прогресс-бар отключён.
func (b *Bar) IsDisabled() bool {
	return b.disabled
}

// WriteMessage выводит строку итога, временно скрывая прогресс-бар.
func (b *Bar) WriteMessage(format string, args ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Clear()
	}

	fmt.Fprintf(b.writer, format, args...)

	if b.bar != nil {
		_ = b.bar.RenderBlank()
	}
}

/*
Возможные расширения:
- Отдельные вложенные бары на каждое кодируемое видео
- Вывод в файл лога параллельно с прогресс-баром
*/
