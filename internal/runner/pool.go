// Package runner содержит пул воркеров для параллельной обработки файлов.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/artemshloyda/mediaconverter/internal/config"
	"github.com/artemshloyda/mediaconverter/internal/planner"
	"github.com/artemshloyda/mediaconverter/internal/progress"
	"github.com/artemshloyda/mediaconverter/internal/scanner"
	"github.com/artemshloyda/mediaconverter/internal/storage"
	"github.com/artemshloyda/mediaconverter/internal/tools"
	"github.com/artemshloyda/mediaconverter/internal/transcoder"
)

// Stats содержит статистику обработки.
type Stats struct {
	// Total - общее количество рассмотренных файлов.
	Total int64

	// Planned - количество запланированных файлов (dry-run).
	Planned int64

	// Converted - количество перекодированных файлов.
	Converted int64

	// Copied - количество скопированных файлов.
	Copied int64

	// Skipped - количество пропущенных файлов.
	Skipped int64

	// Failed - количество файлов с ошибками.
	Failed int64

	// InputBytes - общий размер входных файлов (обработанных).
	InputBytes int64

	// OutputBytes - общий размер выходных файлов.
	OutputBytes int64
}

// SavedBytes возвращает количество сэкономленных байт.
func (s *Stats) SavedBytes() int64 {
	return s.InputBytes - s.OutputBytes
}

// SavedPercent возвращает процент экономии.
func (s *Stats) SavedPercent() float64 {
	if s.InputBytes == 0 {
		return 0
	}
	return float64(s.SavedBytes()) / float64(s.InputBytes) * 100
}

// FormatBytes форматирует байты в человекочитаемый формат.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// ImageEncoder перекодирует изображение в HEIC.
type ImageEncoder interface {
	Encode(ctx context.Context, src, dst string) (transcoder.Result, error)
}

// VideoEncoder перекодирует видео в H.265/MP4.
type VideoEncoder interface {
	Encode(ctx context.Context, src, dst, relPath string, onProgress transcoder.ProgressFunc) (transcoder.Result, error)
}

// MetadataPropagator переносит метаданные и mtime с исходника на результат.
type MetadataPropagator interface {
	Propagate(ctx context.Context, src, dst, backend string) bool
	AlignMtime(src, dst string) error
}

// OutcomeRecorder записывает итоги обработки в историю.
type OutcomeRecorder interface {
	RecordOutcome(rec storage.OutcomeRecord) error
}

// Pool управляет пулом воркеров для обработки файлов.
type Pool struct {
	cfg           *config.Config
	planner       *planner.Planner
	images        ImageEncoder
	videos        VideoEncoder
	meta          MetadataPropagator
	recorder      OutcomeRecorder
	stats         Stats
	runID         string
	verbose       bool
	progress      *progress.Bar
	memoryLimiter *MemoryLimiter
}

// New создаёт новый пул воркеров.
func New(cfg *config.Config, plnr *planner.Planner, images ImageEncoder, videos VideoEncoder, meta MetadataPropagator, rec OutcomeRecorder) *Pool {
	return &Pool{
		cfg:           cfg,
		planner:       plnr,
		images:        images,
		videos:        videos,
		meta:          meta,
		recorder:      rec,
		runID:         time.Now().Format("20060102-150405"),
		verbose:       cfg.Verbose,
		memoryLimiter: NewMemoryLimiter(cfg.MaxMemoryMB),
	}
}

// RunID возвращает идентификатор текущего запуска.
func (p *Pool) RunID() string {
	return p.runID
}

// SetProgressBar устанавливает прогресс-бар для отображения прогресса.
func (p *Pool) SetProgressBar(bar *progress.Bar) {
	p.progress = bar
}

// Process запускает обработку файлов из канала.
func (p *Pool) Process(ctx context.Context, files <-chan scanner.File, errChan <-chan error) Stats {
	var wg sync.WaitGroup

	// Запускаем воркеров
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, files)
		}()
	}

	// Ждём завершения всех воркеров
	wg.Wait()

	// Проверяем ошибки сканирования
	select {
	case err := <-errChan:
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ошибка сканирования: %v\n", err)
		}
	default:
	}

	return p.GetStats()
}

// worker обрабатывает файлы из канала.
func (p *Pool) worker(ctx context.Context, files <-chan scanner.File) {
	for {
		select {
		case <-ctx.Done():
			return
		case file, ok := <-files:
			if !ok {
				return
			}
			p.processFile(ctx, file)
		}
	}
}

// processFile обрабатывает один файл.
func (p *Pool) processFile(ctx context.Context, file scanner.File) {
	task, err := p.planner.Plan(file.Path)
	if err != nil {
		atomic.AddInt64(&p.stats.Total, 1)
		p.logf("❌ [FAIL] %s: %v\n", file.RelPath, err)
		atomic.AddInt64(&p.stats.Failed, 1)
		return
	}

	// Не-медиа файлы без --copy-others вообще не задача
	if task.Kind == planner.KindOther && !p.cfg.CopyOthers {
		return
	}

	atomic.AddInt64(&p.stats.Total, 1)

	// Dry run: только план, ни одной записи на диск или в историю
	if p.cfg.DryRun {
		p.logf("🔄 [PLAN] %s -> %s\n", file.RelPath, task.DstPath)
		atomic.AddInt64(&p.stats.Planned, 1)
		if p.progress != nil {
			p.progress.Increment()
		}
		return
	}

	// Назначение уже актуально?
	if planner.ShouldSkip(file.Path, task.DstPath, p.cfg.Overwrite) {
		if p.verbose {
			p.logf("⏭️  [SKIP] %s\n", file.RelPath)
		}
		if p.progress != nil {
			p.progress.IncrementSkipped()
		}
		atomic.AddInt64(&p.stats.Skipped, 1)
		p.record(file, task, storage.StatusSkipped, "", "", 0)
		return
	}

	if err := p.planner.EnsureDstDir(task); err != nil {
		p.logf("❌ [FAIL] %s: %v\n", file.RelPath, err)
		atomic.AddInt64(&p.stats.Failed, 1)
		p.record(file, task, storage.StatusFailed, "", err.Error(), 0)
		return
	}

	// Ограничение памяти: ждём если превышен лимит
	if p.memoryLimiter.IsEnabled() {
		release, err := p.memoryLimiter.Acquire(ctx, file.Size)
		if err != nil {
			p.logf("❌ [FAIL] %s: memory limiter: %v\n", file.RelPath, err)
			atomic.AddInt64(&p.stats.Failed, 1)
			p.record(file, task, storage.StatusFailed, "", err.Error(), 0)
			return
		}
		defer release()
	}

	started := time.Now()
	result, err := p.convert(ctx, file, task)
	elapsed := time.Since(started)

	if err != nil {
		p.logFailure(file.RelPath, err)
		if p.progress != nil {
			p.progress.IncrementFailed()
		}
		atomic.AddInt64(&p.stats.Failed, 1)
		p.record(file, task, storage.StatusFailed, result.Backend, err.Error(), elapsed.Milliseconds())
		return
	}

	// Переносим метаданные и время модификации
	if !result.Copied {
		p.meta.Propagate(ctx, file.Path, task.DstPath, result.Backend)
	}
	if err := p.meta.AlignMtime(file.Path, task.DstPath); err != nil {
		p.logf("⚠️  [WARN] %s: %v\n", file.RelPath, err)
	}

	// Обновляем статистику размеров
	atomic.AddInt64(&p.stats.InputBytes, file.Size)
	if outInfo, err := os.Stat(task.DstPath); err == nil {
		atomic.AddInt64(&p.stats.OutputBytes, outInfo.Size())
	}

	if result.Copied {
		if p.verbose {
			p.logf("📋 [COPY] %s -> %s\n", file.RelPath, task.DstPath)
		}
		if p.progress != nil {
			p.progress.IncrementCopied()
		}
		atomic.AddInt64(&p.stats.Copied, 1)
		p.record(file, task, storage.StatusCopied, result.Backend, "", elapsed.Milliseconds())
		return
	}

	if p.verbose {
		p.logf("✅ [OK] %s -> %s (%.2fs, %s)\n", file.RelPath, task.DstPath, elapsed.Seconds(), result.Backend)
	}
	if p.progress != nil {
		p.progress.IncrementConverted()
	}
	atomic.AddInt64(&p.stats.Converted, 1)
	p.record(file, task, storage.StatusConverted, result.Backend, "", elapsed.Milliseconds())
}

// convert выполняет перекодирование или копирование в зависимости от типа.
func (p *Pool) convert(ctx context.Context, file scanner.File, task planner.Task) (transcoder.Result, error) {
	switch task.Kind {
	case planner.KindImage:
		return p.images.Encode(ctx, file.Path, task.DstPath)

	case planner.KindVideo:
		return p.videos.Encode(ctx, file.Path, task.DstPath, file.RelPath, p.videoProgress(file.RelPath))

	default:
		if err := transcoder.CopyFile(file.Path, task.DstPath); err != nil {
			return transcoder.Result{}, err
		}
		return transcoder.Result{Backend: "copy", Copied: true}, nil
	}
}

// videoProgress возвращает колбэк прогресса кодирования одного видео.
// Проценты печатаются шагами по 10, чтобы не заливать вывод.
func (p *Pool) videoProgress(relPath string) transcoder.ProgressFunc {
	if !p.verbose {
		return nil
	}

	var lastStep float64 = -1
	var mu sync.Mutex

	return func(pct float64) {
		mu.Lock()
		defer mu.Unlock()

		step := float64(int(pct/10) * 10)
		if step <= lastStep {
			return
		}
		lastStep = step
		p.logf("⏳ %s: %.0f%%\n", relPath, step)
	}
}

// logFailure печатает ошибку обработки с тегом по её типу.
func (p *Pool) logFailure(relPath string, err error) {
	var execErr *transcoder.ExecError

	switch {
	case errors.Is(err, tools.ErrToolMissing):
		p.logf("🔍 [NOT FOUND] %s: %v\n", relPath, err)
	case errors.As(err, &execErr):
		p.logf("❌ [CMD-ERR] %s: %v\n", relPath, err)
	default:
		p.logf("❌ [FAIL] %s: %v\n", relPath, err)
	}
}

// record добавляет итог в историю (если история подключена).
func (p *Pool) record(file scanner.File, task planner.Task, status storage.Status, backend, errMsg string, durationMS int64) {
	if p.recorder == nil {
		return
	}

	rec := storage.OutcomeRecord{
		RunID:      p.runID,
		SrcPath:    file.Path,
		RelPath:    file.RelPath,
		Kind:       string(task.Kind),
		Status:     status,
		Backend:    backend,
		DstPath:    task.DstPath,
		Error:      errMsg,
		DurationMS: durationMS,
	}

	if err := p.recorder.RecordOutcome(rec); err != nil {
		p.logf("⚠️  [WARN] не удалось записать историю для %s: %v\n", file.RelPath, err)
	}
}

// logf печатает строку, не ломая прогресс-бар.
func (p *Pool) logf(format string, args ...interface{}) {
	if p.progress != nil && !p.progress.IsDisabled() {
		p.progress.WriteMessage(format, args...)
	} else {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// GetStats возвращает текущую статистику.
func (p *Pool) GetStats() Stats {
	return Stats{
		Total:       atomic.LoadInt64(&p.stats.Total),
		Planned:     atomic.LoadInt64(&p.stats.Planned),
		Converted:   atomic.LoadInt64(&p.stats.Converted),
		Copied:      atomic.LoadInt64(&p.stats.Copied),
		Skipped:     atomic.LoadInt64(&p.stats.Skipped),
		Failed:      atomic.LoadInt64(&p.stats.Failed),
		InputBytes:  atomic.LoadInt64(&p.stats.InputBytes),
		OutputBytes: atomic.LoadInt64(&p.stats.OutputBytes),
	}
}

/*
Возможные расширения:
- Добавить rate limiting
- Добавить retry логику для failed задач
- Добавить приоритет маленьких файлов для быстрого прогресса
*/
