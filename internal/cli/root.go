// Package cli содержит CLI интерфейс приложения.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/mediaconverter/internal/config"
	"github.com/artemshloyda/mediaconverter/internal/metadata"
	"github.com/artemshloyda/mediaconverter/internal/planner"
	"github.com/artemshloyda/mediaconverter/internal/progress"
	"github.com/artemshloyda/mediaconverter/internal/runner"
	"github.com/artemshloyda/mediaconverter/internal/scanner"
	"github.com/artemshloyda/mediaconverter/internal/storage"
	"github.com/artemshloyda/mediaconverter/internal/tools"
	"github.com/artemshloyda/mediaconverter/internal/transcoder"
	"github.com/artemshloyda/mediaconverter/internal/watcher"
)

var (
	// Version будет установлена при сборке.
	Version = "dev"

	// BuildTime будет установлена при сборке.
	BuildTime = "unknown"
)

// cfg содержит глобальную конфигурацию.
var cfg = config.DefaultConfig()

// Пути пресетов/конфига, задаваемые флагами.
var (
	configPath     string
	savePresetName string
	loadPresetName string
)

// NewRootCmd создаёт корневую команду CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mediaconverter",
		Short: "Утилита для массовой конвертации фото и видео в HEIC/H.265",
		Long: `MediaConverter - CLI утилита для массовой перекодировки медиа-архивов.

Изображения конвертируются в HEIC (magick, heif-enc или ffmpeg),
видео - в H.265/MP4 (ffmpeg), метаданные и mtime переносятся exiftool.
Структура директорий зеркалится, повторный запуск пропускает
уже актуальные файлы по mtime и размеру.

Примеры:
  # Перекодировать архив целиком
  mediaconverter --in ./media --out ./converted

  # Архивное качество, 8 воркеров
  mediaconverter --in ./media --out ./converted --profile archive --workers 8

  # Симуляция без записи на диск
  mediaconverter --in ./media --out ./converted --dry-run

  # Копировать и не-медиа файлы, следить за новыми
  mediaconverter --in ./media --out ./converted --copy-others --watch`,
		RunE: runConvert,
	}

	// Флаги
	flags := rootCmd.Flags()

	// Входные и выходные параметры
	flags.StringVar(&cfg.InputDir, "in", "", "Директория с исходными файлами (обязательно)")
	flags.StringVar(&cfg.OutputDir, "out", "", "Директория для результатов (обязательно)")
	flags.BoolVar(&cfg.Overwrite, "overwrite", cfg.Overwrite, "Перезаписывать существующие выходные файлы")
	flags.BoolVar(&cfg.CopyOthers, "copy-others", cfg.CopyOthers, "Копировать не-медиа файлы как есть")

	// Кодирование
	flags.IntVar(&cfg.ImageCRF, "image-crf", cfg.ImageCRF, "Качество HEIC (CRF, меньше = лучше)")
	flags.IntVar(&cfg.VideoCRF, "video-crf", cfg.VideoCRF, "CRF для H.265 (0-51)")
	flags.StringVar(&cfg.VideoPreset, "video-preset", cfg.VideoPreset, "Пресет x265: ultrafast..veryslow")
	flags.BoolVar(&cfg.SkipEncoded, "skip-encoded", cfg.SkipEncoded, "Копировать уже H.265 видео без перекодирования")
	flags.StringVar(&cfg.Profile, "profile", cfg.Profile,
		fmt.Sprintf("Профиль качества: %s", strings.Join(config.ProfileNames(), ", ")))

	// Режим работы
	flags.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Симуляция без реальной конвертации")
	flags.BoolVar(&cfg.Watch, "watch", cfg.Watch, "После обработки следить за новыми файлами")

	// Производительность
	flags.IntVar(&cfg.Workers, "workers", cfg.Workers, "Количество параллельных воркеров")
	flags.IntVar(&cfg.MaxMemoryMB, "max-memory", cfg.MaxMemoryMB, "Ограничение памяти в МБ (0 = без ограничения)")

	// Пути
	flags.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Путь к SQLite базе истории")
	flags.StringVar(&cfg.FFmpegPath, "ffmpeg-path", cfg.FFmpegPath, "Путь к бинарнику ffmpeg")
	flags.StringVar(&cfg.MagickPath, "magick-path", cfg.MagickPath, "Путь к бинарнику magick")
	flags.StringVar(&cfg.HeifEncPath, "heif-enc-path", cfg.HeifEncPath, "Путь к бинарнику heif-enc")
	flags.StringVar(&cfg.ExiftoolPath, "exiftool-path", cfg.ExiftoolPath, "Путь к бинарнику exiftool")

	// Конфигурация и пресеты
	flags.StringVar(&configPath, "config", "", "Путь к YAML файлу конфигурации")
	flags.StringVar(&savePresetName, "save-preset", "", "Сохранить текущие настройки как пресет")
	flags.StringVar(&loadPresetName, "load-preset", "", "Загрузить настройки из пресета")

	// Вывод
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Подробный вывод")
	flags.BoolVar(&cfg.NoProgress, "no-progress", cfg.NoProgress, "Отключить прогресс-бар")

	rootCmd.PreRunE = applyLayeredConfig

	// Подкоманды
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newPresetsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// applyLayeredConfig собирает итоговую конфигурацию из слоёв:
// значения по умолчанию < пресет < файл конфигурации < профиль < флаги CLI.
// Флаги разобраны до PreRunE, поэтому явно заданные значения
// сохраняются и восстанавливаются после применения слоёв.
func applyLayeredConfig(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	fromFlags := *cfg

	// Именованный пресет
	if loadPresetName != "" {
		fc, path, err := config.LoadPreset(loadPresetName)
		if err != nil {
			return err
		}
		if fc == nil {
			return fmt.Errorf("пресет '%s' не найден", loadPresetName)
		}
		fc.ApplyToConfig(cfg)
		if cfg.Verbose {
			fmt.Printf("📦 Загружен пресет: %s (%s)\n", loadPresetName, path)
		}
	}

	// Файл конфигурации (--config или стандартные пути)
	fc, path, err := config.FindAndLoadConfig(configPath)
	if err != nil {
		return err
	}
	if fc != nil {
		fc.ApplyToConfig(cfg)
		if cfg.Verbose {
			fmt.Printf("📄 Конфигурация: %s\n", path)
		}
	}

	// Профиль качества
	if cfg.Profile != "" {
		if err := config.ApplyProfile(cfg, cfg.Profile); err != nil {
			return err
		}
	}

	// Явные флаги всегда побеждают
	restore := map[string]func(){
		"in":            func() { cfg.InputDir = fromFlags.InputDir },
		"out":           func() { cfg.OutputDir = fromFlags.OutputDir },
		"overwrite":     func() { cfg.Overwrite = fromFlags.Overwrite },
		"copy-others":   func() { cfg.CopyOthers = fromFlags.CopyOthers },
		"image-crf":     func() { cfg.ImageCRF = fromFlags.ImageCRF },
		"video-crf":     func() { cfg.VideoCRF = fromFlags.VideoCRF },
		"video-preset":  func() { cfg.VideoPreset = fromFlags.VideoPreset },
		"skip-encoded":  func() { cfg.SkipEncoded = fromFlags.SkipEncoded },
		"dry-run":       func() { cfg.DryRun = fromFlags.DryRun },
		"watch":         func() { cfg.Watch = fromFlags.Watch },
		"workers":       func() { cfg.Workers = fromFlags.Workers },
		"max-memory":    func() { cfg.MaxMemoryMB = fromFlags.MaxMemoryMB },
		"db":            func() { cfg.DBPath = fromFlags.DBPath },
		"ffmpeg-path":   func() { cfg.FFmpegPath = fromFlags.FFmpegPath },
		"magick-path":   func() { cfg.MagickPath = fromFlags.MagickPath },
		"heif-enc-path": func() { cfg.HeifEncPath = fromFlags.HeifEncPath },
		"exiftool-path": func() { cfg.ExiftoolPath = fromFlags.ExiftoolPath },
		"verbose":       func() { cfg.Verbose = fromFlags.Verbose },
		"no-progress":   func() { cfg.NoProgress = fromFlags.NoProgress },
	}
	for name, apply := range restore {
		if flags.Changed(name) {
			apply()
		}
	}

	return nil
}

// runConvert выполняет основную логику конвертации.
func runConvert(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	// Сохранение пресета: можно и без запуска конвертации
	if savePresetName != "" {
		path, err := config.SavePreset(savePresetName, cfg)
		if err != nil {
			return fmt.Errorf("не удалось сохранить пресет: %w", err)
		}
		fmt.Printf("💾 Пресет '%s' сохранён: %s\n", savePresetName, path)
		if cfg.InputDir == "" && cfg.OutputDir == "" {
			return nil
		}
	}

	// Валидация конфигурации
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}

	// Создаём контекст с обработкой сигналов
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Обработка сигналов завершения
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n⚠️  Получен сигнал завершения, останавливаем...")
		cancel()
	}()

	// Разрешаем внешние инструменты
	toolset := tools.ResolveAll(cfg.FFmpegPath, cfg.MagickPath, cfg.HeifEncPath, cfg.ExiftoolPath, promptForTool())
	printToolset(toolset)

	// Инициализируем историю (в dry-run не нужна)
	var store *storage.Storage
	var recorder runner.OutcomeRecorder
	if !cfg.DryRun {
		var err error
		store, err = storage.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("не удалось инициализировать БД: %w", err)
		}
		defer func() { _ = store.Close() }()
		recorder = store
	}

	// Собираем конвейер
	plnr := planner.New(cfg.InputDir, cfg.OutputDir)
	images := transcoder.NewImageEncoder(toolset, cfg)
	videos := transcoder.NewVideoEncoder(toolset, cfg)
	if !cfg.SkipEncoded {
		// Пользователь явно попросил перекодировать даже готовый H.265
		videos.SetConfirmFunc(func(string) bool { return false })
	}
	meta := metadata.New(toolset.Exiftool, warnf)

	pool := runner.New(cfg, plnr, images, videos, meta, recorder)

	// Сканер и прогресс-бар
	scan := scanner.New(cfg)

	var bar *progress.Bar
	if !cfg.NoProgress && !cfg.DryRun {
		count, _ := scan.CountFiles()
		bar = progress.New(progress.Options{Total: count, Description: "Конвертация"})
		pool.SetProgressBar(bar)
	}

	printBanner()

	// Запускаем обработку
	files, errChan := scan.Scan(ctx)
	stats := pool.Process(ctx, files, errChan)

	if bar != nil {
		bar.Finish()
	}

	printSummary(stats, time.Since(startTime))

	if stats.Failed > 0 {
		return fmt.Errorf("завершено с %d ошибками", stats.Failed)
	}

	// Режим слежения: обрабатываем новые файлы до сигнала завершения
	if cfg.Watch {
		return runWatch(ctx, pool)
	}

	return nil
}

// runWatch обрабатывает новые файлы через fsnotify до отмены контекста.
func runWatch(ctx context.Context, pool *runner.Pool) error {
	w, err := watcher.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	files, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("не удалось запустить слежение: %w", err)
	}

	fmt.Printf("👀 Слежение за %s (Ctrl+C для выхода)\n", cfg.InputDir)

	// Прогресс-бар в режиме слежения не имеет смысла: итог неизвестен
	pool.SetProgressBar(nil)

	emptyErrs := make(chan error)
	close(emptyErrs)

	stats := pool.Process(ctx, files, emptyErrs)
	if stats.Failed > 0 {
		return fmt.Errorf("слежение завершено с %d ошибками", stats.Failed)
	}
	return nil
}

// promptForTool возвращает обработчик ненайденных инструментов.
// В интерактивном терминале спрашивает путь у пользователя,
// иначе инструмент просто остаётся ненайденным.
func promptForTool() tools.MissingToolHandler {
	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	return func(name string) (string, bool) {
		fmt.Printf("🔍 %s не найден. Укажите путь (Enter - пропустить): ", name)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", false
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return "", false
		}
		return line, true
	}
}

// printToolset выводит найденные инструменты.
func printToolset(ts *tools.Toolset) {
	for _, b := range []tools.Binding{ts.FFmpeg, ts.Magick, ts.HeifEnc, ts.Exiftool} {
		if b.Found {
			fmt.Printf("📦 Найден %s: %s\n", b.Name, b.Path)
		} else {
			fmt.Printf("⚠️  %s не найден\n", b.Name)
		}
	}
}

// printBanner выводит параметры запуска.
func printBanner() {
	fmt.Printf("🚀 Запуск конвертации:\n")
	fmt.Printf("   Вход: %s\n", cfg.InputDir)
	fmt.Printf("   Выход: %s\n", cfg.OutputDir)
	fmt.Printf("   Изображения: HEIC (crf %d)\n", cfg.ImageCRF)
	fmt.Printf("   Видео: H.265/MP4 (crf %d, preset %s)\n", cfg.VideoCRF, cfg.VideoPreset)
	fmt.Printf("   Воркеров: %d\n", cfg.Workers)
	if cfg.Profile != "" {
		fmt.Printf("   Профиль: %s\n", cfg.Profile)
	}
	if cfg.DryRun {
		fmt.Println("   ⚠️  Dry-run режим (без реальной конвертации)")
	}
	fmt.Println()
}

// printSummary выводит итоги запуска.
func printSummary(stats runner.Stats, duration time.Duration) {
	fmt.Println()
	fmt.Printf("📊 Результаты:\n")
	if stats.Planned > 0 {
		fmt.Printf("   Запланировано: %d\n", stats.Planned)
	}
	fmt.Printf("   Перекодировано: %d\n", stats.Converted)
	fmt.Printf("   Скопировано: %d\n", stats.Copied)
	fmt.Printf("   Пропущено: %d\n", stats.Skipped)
	fmt.Printf("   Ошибок: %d\n", stats.Failed)
	if stats.InputBytes > 0 {
		fmt.Printf("   Размер: %s -> %s (экономия %.1f%%)\n",
			runner.FormatBytes(stats.InputBytes), runner.FormatBytes(stats.OutputBytes), stats.SavedPercent())
	}
	fmt.Printf("   Время: %s\n", duration.Round(time.Millisecond))
}

// warnf печатает предупреждение в stderr.
func warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}

// newVersionCmd создаёт команду version.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Показать версию",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mediaconverter %s (built %s)\n", Version, BuildTime)
		},
	}
}

// newStatsCmd создаёт команду stats.
func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Показать статистику истории запусков",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			if dbPath == "" {
				return fmt.Errorf("укажите путь к БД через --db")
			}

			store, err := storage.New(dbPath)
			if err != nil {
				return fmt.Errorf("не удалось открыть БД: %w", err)
			}
			defer func() { _ = store.Close() }()

			st, err := store.GetStats()
			if err != nil {
				return fmt.Errorf("не удалось получить статистику: %w", err)
			}

			fmt.Printf("📊 История запусков:\n")
			fmt.Printf("   Всего записей: %d\n", st.Total)
			fmt.Printf("   Перекодировано: %d\n", st.Converted)
			fmt.Printf("   Скопировано: %d\n", st.Copied)
			fmt.Printf("   Пропущено: %d\n", st.Skipped)
			fmt.Printf("   Ошибок: %d\n", st.Failed)

			limit, _ := cmd.Flags().GetInt("failures")
			if limit > 0 && st.Failed > 0 {
				fails, err := store.RecentFailures(limit)
				if err != nil {
					return err
				}
				fmt.Printf("\n❌ Последние ошибки:\n")
				for _, f := range fails {
					fmt.Printf("   %s: %s\n", f.RelPath, f.Error)
				}
			}

			return nil
		},
	}

	cmd.Flags().String("db", "", "Путь к SQLite базе истории")
	cmd.Flags().Int("failures", 10, "Сколько последних ошибок показать")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// newConfigCmd создаёт команду config.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Работа с файлом конфигурации",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "example",
		Short: "Вывести пример конфигурационного файла",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(config.GenerateExampleConfig())
		},
	})

	return cmd
}

// Execute запускает CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		// Не выводим ошибку, cobra уже вывела
		os.Exit(1)
	}
}

/*
Возможные расширения:
- Добавить команду retry для повторной обработки failed
- Добавить команду export для экспорта истории в JSON
- Добавить флаг --exclude с glob-паттернами
*/
