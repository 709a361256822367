// Package cli содержит CLI команды приложения.
package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/mediaconverter/internal/config"
)

// newPresetsCmd создаёт команду для управления пресетами.
func newPresetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Управление именованными пресетами конфигурации",
		Long: `Управление именованными пресетами конфигурации.

Пресеты хранятся в ~/.config/mediaconverter/presets/ и позволяют
сохранять и загружать настройки для разных архивов.

Примеры:
  # Сохранить текущие настройки как пресет
  mediaconverter --in ./media --out ./converted --profile archive --save-preset family-archive

  # Загрузить пресет и запустить конвертацию
  mediaconverter --load-preset family-archive

  # Список пресетов
  mediaconverter presets list

  # Удалить пресет
  mediaconverter presets delete family-archive`,
	}

	cmd.AddCommand(newPresetsListCmd())
	cmd.AddCommand(newPresetsDeleteCmd())
	cmd.AddCommand(newPresetsShowCmd())

	return cmd
}

// newPresetsListCmd создаёт команду для списка пресетов.
func newPresetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Показать список сохранённых пресетов",
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := config.ListPresets()
			if err != nil {
				return fmt.Errorf("ошибка получения списка пресетов: %w", err)
			}

			if len(presets) == 0 {
				fmt.Println("Пресеты не найдены.")
				fmt.Println()
				fmt.Println("Сохраните пресет командой:")
				fmt.Println("  mediaconverter --in ./media --out ./converted --save-preset my-archive")
				return nil
			}

			fmt.Printf("📦 Сохранённые пресеты (%d):\n\n", len(presets))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ИМЯ\tIMAGE CRF\tVIDEO CRF\tПРОФИЛЬ\tПУТЬ")
			fmt.Fprintln(w, "---\t---------\t---------\t-------\t----")

			for _, p := range presets {
				imageCRF := "-"
				videoCRF := "-"
				profile := "-"
				if p.Config != nil && p.Config.Encoding != nil {
					if p.Config.Encoding.ImageCRF != nil {
						imageCRF = fmt.Sprintf("%d", *p.Config.Encoding.ImageCRF)
					}
					if p.Config.Encoding.VideoCRF != nil {
						videoCRF = fmt.Sprintf("%d", *p.Config.Encoding.VideoCRF)
					}
					if p.Config.Encoding.Profile != "" {
						profile = p.Config.Encoding.Profile
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, imageCRF, videoCRF, profile, p.Path)
			}
			_ = w.Flush()

			return nil
		},
	}
}

// newPresetsDeleteCmd создаёт команду для удаления пресета.
func newPresetsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Удалить пресет",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if !config.PresetExists(name) {
				return fmt.Errorf("пресет '%s' не найден", name)
			}

			if err := config.DeletePreset(name); err != nil {
				return fmt.Errorf("ошибка удаления пресета: %w", err)
			}

			fmt.Printf("✅ Пресет '%s' удалён\n", name)
			return nil
		},
	}
}

// newPresetsShowCmd создаёт команду для отображения пресета.
func newPresetsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Показать содержимое пресета",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			fc, path, err := config.LoadPreset(name)
			if err != nil {
				return err
			}
			if fc == nil {
				return fmt.Errorf("пресет '%s' не найден", name)
			}

			fmt.Printf("📦 Пресет: %s\n", name)
			fmt.Printf("📁 Путь: %s\n\n", path)

			if fc.Input != nil && fc.Input.Dir != "" {
				fmt.Println("Input:")
				fmt.Printf("  dir: %s\n", fc.Input.Dir)
			}

			if fc.Output != nil {
				fmt.Println("Output:")
				if fc.Output.Dir != "" {
					fmt.Printf("  dir: %s\n", fc.Output.Dir)
				}
				fmt.Printf("  overwrite: %v\n", fc.Output.Overwrite)
				fmt.Printf("  copy_others: %v\n", fc.Output.CopyOthers)
			}

			if fc.Encoding != nil {
				fmt.Println("Encoding:")
				if fc.Encoding.ImageCRF != nil {
					fmt.Printf("  image_crf: %d\n", *fc.Encoding.ImageCRF)
				}
				if fc.Encoding.VideoCRF != nil {
					fmt.Printf("  video_crf: %d\n", *fc.Encoding.VideoCRF)
				}
				if fc.Encoding.VideoPreset != "" {
					fmt.Printf("  video_preset: %s\n", fc.Encoding.VideoPreset)
				}
				if fc.Encoding.SkipEncoded != nil {
					fmt.Printf("  skip_encoded: %v\n", *fc.Encoding.SkipEncoded)
				}
				if fc.Encoding.Profile != "" {
					fmt.Printf("  profile: %s\n", fc.Encoding.Profile)
				}
			}

			if fc.Processing != nil {
				fmt.Println("Processing:")
				if fc.Processing.Workers > 0 {
					fmt.Printf("  workers: %d\n", fc.Processing.Workers)
				}
				if fc.Processing.MaxMemoryMB > 0 {
					fmt.Printf("  max_memory_mb: %d\n", fc.Processing.MaxMemoryMB)
				}
			}

			return nil
		},
	}
}

/*
Возможные расширения:
- Добавить команду 'presets export' для экспорта в файл
- Добавить команду 'presets import' для импорта из файла
- Добавить команду 'presets copy' для копирования пресета
*/
