// Package storage содержит модели и логику работы с SQLite базой истории.
package storage

// Status определяет итог обработки одного файла.
type Status string

const (
	// StatusConverted - файл перекодирован.
	StatusConverted Status = "converted"
	// StatusCopied - файл скопирован без перекодирования.
	StatusCopied Status = "copied"
	// StatusSkipped - назначение актуально, файл пропущен.
	StatusSkipped Status = "skipped"
	// StatusFailed - обработка завершилась с ошибкой.
	StatusFailed Status = "failed"
)

// OutcomeRecord представляет итог обработки файла для записи в историю.
type OutcomeRecord struct {
	// RunID - идентификатор запуска.
	RunID string

	// SrcPath - абсолютный путь к исходному файлу.
	SrcPath string

	// RelPath - путь относительно входной директории.
	RelPath string

	// Kind - классификация файла (image/video/other).
	Kind string

	// Status - итог обработки.
	Status Status

	// Backend - использованный бэкенд (если был).
	Backend string

	// DstPath - путь назначения.
	DstPath string

	// Error - сообщение об ошибке (для failed).
	Error string

	// DurationMS - длительность обработки в миллисекундах.
	DurationMS int64
}

// Stats содержит агрегированную статистику истории.
type Stats struct {
	// Total - всего записей.
	Total int64
	// Converted - перекодировано.
	Converted int64
	// Copied - скопировано.
	Copied int64
	// Skipped - пропущено.
	Skipped int64
	// Failed - с ошибками.
	Failed int64
}

/*
Возможные расширения:
- Добавить размеры входа/выхода для статистики экономии
- Добавить версию параметров кодирования
*/
