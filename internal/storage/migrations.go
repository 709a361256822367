// Package storage содержит миграции SQLite базы истории.
package storage

// migrations содержит SQL-миграции в порядке выполнения.
var migrations = []string{
	// Миграция 1: Таблица итогов обработки
	`CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		src_path TEXT NOT NULL,
		rel_path TEXT NOT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		backend TEXT,
		dst_path TEXT,
		error TEXT,
		duration_ms INTEGER,
		created_at INTEGER NOT NULL
	);`,

	// Миграция 2: Индекс по статусу для статистики
	`CREATE INDEX IF NOT EXISTS ix_outcomes_status ON outcomes (status);`,

	// Миграция 3: Индекс по запуску
	`CREATE INDEX IF NOT EXISTS ix_outcomes_run ON outcomes (run_id);`,

	// Миграция 4: Таблица метаданных для версионирования схемы
	`CREATE TABLE IF NOT EXISTS schema_info (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,

	// Миграция 5: Запись версии схемы
	`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', '1');`,
}

// GetMigrations возвращает список SQL-миграций.
func GetMigrations() []string {
	return migrations
}
