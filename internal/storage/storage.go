// Package storage содержит логику работы с SQLite базой истории запусков.
//
// История - только для отчётности (команда stats): решение о пропуске
// файла принимается исключительно по mtime/размеру назначения,
// база при этом не используется.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage предоставляет методы для работы с базой истории.
type Storage struct {
	db *sql.DB
}

// New создаёт новое подключение к SQLite и выполняет миграции.
func New(dbPath string) (*Storage, error) {
	// Создаём директорию для БД, если не существует
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию для БД: %w", err)
	}

	// Открываем/создаём БД с параметрами для concurrent доступа
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть БД: %w", err)
	}

	// Проверяем подключение
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("не удалось подключиться к БД: %w", err)
	}

	// SQLite не поддерживает concurrent writes
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Storage{db: db}

	// Выполняем миграции
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("не удалось выполнить миграции: %w", err)
	}

	return s, nil
}

// migrate выполняет все SQL-миграции.
func (s *Storage) migrate() error {
	for i, m := range GetMigrations() {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("миграция %d: %w", i+1, err)
		}
	}
	return nil
}

// Close закрывает подключение к БД.
func (s *Storage) Close() error {
	return s.db.Close()
}

// RecordOutcome добавляет итог обработки файла в историю.
func (s *Storage) RecordOutcome(rec OutcomeRecord) error {
	query := `
		INSERT INTO outcomes (run_id, src_path, rel_path, kind, status, backend,
		                      dst_path, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		rec.RunID, rec.SrcPath, rec.RelPath, rec.Kind, rec.Status, rec.Backend,
		rec.DstPath, rec.Error, rec.DurationMS, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("не удалось записать итог: %w", err)
	}
	return nil
}

// GetStats возвращает агрегированную статистику истории.
func (s *Storage) GetStats() (Stats, error) {
	var st Stats

	if err := s.db.QueryRow("SELECT COUNT(*) FROM outcomes").Scan(&st.Total); err != nil {
		return st, fmt.Errorf("не удалось получить статистику: %w", err)
	}
	_ = s.db.QueryRow("SELECT COUNT(*) FROM outcomes WHERE status = ?", StatusConverted).Scan(&st.Converted)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM outcomes WHERE status = ?", StatusCopied).Scan(&st.Copied)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM outcomes WHERE status = ?", StatusSkipped).Scan(&st.Skipped)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM outcomes WHERE status = ?", StatusFailed).Scan(&st.Failed)

	return st, nil
}

// RecentFailures возвращает последние ошибочные итоги.
func (s *Storage) RecentFailures(limit int) ([]OutcomeRecord, error) {
	query := `
		SELECT run_id, src_path, rel_path, kind, backend, dst_path, error, duration_ms
		FROM outcomes WHERE status = ? ORDER BY id DESC LIMIT ?
	`
	rows, err := s.db.Query(query, StatusFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить ошибки: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []OutcomeRecord
	for rows.Next() {
		rec := OutcomeRecord{Status: StatusFailed}
		if err := rows.Scan(&rec.RunID, &rec.SrcPath, &rec.RelPath, &rec.Kind,
			&rec.Backend, &rec.DstPath, &rec.Error, &rec.DurationMS); err != nil {
			return nil, fmt.Errorf("не удалось прочитать строку: %w", err)
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

/*
Возможные расширения:
- Добавить метод для экспорта истории в JSON
- Добавить очистку старых записей
- Добавить таблицу запусков с итоговыми счётчиками
*/
