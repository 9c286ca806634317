package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/vincentbai/monotrack/internal/models"
	_ "modernc.org/sqlite" // CGO-free SQLite
)

type Database struct {
	db *sql.DB
}

func NewDatabase(databasePath string) (*Database, error) {
	// WAL + busy timeout to avoid "database is locked"
	db, err := sql.Open("sqlite", databasePath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Database{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS actions(
	  id        TEXT    PRIMARY KEY,
	  ts_utc    INTEGER NOT NULL,
	  ts_iso    TEXT    NOT NULL,
	  url       TEXT    NOT NULL,
	  title     TEXT,
	  action    TEXT    NOT NULL,
	  ctn       TEXT    NOT NULL DEFAULT '',
	  data_json TEXT    NOT NULL CHECK (json_valid(data_json))
	);
	CREATE INDEX IF NOT EXISTS idx_actions_ts     ON actions(ts_utc);
	CREATE INDEX IF NOT EXISTS idx_actions_action ON actions(action);
	CREATE INDEX IF NOT EXISTS idx_actions_ctn    ON actions(ctn);
	`)
	if err != nil {
		return fmt.Errorf("failed to create database tables: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) ValidateAction(action models.Action) error {
	if action.ID == "" {
		return fmt.Errorf("ID cannot be empty")
	}
	if action.URL == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	if action.Action == "" {
		return fmt.Errorf("action cannot be empty")
	}
	if action.TSUTC <= 0 {
		return fmt.Errorf("timestamp must be positive")
	}
	return nil
}

func (d *Database) InsertAction(action models.Action) error {
	if err := d.ValidateAction(action); err != nil {
		return fmt.Errorf("invalid action: %w", err)
	}
	data := action.Data
	if data == nil {
		data = map[string]any{}
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal action data: %w", err)
	}
	_, err = d.db.Exec(`INSERT INTO actions(id, ts_utc, ts_iso, url, title, action, ctn, data_json) VALUES(?,?,?,?,?,?,?,json(?))`,
		action.ID, action.TSUTC, action.TSISO, action.URL, action.Title, action.Action, action.CTN, string(jsonData))
	if err != nil {
		return fmt.Errorf("failed to insert action: %w", err)
	}
	return nil
}

// RecentActions returns up to limit actions, newest first.
func (d *Database) RecentActions(limit int) ([]models.Action, error) {
	rows, err := d.db.Query(`SELECT id, ts_utc, ts_iso, url, title, action, ctn, data_json FROM actions ORDER BY ts_utc DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	actions := []models.Action{}
	for rows.Next() {
		var (
			action   models.Action
			title    sql.NullString
			dataJSON string
		)
		if err := rows.Scan(&action.ID, &action.TSUTC, &action.TSISO, &action.URL, &title, &action.Action, &action.CTN, &dataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		if title.Valid {
			action.Title = &title.String
		}
		if err := json.Unmarshal([]byte(dataJSON), &action.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal action data: %w", err)
		}
		actions = append(actions, action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read actions: %w", err)
	}
	return actions, nil
}
