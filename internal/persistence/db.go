// Package persistence provides SQLite-based farm storage: save records,
// the event log and the daily statistics history.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	_ "modernc.org/sqlite"

	"github.com/talgya/dairy-sim/internal/engine"
)

// ErrNoSave is returned when a slot holds no save record.
var ErrNoSave = errors.New("no save found")

// DefaultSlot is the slot autosaves are written to.
const DefaultSlot = "autosave"

// savedAtLayout sorts lexically in time order.
const savedAtLayout = "2006-01-02T15:04:05.000000000Z"

// DB wraps a SQLite connection for farm persistence.
type DB struct {
	conn *sqlx.DB
}

// SaveInfo describes a stored save without its payload.
type SaveInfo struct {
	ID       string `db:"id" json:"id"`
	Slot     string `db:"slot" json:"slot"`
	Version  int    `db:"version" json:"version"`
	Scenario string `db:"scenario" json:"scenario"`
	GameHour int64  `db:"game_hour" json:"game_hour"`
	GameTime string `db:"game_time" json:"game_time"`
	SavedAt  string `db:"saved_at" json:"saved_at"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Engine types carry json tags only; map columns by those names.
	conn.Mapper = reflectx.NewMapperFunc("json", strings.ToLower)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		id TEXT PRIMARY KEY,
		slot TEXT NOT NULL,
		version INTEGER NOT NULL,
		scenario TEXT NOT NULL,
		game_hour INTEGER NOT NULL,
		game_time TEXT NOT NULL,
		saved_at TEXT NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seq INTEGER NOT NULL,
		hour INTEGER NOT NULL,
		time TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_stats (
		year INTEGER NOT NULL,
		day INTEGER NOT NULL,
		date TEXT NOT NULL,
		milk_litres REAL NOT NULL,
		milk_sold REAL NOT NULL,
		revenue REAL NOT NULL,
		feed_cost REAL NOT NULL,
		maintenance REAL NOT NULL,
		capital_spend REAL NOT NULL,
		cash REAL NOT NULL,
		feed_kg REAL NOT NULL,
		herd_size INTEGER NOT NULL,
		lactating INTEGER NOT NULL,
		average_health REAL NOT NULL,
		mean_grass REAL NOT NULL,
		milk_price REAL NOT NULL,
		births INTEGER NOT NULL,
		PRIMARY KEY (year, day)
	);

	CREATE TABLE IF NOT EXISTS farm_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_saves_slot ON saves(slot, saved_at);
	CREATE INDEX IF NOT EXISTS idx_events_hour ON events(hour);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// ── Save records ────────────────────────────────────────────────────────

// SaveRecord stores rec in slot.
func (db *DB) SaveRecord(slot string, rec engine.SaveRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	_, err = db.conn.Exec(`INSERT OR REPLACE INTO saves
		(id, slot, version, scenario, game_hour, game_time, saved_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), slot, rec.Version, rec.State.Scenario,
		rec.State.Calendar.Time.Hours(), rec.State.Calendar.Time.String(),
		rec.SavedAt.UTC().Format(savedAtLayout), string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert save %s: %w", rec.ID, err)
	}
	return nil
}

// LoadLatest returns the most recent save in slot.
func (db *DB) LoadLatest(slot string) (engine.SaveRecord, error) {
	var payload string
	err := db.conn.Get(&payload,
		"SELECT payload FROM saves WHERE slot = ? ORDER BY saved_at DESC LIMIT 1", slot)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.SaveRecord{}, fmt.Errorf("%w in slot %q", ErrNoSave, slot)
	}
	if err != nil {
		return engine.SaveRecord{}, err
	}
	var rec engine.SaveRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return engine.SaveRecord{}, fmt.Errorf("decode save: %w", err)
	}
	return rec, nil
}

// ListSaves returns every stored save, newest first.
func (db *DB) ListSaves() ([]SaveInfo, error) {
	var saves []SaveInfo
	err := db.conn.Select(&saves,
		"SELECT id, slot, version, scenario, game_hour, game_time, saved_at FROM saves ORDER BY saved_at DESC")
	return saves, err
}

// PruneSaves keeps the newest keep saves in slot and deletes the rest.
func (db *DB) PruneSaves(slot string, keep int) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM saves WHERE slot = ? AND id NOT IN
		(SELECT id FROM saves WHERE slot = ? ORDER BY saved_at DESC LIMIT ?)`,
		slot, slot, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ── Events and statistics ───────────────────────────────────────────────

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.NamedExec(
			`INSERT INTO events (seq, hour, time, category, description)
			VALUES (:seq, :hour, :time, :category, :description)`, e)
		if err != nil {
			return fmt.Errorf("insert event %d: %w", e.Seq, err)
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT seq, hour, time, category, description FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// SaveDailyStats writes day records, replacing any for the same day.
func (db *DB) SaveDailyStats(days []engine.DailyStats) error {
	if len(days) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, d := range days {
		_, err := tx.NamedExec(`INSERT OR REPLACE INTO daily_stats
			(year, day, date, milk_litres, milk_sold, revenue, feed_cost, maintenance,
			 capital_spend, cash, feed_kg, herd_size, lactating, average_health,
			 mean_grass, milk_price, births)
			VALUES (:year, :day, :date, :milk_litres, :milk_sold, :revenue, :feed_cost,
			 :maintenance, :capital_spend, :cash, :feed_kg, :herd_size, :lactating,
			 :average_health, :mean_grass, :milk_price, :births)`, d)
		if err != nil {
			return fmt.Errorf("insert stats %d/%d: %w", d.Year, d.Day, err)
		}
	}

	return tx.Commit()
}

// DailyStats returns up to limit day records, oldest first.
func (db *DB) DailyStats(limit int) ([]engine.DailyStats, error) {
	var days []engine.DailyStats
	err := db.conn.Select(&days, `SELECT * FROM
		(SELECT * FROM daily_stats ORDER BY year DESC, day DESC LIMIT ?)
		ORDER BY year, day`, limit)
	return days, err
}

// ── Metadata ────────────────────────────────────────────────────────────

// SaveMeta stores a key-value pair in farm metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO farm_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM farm_meta WHERE key = ?", key)
	return value, err
}

// Checkpoint saves the running simulation to slot and records the game
// hour it was taken at.
func (db *DB) Checkpoint(sim *engine.Simulation, slot string) (engine.SaveRecord, error) {
	rec, err := sim.Save()
	if err != nil {
		return engine.SaveRecord{}, err
	}
	if err := db.SaveRecord(slot, rec); err != nil {
		return engine.SaveRecord{}, fmt.Errorf("save record: %w", err)
	}
	hour := rec.State.Calendar.Time.Hours()
	if err := db.SaveMeta("last_hour", strconv.FormatInt(hour, 10)); err != nil {
		return engine.SaveRecord{}, fmt.Errorf("save meta: %w", err)
	}

	slog.Info("farm saved", "slot", slot, "id", rec.ID, "time", rec.State.Calendar.Time.String())
	return rec, nil
}
