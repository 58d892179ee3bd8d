package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is a Store kept in an SQLite database file
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at file
func OpenSQLite(file string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS persist (key INTEGER PRIMARY KEY NOT NULL, value BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{
		db: db,
	}, nil
}

func (s *SQLite) Load(key uint32) ([]byte, bool, error) {
	var value []byte
	switch err := s.db.QueryRow("SELECT value FROM persist WHERE key = ?", int64(key)).Scan(&value); err {
	case sql.ErrNoRows:
		return nil, false, nil
	case nil:
		return value, true, nil
	default:
		return nil, false, err
	}
}

func (s *SQLite) Save(key uint32, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	if _, err := s.db.Exec("INSERT OR REPLACE INTO persist (key, value) VALUES (?, ?)", int64(key), value); err != nil {
		return err
	}
	return nil
}

// Keys lists the stored keys in ascending order
func (s *SQLite) Keys() ([]uint32, error) {
	rows, err := s.db.Query("SELECT key FROM persist ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []uint32
	for rows.Next() {
		var k int64
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, uint32(k))
	}
	return keys, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
