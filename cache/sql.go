package cache

import (
	"database/sql"
	"errors"

	"github.com/dszqbsm/noveldl/sqldb"
	"go.uber.org/zap"
)

const DefaultTable = "page_cache"

type sqlDB interface {
	sqldb.DBer
	QueryRow(query string, args ...interface{}) *sql.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
	Close() error
}

var cacheColumns = []sqldb.Field{
	{Title: "cache_key", Type: "VARCHAR(64)", PrimaryKey: true},
	{Title: "key_hint", Type: "TEXT"},
	{Title: "payload", Type: "LONGBLOB"},
	{Title: "created_at", Type: "DOUBLE"},
}

// 条目保存在数据库表中，支持mysql与sqlite3
type SQLStore struct {
	db    sqlDB
	table string
	options
}

func NewSQLStore(db sqlDB, table string, opts ...Option) (*SQLStore, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	if table == "" {
		table = DefaultTable
	}
	s := &SQLStore{db: db, table: table, options: options}
	if err := db.CreateTable(sqldb.TableData{TableName: table, ColumnNames: cacheColumns}); err != nil {
		return nil, &CacheError{Op: "init", Key: table, Err: err}
	}
	return s, nil
}

func (s *SQLStore) Get(key string) ([]byte, bool, error) {
	e, ok, err := s.GetEntry(key)
	if !ok || err != nil {
		return nil, false, err
	}
	return []byte(e.Payload), true, nil
}

func (s *SQLStore) GetEntry(key string) (*Entry, bool, error) {
	var (
		e       Entry
		payload []byte
	)
	row := s.db.QueryRow(`SELECT payload, created_at, key_hint FROM `+s.table+` WHERE cache_key = ?`, Hash(key))
	err := row.Scan(&payload, &e.CreatedAt, &e.KeyHint)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &CacheError{Op: "read", Key: key, Err: err}
	}
	e.Payload = string(payload)
	if s.expired(&e) {
		s.logger.Debug("cache entry expired", zap.String("key", hint(key)))
		if err := s.Delete(key); err != nil {
			s.logger.Warn("drop expired entry failed", zap.Error(err))
		}
		return nil, false, nil
	}
	return &e, true, nil
}

func (s *SQLStore) Put(key string, body []byte) error {
	e := newEntry(key, body, s.now())
	err := s.db.Insert(sqldb.TableData{
		TableName:   s.table,
		ColumnNames: cacheColumns,
		Args:        []interface{}{Hash(key), e.KeyHint, body, e.CreatedAt},
		DataCount:   1,
		Replace:     true,
	})
	if err != nil {
		return &CacheError{Op: "write", Key: key, Err: err}
	}
	return nil
}

func (s *SQLStore) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM `+s.table+` WHERE cache_key = ?`, Hash(key)); err != nil {
		return &CacheError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (s *SQLStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM ` + s.table); err != nil {
		return &CacheError{Op: "clear", Key: s.table, Err: err}
	}
	s.logger.Info("cache cleared", zap.String("table", s.table))
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
