package sqlstorage

// 把章节记录分批写入数据库，每次运行的记录以run_id区分

import (
	"time"

	"github.com/dszqbsm/noveldl/extract"
	"github.com/dszqbsm/noveldl/sqldb"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var columnNames = []sqldb.Field{
	{Title: "run_id", Type: "VARCHAR(36)"},
	{Title: "novel", Type: "VARCHAR(255)"},
	{Title: "chapter_index", Type: "INT"},
	{Title: "part", Type: "INT"},
	{Title: "title", Type: "VARCHAR(255)"},
	{Title: "url", Type: "VARCHAR(1024)"},
	{Title: "body", Type: "MEDIUMTEXT"},
	{Title: "created_at", Type: "VARCHAR(32)"},
}

type SqlStore struct {
	dataDocker []extract.ChapterContent // 待写入的记录
	db         sqldb.DBer
	closer     func() error
	runID      string
	novel      string
	options
}

func New(opts ...Option) (*SqlStore, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	s := &SqlStore{options: options}
	db, err := sqldb.New(
		sqldb.WithDriver(s.driver),
		sqldb.WithConnURL(s.sqlUrl),
		sqldb.WithLogger(s.logger.Named("sqldb")),
	)
	if err != nil {
		return nil, err
	}
	s.db = db
	s.closer = db.Close
	return s, nil
}

func (s *SqlStore) RunID() string {
	return s.runID
}

// 建表并为本次运行生成run_id
func (s *SqlStore) Open(novelTitle string) error {
	s.novel = novelTitle
	s.runID = uuid.NewString()
	s.dataDocker = nil
	s.logger.Info("sql output opened", zap.String("table", s.table), zap.String("run_id", s.runID))
	return s.db.CreateTable(sqldb.TableData{
		TableName:   s.table,
		ColumnNames: columnNames,
		AutoKey:     true,
	})
}

// 记录先进入缓冲，达到批量数时整批写入
func (s *SqlStore) Write(c extract.ChapterContent) error {
	if len(s.dataDocker) >= s.BatchCount {
		if err := s.Flush(); err != nil {
			return err
		}
	}
	s.dataDocker = append(s.dataDocker, c)
	return nil
}

// 将缓冲中的记录一次性插入数据库，无论成功与否都清空缓冲
func (s *SqlStore) Flush() error {
	if len(s.dataDocker) == 0 {
		return nil
	}
	defer func() {
		s.dataDocker = nil
	}()
	now := time.Now().Format("2006-01-02 15:04:05")
	args := make([]interface{}, 0, len(s.dataDocker)*len(columnNames))
	for _, c := range s.dataDocker {
		args = append(args, s.runID, s.novel, c.Index, c.Part, c.Title, c.URL, c.Body, now)
	}
	err := s.db.Insert(sqldb.TableData{
		TableName:   s.table,
		ColumnNames: columnNames,
		Args:        args,
		DataCount:   len(s.dataDocker),
	})
	if err != nil {
		s.logger.Error("insert data failed", zap.Error(err))
	}
	return err
}

func (s *SqlStore) Close() error {
	err := s.Flush()
	if s.closer != nil {
		if cerr := s.closer(); err == nil {
			err = cerr
		}
		s.closer = nil
	}
	return err
}
