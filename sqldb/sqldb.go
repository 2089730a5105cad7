package sqldb

// 对database/sql的一层薄封装，按表结构描述生成建表、插入语句，同时支持mysql与sqlite3

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// 为数据库操作统一了规范，包括创建表、插入数据
type DBer interface {
	CreateTable(t TableData) error
	Insert(t TableData) error
}

type Sqldb struct {
	options
	db *sql.DB
}

// 表示数据库表中的一个字段
type Field struct {
	Title      string
	Type       string
	PrimaryKey bool
}

// 表示要操作的数据库表的数据
type TableData struct {
	TableName   string
	ColumnNames []Field
	Args        []interface{} // 按行展开的数据
	DataCount   int           // 插入的行数
	AutoKey     bool          // 自动添加自增id列
	Replace     bool          // 主键冲突时覆盖旧行
}

func New(opts ...Option) (*Sqldb, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	d := &Sqldb{}
	d.options = options
	if err := d.OpenDB(); err != nil {
		return nil, err
	}
	return d, nil
}

/*
无输入，输出error

打开数据库连接并通过Ping检查连通性；sqlite3会先创建数据文件所在目录，且只保留一个连接
*/
func (d *Sqldb) OpenDB() error {
	switch d.driver {
	case DriverMySQL:
	case DriverSQLite:
		if err := ensureDir(d.sqlURL); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported sql driver %q", d.driver)
	}
	db, err := sql.Open(d.driver, d.sqlURL)
	if err != nil {
		return err
	}
	if d.driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(64)
		db.SetMaxIdleConns(64)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return err
	}
	d.db = db
	return nil
}

func ensureDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (d *Sqldb) Driver() string {
	return d.driver
}

// 根据TableData生成CREATE TABLE IF NOT EXISTS语句并执行
func (d *Sqldb) CreateTable(t TableData) error {
	if len(t.ColumnNames) == 0 {
		return errors.New("column can not be empty")
	}
	sql := `CREATE TABLE IF NOT EXISTS ` + t.TableName + " ("
	if t.AutoKey {
		if d.driver == DriverSQLite {
			sql += `id INTEGER PRIMARY KEY AUTOINCREMENT,`
		} else {
			sql += `id INT(12) NOT NULL PRIMARY KEY AUTO_INCREMENT,`
		}
	}
	for _, f := range t.ColumnNames {
		sql += f.Title + ` ` + f.Type
		if f.PrimaryKey {
			sql += ` NOT NULL PRIMARY KEY`
		}
		sql += `,`
	}
	sql = sql[:len(sql)-1] + `)`
	if d.driver == DriverMySQL {
		sql += ` ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`
	}
	sql += `;`

	d.logger.Debug("create table", zap.String("sql", sql))

	_, err := d.db.Exec(sql)
	return err
}

func (d *Sqldb) DropTable(t TableData) error {
	sql := `DROP TABLE IF EXISTS ` + t.TableName

	d.logger.Debug("drop table", zap.String("sql", sql))

	_, err := d.db.Exec(sql)
	return err
}

// 构造形如INSERT INTO t(a,b) VALUES (?,?),(?,?);的语句，问号个数等于列数乘以行数
func (d *Sqldb) Insert(t TableData) error {
	if len(t.ColumnNames) == 0 {
		return errors.New("empty column")
	}
	if t.DataCount <= 0 || len(t.Args) != t.DataCount*len(t.ColumnNames) {
		return fmt.Errorf("insert %s: %d args do not fill %d rows of %d columns",
			t.TableName, len(t.Args), t.DataCount, len(t.ColumnNames))
	}
	verb := `INSERT INTO `
	if t.Replace {
		verb = `REPLACE INTO `
	}
	sql := verb + t.TableName + `(`
	for _, v := range t.ColumnNames {
		sql += v.Title + ","
	}
	sql = sql[:len(sql)-1] + `) VALUES `

	blank := ",(" + strings.Repeat(",?", len(t.ColumnNames))[1:] + ")"
	sql += strings.Repeat(blank, t.DataCount)[1:] + `;`
	d.logger.Debug("insert table", zap.String("sql", sql))
	_, err := d.db.Exec(sql, t.Args...)
	return err
}

func (d *Sqldb) QueryRow(query string, args ...interface{}) *sql.Row {
	d.logger.Debug("query row", zap.String("sql", query))
	return d.db.QueryRow(query, args...)
}

func (d *Sqldb) Exec(query string, args ...interface{}) (sql.Result, error) {
	d.logger.Debug("exec", zap.String("sql", query))
	return d.db.Exec(query, args...)
}

func (d *Sqldb) Close() error {
	return d.db.Close()
}
