package engine

import (
	"errors"

	"github.com/dszqbsm/noveldl/extract"
)

var (
	ErrNoChapters        = errors.New("no chapter selected")
	ErrAllChaptersFailed = errors.New("every selected chapter failed")
)

type Status string

const (
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
)

// 跳过的章节及原因
type Skip struct {
	Index int
	URL   string
	Title string
	Err   error
}

// 一次下载的汇总
type Result struct {
	RunID   string
	Title   string
	Status  Status
	Total   int // 选中的章节数
	Emitted int // 成功输出的章节数
	Records int // 输出的记录数，切分后一个章节可能对应多条
	Skipped []Skip
}

// 章节的去向，Open与Close在一次运行中各调用一次
type Output interface {
	Open(novelTitle string) error
	Write(c extract.ChapterContent) error
	Close() error
}
