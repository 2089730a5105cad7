package engine

import (
	"strings"

	"github.com/dszqbsm/noveldl/extract"
)

// 单个章节抓取后的结果，carry为正文中首个标题之前的无标题文字
type chapterText struct {
	title   string
	carry   string
	records []extract.ChapterContent
}

/*
记录写出器

hold为true时最后一条记录暂存在pending中，下一章节开头的无标题文字可以并入它；否则记录直接写出
*/
type emitter struct {
	out     Output
	hold    bool
	pending *extract.ChapterContent
	written int
}

// 把文字追加到暂存记录末尾，没有暂存记录时返回false
func (e *emitter) carry(text string) bool {
	if e.pending == nil {
		return false
	}
	e.pending.Body = strings.TrimSpace(e.pending.Body + "\n\n" + text)
	return true
}

func (e *emitter) push(records []extract.ChapterContent) error {
	if len(records) == 0 {
		return nil
	}
	if err := e.flush(); err != nil {
		return err
	}
	last := len(records)
	if e.hold {
		last--
	}
	for _, r := range records[:last] {
		if err := e.write(r); err != nil {
			return err
		}
	}
	if e.hold {
		r := records[last]
		e.pending = &r
	}
	return nil
}

func (e *emitter) flush() error {
	if e.pending == nil {
		return nil
	}
	r := *e.pending
	e.pending = nil
	return e.write(r)
}

func (e *emitter) write(r extract.ChapterContent) error {
	if err := e.out.Write(r); err != nil {
		return err
	}
	e.written++
	return nil
}

// 无标题文字自成一章时重新编号
func renumber(records []extract.ChapterContent, ref extract.ChapterRef) {
	for i := range records {
		records[i].Index = ref.Index
		records[i].URL = ref.URL
		if len(records) > 1 {
			records[i].Part = i + 1
		}
	}
}
