package extract

import (
	"fmt"
	"regexp"
)

// 目录中的一个章节，Index从1开始
type ChapterRef struct {
	Index int
	URL   string
	Title string
}

// 章节内容，未切分时Part为0，切分后从1开始编号
type ChapterContent struct {
	Index int
	Part  int
	Title string
	Body  string
	URL   string
}

// 单个内容页的抽取结果，Next为空表示没有下一页
type PageContent struct {
	Title string
	Text  string
	Next  string
}

// 编译后的站点选择器，可选项为nil表示对应功能关闭
type SelectorSet struct {
	NovelTitle     Selector
	ChapterList    Selector
	ChapterTitle   Selector
	ChapterContent Selector
	NextPage       Selector
	TocNextPage    Selector
	TitleRemove    *regexp.Regexp

	// 目录分页接口使用：首页的分页下拉框与其中的选项，以及json响应里存放章节html的字段
	PageSelect  Selector
	PageOption  Selector
	FragmentKey string
}

// 必需的选择器没有匹配到任何内容
type ExtractionError struct {
	Selector string
	URL      string
	Reason   string
}

func (e *ExtractionError) Error() string {
	if e.Selector == "" {
		return fmt.Sprintf("extract %s: %s", e.URL, e.Reason)
	}
	if e.Reason != "" {
		return fmt.Sprintf("extract %s: selector %q: %s", e.URL, e.Selector, e.Reason)
	}
	return fmt.Sprintf("extract %s: selector %q matched nothing", e.URL, e.Selector)
}
