package extract

// 目录分页接口的响应解析

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// 接口以json返回章节时data列表中的一项
type fragmentItem struct {
	Name string `json:"chaptername"`
	URL  string `json:"chapterurl"`
}

/*
输入目录首页，输出分页下拉框中的选项数

第二个返回值表示是否找到了下拉框；找到下拉框但没有选项时按1页处理
*/
func (e *Engine) TocPageCount(p *Page) (int, bool) {
	if e.set.PageSelect == nil {
		return 0, false
	}
	box := e.set.PageSelect.Select(p.doc.Selection)
	if box.Length() == 0 {
		return 0, false
	}
	if e.set.PageOption == nil {
		return 1, true
	}
	n := e.set.PageOption.Select(box.First()).Length()
	if n == 0 {
		e.logger.Warn("pagination select has no options", zap.String("select", e.set.PageSelect.String()))
		return 1, true
	}
	return n, true
}

/*
输入分页接口的响应与小说目录地址，输出这一页的章节

响应为json时依次尝试data列表、list或info字段中的html、配置的字段；否则整体按html片段处理。
章节链接与目录首页一样以base_url或目录地址为基准解析，返回的Index从1开始，由调用方统一重排
*/
func (e *Engine) TocFragment(body []byte, novelURL string) ([]ChapterRef, error) {
	page, err := url.Parse(novelURL)
	if err != nil {
		return nil, fmt.Errorf("parse novel url %q: %w", novelURL, err)
	}
	base := e.listBase(page)

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return e.jsonFragment(trimmed, base, novelURL)
	}
	return e.htmlFragment(body, base)
}

func (e *Engine) jsonFragment(body []byte, base *url.URL, novelURL string) ([]ChapterRef, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &ExtractionError{URL: novelURL, Reason: fmt.Sprintf("decode pagination response: %v", err)}
	}

	var items []fragmentItem
	if raw, ok := doc["data"]; ok && json.Unmarshal(raw, &items) == nil {
		var refs []ChapterRef
		for i, it := range items {
			title := CleanText(it.Name)
			link := e.resolve(base, it.URL)
			if title == "" || link == "" {
				e.logger.Debug("skip chapter item", zap.Int("position", i))
				continue
			}
			refs = append(refs, ChapterRef{Index: len(refs) + 1, URL: link, Title: e.CleanTitle(title)})
		}
		return refs, nil
	}

	keys := []string{"list", "info"}
	if e.set.FragmentKey != "" {
		keys = append(keys, e.set.FragmentKey)
	}
	for _, k := range keys {
		var fragment string
		if raw, ok := doc[k]; ok && json.Unmarshal(raw, &fragment) == nil {
			return e.htmlFragment([]byte(fragment), base)
		}
	}
	return nil, &ExtractionError{URL: novelURL, Reason: "pagination response carries no chapter data"}
}

// html片段中没有章节时返回空列表，不视为错误
func (e *Engine) htmlFragment(body []byte, base *url.URL) ([]ChapterRef, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse pagination html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)
	return e.refs(e.set.ChapterList.Select(doc.Selection), base), nil
}
