package extract

// 通用抽取引擎：同一份代码服务所有站点，站点之间的差异只体现在SelectorSet中

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

type Extractor interface {
	Parse(body []byte, pageURL string) (*Page, error)
	Title(p *Page) (string, error)
	ChapterList(p *Page) ([]ChapterRef, error)
	TocNext(p *Page) string
	TocPageCount(p *Page) (int, bool)
	TocFragment(body []byte, novelURL string) ([]ChapterRef, error)
	Content(p *Page) (*PageContent, error)
}

// 解析后的页面，只解析一次，供多个选择器复用
type Page struct {
	URL *url.URL
	doc *goquery.Document
}

type options struct {
	logger  *zap.Logger
	baseURL *url.URL
}

var defaultOptions = options{
	logger: zap.NewNop(),
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// 配置了base_url时，目录中的章节链接以它为基准解析；下一页链接总是以所在页面为基准
func WithBaseURL(base *url.URL) Option {
	return func(opts *options) {
		opts.baseURL = base
	}
}

type Engine struct {
	set SelectorSet
	options
}

func New(set SelectorSet, opts ...Option) *Engine {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	return &Engine{set: set, options: options}
}

func (e *Engine) Selectors() SelectorSet {
	return e.set
}

func (e *Engine) Parse(body []byte, pageURL string) (*Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url %q: %w", pageURL, err)
	}
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", pageURL, err)
	}
	return &Page{URL: u, doc: goquery.NewDocumentFromNode(root)}, nil
}

// 小说标题，必需
func (e *Engine) Title(p *Page) (string, error) {
	s := e.set.NovelTitle.Select(p.doc.Selection)
	if s.Length() == 0 {
		return "", &ExtractionError{Selector: e.set.NovelTitle.String(), URL: p.URL.String()}
	}
	title := CleanText(s.First().Text())
	if title == "" {
		return "", &ExtractionError{Selector: e.set.NovelTitle.String(), URL: p.URL.String(), Reason: "matched element has no text"}
	}
	return title, nil
}

/*
输入目录页，输出按文档顺序排列的章节列表

链接取匹配元素自身的href，没有时取其第一个带href的a子元素；缺少文本或链接的条目跳过，一个有效条目都没有时返回ExtractionError
*/
func (e *Engine) ChapterList(p *Page) ([]ChapterRef, error) {
	matches := e.set.ChapterList.Select(p.doc.Selection)
	if matches.Length() == 0 {
		return nil, &ExtractionError{Selector: e.set.ChapterList.String(), URL: p.URL.String()}
	}
	refs := e.refs(matches, e.listBase(p.URL))
	if len(refs) == 0 {
		return nil, &ExtractionError{Selector: e.set.ChapterList.String(), URL: p.URL.String(), Reason: "no entry carries both text and link"}
	}
	return refs, nil
}

// 章节链接的解析基准：配置了base_url时用它，否则用目录页地址
func (e *Engine) listBase(page *url.URL) *url.URL {
	if e.baseURL != nil {
		return e.baseURL
	}
	return page
}

func (e *Engine) refs(matches *goquery.Selection, base *url.URL) []ChapterRef {
	var refs []ChapterRef
	matches.Each(func(i int, s *goquery.Selection) {
		title := CleanText(s.Text())
		link := e.resolve(base, href(s))
		if title == "" || link == "" {
			e.logger.Debug("skip chapter entry", zap.Int("position", i), zap.String("title", title))
			return
		}
		refs = append(refs, ChapterRef{
			Index: len(refs) + 1,
			URL:   link,
			Title: e.CleanTitle(title),
		})
	})
	return refs
}

// 目录的下一页，未配置或未匹配时返回空串
func (e *Engine) TocNext(p *Page) string {
	return e.next(p, e.set.TocNextPage)
}

/*
输入章节页，输出该页的标题、正文与下一页地址

正文容器是必需的；标题与下一页选择器是可选的，未匹配时分别为空
*/
func (e *Engine) Content(p *Page) (*PageContent, error) {
	container := e.set.ChapterContent.Select(p.doc.Selection)
	if container.Length() == 0 {
		return nil, &ExtractionError{Selector: e.set.ChapterContent.String(), URL: p.URL.String()}
	}
	pc := &PageContent{
		Text: paragraphs(container.First()),
		Next: e.next(p, e.set.NextPage),
	}
	if e.set.ChapterTitle != nil {
		if s := e.set.ChapterTitle.Select(p.doc.Selection); s.Length() > 0 {
			pc.Title = e.CleanTitle(CleanText(s.First().Text()))
		}
	}
	return pc, nil
}

func (e *Engine) CleanTitle(title string) string {
	return CleanTitle(title, e.set.TitleRemove)
}

// 按title_patterns.remove_regex清理章节标题，清理后为空时保留原标题
func CleanTitle(title string, re *regexp.Regexp) string {
	if re == nil {
		return title
	}
	cleaned := strings.TrimSpace(re.ReplaceAllString(title, ""))
	if cleaned == "" {
		return title
	}
	return cleaned
}

func (e *Engine) next(p *Page, sel Selector) string {
	if sel == nil {
		return ""
	}
	s := sel.Select(p.doc.Selection)
	if s.Length() == 0 {
		return ""
	}
	link := e.resolve(p.URL, href(s.First()))
	if link == p.URL.String() {
		return ""
	}
	return link
}

func href(s *goquery.Selection) string {
	if v, ok := s.Attr("href"); ok {
		return strings.TrimSpace(v)
	}
	v, _ := s.Find("a[href]").First().Attr("href")
	return strings.TrimSpace(v)
}

func (e *Engine) resolve(base *url.URL, link string) string {
	if link == "" || strings.HasPrefix(link, "#") || strings.HasPrefix(strings.ToLower(link), "javascript:") {
		return ""
	}
	ref, err := url.Parse(link)
	if err != nil {
		e.logger.Debug("bad link", zap.String("href", link), zap.Error(err))
		return ""
	}
	return base.ResolveReference(ref).String()
}
