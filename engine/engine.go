package engine

// 下载流程编排：Discover取目录，Select筛选章节，Retrieve逐章抓取，Emit交给输出

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/dszqbsm/noveldl/collect"
	"github.com/dszqbsm/noveldl/config"
	"github.com/dszqbsm/noveldl/extract"
	"github.com/dszqbsm/noveldl/script"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Crawler struct {
	options
}

func NewEngine(opts ...Option) *Crawler {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	return &Crawler{options: options}
}

/*
输入站点配置与选项，输出下载引擎

先校验配置，再通过全局注册表解析downloader_class与parser_class；显式传入的Fetcher与Parser优先于注册表，所有错误都发生在第一次请求之前
*/
func NewFromConfig(cfg *config.SiteConfig, opts ...Option) (*Crawler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := NewEngine(opts...)

	if c.Fetcher == nil {
		factory, err := Store.Downloader(cfg.DownloaderClass)
		if err != nil {
			return nil, err
		}
		if c.Fetcher, err = factory(cfg, c.Cache, c.Logger); err != nil {
			return nil, err
		}
	}
	if c.Parser == nil {
		factory, err := Store.Parser(cfg.ParserClass)
		if err != nil {
			return nil, err
		}
		if c.Parser, err = factory(cfg, c.Logger); err != nil {
			return nil, err
		}
	}
	if cfg.ChapterSplittingEnabled && c.SplitRe == nil {
		re, err := regexp.Compile(cfg.ChapterSplittingRegex)
		if err != nil {
			return nil, &config.ConfigError{Field: "chapter_splitting_regex", Reason: err.Error()}
		}
		c.SplitRe = re
	}
	if cfg.ContentScript != "" && c.Filter == nil {
		f, err := script.Compile(cfg.ContentScript, 0)
		if err != nil {
			return nil, &config.ConfigError{Field: "content_script", Reason: err.Error()}
		}
		c.Filter = f
	}
	if cfg.MaxPagesPerChapter > 0 {
		c.MaxPages = cfg.MaxPagesPerChapter
	}
	if cfg.InContentSplitting.Enabled && c.HeaderRe == nil {
		re, err := regexp.Compile("(?m)" + cfg.InContentSplitting.HeaderRegex)
		if err != nil {
			return nil, &config.ConfigError{Field: "in_content_splitting.header_regex", Reason: err.Error()}
		}
		c.HeaderRe = re
		if cfg.TitlePatterns.RemoveRegex != "" {
			c.TitleRe = regexp.MustCompile(cfg.TitlePatterns.RemoveRegex)
		}
	}
	if pc := cfg.PaginationConfig; pc.AjaxURL != "" && c.Pagination == nil {
		u, err := url.Parse(pc.AjaxURL)
		if err != nil {
			return nil, &config.ConfigError{Field: "pagination_config.ajax_url", Reason: err.Error()}
		}
		re, err := regexp.Compile(pc.IDFromURLRegex)
		if err != nil {
			return nil, &config.ConfigError{Field: "pagination_config.id_from_url_regex", Reason: err.Error()}
		}
		c.Pagination = &Pagination{URL: u, IDRe: re, MaxPages: pc.MaxAjaxPages}
	}
	return c, nil
}

/*
输入上下文、目录页地址与章节选择，输出运行结果

目录阶段的任何失败都使运行失败；单个章节失败记录到Skipped后继续；写输出失败直接终止。至少输出一个章节时状态为Completed
*/
func (c *Crawler) Run(ctx context.Context, startURL string, selection []int) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Status: StatusFailed}
	logger := c.Logger.With(zap.String("run_id", res.RunID))
	if c.Output == nil {
		return res, errors.New("engine: output is not configured")
	}
	start := time.Now()

	title, refs, err := c.discover(ctx, startURL, logger)
	if err != nil {
		logger.Error("discover failed", zap.String("url", startURL), zap.Error(err))
		return res, fmt.Errorf("discover %s: %w", startURL, err)
	}
	res.Title = title

	selected := Select(refs, selection)
	res.Total = len(selected)
	logger.Info("chapters discovered",
		zap.String("title", title),
		zap.Int("available", len(refs)),
		zap.Int("selected", len(selected)),
	)
	if len(selected) == 0 {
		return res, ErrNoChapters
	}

	if err := c.Output.Open(title); err != nil {
		return res, fmt.Errorf("open output: %w", err)
	}
	em := &emitter{out: c.Output, hold: c.HeaderRe != nil}
	for _, ref := range selected {
		if err := ctx.Err(); err != nil {
			em.flush()
			c.Output.Close()
			res.Records = em.written
			return res, err
		}
		ch, err := c.retrieve(ctx, ref, logger)
		if err != nil {
			logger.Warn("chapter skipped",
				zap.Int("index", ref.Index),
				zap.String("url", ref.URL),
				zap.Error(err),
			)
			res.Skipped = append(res.Skipped, Skip{Index: ref.Index, URL: ref.URL, Title: ref.Title, Err: err})
			continue
		}
		records := ch.records
		if ch.carry != "" {
			if em.carry(ch.carry) {
				logger.Debug("untitled text merged into previous record", zap.Int("index", ref.Index))
			} else {
				// 没有上一条记录可并入时自成一章
				records = append(extract.Split(ch.title, ch.carry, c.SplitRe), records...)
				renumber(records, ref)
			}
		}
		if err := em.push(records); err != nil {
			c.Output.Close()
			res.Records = em.written
			return res, fmt.Errorf("write chapter %d: %w", ref.Index, err)
		}
		res.Emitted++
		logger.Info("chapter done", zap.Int("index", ref.Index), zap.String("title", ref.Title), zap.Int("records", len(records)))
	}
	flushErr := em.flush()
	res.Records = em.written
	closeErr := c.Output.Close()

	if res.Emitted == 0 {
		return res, ErrAllChaptersFailed
	}
	if flushErr != nil {
		return res, fmt.Errorf("write chapter: %w", flushErr)
	}
	if closeErr != nil {
		return res, fmt.Errorf("close output: %w", closeErr)
	}
	res.Status = StatusCompleted
	logger.Info("download finished",
		zap.String("title", title),
		zap.Int("total", res.Total),
		zap.Int("emitted", res.Emitted),
		zap.Int("skipped", len(res.Skipped)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// 只执行目录阶段，返回小说标题与全部章节
func (c *Crawler) ListChapters(ctx context.Context, startURL string) (string, []extract.ChapterRef, error) {
	return c.discover(ctx, startURL, c.Logger)
}

/*
输入目录页地址，输出小说标题与章节列表

配置了目录分页时依次跟随，已访问的页面与超过MaxPages的部分不再请求；章节序号在全部目录页合并后重新从1编号
*/
func (c *Crawler) discover(ctx context.Context, startURL string, logger *zap.Logger) (string, []extract.ChapterRef, error) {
	var (
		title   string
		first   *extract.Page
		refs    []extract.ChapterRef
		visited = make(map[string]bool)
	)
	next := startURL
	for page := 0; next != ""; page++ {
		req := collect.NewRequest(next)
		if visited[req.Unique()] {
			logger.Debug("toc page already visited", zap.String("url", next))
			break
		}
		if page >= c.MaxPages {
			logger.Warn("toc page limit reached", zap.Int("limit", c.MaxPages))
			break
		}
		visited[req.Unique()] = true

		resp, err := c.Fetcher.Fetch(ctx, next)
		if err != nil {
			return "", nil, err
		}
		p, err := c.Parser.Parse(resp.Body, resp.URL)
		if err != nil {
			return "", nil, err
		}
		if page == 0 {
			if title, err = c.Parser.Title(p); err != nil {
				return "", nil, err
			}
			first = p
		}
		list, err := c.Parser.ChapterList(p)
		if err != nil {
			return "", nil, err
		}
		refs = append(refs, list...)
		next = c.Parser.TocNext(p)
	}
	if c.Pagination != nil {
		more, err := c.tocPages(ctx, startURL, first, logger)
		if err != nil {
			return "", nil, err
		}
		refs = append(refs, more...)
	}
	for i := range refs {
		refs[i].Index = i + 1
	}
	return title, refs, nil
}

/*
输入章节，输出该章节的记录

跟随下一页链接拼接全文后再执行脚本过滤，最后统一切分；任一页面失败则整个章节失败
*/
func (c *Crawler) retrieve(ctx context.Context, ref extract.ChapterRef, logger *zap.Logger) (*chapterText, error) {
	var (
		title   string
		texts   []string
		visited = make(map[string]bool)
	)
	next := ref.URL
	for page := 0; next != ""; page++ {
		req := collect.NewRequest(next)
		if visited[req.Unique()] {
			logger.Debug("chapter page loop detected", zap.String("url", next))
			break
		}
		if page >= c.MaxPages {
			logger.Warn("chapter page limit reached", zap.Int("index", ref.Index), zap.Int("limit", c.MaxPages))
			break
		}
		visited[req.Unique()] = true

		resp, err := c.Fetcher.Fetch(ctx, next)
		if err != nil {
			return nil, err
		}
		p, err := c.Parser.Parse(resp.Body, resp.URL)
		if err != nil {
			return nil, err
		}
		pc, err := c.Parser.Content(p)
		if err != nil {
			return nil, err
		}
		if title == "" {
			title = pc.Title
		}
		if pc.Text != "" {
			texts = append(texts, pc.Text)
		}
		next = pc.Next
	}
	if title == "" {
		title = ref.Title
	}

	text := strings.Join(texts, "\n\n")
	if c.Filter != nil {
		filtered, err := c.Filter.Apply(title, text)
		if err != nil {
			return nil, err
		}
		text = filtered
	}
	if strings.TrimSpace(text) == "" {
		return nil, &extract.ExtractionError{URL: ref.URL, Reason: "chapter content is empty"}
	}

	ch := &chapterText{title: title}
	if c.HeaderRe != nil {
		lead, parts := extract.SplitHeaders(text, c.HeaderRe)
		for i := range parts {
			parts[i].Title = extract.CleanTitle(parts[i].Title, c.TitleRe)
		}
		if lead == "" && len(parts) == 0 {
			return nil, &extract.ExtractionError{URL: ref.URL, Reason: "no content after header splitting"}
		}
		ch.carry = lead
		ch.records = parts
	} else {
		ch.records = extract.Split(title, text, c.SplitRe)
	}
	for i := range ch.records {
		ch.records[i].Index = ref.Index
		ch.records[i].URL = ref.URL
	}
	return ch, nil
}

/*
输入小说目录地址与已解析的目录首页，输出分页接口中第2页及以后的章节

页数由首页的分页下拉框确定时，任一页失败都使目录阶段失败；没有下拉框时逐页尝试到max_ajax_pages，遇到失败或空页即停止
*/
func (c *Crawler) tocPages(ctx context.Context, startURL string, first *extract.Page, logger *zap.Logger) ([]extract.ChapterRef, error) {
	m := c.Pagination.IDRe.FindStringSubmatch(startURL)
	if len(m) < 2 || m[1] == "" {
		logger.Warn("novel id not found in start url, toc pagination skipped",
			zap.String("url", startURL),
			zap.String("regex", c.Pagination.IDRe.String()),
		)
		return nil, nil
	}
	id := m[1]

	total, known := c.Parser.TocPageCount(first)
	if !known {
		total = c.Pagination.MaxPages
	}
	logger.Info("toc pagination", zap.String("id", id), zap.Int("pages", total), zap.Bool("from_select", known))

	var refs []extract.ChapterRef
	for page := 2; page <= total; page++ {
		u := c.Pagination.pageURL(id, page)
		resp, err := c.Fetcher.Fetch(ctx, u)
		if err != nil {
			if known {
				return nil, err
			}
			logger.Info("toc pagination stopped", zap.Int("page", page), zap.Error(err))
			break
		}
		list, err := c.Parser.TocFragment(resp.Body, startURL)
		if err != nil {
			if known {
				return nil, err
			}
			logger.Info("toc pagination stopped", zap.Int("page", page), zap.Error(err))
			break
		}
		if len(list) == 0 && !known {
			logger.Info("toc pagination stopped on empty page", zap.Int("page", page))
			break
		}
		refs = append(refs, list...)
	}
	return refs, nil
}
