package example

// 示例站点插件：下载沿用通用实现，解析在通用抽取的基础上去掉常见的站点水印行

import (
	"regexp"
	"strings"

	"github.com/dszqbsm/noveldl/cache"
	"github.com/dszqbsm/noveldl/collect"
	"github.com/dszqbsm/noveldl/config"
	"github.com/dszqbsm/noveldl/engine"
	"github.com/dszqbsm/noveldl/extract"
	"go.uber.org/zap"
)

const (
	DownloaderName = "ExampleDownloader"
	ParserName     = "ExampleParser"
)

// 整行命中即删除
var boilerplate = []*regexp.Regexp{
	regexp.MustCompile(`^本章未完.*$`),
	regexp.MustCompile(`^(请记住|记住)本书.*(域名|网址).*$`),
	regexp.MustCompile(`^.*(最新章节|无弹窗|手机阅读).*(请|地址|访问).*$`),
}

func NewDownloader(cfg *config.SiteConfig, store cache.Store, logger *zap.Logger) (collect.Fetcher, error) {
	return engine.GenericDownloader(cfg, store, logger)
}

func NewParser(cfg *config.SiteConfig, logger *zap.Logger) (extract.Extractor, error) {
	inner, err := engine.GenericParser(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Parser{Extractor: inner}, nil
}

type Parser struct {
	extract.Extractor
}

func (p *Parser) Content(page *extract.Page) (*extract.PageContent, error) {
	pc, err := p.Extractor.Content(page)
	if err != nil {
		return nil, err
	}
	pc.Text = StripBoilerplate(pc.Text)
	return pc, nil
}

func StripBoilerplate(text string) string {
	paras := strings.Split(text, "\n\n")
	kept := paras[:0]
	for _, para := range paras {
		if isBoilerplate(para) {
			continue
		}
		kept = append(kept, para)
	}
	return strings.Join(kept, "\n\n")
}

func isBoilerplate(line string) bool {
	line = strings.TrimSpace(line)
	for _, re := range boilerplate {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
