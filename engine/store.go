package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dszqbsm/noveldl/cache"
	"github.com/dszqbsm/noveldl/collect"
	"github.com/dszqbsm/noveldl/config"
	"github.com/dszqbsm/noveldl/extract"
	"go.uber.org/zap"
)

// 未指定downloader_class或parser_class时使用的标识
const GenericName = "generic"

type DownloaderFactory func(cfg *config.SiteConfig, store cache.Store, logger *zap.Logger) (collect.Fetcher, error)

type ParserFactory func(cfg *config.SiteConfig, logger *zap.Logger) (extract.Extractor, error)

// 全局插件注册表，由tasklib在init中填充
var Store = &CrawlerStore{
	downloaders: map[string]DownloaderFactory{},
	parsers:     map[string]ParserFactory{},
}

// 标识到构造函数的映射，启动时解析一次，未知标识在发起请求前报错
type CrawlerStore struct {
	mu          sync.RWMutex
	downloaders map[string]DownloaderFactory
	parsers     map[string]ParserFactory
}

func (c *CrawlerStore) AddDownloader(name string, f DownloaderFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.downloaders[name] = f
}

func (c *CrawlerStore) AddParser(name string, f ParserFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parsers[name] = f
}

func (c *CrawlerStore) Downloader(name string) (DownloaderFactory, error) {
	if name == "" {
		name = GenericName
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.downloaders[name]
	if !ok {
		return nil, &config.ConfigError{Field: "downloader_class", Reason: fmt.Sprintf("unknown identifier %q", name)}
	}
	return f, nil
}

func (c *CrawlerStore) Parser(name string) (ParserFactory, error) {
	if name == "" {
		name = GenericName
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.parsers[name]
	if !ok {
		return nil, &config.ConfigError{Field: "parser_class", Reason: fmt.Sprintf("unknown identifier %q", name)}
	}
	return f, nil
}

// 已注册的标识，按字母序
func (c *CrawlerStore) Names() (downloaders, parsers []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k := range c.downloaders {
		downloaders = append(downloaders, k)
	}
	for k := range c.parsers {
		parsers = append(parsers, k)
	}
	sort.Strings(downloaders)
	sort.Strings(parsers)
	return downloaders, parsers
}
