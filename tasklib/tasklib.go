package tasklib

// 内置插件注册，引入本包即可在配置中使用这些downloader_class与parser_class

import (
	"github.com/dszqbsm/noveldl/engine"
	"github.com/dszqbsm/noveldl/tasklib/example"
)

func init() {
	engine.Store.AddDownloader(engine.GenericName, engine.GenericDownloader)
	engine.Store.AddParser(engine.GenericName, engine.GenericParser)

	engine.Store.AddDownloader(example.DownloaderName, example.NewDownloader)
	engine.Store.AddParser(example.ParserName, example.NewParser)
}
