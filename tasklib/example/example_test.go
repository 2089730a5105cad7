package example

import (
	"testing"

	"github.com/dszqbsm/noveldl/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStripBoilerplate(t *testing.T) {
	text := "第一段\n\n本章未完，请点击下一页继续阅读\n\n第二段\n\n请记住本书首发域名：example.com"
	assert.Equal(t, "第一段\n\n第二段", StripBoilerplate(text))
	assert.Equal(t, "", StripBoilerplate(""))
}

func TestParserContent(t *testing.T) {
	cfg := config.Default()
	cfg.NovelTitle = "h1"
	cfg.ChapterList = "a"
	cfg.ChapterContent = "#content"
	p, err := NewParser(cfg, zap.NewNop())
	require.NoError(t, err)

	page, err := p.Parse([]byte(`<div id="content"><p>正文</p><p>本章未完，请点击下一页</p></div>`), "http://example.com/1.html")
	require.NoError(t, err)
	pc, err := p.Content(page)
	require.NoError(t, err)
	assert.Equal(t, "正文", pc.Text)
}
