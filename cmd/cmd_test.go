package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tocPage = `<html><body><h1>测试小说</h1><ul id="list">
<li><a href="1.html">第1章 开端</a></li>
<li><a href="2.html">第2章 转折</a></li>
</ul></body></html>`

func chapterPage(text string) string {
	return `<html><body><div id="content"><p>` + text + `</p></div></body></html>`
}

func newBookSite(t *testing.T) (*httptest.Server, *int32) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/book/":
			fmt.Fprint(w, tocPage)
		case "/book/1.html":
			fmt.Fprint(w, chapterPage("第一章正文"))
		case "/book/2.html":
			fmt.Fprint(w, chapterPage("第二章正文"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func writeConfig(t *testing.T, startURL string, extra map[string]interface{}) string {
	cfg := map[string]interface{}{
		"site_name":                "testsite",
		"start_url":                startURL,
		"download_delay":           0,
		"max_retries":              0,
		"retry_delay":              0,
		"novel_title_selector":     "h1",
		"chapter_list_selector":    "#list a",
		"chapter_content_selector": "#content",
		"title_patterns":           map[string]string{"remove_regex": `^第\d+章\s*`},
		"logging_settings":         map[string]interface{}{"level": "error", "console": false},
	}
	for k, v := range extra {
		cfg[k] = v
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "site.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func execute(args ...string) (string, error) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestChaptersCommand(t *testing.T) {
	srv, _ := newBookSite(t)
	path := writeConfig(t, srv.URL+"/book/", map[string]interface{}{
		"cache_settings": map[string]interface{}{"enabled": false},
	})

	out, err := execute("chapters", path)
	require.NoError(t, err)
	assert.Contains(t, out, "测试小说")
	assert.Contains(t, out, "0001: 开端 ("+srv.URL+"/book/1.html)")
	assert.Contains(t, out, "0002: 转折 ("+srv.URL+"/book/2.html)")
}

func TestDownloadCommand(t *testing.T) {
	srv, hits := newBookSite(t)
	outDir := t.TempDir()
	cacheDir := t.TempDir()
	path := writeConfig(t, srv.URL+"/book/", nil)

	out, err := execute("download", path, "-o", outDir, "-c", cacheDir, "--chapters", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Completed")
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))

	data, err := os.ReadFile(filepath.Join(outDir, "测试小说", "0002_转折.txt"))
	require.NoError(t, err)
	assert.Equal(t, "转折\n\n第二章正文", string(data))
	_, err = os.Stat(filepath.Join(outDir, "测试小说", "0001_开端.txt"))
	assert.True(t, os.IsNotExist(err))

	// 第二次运行全部来自缓存
	_, err = execute("download", path, "-o", outDir, "-c", cacheDir, "--chapters", "2")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))

	_, err = execute("cache", "clear", path, "-c", cacheDir)
	require.NoError(t, err)
	_, err = execute("download", path, "-o", outDir, "-c", cacheDir, "--chapters", "2")
	require.NoError(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(hits))
}

func TestDownloadCommandFailure(t *testing.T) {
	srv, _ := newBookSite(t)
	path := writeConfig(t, srv.URL+"/missing/", map[string]interface{}{
		"cache_settings": map[string]interface{}{"enabled": false},
	})
	_, err := execute("download", path, "-o", t.TempDir(), "--chapters", "")
	assert.Error(t, err)
}

func TestDownloadCommandInvalidConfig(t *testing.T) {
	path := writeConfig(t, "not a url", nil)
	_, err := execute("download", path, "-o", t.TempDir(), "--chapters", "")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute("version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")
}
