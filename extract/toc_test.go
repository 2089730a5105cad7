package extract

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pagedEngine(t *testing.T, opts ...Option) *Engine {
	e := engine(t, "#list a", opts...)
	e.set.PageSelect = mustSelector(t, "select.select")
	e.set.PageOption = mustSelector(t, "option")
	e.set.FragmentKey = "html"
	return e
}

func TestTocPageCount(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		n     int
		known bool
	}{
		{name: "three options", body: `<select class="select"><option>1</option><option>2</option><option>3</option></select>`, n: 3, known: true},
		{name: "empty select", body: `<select class="select"></select>`, n: 1, known: true},
		{name: "no select", body: `<p>none</p>`},
	}
	e := pagedEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := e.Parse([]byte(tt.body), "http://example.com/book/7/")
			require.NoError(t, err)
			n, known := e.TocPageCount(p)
			assert.Equal(t, tt.n, n)
			assert.Equal(t, tt.known, known)
		})
	}

	// 未配置分页下拉框
	plain := engine(t, "#list a")
	p, err := plain.Parse([]byte(tests[0].body), "http://example.com/book/7/")
	require.NoError(t, err)
	_, known := plain.TocPageCount(p)
	assert.False(t, known)
}

func TestTocFragment(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []ChapterRef
	}{
		{
			name: "json data",
			body: `{"data":[{"chaptername":"第5章 风起","chapterurl":"5.html"},{"chaptername":"","chapterurl":"6.html"}]}`,
			want: []ChapterRef{{Index: 1, URL: "http://example.com/book/7/5.html", Title: "风起"}},
		},
		{
			name: "json list html",
			body: `{"list":"<ul id=\"list\"><a href=\"/book/7/8.html\">第8章 云涌</a></ul>"}`,
			want: []ChapterRef{{Index: 1, URL: "http://example.com/book/7/8.html", Title: "云涌"}},
		},
		{
			name: "json configured key",
			body: `{"html":"<div id=\"list\"><a href=\"9.html\">第9章 雷鸣</a></div>"}`,
			want: []ChapterRef{{Index: 1, URL: "http://example.com/book/7/9.html", Title: "雷鸣"}},
		},
		{
			name: "html fragment",
			body: `<div id="list"><a href="10.html">第10章 电闪</a></div>`,
			want: []ChapterRef{{Index: 1, URL: "http://example.com/book/7/10.html", Title: "电闪"}},
		},
		{
			name: "html without chapters",
			body: `<p>no more</p>`,
		},
	}
	e := pagedEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs, err := e.TocFragment([]byte(tt.body), "http://example.com/book/7/")
			require.NoError(t, err)
			assert.Equal(t, tt.want, refs)
		})
	}
}

func TestTocFragmentBaseURL(t *testing.T) {
	base, _ := url.Parse("http://mirror.example.com/")
	e := pagedEngine(t, WithBaseURL(base))
	refs, err := e.TocFragment([]byte(`{"data":[{"chaptername":"第5章 风起","chapterurl":"book/7/5.html"}]}`), "http://example.com/book/7/")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "http://mirror.example.com/book/7/5.html", refs[0].URL)
}

func TestTocFragmentUnknownJSON(t *testing.T) {
	e := pagedEngine(t)
	for _, body := range []string{`{"status":1}`, `{"data":`} {
		_, err := e.TocFragment([]byte(body), "http://example.com/book/7/")
		var xerr *ExtractionError
		assert.True(t, errors.As(err, &xerr), body)
	}
}
