package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

const (
	cssPrefix   = "css:"
	xpathPrefix = "xpath:"
)

// 编译后的选择器，结果按文档顺序返回
type Selector interface {
	Select(s *goquery.Selection) *goquery.Selection
	String() string
}

/*
输入选择器表达式，输出编译后的选择器

默认按CSS解析，也可显式加css:前缀；xpath:前缀的表达式交给xpath引擎
*/
func CompileSelector(expr string) (Selector, error) {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "":
		return nil, fmt.Errorf("empty selector")
	case strings.HasPrefix(expr, xpathPrefix):
		raw := strings.TrimSpace(strings.TrimPrefix(expr, xpathPrefix))
		e, err := xpath.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("compile xpath %q: %w", raw, err)
		}
		return &xpathSelector{raw: expr, expr: e}, nil
	default:
		raw := strings.TrimSpace(strings.TrimPrefix(expr, cssPrefix))
		m, err := cascadia.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("compile css %q: %w", raw, err)
		}
		return &cssSelector{raw: expr, matcher: m}, nil
	}
}

type cssSelector struct {
	raw     string
	matcher goquery.Matcher
}

func (c *cssSelector) Select(s *goquery.Selection) *goquery.Selection {
	return s.FindMatcher(c.matcher)
}

func (c *cssSelector) String() string {
	return c.raw
}

type xpathSelector struct {
	raw  string
	expr *xpath.Expr
}

// 只保留元素节点，xpath选中的属性或文本节点取其所在元素
func (x *xpathSelector) Select(s *goquery.Selection) *goquery.Selection {
	var nodes []*html.Node
	seen := make(map[*html.Node]bool)
	for _, root := range s.Nodes {
		for _, n := range htmlquery.QuerySelectorAll(root, x.expr) {
			if n.Type != html.ElementNode {
				n = n.Parent
			}
			if n == nil || seen[n] {
				continue
			}
			seen[n] = true
			nodes = append(nodes, n)
		}
	}
	return s.FindNodes(nodes...)
}

func (x *xpathSelector) String() string {
	return x.raw
}
