package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var spaces = regexp.MustCompile(`\s+`)

// 合并连续空白并去掉首尾空白
func CleanText(s string) string {
	s = strings.NewReplacer("\u00a0", " ", "\u3000", " ").Replace(s)
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

/*
输入容器选区，输出段落文本

逐个收集容器下的文本节点（跳过script与style），清理空白后丢弃空串，段落之间以空行分隔
*/
func paragraphs(s *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := CleanText(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n\n")
}
