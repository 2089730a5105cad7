package extract

import (
	"regexp"
	"strings"
)

type section struct {
	title string
	lines []string
}

/*
输入章节标题、完整正文与切分正则，输出切分后的子章节

逐行匹配，命中的行开启一个新的子章节，匹配到的文本作为标题，同一行匹配之后的内容并入正文；第一个匹配之前的内容归入以原标题命名的子章节。
re为nil或没有任何行命中时返回单个未切分的章节；正文为空的子章节被丢弃
*/
func Split(title, text string, re *regexp.Regexp) []ChapterContent {
	whole := []ChapterContent{{Title: title, Body: strings.TrimSpace(text)}}
	if re == nil {
		return whole
	}

	sections := []*section{{title: title}}
	matched := false
	for _, line := range strings.Split(text, "\n") {
		loc := re.FindStringIndex(line)
		if loc == nil || loc[0] == loc[1] {
			cur := sections[len(sections)-1]
			cur.lines = append(cur.lines, line)
			continue
		}
		matched = true
		if before := strings.TrimSpace(line[:loc[0]]); before != "" {
			cur := sections[len(sections)-1]
			cur.lines = append(cur.lines, before)
		}
		next := &section{title: CleanText(line[loc[0]:loc[1]])}
		if rest := strings.TrimSpace(line[loc[1]:]); rest != "" {
			next.lines = append(next.lines, rest)
		}
		sections = append(sections, next)
	}
	if !matched {
		return whole
	}

	var out []ChapterContent
	for _, s := range sections {
		body := strings.TrimSpace(strings.Join(s.lines, "\n"))
		if body == "" {
			continue
		}
		out = append(out, ChapterContent{Part: len(out) + 1, Title: s.title, Body: body})
	}
	if len(out) == 0 {
		return whole
	}
	return out
}

/*
输入完整正文与标题行正则，输出第一个标题之前的内容与按标题切出的子章节

正则需以多行模式编译，使^匹配每行开头；标题之后没有正文的子章节被丢弃。
没有任何标题时整段正文作为lead返回，由调用方决定并入上一条记录还是自成一章
*/
func SplitHeaders(text string, re *regexp.Regexp) (string, []ChapterContent) {
	var locs [][]int
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] < loc[1] {
			locs = append(locs, loc)
		}
	}
	if len(locs) == 0 {
		return strings.TrimSpace(text), nil
	}

	lead := strings.TrimSpace(text[:locs[0][0]])
	var parts []ChapterContent
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(text[loc[1]:end])
		if body == "" {
			continue
		}
		parts = append(parts, ChapterContent{
			Part:  len(parts) + 1,
			Title: CleanText(text[loc[0]:loc[1]]),
			Body:  body,
		})
	}
	return lead, parts
}
