package engine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dszqbsm/noveldl/extract"
	"go.uber.org/zap"
)

// 单个范围最多展开的章节数
const maxSelectionSpan = 100000

/*
输入形如"1-5,8,10-12"的章节选择字符串，输出排序去重后的章节序号

序号从1开始；非法片段记录告警后忽略；没有任何有效序号时返回nil，表示下载全部章节
*/
func ParseSelection(s string, logger *zap.Logger) []int {
	if logger == nil {
		logger = zap.NewNop()
	}
	set := make(map[int]struct{})
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err1 := strconv.Atoi(strings.TrimSpace(lo))
			end, err2 := strconv.Atoi(strings.TrimSpace(hi))
			if err1 != nil || err2 != nil {
				logger.Warn("invalid chapter range format, ignored", zap.String("part", part))
				continue
			}
			if start <= 0 || end <= 0 || start > end || end-start >= maxSelectionSpan {
				logger.Warn("invalid chapter range, ignored", zap.String("part", part))
				continue
			}
			for i := start; i <= end; i++ {
				set[i] = struct{}{}
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			logger.Warn("invalid chapter number, ignored", zap.String("part", part))
			continue
		}
		set[n] = struct{}{}
	}
	if len(set) == 0 {
		if strings.TrimSpace(s) != "" {
			logger.Warn("chapter selection yielded nothing valid, downloading all chapters")
		}
		return nil
	}
	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// 按目录顺序保留被选中的章节，越界的序号忽略；selection为空表示全部
func Select(refs []extract.ChapterRef, selection []int) []extract.ChapterRef {
	if len(selection) == 0 {
		return refs
	}
	want := make(map[int]struct{}, len(selection))
	for _, n := range selection {
		want[n] = struct{}{}
	}
	var out []extract.ChapterRef
	for _, r := range refs {
		if _, ok := want[r.Index]; ok {
			out = append(out, r)
		}
	}
	return out
}
