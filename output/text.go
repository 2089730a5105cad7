package output

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"unicode/utf8"

	"github.com/dszqbsm/noveldl/extract"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

const maxFilenameRunes = 100

var (
	illegalChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	blankRuns    = regexp.MustCompile(`\s+`)
)

// 去掉文件系统不允许的字符，空白替换为下划线，最长100个字符
func CleanFilename(name string) string {
	name = illegalChars.ReplaceAllString(name, "")
	name = blankRuns.ReplaceAllString(name, "_")
	if name == "" {
		return "未命名章节"
	}
	if utf8.RuneCountInString(name) > maxFilenameRunes {
		name = string([]rune(name)[:maxFilenameRunes])
	}
	return name
}

// 每个章节一个txt文件，可选在结束时合并为一个文件
type TextWriter struct {
	dir      string
	novelDir string
	title    string
	enc      encoding.Encoding
	merge    bool
	merged   bytes.Buffer
	written  int
	logger   *zap.Logger
}

type TextOption func(w *TextWriter)

func WithMerge(merge bool) TextOption {
	return func(w *TextWriter) {
		w.merge = merge
	}
}

func WithLogger(logger *zap.Logger) TextOption {
	return func(w *TextWriter) {
		w.logger = logger
	}
}

/*
输入输出根目录、文件编码名与选项，输出TextWriter

编码名按WHATWG标签解析，如utf-8、gbk、gb18030
*/
func NewTextWriter(dir, encodingName string, opts ...TextOption) (*TextWriter, error) {
	if encodingName == "" {
		encodingName = "utf-8"
	}
	enc, err := htmlindex.Get(encodingName)
	if err != nil {
		return nil, fmt.Errorf("unknown output encoding %q: %w", encodingName, err)
	}
	w := &TextWriter{dir: dir, enc: enc, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func (w *TextWriter) Open(novelTitle string) error {
	w.title = novelTitle
	w.novelDir = filepath.Join(w.dir, CleanFilename(novelTitle))
	w.written = 0
	w.merged.Reset()
	w.merged.WriteString(novelTitle + "\n\n")
	return os.MkdirAll(w.novelDir, 0o755)
}

// 文件名为序号加标题，切分出的子章节额外带上子序号
func (w *TextWriter) Write(c extract.ChapterContent) error {
	name := fmt.Sprintf("%04d_%s.txt", c.Index, CleanFilename(c.Title))
	if c.Part > 0 {
		name = fmt.Sprintf("%04d_%03d_%s.txt", c.Index, c.Part, CleanFilename(c.Title))
	}
	text := c.Title + "\n\n" + c.Body
	if err := w.writeFile(filepath.Join(w.novelDir, name), text); err != nil {
		return err
	}
	w.written++
	if w.merge {
		w.merged.WriteString(text + "\n\n")
	}
	w.logger.Debug("chapter saved", zap.String("file", name))
	return nil
}

// 没有写入任何章节时不生成合并文件
func (w *TextWriter) Close() error {
	if !w.merge || w.novelDir == "" {
		return nil
	}
	if w.written == 0 {
		w.logger.Info("no chapter written, merged file skipped", zap.String("dir", w.novelDir))
		return nil
	}
	path := w.MergedPath()
	if err := w.writeFile(path, w.merged.String()); err != nil {
		return err
	}
	w.logger.Info("merged file written", zap.String("path", path))
	return nil
}

func (w *TextWriter) NovelDir() string {
	return w.novelDir
}

func (w *TextWriter) MergedPath() string {
	return filepath.Join(w.novelDir, CleanFilename(w.title)+".txt")
}

// 目标编码无法表示的字符替换为该编码的替代字符
func (w *TextWriter) writeFile(path, text string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	tw := transform.NewWriter(f, encoding.ReplaceUnsupported(w.enc.NewEncoder()))
	if _, err := tw.Write([]byte(text)); err != nil {
		return err
	}
	return tw.Close()
}
