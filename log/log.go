package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Plugin = zapcore.Core

/*
输入日志核心和额外的zap选项，输出日志实例

默认选项在前，额外选项在后，后者可覆盖前者
*/
func NewLogger(plugin Plugin, options ...zap.Option) *zap.Logger {
	return zap.New(plugin, append(DefaultOption(), options...)...)
}

func NewPlugin(writer zapcore.WriteSyncer, enabler zapcore.LevelEnabler) Plugin {
	return zapcore.NewCore(DefaultEncoder(), writer, enabler)
}

// 绑定到标准输出的console格式插件
func NewStdoutPlugin(enabler zapcore.LevelEnabler) Plugin {
	return zapcore.NewCore(ConsoleEncoder(), zapcore.Lock(zapcore.AddSync(os.Stdout)), enabler)
}

// 绑定到标准错误的console格式插件，命令行输出结果时日志不会混入标准输出
func NewStderrPlugin(enabler zapcore.LevelEnabler) Plugin {
	return zapcore.NewCore(ConsoleEncoder(), zapcore.Lock(zapcore.AddSync(os.Stderr)), enabler)
}

// lumberjack没有暴露Sync，额外返回closer，进程退出前需要Close以保证内容落盘
func NewFilePlugin(filePath string, enabler zapcore.LevelEnabler) (Plugin, io.Closer) {
	var writer = DefaultLumberjackLogger()
	writer.Filename = filePath
	return NewPlugin(zapcore.AddSync(writer), enabler), writer
}

/*
输入日志级别字符串，输出zap日志级别

兼容大小写以及WARNING这类写法，空字符串视为info
*/
func ParseLevel(text string) (zapcore.Level, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	switch text {
	case "":
		return zapcore.InfoLevel, nil
	case "warning":
		return zapcore.WarnLevel, nil
	case "critical", "fatal":
		return zapcore.FatalLevel, nil
	}
	level, err := zapcore.ParseLevel(text)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", text, err)
	}
	return level, nil
}

// 日志输出的组合方式
type Settings struct {
	Level   string
	File    string
	Console bool
}

type closers []io.Closer

func (c closers) Close() error {
	var err error
	for _, closer := range c {
		err = multierr.Append(err, closer.Close())
	}
	return err
}

/*
输入日志输出配置，输出日志实例和需要在退出前关闭的closer

终端输出与文件输出通过zapcore.NewTee组合，两者都未开启时返回Nop日志
*/
func New(s Settings) (*zap.Logger, io.Closer, error) {
	level, err := ParseLevel(s.Level)
	if err != nil {
		return nil, nil, err
	}
	var (
		plugins []Plugin
		cs      closers
	)
	if s.Console {
		plugins = append(plugins, NewStderrPlugin(level))
	}
	if s.File != "" {
		plugin, c := NewFilePlugin(s.File, level)
		plugins = append(plugins, plugin)
		cs = append(cs, c)
	}
	if len(plugins) == 0 {
		return zap.NewNop(), cs, nil
	}
	return NewLogger(zapcore.NewTee(plugins...)), cs, nil
}
