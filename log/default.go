package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

/*
无输入，输出日志编码器配置

在生产环境编码器配置的基础上，级别以大写输出，时间以ISO8601格式输出
*/
func DefaultEncoderConfig() zapcore.EncoderConfig {
	var encoderConfig = zap.NewProductionEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return encoderConfig
}

// 文件日志使用json编码，便于后续检索
func DefaultEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(DefaultEncoderConfig())
}

// 终端日志使用console编码
func ConsoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(DefaultEncoderConfig())
}

// 记录调用者，仅在DPanic及以上级别记录堆栈
func DefaultOption() []zap.Option {
	var stackTraceLevel zap.LevelEnablerFunc = func(level zapcore.Level) bool {
		return level >= zapcore.DPanicLevel
	}
	return []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(stackTraceLevel),
	}
}

// 单个日志文件最大200MB，按本地时间命名备份并压缩
func DefaultLumberjackLogger() *lumberjack.Logger {
	return &lumberjack.Logger{
		MaxSize:    200,
		MaxBackups: 5,
		LocalTime:  true,
		Compress:   true,
	}
}
