package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/d60-Lab/sales-api/config"
)

var l = zap.NewNop()

// Init 初始化全局 zap logger，级别来自配置
func Init(cfg *config.Config) error {
	level := zapcore.InfoLevel
	if cfg != nil && cfg.Log.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			return err
		}
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	l = logger
	return nil
}

// L 返回底层 logger（需要自定义字段链时使用）
func L() *zap.Logger { return l }

func Debug(msg string, fields ...zap.Field) { l.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { l.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { l.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { l.Error(msg, fields...) }

// Sync 刷出缓冲日志，进程退出前调用
func Sync() { _ = l.Sync() }
