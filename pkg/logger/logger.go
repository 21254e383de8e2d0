package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Logger 包裝 zap.SugaredLogger，統一各層的結構化日誌介面
type Logger struct {
	sugar *zap.SugaredLogger
}

// New 依模式建立 Logger
// "prod" / "production" 使用 JSON 輸出，其餘使用開發用的彩色輸出
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: z.Sugar()}, nil
}

// Nop 建立不輸出任何內容的 Logger (測試用)
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// Sync 將緩衝中的日誌刷出
func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.sugar.Fatalw(msg, keysAndValues...)
}

// With 回傳附帶固定欄位的子 Logger
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}
