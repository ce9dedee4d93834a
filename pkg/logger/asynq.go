package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// AsynqLogger 把 asynq 内部日志转发到全局 zap Logger
// 实现 asynq.Logger 接口
type AsynqLogger struct {
	log *zap.SugaredLogger
}

func NewAsynqLogger() *AsynqLogger {
	return &AsynqLogger{log: Log.WithOptions(zap.AddCallerSkip(1)).Sugar().Named("asynq")}
}

func (l *AsynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l *AsynqLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l *AsynqLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l *AsynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
func (l *AsynqLogger) Fatal(args ...interface{}) { l.log.Fatal(fmt.Sprint(args...)) }
