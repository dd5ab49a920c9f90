package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logg *logrus.Logger

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetLevel(logrus.InfoLevel)
	logg.SetOutput(os.Stdout)
}

// Logger 进程级日志实例
func Logger() *logrus.Logger {
	return logg
}

// SetLogLevel debug 模式输出 Debug 级别，其余模式 Info
func SetLogLevel(mode string) {
	if mode == "debug" {
		logg.SetLevel(logrus.DebugLevel)
		return
	}
	logg.SetLevel(logrus.InfoLevel)
}

// LogError 结构化记录错误
func LogError(module, funcName, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   module,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logg.WithFields(fields).Error(err.Error())
}
