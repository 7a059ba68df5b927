package logger

import (
	"fmt"

	"go.uber.org/zap"
)

var base *zap.Logger

var (
	serviceName = "openclaw"
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

// Init собирает production-логгер. Зовётся один раз из main.
func Init() error {
	l, err := zap.NewProduction(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	base = l
	return nil
}

// InitNop — для тестов, чтобы пакеты с логами не паниковали.
func InitNop() {
	base = zap.NewNop()
}

func log() *zap.Logger {
	if base == nil {
		panic("logger is not initialized")
	}
	return base.With(zap.String("service", serviceName))
}

func Info(format string, args ...interface{}) {
	log().Info(fmt.Sprintf(format, args...))
}

func Warn(format string, args ...interface{}) {
	log().Warn(fmt.Sprintf(format, args...))
}

func Error(format string, args ...interface{}) {
	log().Error(fmt.Sprintf(format, args...))
}

func Fatal(format string, args ...interface{}) {
	log().Fatal(fmt.Sprintf(format, args...))
}
