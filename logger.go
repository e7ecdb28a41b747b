package nobrakes

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogContext carries structured fields for a single log call.
type LogContext map[string]interface{}

type Logger interface {
	Debug(msg string, context ...LogContext)
	Info(msg string, context ...LogContext)
	Warn(msg string, context ...LogContext)
	Error(msg string, context ...LogContext)
}

type defaultLogger struct {
	internal *zap.Logger
}

func (l *defaultLogger) Debug(msg string, context ...LogContext) {
	l.internal.Debug(msg, convertToZapFields(getContext(context))...)
}

func (l *defaultLogger) Info(msg string, context ...LogContext) {
	l.internal.Info(msg, convertToZapFields(getContext(context))...)
}

func (l *defaultLogger) Warn(msg string, context ...LogContext) {
	l.internal.Warn(msg, convertToZapFields(getContext(context))...)
}

func (l *defaultLogger) Error(msg string, context ...LogContext) {
	l.internal.Error(msg, convertToZapFields(getContext(context))...)
}

func getContext(context []LogContext) LogContext {
	if len(context) > 0 {
		return context[0]
	}
	return nil
}

func convertToZapFields(context LogContext) []zap.Field {
	fields := make([]zap.Field, 0, len(context))
	for k, v := range context {
		fields = append(fields, zap.Any(k, v))
	}
	return fields
}

func newDefaultLogger(scraperID string) *defaultLogger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		zap.InfoLevel,
	)

	return &defaultLogger{
		internal: zap.New(core).With(zap.String("scraper_id", scraperID)),
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...LogContext) {}
func (noopLogger) Info(string, ...LogContext)  {}
func (noopLogger) Warn(string, ...LogContext)  {}
func (noopLogger) Error(string, ...LogContext) {}
