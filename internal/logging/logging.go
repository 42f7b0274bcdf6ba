package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shiprate/internal/requestctx"
)

// New builds a JSON logger for production and a console logger otherwise.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg.Build()
}

// FromContext returns log annotated with the request and user ids in ctx.
func FromContext(ctx context.Context, log *zap.Logger) *zap.Logger {
	if rid := requestctx.RequestIDFromContext(ctx); rid != "" {
		log = log.With(zap.String("request_id", rid))
	}
	if uid := requestctx.UserIDFromContext(ctx); uid != "" {
		log = log.With(zap.String("user_id", uid))
	}
	return log
}
