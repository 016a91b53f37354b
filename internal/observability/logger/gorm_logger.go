package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// QueryLogger routes gorm's output through the zap logger carried in the
// request context. Record-not-found is never logged as an error; the
// repositories report missing rows as empty results.
type QueryLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewQueryLogger flags queries slower than slowThreshold as warnings.
// With verbose set every statement is logged at debug level.
func NewQueryLogger(slowThreshold time.Duration, verbose bool) *QueryLogger {
	level := gormlogger.Warn
	if verbose {
		level = gormlogger.Info
	}
	return &QueryLogger{level: level, slowThreshold: slowThreshold}
}

func (l *QueryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *l
	next.level = level
	return &next
}

func (l *QueryLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		FromContext(ctx).Info(msg, zap.String("component", "db"), zap.Any("data", data))
	}
}

func (l *QueryLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		FromContext(ctx).Warn(msg, zap.String("component", "db"), zap.Any("data", data))
	}
}

func (l *QueryLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		FromContext(ctx).Error(msg, zap.String("component", "db"), zap.Any("data", data))
	}
}

func (l *QueryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		FromContext(ctx).Error("db.query", queryFields(sql, rows, elapsed, err)...)
	case l.slowThreshold > 0 && elapsed >= l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		FromContext(ctx).Warn("db.slow_query", queryFields(sql, rows, elapsed, nil)...)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		FromContext(ctx).Debug("db.query", queryFields(sql, rows, elapsed, nil)...)
	}
}

func queryFields(sql string, rows int64, elapsed time.Duration, err error) []zap.Field {
	fields := []zap.Field{
		zap.String("component", "db"),
		zap.String("sql", strings.TrimSpace(sql)),
		zap.Duration("elapsed", elapsed),
	}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows", rows))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	return fields
}

var _ gormlogger.Interface = (*QueryLogger)(nil)
