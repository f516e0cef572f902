package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/lmittmann/tint"
	"github.com/pitabwire/util"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

const (
	tintAttrCodeDuration = 214
	tintAttrCodeRows     = 12
	tintAttrCodeQuery    = 2
)

type queryLogger struct {
	baseLogger    *util.LogEntry
	logQueries    bool
	slowThreshold time.Duration
}

func newQueryLogger(ctx context.Context, logQueries bool, slowThreshold time.Duration) glogger.Interface {
	return &queryLogger{
		baseLogger:    util.Log(ctx),
		logQueries:    logQueries,
		slowThreshold: slowThreshold,
	}
}

func (l *queryLogger) LogMode(_ glogger.LogLevel) glogger.Interface {
	return l
}

func (l *queryLogger) Info(ctx context.Context, msg string, data ...any) {
	l.baseLogger.WithContext(ctx).Info(msg, data...)
}

func (l *queryLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.baseLogger.WithContext(ctx).Warn(msg, data...)
}

func (l *queryLogger) Error(ctx context.Context, msg string, data ...any) {
	l.baseLogger.WithContext(ctx).Error(msg, data...)
}

func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	baseLog := l.baseLogger.WithContext(ctx)

	queryIsSlow := l.slowThreshold != 0 && elapsed > l.slowThreshold
	queryErrored := err != nil && !isNoRows(err)
	shouldLog := queryErrored ||
		baseLog.Enabled(ctx, slog.LevelDebug) ||
		(l.logQueries && baseLog.Enabled(ctx, slog.LevelInfo)) ||
		(queryIsSlow && baseLog.Enabled(ctx, slog.LevelWarn))
	if !shouldLog {
		return
	}

	query, rows := fc()

	log := baseLog.With(
		tint.Attr(tintAttrCodeDuration, slog.Any("duration", elapsed.String())),
		tint.Attr(tintAttrCodeRows, slog.Any("rows", strconv.FormatInt(rows, 10))),
		tint.Attr(tintAttrCodeQuery, slog.Any("query", query)),
	)
	defer log.Release()

	if queryIsSlow {
		log = log.WithField("slow_query", fmt.Sprintf(">= %v", l.slowThreshold))
	}

	switch {
	case queryErrored:
		log.WithError(err).Error("error running query")
	case log.Enabled(ctx, slog.LevelDebug):
		log.Debug("query executed")
	case l.logQueries:
		log.Info("query executed")
	case queryIsSlow:
		log.Warn("query is slow")
	}
}

func isNoRows(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, sql.ErrNoRows)
}
