package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"RateCast/internal/domain/models"
	domrepo "RateCast/internal/domain/repository"
	pkgch "RateCast/pkg/clickhouse"
	applogger "RateCast/pkg/logger"
)

// CHCalendarSource implements CalendarSource backed by the ClickHouse
// meeting-calendar table. It is the fallback when the external calendar
// service is not configured.
type CHCalendarSource struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHCalendarSource(ch *pkgch.Client, table string) *CHCalendarSource {
	return &CHCalendarSource{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHCalendarSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHCalendarSource) UpcomingMeetings(ctx context.Context, after time.Time, limit int) ([]models.MeetingDate, error) {
	start := time.Now()
	const qtpl = `
        SELECT meeting_date, label
        FROM %s
        WHERE meeting_date > ?
        ORDER BY meeting_date ASC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, after, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse upcoming_meetings query error",
				applogger.String("table", s.table),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get meetings: %w", err)
	}
	defer rows.Close()

	out := make([]models.MeetingDate, 0, limit)
	for rows.Next() {
		var m models.MeetingDate
		if err := rows.Scan(&m.Date, &m.Label); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse upcoming_meetings scan error",
					applogger.String("table", s.table),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse upcoming_meetings ok",
			applogger.String("table", s.table),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

var _ domrepo.CalendarSource = (*CHCalendarSource)(nil)
