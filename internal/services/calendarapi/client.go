package calendarapi

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"RateCast/internal/domain/models"
	domrepo "RateCast/internal/domain/repository"
	"RateCast/pkg/config"
)

// HTTPCalendarSource fetches scheduled decision dates from the external
// calendar service.
type HTTPCalendarSource struct{ base *HTTPServiceBase }

func NewHTTPCalendarSource(cfg *config.Config) *HTTPCalendarSource {
	return &HTTPCalendarSource{base: NewHTTPServiceBase(cfg)}
}

type meetingEntry struct {
	Date  string `json:"date"` // RFC 3339
	Label string `json:"label"`
}

type meetingsResponse struct {
	Meetings []meetingEntry `json:"meetings"`
}

func (s *HTTPCalendarSource) UpcomingMeetings(ctx context.Context, after time.Time, limit int) ([]models.MeetingDate, error) {
	var mr meetingsResponse
	query := map[string][]string{
		"after": {after.UTC().Format(time.RFC3339)},
		"limit": {strconv.Itoa(limit)},
	}
	if err := s.base.GetJSONWithRetry(ctx, "/meetings/upcoming", query, &mr, 3); err != nil {
		return nil, fmt.Errorf("get meetings: %w", err)
	}

	out := make([]models.MeetingDate, 0, len(mr.Meetings))
	for _, m := range mr.Meetings {
		d, err := time.Parse(time.RFC3339, m.Date)
		if err != nil {
			return nil, fmt.Errorf("parse meeting date %q: %w", m.Date, err)
		}
		out = append(out, models.MeetingDate{Date: d, Label: m.Label})
	}
	return out, nil
}

var _ domrepo.CalendarSource = (*HTTPCalendarSource)(nil)
