package service

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/model"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/repository"
)

// ── ICS feed ──────────────────────────────────────────────
//
// Builds an iCalendar (RFC 5545) feed for a public doorcard: one weekly
// recurring VEVENT per appointment, recurring from the term start until the
// term end. Doorcards without a linked term fall back to a one-semester
// window starting today.
// ───────────────────────────────────────────────────────────

const (
	campusTimezone   = "America/Los_Angeles"
	fallbackFeedSpan = 16 * 7 * 24 * time.Hour
)

// ICSFeedService renders public doorcards as subscribable calendars.
type ICSFeedService interface {
	// Feed returns the serialized calendar and a suggested filename.
	Feed(ctx context.Context, slugOrID string) (string, string, error)
}

type icsFeedService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewICSFeedService creates an ICSFeedService instance.
func NewICSFeedService(repo *repository.Repository, logger *zap.Logger) ICSFeedService {
	return &icsFeedService{repo: repo, logger: logger, now: time.Now}
}

func (s *icsFeedService) Feed(ctx context.Context, slugOrID string) (string, string, error) {
	doorcard, err := s.repo.Doorcard.FindPublicBySlugOrID(ctx, slugOrID)
	if err != nil {
		return "", "", ErrDoorcardNotFound
	}

	loc, err := time.LoadLocation(campusTimezone)
	if err != nil {
		loc = time.UTC
	}

	windowStart, windowEnd := s.feedWindow(doorcard, loc)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//SMCCD//Doorcard//EN")
	cal.SetName(fmt.Sprintf("%s — %s", doorcard.Name, doorcard.DoorcardName))

	for i := range doorcard.Appointments {
		appt := &doorcard.Appointments[i]
		start, end, ok := firstOccurrence(appt, windowStart, loc)
		if !ok {
			continue
		}

		evt := cal.AddEvent(fmt.Sprintf("%s@doorcard.smccd.edu", appt.AppointmentID))
		evt.SetCreatedTime(s.now())
		evt.SetDtStampTime(s.now())
		evt.SetStartAt(start)
		evt.SetEndAt(end)
		evt.SetSummary(fmt.Sprintf("%s — %s", appt.Name, doorcard.Name))
		if appt.Location != nil && *appt.Location != "" {
			evt.SetLocation(*appt.Location)
		} else if doorcard.OfficeNumber != "" {
			evt.SetLocation(fmt.Sprintf("%s, Office %s", model.CollegeNames[doorcard.College], doorcard.OfficeNumber))
		}
		evt.AddRrule(fmt.Sprintf("FREQ=WEEKLY;UNTIL=%s", windowEnd.UTC().Format("20060102T150405Z")))
	}

	filename := fmt.Sprintf("%s.ics", doorcard.Slug)
	return cal.Serialize(), filename, nil
}

// feedWindow picks the recurrence range from the linked term when present.
func (s *icsFeedService) feedWindow(doorcard *model.Doorcard, loc *time.Location) (time.Time, time.Time) {
	if doorcard.TermRef != nil {
		start := doorcard.TermRef.StartDate.In(loc)
		end := doorcard.TermRef.EndDate.In(loc).Add(24 * time.Hour)
		return start, end
	}
	now := s.now().In(loc)
	return now, now.Add(fallbackFeedSpan)
}

// firstOccurrence finds the first date on or after windowStart matching the
// appointment's weekday, at its start/end clock times.
func firstOccurrence(appt *model.Appointment, windowStart time.Time, loc *time.Location) (time.Time, time.Time, bool) {
	weekday, ok := model.WeekdayNumber[appt.DayOfWeek]
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	startMin, err := parseMinutes(appt.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	endMin, err := parseMinutes(appt.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	day := windowStart
	for int(day.Weekday()) != weekday {
		day = day.AddDate(0, 0, 1)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), startMin/60, startMin%60, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), endMin/60, endMin%60, 0, 0, loc)
	return start, end, true
}
