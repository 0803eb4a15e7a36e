package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const calendarPageSize = 2500

type calendarClient struct{}

// NewCalendarClient creates a CalendarClient backed by the Google Calendar
// API. Events come from the user's primary calendar only.
func NewCalendarClient() CalendarClient {
	return &calendarClient{}
}

func (c *calendarClient) FetchEvents(ctx context.Context, token string, window Window) (*CalendarData, error) {
	svc, err := calendar.NewService(ctx,
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}

	data := &CalendarData{}
	pageToken := ""
	for {
		call := svc.Events.List("primary").
			TimeMin(window.Start.Format(time.RFC3339)).
			TimeMax(window.End.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(calendarPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, c.mapErr(fmt.Errorf("listing events: %w", err))
		}

		for _, ev := range resp.Items {
			rec, ok := toCalendarEvent(ev)
			if !ok {
				continue
			}
			data.Events = append(data.Events, rec)
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	slog.InfoContext(ctx, "calendar fetch complete", "events", len(data.Events))
	return data, nil
}

func (c *calendarClient) mapErr(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 401 || gerr.Code == 403:
			return ErrCredentialInvalid
		case gerr.Code >= 500:
			return ErrUnavailable
		}
	}
	return mapContextErr(err)
}

// toCalendarEvent converts an API event. Cancelled events and events with
// no usable start time are dropped.
func toCalendarEvent(ev *calendar.Event) (CalendarEvent, bool) {
	if ev.Status == "cancelled" || ev.Start == nil || ev.End == nil {
		return CalendarEvent{}, false
	}

	rec := CalendarEvent{
		RecurringEventID: ev.RecurringEventId,
	}

	if ev.Organizer != nil {
		rec.OrganizerEmail = ev.Organizer.Email
		rec.OrganizerSelf = ev.Organizer.Self
	}
	for _, att := range ev.Attendees {
		if att.Resource {
			continue
		}
		rec.AttendeeEmails = append(rec.AttendeeEmails, att.Email)
	}

	if ev.Start.DateTime != "" {
		start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
		if err != nil {
			return CalendarEvent{}, false
		}
		end, err := time.Parse(time.RFC3339, ev.End.DateTime)
		if err != nil {
			return CalendarEvent{}, false
		}
		rec.Start = start
		rec.End = end
		return rec, true
	}

	// All-day events carry dates without times. They never count toward
	// meeting hours but still appear in the recurring series dedup.
	start, err := time.Parse("2006-01-02", ev.Start.Date)
	if err != nil {
		return CalendarEvent{}, false
	}
	end, err := time.Parse("2006-01-02", ev.End.Date)
	if err != nil {
		return CalendarEvent{}, false
	}
	rec.Start = start
	rec.End = end
	rec.AllDay = true
	return rec, true
}
