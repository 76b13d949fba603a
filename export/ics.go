/*
Package export renders engine data for use outside the app: an iCalendar
feed of a month's shifts and payroll reports as PDF or CSV.

ICS:
  One VEVENT per shift. Times are written as floating local times
  (no TZID, no Z suffix) because shifts are naive wall-clock times.
  UIDs are name-based UUIDs derived from the event id, so re-exporting a
  month yields the same UIDs and calendar clients update in place.

SEE ALSO:
  - payroll.go: PDF and CSV payroll exports
  - api/exports.go: HTTP endpoints
*/
package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/warp/shift-engine/calendar"
	"github.com/warp/shift-engine/engine"
)

const productID = "-//warp//shift-engine//EN"

const floatingLayout = "20060102T150405"

// EventUID is stable for a given event id.
func EventUID(id engine.EventID) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:shift-engine:event:"+id.String())).String()
}

// MonthICS serializes every shift of month as an iCalendar document.
// stamp is written as DTSTAMP on every event.
func MonthICS(r engine.Reader, month calendar.Month, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Shifts " + month.String())

	names := make(map[engine.UserID]string)
	for _, u := range r.ListUsers() {
		names[u.ID] = u.DisplayName()
	}

	for _, ev := range r.EventsForMonth(month) {
		ve := cal.AddEvent(EventUID(ev.ID))
		ve.SetDtStampTime(stamp)
		if !ev.CreatedAt.IsZero() {
			ve.SetCreatedTime(ev.CreatedAt)
		}
		ve.SetProperty(ical.ComponentPropertyDtStart, floating(ev.Date, ev.Start))
		ve.SetProperty(ical.ComponentPropertyDtEnd, floating(ev.Date, ev.End))
		ve.SetSummary(names[ev.UserID])
		ve.SetDescription(fmt.Sprintf("Shift %s-%s", ev.Start, ev.End))
	}
	return cal.Serialize()
}

func floating(d calendar.Date, t calendar.TimeOfDay) string {
	at := time.Date(d.Year, d.Month, d.Day, t.Hour(), t.Minute(), 0, 0, time.UTC)
	return at.Format(floatingLayout)
}
