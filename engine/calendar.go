package engine

import (
	"sort"
	"time"

	"github.com/warp/shift-engine/calendar"
)

// =============================================================================
// CALENDAR STORE - Flat, date-ordered shift storage
// =============================================================================

// CalendarStore owns CalendarEvent records. Events live in a single slice
// ordered by (Date, ID); since ids increase with creation, ID order within
// a day is creation order. Month views are range scans over that slice.
//
// It is not safe for concurrent use; Engine serializes access.
type CalendarStore struct {
	events []CalendarEvent
	users  UserLookup
	nextID EventID
	now    func() time.Time
}

func NewCalendarStore(users UserLookup) *CalendarStore {
	return &CalendarStore{users: users, nextID: 1, now: time.Now}
}

// AddEvent creates a single shift.
func (s *CalendarStore) AddEvent(userID UserID, date calendar.Date, start, end calendar.TimeOfDay) (CalendarEvent, error) {
	created, err := s.AddEvents(userID, []calendar.Date{date}, start, end)
	if err != nil {
		return CalendarEvent{}, err
	}
	return created[0], nil
}

// AddEvents creates one shift per date with the same user and times.
// The whole batch is validated before anything is inserted, so it either
// creates len(dates) events or none.
func (s *CalendarStore) AddEvents(userID UserID, dates []calendar.Date, start, end calendar.TimeOfDay) ([]CalendarEvent, error) {
	if s.users != nil && !s.users.UserExists(userID) {
		return nil, userNotFound(userID)
	}
	if err := validateShift(start, end); err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, invalid("date", "at least one date is required")
	}
	for _, d := range dates {
		if d.IsZero() {
			return nil, invalid("date", "date is required")
		}
	}

	createdAt := s.now().UTC()
	created := make([]CalendarEvent, 0, len(dates))
	for _, d := range dates {
		ev := CalendarEvent{
			ID:        s.nextID,
			UserID:    userID,
			Date:      d,
			Start:     start,
			End:       end,
			CreatedAt: createdAt,
		}
		s.nextID++
		s.insert(ev)
		created = append(created, ev)
	}
	return created, nil
}

// insert keeps the slice ordered: binary search for the first event on a
// later date, so same-day events stay in id order.
func (s *CalendarStore) insert(ev CalendarEvent) {
	i := sort.Search(len(s.events), func(i int) bool {
		return s.events[i].Date.After(ev.Date)
	})
	s.events = append(s.events, CalendarEvent{})
	copy(s.events[i+1:], s.events[i:])
	s.events[i] = ev
}

// RemoveEvent deletes a single shift.
func (s *CalendarStore) RemoveEvent(id EventID) error {
	for i, ev := range s.events {
		if ev.ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return nil
		}
	}
	return eventNotFound(id)
}

// RemoveEventsForUser deletes every shift of the user and returns how many
// were removed. Removing nothing is not an error.
func (s *CalendarStore) RemoveEventsForUser(userID UserID) int {
	kept := s.events[:0]
	removed := 0
	for _, ev := range s.events {
		if ev.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, ev)
	}
	// clear the tail so dropped events aren't retained by the backing array
	for i := len(kept); i < len(s.events); i++ {
		s.events[i] = CalendarEvent{}
	}
	s.events = kept
	return removed
}

// GetEvent returns a shift by id.
func (s *CalendarStore) GetEvent(id EventID) (CalendarEvent, error) {
	for _, ev := range s.events {
		if ev.ID == id {
			return ev, nil
		}
	}
	return CalendarEvent{}, eventNotFound(id)
}

// =============================================================================
// QUERIES
// =============================================================================

// EventsForMonth returns the month's shifts ordered by date, then creation.
func (s *CalendarStore) EventsForMonth(month calendar.Month) []CalendarEvent {
	return s.eventsInRange(month.Range(), nil)
}

// EventsForUserAndMonth returns one user's shifts within the month.
func (s *CalendarStore) EventsForUserAndMonth(userID UserID, month calendar.Month) []CalendarEvent {
	return s.eventsInRange(month.Range(), &userID)
}

// EventsForDay returns the shifts on a single date.
func (s *CalendarStore) EventsForDay(date calendar.Date) []CalendarEvent {
	return s.eventsInRange(calendar.SingleDay(date), nil)
}

// MonthView returns one entry per day of the month, empty days included.
func (s *CalendarStore) MonthView(month calendar.Month) []DayEvents {
	events := s.EventsForMonth(month)
	days := make([]DayEvents, month.Len())
	for i, d := range month.Days() {
		days[i] = DayEvents{Date: d, Events: []CalendarEvent{}}
	}
	for _, ev := range events {
		idx := ev.Date.Day - 1
		days[idx].Events = append(days[idx].Events, ev)
	}
	return days
}

// AllEvents returns a copy of every shift in storage order.
func (s *CalendarStore) AllEvents() []CalendarEvent {
	out := make([]CalendarEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *CalendarStore) Len() int { return len(s.events) }

func (s *CalendarStore) eventsInRange(r calendar.Range, userID *UserID) []CalendarEvent {
	start := sort.Search(len(s.events), func(i int) bool {
		return !s.events[i].Date.Before(r.Start)
	})
	out := []CalendarEvent{}
	for i := start; i < len(s.events) && !s.events[i].Date.After(r.End); i++ {
		if userID != nil && s.events[i].UserID != *userID {
			continue
		}
		out = append(out, s.events[i])
	}
	return out
}

func validateShift(start, end calendar.TimeOfDay) error {
	if !start.Valid() {
		return invalid("start_time", "start time is outside the day")
	}
	if !end.Valid() {
		return invalid("end_time", "end time is outside the day")
	}
	if start >= end {
		return invalid("time", "start time must be before end time")
	}
	return nil
}

// =============================================================================
// SNAPSHOT / RESTORE
// =============================================================================

type calendarSnapshot struct {
	events []CalendarEvent
	nextID EventID
}

func (s *CalendarStore) snapshot() calendarSnapshot {
	return calendarSnapshot{events: s.AllEvents(), nextID: s.nextID}
}

func (s *CalendarStore) restore(snap calendarSnapshot) {
	s.events = snap.events
	s.nextID = snap.nextID
}

// load replaces the store contents with persisted events.
func (s *CalendarStore) load(events []CalendarEvent) {
	s.events = make([]CalendarEvent, len(events))
	copy(s.events, events)
	sort.SliceStable(s.events, func(i, j int) bool {
		if s.events[i].Date == s.events[j].Date {
			return s.events[i].ID < s.events[j].ID
		}
		return s.events[i].Date.Before(s.events[j].Date)
	})
	s.nextID = 1
	for _, ev := range s.events {
		if ev.ID >= s.nextID {
			s.nextID = ev.ID + 1
		}
	}
}
