package anniversary

import (
	"cmp"
	"slices"
	"time"
)

type EventKind string

const (
	KindAnniversary EventKind = "anniversary"
	KindBirthday    EventKind = "birthday"
)

// Person is the subset of an employee record the date rules need.
type Person struct {
	HireDate  time.Time
	BirthDate time.Time // zero when unknown
	Name      string
	Surname   string
	Email     string
}

// Event is a dated occurrence for the dashboard's upcoming list.
type Event struct {
	Date time.Time
	// SendDate is set for anniversaries only.
	SendDate  time.Time
	Kind      EventKind
	Name      string
	Surname   string
	Email     string
	Years     int
	DaysUntil int
}

// Upcoming lists anniversaries and birthdays falling within the next days
// days, today included, ordered by date then kind then email.
func Upcoming(today time.Time, people []Person, days int) []Event {
	if days < 0 {
		return nil
	}
	t := civil(today)
	until := t.AddDate(0, 0, days)

	var events []Event
	for _, p := range people {
		if !p.HireDate.IsZero() {
			if res, ok := Evaluate(t, p.HireDate); ok && !res.Anniversary.After(until) {
				events = append(events, Event{
					Kind:      KindAnniversary,
					Date:      res.Anniversary,
					SendDate:  res.SendDate,
					Years:     res.Number,
					DaysUntil: daysBetween(t, res.Anniversary),
					Name:      p.Name,
					Surname:   p.Surname,
					Email:     p.Email,
				})
			}
		}
		if !p.BirthDate.IsZero() {
			next := NextBirthday(t, p.BirthDate)
			if !next.After(until) {
				events = append(events, Event{
					Kind:      KindBirthday,
					Date:      next,
					Years:     next.Year() - p.BirthDate.Year(),
					DaysUntil: daysBetween(t, next),
					Name:      p.Name,
					Surname:   p.Surname,
					Email:     p.Email,
				})
			}
		}
	}

	slices.SortFunc(events, func(a, b Event) int {
		return cmp.Or(
			a.Date.Compare(b.Date),
			cmp.Compare(a.Kind, b.Kind),
			cmp.Compare(a.Email, b.Email),
		)
	})
	return events
}

func daysBetween(from, to time.Time) int {
	return int(civil(to).Sub(civil(from)).Hours() / 24)
}
