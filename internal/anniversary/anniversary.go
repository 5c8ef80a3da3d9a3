// Package anniversary holds the date rules: when a work anniversary email is
// due, which anniversary it is, and when birthdays fall.
//
// All calculations use civil dates. Callers pass "today" already converted to
// the service time zone; only its year, month and day are used.
package anniversary

import (
	"errors"
	"time"
)

// SendOffset is how many days before the anniversary the email goes out.
const SendOffset = 3

var ErrInvalidDate = errors.New("anniversary: invalid date")

// Result describes an employee's next anniversary relative to a day.
type Result struct {
	Anniversary time.Time
	SendDate    time.Time
	Number      int
	Due         bool
}

// Evaluate computes the next anniversary on or after today. ok is false when
// the hire date is in the future or no full year will have elapsed, in which
// case nothing is ever due.
func Evaluate(today, hireDate time.Time) (res Result, ok bool) {
	t := civil(today)
	h := civil(hireDate)
	if h.After(t) {
		return Result{}, false
	}

	anniv := onYear(h, t.Year())
	number := t.Year() - h.Year()
	if anniv.Before(t) {
		anniv = onYear(h, t.Year()+1)
		number = t.Year() + 1 - h.Year()
	}
	if number < 1 {
		return Result{}, false
	}

	send := SendDate(anniv)
	return Result{
		Anniversary: anniv,
		SendDate:    send,
		Number:      number,
		Due:         send.Equal(t),
	}, true
}

// IsDue reports whether the anniversary email for hireDate goes out today, and
// which anniversary it celebrates.
func IsDue(today, hireDate time.Time) (number int, due bool) {
	res, ok := Evaluate(today, hireDate)
	if !ok || !res.Due {
		return 0, false
	}
	return res.Number, true
}

// SendDate is SendOffset days before the anniversary, moved off the weekend:
// Saturday goes to Monday, Sunday to Monday.
func SendDate(anniversary time.Time) time.Time {
	d := civil(anniversary).AddDate(0, 0, -SendOffset)
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, 2)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	default:
		return d
	}
}

// IsBirthday matches month and day with no offset. A 29 February birthday is
// celebrated on 28 February in non-leap years.
func IsBirthday(today, birthDate time.Time) bool {
	t := civil(today)
	return birthdayOn(civil(birthDate), t.Year()).Equal(t)
}

// NextBirthday is the first birthday on or after today.
func NextBirthday(today, birthDate time.Time) time.Time {
	t := civil(today)
	b := civil(birthDate)
	next := birthdayOn(b, t.Year())
	if next.Before(t) {
		next = birthdayOn(b, t.Year()+1)
	}
	return next
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// civil date it names.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Join(ErrInvalidDate, err)
	}
	return civil(t), nil
}

// civil drops the clock and the zone, keeping the calendar date.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// onYear moves a date to another year. 29 February becomes 1 March in
// non-leap years through time.Date normalisation.
func onYear(d time.Time, year int) time.Time {
	return time.Date(year, d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func birthdayOn(b time.Time, year int) time.Time {
	if b.Month() == time.February && b.Day() == 29 && !isLeap(year) {
		return time.Date(year, time.February, 28, 0, 0, 0, 0, time.UTC)
	}
	return onYear(b, year)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
