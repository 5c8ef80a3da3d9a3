package handlers

import (
	"net/http"
	"time"

	"github.com/crombie/crombieversario/internal/anniversary"
	"github.com/crombie/crombieversario/internal/directory"
	"github.com/crombie/crombieversario/internal/web"
)

const (
	defaultUpcomingDays = 30
	maxUpcomingDays     = 366
)

// Directory exposes the employee list and the upcoming events computed from
// it. Both routes read through the cached source.
type Directory struct {
	source  directory.Source
	today   func() time.Time
	protect web.Middleware
}

func NewDirectory(src directory.Source, today func() time.Time, protect web.Middleware) *Directory {
	if today == nil {
		today = time.Now
	}
	return &Directory{source: src, today: today, protect: guard(protect)}
}

func (h *Directory) Routes(r web.Router) {
	r.GET("/trabajadores", h.employees, h.protect)
	r.GET("/api/upcoming-events", h.upcoming, h.protect)
}

func (h *Directory) employees(c web.Context) error {
	list, err := h.source.Employees(c)
	if err != nil {
		return web.ErrServiceUnavailable("employee directory unavailable", web.WithError(err))
	}
	if list == nil {
		list = []directory.Employee{}
	}
	return c.JSON(http.StatusOK, list)
}

type eventResponse struct {
	Kind      anniversary.EventKind `json:"kind"`
	Date      string                `json:"date"`
	SendDate  string                `json:"sendDate,omitempty"`
	Name      string                `json:"name"`
	Surname   string                `json:"surname"`
	Email     string                `json:"email"`
	Years     int                   `json:"years"`
	DaysUntil int                   `json:"daysUntil"`
}

type upcomingResponse struct {
	From   string          `json:"from"`
	Events []eventResponse `json:"events"`
	Days   int             `json:"days"`
}

func (h *Directory) upcoming(c web.Context) error {
	days, err := intQuery(c, "days", defaultUpcomingDays, 0, maxUpcomingDays)
	if err != nil {
		return err
	}
	list, err := h.source.Employees(c)
	if err != nil {
		return web.ErrServiceUnavailable("employee directory unavailable", web.WithError(err))
	}

	today := h.today()
	events := anniversary.Upcoming(today, directory.People(c, list, c.Logger()), days)
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			Kind:      e.Kind,
			Date:      formatDate(e.Date),
			SendDate:  formatDate(e.SendDate),
			Name:      e.Name,
			Surname:   e.Surname,
			Email:     e.Email,
			Years:     e.Years,
			DaysUntil: e.DaysUntil,
		})
	}
	return c.JSON(http.StatusOK, upcomingResponse{
		From:   today.Format(dateLayout),
		Days:   days,
		Events: out,
	})
}
