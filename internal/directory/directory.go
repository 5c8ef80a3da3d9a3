// Package directory reads the employee list from the HR system.
//
// Records are read-only here. A Source returns them as delivered; People
// converts them for the date rules and drops records whose dates do not
// parse, logging a warning for each.
package directory

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/crombie/crombieversario/internal/anniversary"
)

// Employee is one HR record. Dates are YYYY-MM-DD or RFC 3339 strings.
type Employee struct {
	Name      string `json:"name" yaml:"name"`
	Surname   string `json:"surname" yaml:"surname"`
	Email     string `json:"email" yaml:"email"`
	HireDate  string `json:"hireDate" yaml:"hireDate"`
	BirthDate string `json:"birthDate,omitempty" yaml:"birthDate,omitempty"`
}

// FirstName is the first word of Name.
func (e Employee) FirstName() string {
	if f := strings.Fields(e.Name); len(f) > 0 {
		return f[0]
	}
	return ""
}

// Person parses the record's dates. A missing or invalid hire date fails.
// An invalid birth date returns the person without a birthday together with
// ErrInvalidBirthDate.
func (e Employee) Person() (anniversary.Person, error) {
	hire, err := anniversary.ParseDate(strings.TrimSpace(e.HireDate))
	if err != nil {
		return anniversary.Person{}, errors.Join(ErrInvalidDate, err)
	}
	p := anniversary.Person{
		Name:     e.Name,
		Surname:  e.Surname,
		Email:    strings.ToLower(strings.TrimSpace(e.Email)),
		HireDate: hire,
	}
	if b := strings.TrimSpace(e.BirthDate); b != "" {
		birth, err := anniversary.ParseDate(b)
		if err != nil {
			return p, errors.Join(ErrInvalidBirthDate, err)
		}
		p.BirthDate = birth
	}
	return p, nil
}

// People converts employees, skipping and logging the ones that cannot be
// evaluated.
func People(ctx context.Context, employees []Employee, log *slog.Logger) []anniversary.Person {
	out := make([]anniversary.Person, 0, len(employees))
	for _, e := range employees {
		if strings.TrimSpace(e.Email) == "" {
			log.WarnContext(ctx, "skipping employee without email", slog.String("name", e.Name))
			continue
		}
		p, err := e.Person()
		if errors.Is(err, ErrInvalidBirthDate) {
			log.WarnContext(ctx, "ignoring invalid birth date",
				slog.String("email", e.Email),
				slog.String("birth_date", e.BirthDate),
				slog.Any("error", err),
			)
			err = nil
		}
		if err != nil {
			log.WarnContext(ctx, "skipping employee with invalid dates",
				slog.String("email", e.Email),
				slog.String("hire_date", e.HireDate),
				slog.Any("error", err),
			)
			continue
		}
		out = append(out, p)
	}
	return out
}

// Source returns the current employee list.
type Source interface {
	Employees(ctx context.Context) ([]Employee, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Employee, error)

func (f SourceFunc) Employees(ctx context.Context) ([]Employee, error) {
	return f(ctx)
}
