// Package render turns the configured message template into the HTML body of
// an anniversary email.
package render

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/crombie/crombieversario/internal/store"
	"github.com/crombie/crombieversario/internal/tracking"
	"github.com/crombie/crombieversario/pkg/logger"
	"github.com/crombie/crombieversario/pkg/mailer"
	"github.com/crombie/crombieversario/pkg/sanitizer"
)

// Placeholder is replaced with the employee's first name.
const Placeholder = "{{nombre}}"

const (
	DefaultLayout  = "anniversary.html"
	DefaultSubject = "¡Feliz aniversario!"
)

var ErrTemplate = errors.New("render: invalid message template")

//go:embed templates/*.html
var templates embed.FS

// Layouts is the embedded layout directory.
func Layouts() fs.FS {
	sub, _ := fs.Sub(templates, "templates")
	return sub
}

// Input is one email to render.
type Input struct {
	Name   string
	Email  string
	Config store.Config
	Number int
}

// Message is a rendered email. Image is set when the body references an
// inline image; its content-id is ContentID.
type Message struct {
	Image     *store.ImagePath
	Subject   string
	HTML      string
	ContentID string
}

type Renderer struct {
	md      *mailer.Renderer
	logger  *slog.Logger
	baseURL string
	subject string
	layout  string
}

type Option func(*Renderer)

// WithBaseURL sets the public origin of the tracking pixel.
func WithBaseURL(u string) Option {
	return func(r *Renderer) { r.baseURL = u }
}

// WithFallbackSubject is used when the template has no subject frontmatter.
func WithFallbackSubject(s string) Option {
	return func(r *Renderer) {
		if s != "" {
			r.subject = s
		}
	}
}

// WithLayout selects the layout file. Default: anniversary.html.
func WithLayout(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.layout = name
		}
	}
}

// WithLayoutFS replaces the embedded layouts.
func WithLayoutFS(fsys fs.FS) Option {
	return func(r *Renderer) {
		if fsys != nil {
			r.md = mailer.NewRenderer(fsys)
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

func New(opts ...Option) *Renderer {
	r := &Renderer{
		md:      mailer.NewRenderer(Layouts()),
		logger:  logger.NewNope(),
		subject: DefaultSubject,
		layout:  DefaultLayout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FirstName is the first word of name, title-cased.
func FirstName(name string) string {
	f := strings.Fields(name)
	if len(f) == 0 {
		return ""
	}
	return cases.Title(language.Spanish).String(f[0])
}

// Render builds the email for in. A missing image or base URL is logged and
// the message is rendered without it.
func (r *Renderer) Render(ctx context.Context, in Input) (*Message, error) {
	source := in.Config.MessageTemplate
	if strings.TrimSpace(source) == "" {
		r.logger.WarnContext(ctx, "message template is empty, using default")
		source = store.DefaultTemplate
	}
	tmpl, err := mailer.ParseTemplate([]byte(source))
	if err != nil {
		return nil, errors.Join(ErrTemplate, err)
	}

	first := FirstName(in.Name)
	body := strings.ReplaceAll(tmpl.Body, Placeholder, html.EscapeString(first))
	subject := strings.ReplaceAll(tmpl.Subject(r.subject), Placeholder, first)

	content, err := r.md.Markdown(body)
	if err != nil {
		return nil, err
	}
	content = sanitizer.SanitizeEmailHTML(content)

	msg := &Message{Subject: subject}
	var b strings.Builder
	b.WriteString(content)

	if img, ok := in.Config.Image(in.Number); ok {
		msg.Image = &img
		msg.ContentID = img.FileName()
		fmt.Fprintf(&b, `<p style="text-align:center"><img src="cid:%s" alt="%s" style="max-width:100%%"></p>`,
			html.EscapeString(msg.ContentID), html.EscapeString(strconv.Itoa(in.Number)+" años"))
	} else {
		r.logger.WarnContext(ctx, "no image configured for anniversary",
			slog.Int("anniversary", in.Number),
			slog.String("email", in.Email),
		)
	}

	if pixel, err := tracking.URL(r.baseURL, in.Email, in.Number); err != nil {
		r.logger.ErrorContext(ctx, "tracking pixel omitted", slog.Any("error", err))
	} else {
		fmt.Fprintf(&b, `<img src="%s" width="1" height="1" alt="" style="display:block;border:0">`, html.EscapeString(pixel))
	}

	msg.HTML, err = r.md.Layout(r.layout, b.String(), map[string]any{
		"Subject": subject,
		"Name":    first,
		"Years":   in.Number,
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}
