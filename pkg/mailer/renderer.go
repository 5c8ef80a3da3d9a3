package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown to HTML and wraps it in a layout. Layouts are
// html/template files read from fsys and parsed once.
type Renderer struct {
	fsys    fs.FS
	md      goldmark.Markdown
	layouts map[string]*template.Template
	mu      sync.RWMutex
}

// NewRenderer configures goldmark with hard wraps, so every newline becomes
// <br>, and with raw HTML passthrough. Sanitize the result if the markdown is
// not trusted.
func NewRenderer(fsys fs.FS) *Renderer {
	return &Renderer{
		fsys: fsys,
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
			goldmark.WithRendererOptions(html.WithHardWraps(), html.WithUnsafe()),
		),
		layouts: map[string]*template.Template{},
	}
}

// Markdown converts a markdown fragment to HTML.
func (r *Renderer) Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("%w: markdown: %v", ErrRenderFailed, err)
	}
	return buf.String(), nil
}

// Layout executes the named layout with data. Content is exposed to the layout
// as {{.Content}} and must already be safe HTML.
func (r *Renderer) Layout(name string, content string, data map[string]any) (string, error) {
	tmpl, err := r.layout(name)
	if err != nil {
		return "", err
	}

	vars := make(map[string]any, len(data)+1)
	for k, v := range data {
		vars[k] = v
	}
	vars["Content"] = template.HTML(content) //nolint:gosec // sanitized by the caller

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("%w: layout %s: %v", ErrRenderFailed, name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) layout(name string) (*template.Template, error) {
	r.mu.RLock()
	tmpl, ok := r.layouts[name]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.layouts[name]; ok {
		return tmpl, nil
	}

	content, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLayoutNotFound, name, err)
	}
	tmpl, err = template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse layout %s: %v", ErrRenderFailed, name, err)
	}
	r.layouts[name] = tmpl
	return tmpl, nil
}
