package render_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crombie/crombieversario/internal/render"
	"github.com/crombie/crombieversario/internal/store"
)

func config(tmpl string, images ...store.ImagePath) store.Config {
	return store.Config{MessageTemplate: tmpl, ImagePaths: images}
}

func TestFirstName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"ana":              "Ana",
		"  MARÍA josé ":    "María",
		"luis":             "Luis",
		"":                 "",
		"éric   gonzález ": "Éric",
	}
	for in, want := range tests {
		assert.Equal(t, want, render.FirstName(in), in)
	}
}

func TestRender_Placeholder(t *testing.T) {
	t.Parallel()

	r := render.New(render.WithBaseURL("https://anniv.crombie.dev"))
	msg, err := r.Render(context.Background(), render.Input{
		Name: "ana lopez", Email: "ana@crombie.dev", Number: 2,
		Config: config("Hi {{nombre}}!"),
	})
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "Hi Ana!")
	assert.NotContains(t, msg.HTML, "{{nombre}}")
	assert.Equal(t, render.DefaultSubject, msg.Subject)
	assert.Nil(t, msg.Image)
}

func TestRender_FrontmatterSubject(t *testing.T) {
	t.Parallel()

	r := render.New(render.WithBaseURL("https://anniv.crombie.dev"))
	msg, err := r.Render(context.Background(), render.Input{
		Name: "luis", Email: "luis@crombie.dev", Number: 4,
		Config: config("---\nsubject: \"Felices 4, {{nombre}}\"\n---\nHola {{nombre}}\nsegunda línea"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Felices 4, Luis", msg.Subject)
	assert.Contains(t, msg.HTML, "Hola Luis<br")
	assert.NotContains(t, msg.HTML, "subject:")
	assert.Contains(t, msg.HTML, "<title>Felices 4, Luis</title>")
}

func TestRender_EscapesNameAndStripsScripts(t *testing.T) {
	t.Parallel()

	r := render.New(render.WithBaseURL("https://anniv.crombie.dev"))
	msg, err := r.Render(context.Background(), render.Input{
		Name: "<b>ana</b>", Email: "ana@crombie.dev", Number: 1,
		Config: config("Hola {{nombre}}<script>alert(1)</script>"),
	})
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.NotContains(t, msg.HTML, "<b>ana</b>")
}

func TestRender_ImageAndPixel(t *testing.T) {
	t.Parallel()

	r := render.New(render.WithBaseURL("https://anniv.crombie.dev/"))
	msg, err := r.Render(context.Background(), render.Input{
		Name: "ana", Email: "ana@crombie.dev", Number: 3,
		Config: config("Hola {{nombre}}",
			store.ImagePath{AnniversaryYear: 1, URL: "https://cdn.crombie.dev/images/1.png", Key: "images/1.png"},
			store.ImagePath{AnniversaryYear: 3, URL: "https://cdn.crombie.dev/images/3.jpg", Key: "images/3.jpg"},
		),
	})
	require.NoError(t, err)
	require.NotNil(t, msg.Image)
	assert.Equal(t, "images/3.jpg", msg.Image.Key)
	assert.Equal(t, "3.jpg", msg.ContentID)
	assert.Contains(t, msg.HTML, `src="cid:3.jpg"`)
	assert.Contains(t, msg.HTML, `<img src="https://anniv.crombie.dev/track/ana@crombie.dev/3" width="1" height="1"`)
	assert.Contains(t, msg.HTML, "3 años juntos")
}

func TestRender_NoBaseURLStillRenders(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	r := render.New(render.WithLogger(log))

	msg, err := r.Render(context.Background(), render.Input{
		Name: "ana", Email: "ana@crombie.dev", Number: 2, Config: config("Hola {{nombre}}"),
	})
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "Hola Ana")
	assert.NotContains(t, msg.HTML, "/track/")

	var levels []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		levels = append(levels, rec["level"].(string)+" "+rec["msg"].(string))
	}
	assert.Contains(t, levels, "WARN no image configured for anniversary")
	assert.Contains(t, levels, "ERROR tracking pixel omitted")
}

func TestRender_EmptyTemplateUsesDefault(t *testing.T) {
	t.Parallel()

	msg, err := render.New().Render(context.Background(), render.Input{
		Name: "ana", Email: "ana@crombie.dev", Number: 1, Config: config("   "),
	})
	require.NoError(t, err)
	assert.Equal(t, "¡Feliz aniversario, Ana!", msg.Subject)
	assert.Contains(t, msg.HTML, "Hola Ana")
}

func TestRender_BrokenFrontmatter(t *testing.T) {
	t.Parallel()

	_, err := render.New().Render(context.Background(), render.Input{
		Name: "ana", Email: "ana@crombie.dev", Number: 1, Config: config("---\nsubject: x\nno closing"),
	})
	require.ErrorIs(t, err, render.ErrTemplate)
}

func TestRender_CustomLayout(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"plain.html": {Data: []byte(`<main>{{.Content}}</main>`)}}
	msg, err := render.New(render.WithLayoutFS(fsys), render.WithLayout("plain.html")).Render(context.Background(), render.Input{
		Name: "ana", Email: "ana@crombie.dev", Number: 1, Config: config("Hola"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg.HTML, "<main><p>Hola</p>"))
}
