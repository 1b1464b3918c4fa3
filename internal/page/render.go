package page

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// XMLDecl precedes the document. It is kept out of the template so the
// HTML escaper never sees a processing instruction.
const XMLDecl = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

//go:embed templates/index.html.tmpl
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

// TitleSource fetches the project title fragment. ok is false when the
// fragment could not be obtained for any reason.
type TitleSource interface {
	ProjectTitle(ctx context.Context, names Names) (snippet string, ok bool)
}

// Theme locates the shared R-Forge assets linked from the page.
type Theme struct {
	Root      string // host + path without scheme, e.g. "r-forge.r-project.org/themes/rforge/"
	PortalURL string
}

type view struct {
	Names         Names
	StylesheetURL string
	LogoURL       string
	PortalURL     string
	SummaryURL    string
	Snippet       template.HTML
}

// Renderer produces the project page. It holds no per-request state and is
// safe for concurrent use.
type Renderer struct {
	titles TitleSource
	theme  Theme
}

// NewRenderer returns a Renderer. A nil titles source renders every page
// without the project title fragment.
func NewRenderer(titles TitleSource, theme Theme) *Renderer {
	return &Renderer{titles: titles, theme: theme}
}

// Render builds the page for hostHeader. It never fails: a missing title
// fragment is simply left out.
func (r *Renderer) Render(ctx context.Context, hostHeader string) string {
	var buf bytes.Buffer
	if err := r.RenderTo(ctx, &buf, hostHeader); err != nil {
		log.Error().Err(err).Str("host", hostHeader).Msg("render page")
	}
	return buf.String()
}

// RenderTo renders the page for hostHeader into w. The only possible error is
// one returned by w.
func (r *Renderer) RenderTo(ctx context.Context, w io.Writer, hostHeader string) error {
	names := DeriveNames(hostHeader)

	var snippet string
	if r.titles != nil {
		if s, ok := r.titles.ProjectTitle(ctx, names); ok {
			snippet = s
		}
	}
	return r.Compose(w, names, snippet)
}

// Compose writes the document for names with snippet spliced in verbatim.
func (r *Renderer) Compose(w io.Writer, names Names, snippet string) error {
	if _, err := io.WriteString(w, XMLDecl); err != nil {
		return err
	}
	root := strings.TrimSuffix(r.theme.Root, "/")
	return indexTmpl.Execute(w, view{
		Names:         names,
		StylesheetURL: "http://" + root + "/styles/estilo1.css",
		LogoURL:       "http://" + root + "/imagesrf/logo.png",
		PortalURL:     r.theme.PortalURL,
		SummaryURL:    "http://" + names.Domain + "/projects/" + names.Group + "/",
		Snippet:       template.HTML(snippet),
	})
}
