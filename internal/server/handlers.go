package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/conneroisu/htmlc/internal/accessibility"
	"github.com/conneroisu/htmlc/internal/build"
	"github.com/conneroisu/htmlc/internal/errors"
	"github.com/conneroisu/htmlc/internal/validation"
	"github.com/conneroisu/htmlc/internal/version"
	"github.com/conneroisu/htmlc/pkg/htmlc"
)

// reloadScript reloads the page whenever the server reports a build.
const reloadScript = `<script>
(function () {
  var proto = location.protocol === "https:" ? "wss:" : "ws:";
  function connect() {
    var ws = new WebSocket(proto + "//" + location.host + "/ws");
    ws.onmessage = function () { location.reload(); };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
})();
</script>`

const pageCSS = `
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 60rem; color: #222; }
h1 { border-bottom: 2px solid #007acc; padding-bottom: .5rem; }
li { margin: .4rem 0; }
.syntax { color: #666; font-size: .8rem; margin-left: .5rem; }
.error { background: #fff4f4; border-left: 4px solid #d33; padding: .75rem; overflow-x: auto; }
`

func (s *PreviewServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /templates", s.handleTemplates)
	mux.HandleFunc("GET /render/{name...}", s.handleRender)
	mux.HandleFunc("GET /preview/{name...}", s.handlePreview)
	mux.HandleFunc("GET /api/build/errors", s.handleBuildErrors)
	mux.HandleFunc("GET /api/build/metrics", s.handleBuildMetrics)
	mux.HandleFunc("GET /api/a11y/{name...}", s.handleAudit)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

func (s *PreviewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	results := s.pipeline.Results()
	page := layout("htmlc preview",
		h.H1(g.Text("Templates")),
		g.If(len(results) == 0, h.P(g.Textf("No templates found under %s.", strings.Join(s.config.Templates.Paths, ", ")))),
		h.Ul(g.Map(results, func(res build.Result) g.Node {
			return h.Li(
				h.A(h.Href("/preview/"+res.File.Name), g.Text(res.File.Name)),
				h.Span(h.Class("syntax"), g.Text(res.File.Syntax.String())),
				g.If(res.Failed(), h.Pre(h.Class("error"), g.Text(res.Diagnostic()))),
			)
		})),
		g.Raw(reloadScript),
	)
	writePage(w, http.StatusOK, page)
}

// handleRender serves the rendered template alone.
func (s *PreviewServer) handleRender(w http.ResponseWriter, r *http.Request) {
	s.serveTemplate(w, r, false)
}

// handlePreview serves the rendered template with live reload.
func (s *PreviewServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	s.serveTemplate(w, r, true)
}

func (s *PreviewServer) serveTemplate(w http.ResponseWriter, r *http.Request, live bool) {
	name := r.PathValue("name")
	res, ok := s.pipeline.Result(name)
	if !ok {
		http.Error(w, fmt.Sprintf("Template %q not found", name), http.StatusNotFound)
		return
	}
	if res.Failed() {
		writePage(w, http.StatusInternalServerError, layout(name,
			h.H1(g.Text(name)),
			h.Pre(h.Class("error"), g.Text(res.Diagnostic())),
			g.If(live, g.Raw(reloadScript)),
		))
		return
	}

	var opts []htmlc.HandlerOption
	if live {
		opts = append(opts, htmlc.WithTrailer(htmlc.DangerouslyTrustRaw(s.errorOverlay()+reloadScript)))
	}
	htmlc.Handler(res.Template, s.dataFor(res), opts...).ServeHTTP(w, r)
}

// errorOverlay lists every template that currently fails to compile, or is
// empty when all compile.
func (s *PreviewServer) errorOverlay() string {
	collector := errors.NewErrorCollector()
	for _, res := range s.pipeline.Failures() {
		collector.Add(res.Err)
	}
	return collector.ErrorOverlay()
}

// dataFor loads the data file beside the template, or mock data when
// render.mock_data is set; query parameters override its top-level keys.
func (s *PreviewServer) dataFor(res build.Result) htmlc.DataFunc {
	return func(r *http.Request) (any, error) {
		data, err := build.DataFor(res, s.config.Render.DataSuffix, s.config.Render.MockData)
		if err != nil {
			return nil, err
		}
		for key, values := range r.URL.Query() {
			data[validation.SanitizeInput(key)] = validation.SanitizeInput(values[len(values)-1])
		}
		return data, nil
	}
}

type templateInfo struct {
	Name      string            `json:"name"`
	File      string            `json:"file"`
	Syntax    string            `json:"syntax"`
	Component string            `json:"component,omitempty"`
	Calls     []string          `json:"calls,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func (s *PreviewServer) handleTemplates(w http.ResponseWriter, r *http.Request) {
	results := s.pipeline.Results()
	infos := make([]templateInfo, 0, len(results))
	for _, res := range results {
		info := templateInfo{
			Name:   res.File.Name,
			File:   res.File.Path,
			Syntax: res.File.Syntax.String(),
		}
		if comp, ok := htmlc.ComponentName(res.File.Name); ok {
			info.Component = comp
		}
		if res.Failed() {
			info.Error = res.Err.Error()
		} else {
			info.Calls = res.Template.Calls()
			for _, v := range res.Template.Variables() {
				if info.Variables == nil {
					info.Variables = make(map[string]string)
				}
				info.Variables[v.Name] = v.Usage.String()
			}
		}
		infos = append(infos, info)
	}
	writeJSON(w, infos)
}

// handleAudit renders a template with its data, or mock data when it has no
// data file, and reports accessibility violations in the output.
func (s *PreviewServer) handleAudit(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	res, ok := s.pipeline.Result(name)
	if !ok {
		http.Error(w, fmt.Sprintf("Template %q not found", name), http.StatusNotFound)
		return
	}
	if res.Failed() {
		http.Error(w, res.Diagnostic(), http.StatusUnprocessableEntity)
		return
	}

	data, err := build.DataFor(res, s.config.Render.DataSuffix, true)
	if err != nil {
		http.Error(w, "Failed to load data: "+err.Error(), http.StatusInternalServerError)
		return
	}
	buf := htmlc.NewBuffer(s.config.Render.BufferLimit)
	if err := res.Template.TryRenderTo(buf, data); err != nil {
		http.Error(w, "Failed to render "+name+": "+err.Error(), http.StatusInternalServerError)
		return
	}
	violations, err := accessibility.Check(strings.NewReader(buf.String()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if violations == nil {
		violations = []accessibility.Violation{}
	}
	writeJSON(w, map[string]any{
		"template":   name,
		"violations": violations,
		"count":      len(violations),
	})
}

func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version.GetBuildInfo().Short(),
		"templates": len(s.pipeline.Results()),
		"failed":    len(s.pipeline.Failures()),
		"clients":   s.ClientCount(),
	})
}

func (s *PreviewServer) handleBuildErrors(w http.ResponseWriter, r *http.Request) {
	failures := s.pipeline.Failures()
	errs := make(map[string]string, len(failures))
	for _, res := range failures {
		errs[res.File.Name] = res.Diagnostic()
	}
	writeJSON(w, map[string]any{
		"errors": errs,
		"count":  len(errs),
	})
}

func (s *PreviewServer) handleBuildMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.pipeline.Metrics()
	writeJSON(w, map[string]any{
		"total_builds":      m.Builds,
		"successful_builds": m.Succeeded(),
		"failed_builds":     m.Failed,
		"cache_hits":        m.CacheHits,
		"cache_hit_rate":    m.CacheHitRate(),
		"by_syntax":         m.BySyntax,
		"average_duration":  m.AverageDuration().String(),
		"last_build":        m.LastBuild,
	})
}

func layout(title string, body ...g.Node) g.Node {
	return h.Doctype(h.HTML(h.Lang("en"),
		h.Head(
			h.Meta(h.Charset("utf-8")),
			h.TitleEl(g.Text(title)),
			h.StyleEl(g.Raw(pageCSS)),
		),
		h.Body(body...),
	))
}

func writePage(w http.ResponseWriter, status int, page g.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = page.Render(w)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
