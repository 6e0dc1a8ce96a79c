package htmlc

import (
	goerrors "errors"
	"io"
	"net/http"

	"github.com/conneroisu/htmlc/internal/errors"
	"github.com/conneroisu/htmlc/internal/render"
)

// DataFunc produces the render data for a request.
type DataFunc func(r *http.Request) (any, error)

// HandlerOption configures Handler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	trailer Raw
}

// WithTrailer appends trusted markup after every successful render, outside
// the buffer limit.
func WithTrailer(r Raw) HandlerOption {
	return func(c *handlerConfig) { c.trailer = r }
}

// Handler serves t as text/html. A nil dataFunc renders with no data. Data,
// render and buffer limit failures answer 500 without partial output.
func Handler(t *Template, dataFunc DataFunc, opts ...HandlerOption) http.Handler {
	var cfg handlerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var data any
		if dataFunc != nil {
			var err error
			if data, err = dataFunc(r); err != nil {
				http.Error(w, "Failed to load data: "+err.Error(), http.StatusInternalServerError)
				return
			}
		}

		buf := render.NewBuffer(render.WithLimit(t.set.limit))
		if err := t.TryRenderTo(buf, data); err != nil {
			http.Error(w, "Failed to render "+t.Name()+": "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
		if cfg.trailer.String() != "" {
			_, _ = io.WriteString(w, cfg.trailer.String())
		}
	})
}

// TryRenderTo is RenderTo with a buffer limit overrun returned as an error
// instead of a panic. Other panics propagate.
func (t *Template) TryRenderTo(buf *Buffer, data any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			af, ok := r.(*errors.AllocationFailure)
			if !ok {
				panic(r)
			}
			err = af
		}
	}()
	return t.RenderTo(buf, data)
}

// IsAllocationFailure reports whether err came from a buffer limit.
func IsAllocationFailure(err error) bool {
	var af *errors.AllocationFailure
	return goerrors.As(err, &af)
}
