package htmlc

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"maragu.dev/gomponents"

	"github.com/conneroisu/htmlc/internal/render"
)

// Templ exposes t rendered with data as a templ component.
func Templ(t *Template, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return renderInto(t, data, w)
	})
}

// FromTempl makes a templ component callable from templates. Its output is
// trusted and written unescaped.
func FromTempl(c templ.Component) Component {
	return render.ComponentFunc(func(buf *Buffer, _ Props) error {
		var sb strings.Builder
		if err := c.Render(context.Background(), &sb); err != nil {
			return err
		}
		buf.WriteRaw(render.DangerouslyTrustRaw(sb.String()))
		return nil
	})
}

// Gomponent exposes t rendered with data as a gomponents node.
func Gomponent(t *Template, data any) gomponents.Node {
	return gomponents.NodeFunc(func(w io.Writer) error {
		return renderInto(t, data, w)
	})
}

// FromGomponents makes a gomponents node callable from templates. Its output
// is trusted and written unescaped.
func FromGomponents(n gomponents.Node) Component {
	return render.ComponentFunc(func(buf *Buffer, _ Props) error {
		var sb strings.Builder
		if err := n.Render(&sb); err != nil {
			return err
		}
		buf.WriteRaw(render.DangerouslyTrustRaw(sb.String()))
		return nil
	})
}

func renderInto(t *Template, data any, w io.Writer) error {
	buf := render.NewBuffer(render.WithLimit(t.set.limit))
	if err := t.RenderTo(buf, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
