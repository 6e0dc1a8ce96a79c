package render

// Props are the arguments a component is called with. Children, when the
// call has a body, are under the "children" key as a Renderable.
type Props map[string]any

// ChildrenKey is the props key holding a call's body.
const ChildrenKey = "children"

// Children returns the call body, or nil when the call had none.
func (p Props) Children() Renderable {
	r, _ := p[ChildrenKey].(Renderable)
	return r
}

// Component is anything a template can call by name.
type Component interface {
	RenderComponent(buf *Buffer, props Props) error
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(buf *Buffer, props Props) error

// RenderComponent calls f.
func (f ComponentFunc) RenderComponent(buf *Buffer, props Props) error {
	return f(buf, props)
}

// Resolver finds components by name.
type Resolver interface {
	Component(name string) (Component, bool)
}

// Components is a fixed Resolver.
type Components map[string]Component

// Component implements Resolver.
func (c Components) Component(name string) (Component, bool) {
	comp, ok := c[name]
	return comp, ok
}
