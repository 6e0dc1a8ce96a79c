package render

// Scope is a chain of variable maps. Inner scopes shadow outer ones.
type Scope struct {
	parent *Scope
	vars   map[string]any
	env    map[string]any
}

// NewScope returns a root scope over vars. The map is not copied.
func NewScope(vars map[string]any) *Scope {
	if vars == nil {
		vars = map[string]any{}
	}
	return &Scope{vars: vars}
}

// With returns a child scope holding vars.
func (s *Scope) With(vars map[string]any) *Scope {
	return &Scope{parent: s, vars: vars}
}

// Lookup finds name in the innermost scope that defines it.
func (s *Scope) Lookup(name string) (any, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Env flattens the chain into the environment handed to expression programs.
// A root scope's env is its own map.
func (s *Scope) Env() map[string]any {
	if s.env != nil {
		return s.env
	}
	if s.parent == nil {
		s.env = s.vars
		return s.env
	}
	parent := s.parent.Env()
	env := make(map[string]any, len(parent)+len(s.vars))
	for k, v := range parent {
		env[k] = v
	}
	for k, v := range s.vars {
		env[k] = v
	}
	s.env = env
	return env
}
