package schema

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/htmlc/internal/errors"
)

func TestNewHTML_VoidElements(t *testing.T) {
	reg := NewHTML()

	for _, name := range []string{"area", "base", "br", "col", "embed", "hr", "img", "input", "link", "meta", "source", "track", "wbr"} {
		e, ok := reg.Lookup(name)
		require.True(t, ok, name)
		assert.True(t, e.Void, name)
	}

	div, ok := reg.Lookup("div")
	require.True(t, ok)
	assert.False(t, div.Void)

	script, _ := reg.Lookup("script")
	assert.True(t, script.RawText)
}

func TestNew_IsEmpty(t *testing.T) {
	reg := New()

	_, ok := reg.Lookup("div")
	assert.False(t, ok)
	assert.Empty(t, reg.Elements())
	assert.True(t, reg.AttributeAllowed("anything", "data-id"))
	assert.False(t, reg.AttributeAllowed("anything", "class"))
}

func TestAttributeAllowed(t *testing.T) {
	reg := NewHTML()

	tests := []struct {
		element string
		attr    string
		want    bool
	}{
		{"div", "class", true},
		{"div", "ID", true},
		{"a", "href", true},
		{"div", "href", false},
		{"div", "data-user-id", true},
		{"div", "aria-label", true},
		{"div", "data-", false},
		{"button", "onclick", true},
		{"button", "on", false},
		{"button", "on-click", false},
		{"input", "placeholder", true},
		{"svg", "viewbox", true},
		{"div", "hx-get", false},
		{"my-widget", "foo", false},
	}

	for _, tt := range tests {
		t.Run(tt.element+"/"+tt.attr, func(t *testing.T) {
			assert.Equal(t, tt.want, reg.AttributeAllowed(tt.element, tt.attr))
		})
	}
}

func TestRegister(t *testing.T) {
	reg := NewHTML()

	err := reg.Register(Entry{Name: "x-card", Attributes: []string{"variant"}})
	require.NoError(t, err)

	e, ok := reg.Lookup("x-card")
	require.True(t, ok)
	assert.Equal(t, []string{"variant"}, e.Attributes)
	assert.True(t, reg.AttributeAllowed("x-card", "variant"))
	assert.True(t, reg.AttributeAllowed("x-card", "class"))
	assert.Contains(t, reg.Elements(), "x-card")
}

func TestRegister_Duplicate(t *testing.T) {
	reg := NewHTML()

	err := reg.Register(Entry{Name: "div"})
	require.Error(t, err)
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeDuplicateRegistration))
}

func TestRegister_Invalid(t *testing.T) {
	reg := New()

	err := reg.Register(Entry{})
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeInvalidEntry))

	err = reg.Register(Entry{Name: "Card"})
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeInvalidEntry))
}

func TestFreeze(t *testing.T) {
	reg := NewHTML()
	reg.Freeze()
	assert.True(t, reg.Frozen())

	tests := map[string]func() error{
		"register":  func() error { return reg.Register(Entry{Name: "late"}) },
		"globals":   func() error { return reg.RegisterGlobalAttributes("late") },
		"framework": func() error { return reg.EnableFramework("htmx") },
		"custom":    func() error { return reg.AllowCustomElements() },
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			err := fn()
			require.Error(t, err)
			assert.True(t, errors.HasErrorCode(err, errors.ErrCodeSchemaFrozen))
		})
	}

	_, ok := reg.Lookup("late")
	assert.False(t, ok)
}

func TestEnableFramework(t *testing.T) {
	reg := NewHTML()
	require.NoError(t, reg.EnableFramework("htmx"))
	require.NoError(t, reg.EnableFramework("alpine"))
	require.NoError(t, reg.EnableFramework("htmx"))

	assert.True(t, reg.AttributeAllowed("button", "hx-post"))
	assert.True(t, reg.AttributeAllowed("div", "x-data"))
	assert.True(t, reg.AttributeAllowed("div", ":class"))
	assert.True(t, reg.AttributeAllowed("button", "@click.prevent"))

	err := reg.EnableFramework("htmz")
	require.Error(t, err)
	var te *errors.TemplateError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, []string{"htmx"}, te.Context["suggestions"])
}

func TestEnableFramework_NameIsCaseInsensitive(t *testing.T) {
	reg := NewHTML()
	require.NoError(t, reg.EnableFramework("HTMX"))
	prefixes := len(reg.prefixes)
	require.NoError(t, reg.EnableFramework("htmx"))
	require.NoError(t, reg.EnableFramework(" Htmx "))

	assert.Equal(t, prefixes, len(reg.prefixes))
	assert.Len(t, reg.frameworks, 1)
	assert.True(t, reg.AttributeAllowed("button", "hx-get"))
}

func TestAllowCustomElements(t *testing.T) {
	reg := NewHTML()
	require.NoError(t, reg.AllowCustomElements())

	e, ok := reg.Lookup("my-widget")
	require.True(t, ok)
	assert.True(t, e.AllowCustomAttributes)
	assert.True(t, reg.AttributeAllowed("my-widget", "anything"))

	_, ok = reg.Lookup("mywidget")
	assert.False(t, ok)
}

func TestRegisterGlobalAttributes(t *testing.T) {
	reg := NewHTML()
	require.NoError(t, reg.RegisterGlobalAttributes("Up-Target"))

	assert.True(t, reg.AttributeAllowed("p", "up-target"))
	assert.Contains(t, reg.Attributes("p"), "up-target")
}

func TestAttributes_IncludesGlobalsAndOwn(t *testing.T) {
	reg := NewHTML()
	attrs := reg.Attributes("a")

	assert.Contains(t, attrs, "href")
	assert.Contains(t, attrs, "class")
	assert.IsIncreasing(t, attrs)
}

func TestDefault_IsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestConcurrentReadsAfterFreeze(t *testing.T) {
	reg := NewHTML()
	require.NoError(t, reg.EnableFramework("htmx"))
	reg.Freeze()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = reg.Lookup("div")
				_ = reg.AttributeAllowed("div", "hx-get")
			}
		}()
	}
	wg.Wait()
}
