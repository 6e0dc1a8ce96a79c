package schema

// globalAttributes apply to every HTML element. Event handler attributes
// (on*) are matched by rule rather than listed.
var globalAttributes = []string{
	"accesskey", "autocapitalize", "autocorrect", "autofocus", "class",
	"contenteditable", "dir", "draggable", "enterkeyhint", "hidden", "id",
	"inert", "inputmode", "is", "itemid", "itemprop", "itemref", "itemscope",
	"itemtype", "lang", "nonce", "part", "popover", "role", "slot",
	"spellcheck", "style", "tabindex", "title", "translate",
	"writingsuggestions",
}

var (
	hyperlink  = []string{"href", "target", "download", "ping", "rel", "hreflang", "type", "referrerpolicy"}
	formOwner  = []string{"form", "name", "disabled"}
	formSubmit = []string{
		"formaction", "formenctype", "formmethod", "formnovalidate", "formtarget",
		"popovertarget", "popovertargetaction",
	}
	media = []string{
		"src", "crossorigin", "preload", "autoplay", "loop", "muted", "controls",
	}
	cell = []string{"colspan", "rowspan", "headers"}
	edit = []string{"cite", "datetime"}
	svg  = Entry{AllowCustomAttributes: true}
)

func join(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func foreign(name string) Entry {
	e := svg
	e.Name = name
	return e
}

// htmlElements is the HTML living-standard element table.
var htmlElements = []Entry{
	{Name: "a", Attributes: hyperlink},
	{Name: "abbr"},
	{Name: "address"},
	{Name: "area", Void: true, Attributes: join(hyperlink, []string{"alt", "coords", "shape"})},
	{Name: "article"},
	{Name: "aside"},
	{Name: "audio", Attributes: media},
	{Name: "b"},
	{Name: "base", Void: true, Attributes: []string{"href", "target"}},
	{Name: "bdi"},
	{Name: "bdo"},
	{Name: "blockquote", Attributes: []string{"cite"}},
	{Name: "body"},
	{Name: "br", Void: true},
	{Name: "button", Attributes: join(formOwner, formSubmit, []string{"type", "value", "command", "commandfor"})},
	{Name: "canvas", Attributes: []string{"width", "height"}},
	{Name: "caption"},
	{Name: "cite"},
	{Name: "code"},
	{Name: "col", Void: true, Attributes: []string{"span"}},
	{Name: "colgroup", Attributes: []string{"span"}},
	{Name: "data", Attributes: []string{"value"}},
	{Name: "datalist"},
	{Name: "dd"},
	{Name: "del", Attributes: edit},
	{Name: "details", Attributes: []string{"open", "name"}},
	{Name: "dfn"},
	{Name: "dialog", Attributes: []string{"open", "closedby"}},
	{Name: "div"},
	{Name: "dl"},
	{Name: "dt"},
	{Name: "em"},
	{Name: "embed", Void: true, Attributes: []string{"src", "type", "width", "height"}},
	{Name: "fieldset", Attributes: formOwner},
	{Name: "figcaption"},
	{Name: "figure"},
	{Name: "footer"},
	{Name: "form", Attributes: []string{
		"accept-charset", "action", "autocomplete", "enctype", "method", "name",
		"novalidate", "target", "rel",
	}},
	{Name: "h1"},
	{Name: "h2"},
	{Name: "h3"},
	{Name: "h4"},
	{Name: "h5"},
	{Name: "h6"},
	{Name: "head"},
	{Name: "header"},
	{Name: "hgroup"},
	{Name: "hr", Void: true},
	{Name: "html", Attributes: []string{"xmlns"}},
	{Name: "i"},
	{Name: "iframe", Attributes: []string{
		"src", "srcdoc", "name", "sandbox", "allow", "allowfullscreen", "width",
		"height", "referrerpolicy", "loading",
	}},
	{Name: "img", Void: true, Attributes: []string{
		"alt", "src", "srcset", "sizes", "crossorigin", "usemap", "ismap", "width",
		"height", "referrerpolicy", "decoding", "loading", "fetchpriority",
	}},
	{Name: "input", Void: true, Attributes: join(formOwner, formSubmit, []string{
		"accept", "alt", "autocomplete", "checked", "dirname", "height", "list",
		"max", "maxlength", "min", "minlength", "multiple", "pattern",
		"placeholder", "readonly", "required", "size", "src", "step", "type",
		"value", "width",
	})},
	{Name: "ins", Attributes: edit},
	{Name: "kbd"},
	{Name: "label", Attributes: []string{"for"}},
	{Name: "legend"},
	{Name: "li", Attributes: []string{"value"}},
	{Name: "link", Void: true, Attributes: []string{
		"href", "crossorigin", "rel", "as", "media", "hreflang", "type", "sizes",
		"imagesrcset", "imagesizes", "referrerpolicy", "integrity", "blocking",
		"color", "disabled", "fetchpriority",
	}},
	{Name: "main"},
	{Name: "map", Attributes: []string{"name"}},
	{Name: "mark"},
	{Name: "menu"},
	{Name: "meta", Void: true, Attributes: []string{"name", "http-equiv", "content", "charset", "media"}},
	{Name: "meter", Attributes: []string{"value", "min", "max", "low", "high", "optimum"}},
	{Name: "nav"},
	{Name: "noscript"},
	{Name: "object", Attributes: []string{"data", "type", "name", "form", "width", "height"}},
	{Name: "ol", Attributes: []string{"reversed", "start", "type"}},
	{Name: "optgroup", Attributes: []string{"disabled", "label"}},
	{Name: "option", Attributes: []string{"disabled", "label", "selected", "value"}},
	{Name: "output", Attributes: []string{"for", "form", "name"}},
	{Name: "p"},
	{Name: "picture"},
	{Name: "pre"},
	{Name: "progress", Attributes: []string{"value", "max"}},
	{Name: "q", Attributes: []string{"cite"}},
	{Name: "rp"},
	{Name: "rt"},
	{Name: "ruby"},
	{Name: "s"},
	{Name: "samp"},
	{Name: "script", RawText: true, Attributes: []string{
		"src", "type", "nomodule", "async", "defer", "crossorigin", "integrity",
		"referrerpolicy", "blocking", "fetchpriority",
	}},
	{Name: "search"},
	{Name: "section"},
	{Name: "select", Attributes: join(formOwner, []string{"autocomplete", "multiple", "required", "size"})},
	{Name: "slot", Attributes: []string{"name"}},
	{Name: "small"},
	{Name: "source", Void: true, Attributes: []string{"type", "media", "src", "srcset", "sizes", "width", "height"}},
	{Name: "span"},
	{Name: "strong"},
	{Name: "style", RawText: true, Attributes: []string{"media", "blocking"}},
	{Name: "sub"},
	{Name: "summary"},
	{Name: "sup"},
	{Name: "table"},
	{Name: "tbody"},
	{Name: "td", Attributes: cell},
	{Name: "template", Attributes: []string{
		"shadowrootmode", "shadowrootdelegatesfocus", "shadowrootclonable",
		"shadowrootserializable",
	}},
	{Name: "textarea", Attributes: join(formOwner, []string{
		"autocomplete", "cols", "dirname", "maxlength", "minlength",
		"placeholder", "readonly", "required", "rows", "wrap",
	})},
	{Name: "tfoot"},
	{Name: "th", Attributes: join(cell, []string{"scope", "abbr"})},
	{Name: "thead"},
	{Name: "time", Attributes: []string{"datetime"}},
	{Name: "title"},
	{Name: "tr"},
	{Name: "track", Void: true, Attributes: []string{"default", "kind", "label", "src", "srclang"}},
	{Name: "u"},
	{Name: "ul"},
	{Name: "var"},
	{Name: "video", Attributes: join(media, []string{"poster", "playsinline", "width", "height"})},
	{Name: "wbr", Void: true},

	foreign("svg"),
	foreign("g"),
	foreign("path"),
	foreign("circle"),
	foreign("ellipse"),
	foreign("rect"),
	foreign("line"),
	foreign("polyline"),
	foreign("polygon"),
	foreign("use"),
	foreign("defs"),
	foreign("symbol"),
	foreign("math"),
}
