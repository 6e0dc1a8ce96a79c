package scaffolding

// Scaffold is a starting point for a new template. Content is tag-grammar
// source expanded with text/template using [[ ]] delimiters; Data is a YAML
// data file that renders it.
type Scaffold struct {
	Name        string
	Description string
	Category    string
	Content     string
	Data        string
}

// builtinScaffolds returns the scaffolds every generator starts with.
func builtinScaffolds() map[string]Scaffold {
	return map[string]Scaffold{
		"alert":  alertScaffold,
		"button": buttonScaffold,
		"card":   cardScaffold,
		"form":   formScaffold,
		"layout": layoutScaffold,
		"list":   listScaffold,
		"nav":    navScaffold,
		"page":   pageScaffold,
	}
}

var alertScaffold = Scaffold{
	Name:        "alert",
	Description: "Message box styled by kind",
	Category:    "feedback",
	Content: `<div role="alert" class={"[[.Class]] [[.Class]]-" + kind}>
  @match kind {
    "error" => { <strong>Error:</strong> }
    "warning" => { <strong>Warning:</strong> }
    _ => {}
  }
  {message}
</div>
`,
	Data: "kind: warning\nmessage: Disk space is running low.\n",
}

var buttonScaffold = Scaffold{
	Name:        "button",
	Description: "Button with a variant class",
	Category:    "ui",
	Content:     `<button type="button" class={"[[.Class]] [[.Class]]-" + variant}>{label}</button>` + "\n",
	Data:        "variant: primary\nlabel: Save\n",
}

var cardScaffold = Scaffold{
	Name:        "card",
	Description: "Card with an optional title around its children",
	Category:    "ui",
	Content: `<div class="[[.Class]]">
  @if title != nil {
    <h2 class="[[.Class]]-title">{title}</h2>
  }
  <div class="[[.Class]]-body">{children}</div>
</div>
`,
	Data: "title: Welcome\n",
}

var formScaffold = Scaffold{
	Name:        "form",
	Description: "Labelled email form",
	Category:    "forms",
	Content: `<form class="[[.Class]]" method="post" action={action}>
  <label for="[[.Class]]-email">Email</label>
  <input id="[[.Class]]-email" type="email" name="email"/>
  <button type="submit">{submit}</button>
</form>
`,
	Data: "action: /subscribe\nsubmit: Subscribe\n",
}

var layoutScaffold = Scaffold{
	Name:        "layout",
	Description: "HTML document wrapping its children",
	Category:    "layout",
	Content: `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <title>{title}</title>
  </head>
  <body class="[[.Class]]">
    <main>{children}</main>
  </body>
</html>
`,
	Data: "title: Home\n",
}

var listScaffold = Scaffold{
	Name:        "list",
	Description: "Unordered list of items",
	Category:    "ui",
	Content: `<ul class="[[.Class]]">
  @for item in items {
    <li>{item}</li>
  }
</ul>
`,
	Data: "items:\n  - First\n  - Second\n  - Third\n",
}

var navScaffold = Scaffold{
	Name:        "nav",
	Description: "Navigation links",
	Category:    "layout",
	Content: `<nav class="[[.Class]]" aria-label="Main">
  <ul>
    @for link in links {
      <li><a href={link.href}>{link.label}</a></li>
    }
  </ul>
</nav>
`,
	Data: "links:\n  - href: /\n    label: Home\n  - href: /about\n    label: About\n",
}

var pageScaffold = Scaffold{
	Name:        "page",
	Description: "Page using the Layout and Card components",
	Category:    "layout",
	Content: `<Layout title={title}>
  <h1>{title}</h1>
  <Card title="Getting started">
    <p>Edit this page and watch it reload.</p>
  </Card>
</Layout>
`,
	Data: "title: Hello from htmlc\n",
}
