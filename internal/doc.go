// Package internal contains the packages behind the htmlc command and the
// public pkg/htmlc API.
//
// # Package Organization
//
// A template flows through the compiler in stages:
//
//   - parser/tag, parser/nested: the two grammars, both producing an ast tree
//   - schema, validate: the element table and the checks run against it
//   - codegen: validated trees become flat render plans
//   - render, escape: plans execute into an escaping, size-limited buffer
//   - registry: components a set of templates can call
//   - compiler: the parse, validate and generate stages for one template
//   - printer: trees written back out in either grammar
//
// Around the compiler sit the development tools:
//
//   - config: Viper-backed settings from .htmlc.yml, HTMLC_* and flags
//   - scanner, watcher: template discovery and change notification
//   - build: compiles a project into one template set and rebuilds on change
//   - server: preview server with live reload and an error overlay
//   - mockdata, accessibility, scaffolding: preview data, HTML audits and
//     generated templates
//   - errors, logging, validation, version: shared plumbing
package internal
