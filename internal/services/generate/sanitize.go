// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package generate

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var fencePattern = regexp.MustCompile("```(?:html|jsx|tsx|javascript)?")

// stripFences removes markdown code fences the model adds despite the prompt.
func stripFences(s string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(s, ""))
}

// htmlPolicy keeps Tailwind markup intact and drops everything that can run
// script: script and iframe elements, on* handlers and javascript: URLs.
func htmlPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowElements(
		"header", "footer", "nav", "main", "section", "article", "aside",
		"button", "label", "form", "input", "select", "option", "textarea",
	)
	p.AllowAttrs("class", "id", "role", "aria-label", "aria-hidden").Globally()
	p.AllowAttrs("type", "name", "placeholder", "value", "checked", "disabled").
		OnElements("input", "button", "select", "option", "textarea")
	p.AllowAttrs("for").OnElements("label")
	p.AllowDataURIImages()

	return p
}

var (
	scriptPattern   = regexp.MustCompile(`(?is)<script[\s\S]*?</script>`)
	iframePattern   = regexp.MustCompile(`(?is)<iframe[\s\S]*?</iframe>`)
	handlerPattern  = regexp.MustCompile(`(?i)\bon[a-z]+\s*=\s*(?:"[^"]*"|'[^']*'|\{[^}]*\})`)
	jsSchemePattern = regexp.MustCompile(`(?i)javascript:\s*`)
)

// sanitizeReact strips executable fragments from JSX. JSX is not HTML, so an
// HTML parser would mangle it; the fragments are removed by pattern instead.
func sanitizeReact(src string) string {
	out := scriptPattern.ReplaceAllString(src, "")
	out = iframePattern.ReplaceAllString(out, "")
	out = handlerPattern.ReplaceAllString(out, "")
	return jsSchemePattern.ReplaceAllString(out, "")
}
