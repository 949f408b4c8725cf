// Package renderer expands template definitions with resolved variable
// sets and classifies anything that goes wrong into a closed set of error
// kinds.
//
// The renderer never lets an expansion failure escape as a raw error or
// panic: every failure comes back as a *RenderError carrying a kind and a
// human-readable message, and the caller decides how to report it. For a
// failed render the replacement artifact is produced by ErrorDocument, a
// visibly auto-generated placeholder rather than real content.
package renderer

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"stencil/internal/config"
	"stencil/internal/variables"
)

// RenderErrorKind classifies a render failure.
type RenderErrorKind int

const (
	// KindUndefinedVariable means the template referenced a variable
	// absent from the resolved set.
	KindUndefinedVariable RenderErrorKind = iota
	// KindTemplateSyntax means the template definition failed to parse.
	KindTemplateSyntax
	// KindBadVariables means a variable file failed to parse.
	KindBadVariables
	// KindRenderFailed is the catch-all for any other expansion failure.
	KindRenderFailed
)

func (k RenderErrorKind) String() string {
	switch k {
	case KindUndefinedVariable:
		return "undefined-variable"
	case KindTemplateSyntax:
		return "template-syntax"
	case KindBadVariables:
		return "bad-variables"
	case KindRenderFailed:
		return "render-failed"
	default:
		return "unknown"
	}
}

// RenderError is the classified outcome of a failed render.
type RenderError struct {
	Kind    RenderErrorKind
	Message string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Renderer expands templates with variable inheritance. Templates are
// re-read from disk on every render; nothing is cached across calls.
type Renderer struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Render loads the template definition for name, resolves the variant's
// variable set, and expands the template. On failure the returned content
// is empty and the error carries a kind and message.
func (r *Renderer) Render(name, variant string) (string, *RenderError) {
	src, err := os.ReadFile(r.cfg.TemplatePath(name))
	if err != nil {
		return "", &RenderError{Kind: KindRenderFailed, Message: fmt.Sprintf("reading template: %v", err)}
	}

	vars, err := variables.Resolve(r.cfg, name, variant)
	if err != nil {
		return "", classifyVariableError(err)
	}

	tmpl, err := template.New(name + r.cfg.Paths.TemplateExt).
		Option("missingkey=error").
		Parse(string(src))
	if err != nil {
		return "", &RenderError{Kind: KindTemplateSyntax, Message: fmt.Sprintf("template error: %v", err)}
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", classifyExecError(err)
	}
	return buf.String(), nil
}

func classifyVariableError(err error) *RenderError {
	var parseErr *variables.ParseError
	if errors.As(err, &parseErr) {
		return &RenderError{Kind: KindBadVariables, Message: fmt.Sprintf("variable parse error: %v", err)}
	}
	return &RenderError{Kind: KindRenderFailed, Message: fmt.Sprintf("loading variables: %v", err)}
}

func classifyExecError(err error) *RenderError {
	// text/template reports a missing key under missingkey=error with a
	// "no entry for key" execution error; there is no sentinel to match.
	if strings.Contains(err.Error(), "no entry for key") {
		return &RenderError{Kind: KindUndefinedVariable, Message: fmt.Sprintf("undefined variable: %v", err)}
	}
	var execErr template.ExecError
	if errors.As(err, &execErr) {
		return &RenderError{Kind: KindRenderFailed, Message: fmt.Sprintf("template error: %v", err)}
	}
	return &RenderError{Kind: KindRenderFailed, Message: fmt.Sprintf("render error: %v", err)}
}

// ErrorDocument produces the placeholder body written in place of real
// output when a render fails. The marker comments keep it recognizable as
// auto-generated.
func ErrorDocument(name, variant, message string, at time.Time) string {
	return fmt.Sprintf(`<!-- RENDER ERROR: %s/%s -->
<!-- Time: %s -->

**Error:** %s

<!-- Auto-updates when fixed -->
`, name, variant, at.Format("2006-01-02 15:04:05"), message)
}
