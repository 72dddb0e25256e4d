package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/fatih/color"
)

// ErrorOptions describes an error report
type ErrorOptions struct {
	Context      string
	Problem      string
	Consequence  string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

type palette struct {
	header, body, hint, help *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		header: color.New(color.FgRed, color.Bold),
		body:   color.New(color.FgRed),
		hint:   color.New(color.FgYellow),
		help:   color.New(color.FgCyan),
	}
	if noColor {
		for _, c := range []*color.Color{p.header, p.body, p.hint, p.help} {
			c.DisableColor()
		}
	}
	return p
}

// FormatError renders an error report:
//
//	❌ RESOURCE NOT FOUND: Cannot find resource 'Bok'.
//
//	   Did you mean: Book?
//
//	   → Pick a resource: apicore debug:resource
func FormatError(opts ErrorOptions) string {
	var b strings.Builder
	p := newPalette(opts.NoColor)

	if opts.Context != "" {
		p.header.Fprintf(&b, "❌ %s: %s\n", strings.ToUpper(opts.Context), opts.Problem)
	} else {
		p.header.Fprintf(&b, "❌ %s\n", opts.Problem)
	}

	if opts.Consequence != "" {
		b.WriteString("\n")
		p.body.Fprintf(&b, "   %s\n", opts.Consequence)
	}
	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		p.hint.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}
	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		for _, cmd := range opts.HelpCommands {
			p.help.Fprintf(&b, "   → %s\n", cmd)
		}
	}
	return b.String()
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// ResourceNotFoundError reports an unknown resource class
func ResourceNotFoundError(resourceName string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context:     "resource not found",
		Problem:     fmt.Sprintf("Cannot find resource '%s'.", resourceName),
		Suggestions: suggestions,
		HelpCommands: []string{
			"Pick a resource: apicore debug:resource",
			"Get help: apicore debug:resource --help",
		},
		NoColor: noColor,
	})
}

// MigrationError reports a failed migration run
func MigrationError(message string, consequence string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context:     "migration failed",
		Problem:     message,
		Consequence: consequence,
		HelpCommands: []string{
			"Check migration status: apicore migrate status",
			"Rollback: apicore migrate down",
			"Get help: apicore migrate --help",
		},
		NoColor: noColor,
	})
}

// ConfigError reports a setup mistake
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context: "configuration error",
		Problem: message,
		HelpCommands: []string{
			"View config: cat apicore.yml",
			"Get help: apicore --help",
		},
		NoColor: noColor,
	})
}

// CommandError reports the error a command failed with, titled by its
// apierr kind
func CommandError(err error, noColor bool) string {
	switch {
	case apierr.IsConfiguration(err):
		return ConfigError(err.Error(), noColor)
	case apierr.IsNotFound(err):
		return FormatError(ErrorOptions{Context: "not found", Problem: err.Error(), NoColor: noColor})
	case apierr.IsValidation(err):
		return FormatError(ErrorOptions{Context: "validation failed", Problem: err.Error(), NoColor: noColor})
	case apierr.IsInvalidArgument(err), apierr.IsUnexpectedValue(err):
		return FormatError(ErrorOptions{Context: "invalid input", Problem: err.Error(), NoColor: noColor})
	}
	return FormatError(ErrorOptions{Problem: "Error: " + err.Error(), NoColor: noColor})
}
