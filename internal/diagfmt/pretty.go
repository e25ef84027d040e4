// Package diagfmt renders diagnostics for terminals.
package diagfmt

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"gale/internal/diag"
	"gale/internal/source"
)

// Options configures pretty-printing.
type Options struct {
	Color     bool
	ShowNotes bool
	ShowFixes bool
}

// ColorMode is the tri-state --color flag.
type ColorMode uint8

const (
	ColorAuto ColorMode = iota
	ColorOn
	ColorOff
)

// ParseColorMode maps a flag value; unknown values mean auto.
func ParseColorMode(s string) ColorMode {
	switch s {
	case "on", "always":
		return ColorOn
	case "off", "never":
		return ColorOff
	}
	return ColorAuto
}

// Enabled resolves the mode against the output stream.
func (m ColorMode) Enabled(w io.Writer) bool {
	switch m {
	case ColorOn:
		return true
	case ColorOff:
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan)
	boldColor = color.New(color.Bold)
	spotColor = color.New(color.FgGreen)
)

// Pretty writes every diagnostic in bag order (callers sort first),
// each with its source line and a caret underline, then a summary
// count. It returns the number of error-severity entries.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts Options) int {
	paint := func(c *color.Color, s string) string {
		if !opts.Color {
			return s
		}
		return c.Sprint(s)
	}

	for _, d := range bag.Items() {
		pos := fs.Position(d.Primary)
		head := fmt.Sprintf("%s:%d:%d: ", pos.Path, pos.Line, pos.Col)
		sev := d.Severity.String()
		switch d.Severity {
		case diag.SevError:
			sev = paint(errColor, sev)
		case diag.SevWarning:
			sev = paint(warnColor, sev)
		default:
			sev = paint(infoColor, sev)
		}
		fmt.Fprintf(w, "%s%s %s [%s]: %s\n",
			paint(boldColor, head), sev, d.Code.String(), d.Code.Category(), d.Message)
		writeSnippet(w, fs, d.Primary, paint)

		if opts.ShowNotes {
			for _, n := range d.Notes {
				npos := fs.Position(n.Span)
				fmt.Fprintf(w, "  %s:%d:%d: note: %s\n", npos.Path, npos.Line, npos.Col, n.Msg)
				writeSnippet(w, fs, n.Span, paint)
			}
		}
		if opts.ShowFixes {
			for _, f := range d.Fixes {
				fmt.Fprintf(w, "  help: %s\n", f.Title)
			}
		}
	}

	errs := bag.ErrorCount()
	warns := bag.Len() - errs
	switch {
	case errs > 0 && warns > 0:
		fmt.Fprintf(w, "%s\n", paint(errColor, fmt.Sprintf("%d error(s), %d warning(s)", errs, warns)))
	case errs > 0:
		fmt.Fprintf(w, "%s\n", paint(errColor, fmt.Sprintf("%d error(s)", errs)))
	case warns > 0:
		fmt.Fprintf(w, "%s\n", paint(warnColor, fmt.Sprintf("%d warning(s)", warns)))
	}
	return errs
}

// writeSnippet prints the source line of a span with ^~~~ underneath.
func writeSnippet(w io.Writer, fs *source.FileSet, sp source.Span, paint func(*color.Color, string) string) {
	lc := fs.LineCol(sp.File, sp.Start)
	line := fs.LineContent(sp.File, lc.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "    %s\n", line)

	col := int(lc.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	width := int(sp.End - sp.Start)
	if width < 1 {
		width = 1
	}
	if col+width > len(line) {
		width = len(line) - col
		if width < 1 {
			width = 1
		}
	}
	marker := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, "    %s%s\n", strings.Repeat(" ", col), paint(spotColor, marker))
}
