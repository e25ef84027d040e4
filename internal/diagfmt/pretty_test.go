package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"gale/internal/diag"
	"gale/internal/source"
)

func TestPrettyHeaderAndSnippet(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("let s = \"unterminated\n")
	fileID := fs.AddVirtual("src/test.ga", content)

	bag := diag.NewBag(10)
	bag.Add(diag.New(
		diag.SevError,
		diag.LexUnterminatedString,
		source.Span{File: fileID, Start: 8, End: 21},
		"unterminated string literal",
	))

	var buf bytes.Buffer
	errs := Pretty(&buf, bag, fs, Options{})
	out := buf.String()

	if errs != 1 {
		t.Fatalf("Pretty returned %d errors, want 1", errs)
	}
	for _, want := range []string{
		"src/test.ga:1:9: error GA1002 [Lex]: unterminated string literal",
		"let s = \"unterminated",
		"^~~~~~~~~~~~",
		"1 error(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrettyNotesAndFixes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("let total = 0\ntotal = total + 1\n")
	fileID := fs.AddVirtual("main.ga", content)

	bag := diag.NewBag(4)
	d := diag.New(
		diag.SevError,
		diag.OwnImmutableBindingMutated,
		source.Span{File: fileID, Start: 14, End: 19},
		"cannot assign to immutable binding `total`",
	)
	d = d.WithNote(source.Span{File: fileID, Start: 4, End: 9}, "binding declared here")
	d = d.WithFix("declare the binding with `let mut`", diag.FixEdit{
		Span:    source.Span{File: fileID, Start: 0, End: 3},
		NewText: "let mut",
	})
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, Options{ShowNotes: true, ShowFixes: true})
	out := buf.String()

	if !strings.Contains(out, "main.ga:1:5: note: binding declared here") {
		t.Fatalf("expected note with location, got:\n%s", out)
	}
	if !strings.Contains(out, "help: declare the binding with `let mut`") {
		t.Fatalf("expected fix title, got:\n%s", out)
	}
}

func TestPrettySummaryCounts(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("counts.ga", []byte("fn main() {}\n"))
	sp := source.Span{File: fileID, Start: 3, End: 7}

	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevError, diag.SynUnexpectedToken, sp, "first"))
	bag.Add(diag.New(diag.SevError, diag.SynUnexpectedToken, sp, "second"))
	bag.Add(diag.New(diag.SevWarning, diag.LexUnknownChar, sp, "third"))

	var buf bytes.Buffer
	errs := Pretty(&buf, bag, fs, Options{})

	if errs != 2 {
		t.Fatalf("Pretty returned %d errors, want 2", errs)
	}
	if !strings.Contains(buf.String(), "2 error(s), 1 warning(s)") {
		t.Fatalf("expected combined summary, got:\n%s", buf.String())
	}
}

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		in   string
		want ColorMode
	}{
		{"on", ColorOn},
		{"always", ColorOn},
		{"off", ColorOff},
		{"never", ColorOff},
		{"auto", ColorAuto},
		{"", ColorAuto},
		{"garbage", ColorAuto},
	}
	for _, tt := range tests {
		if got := ParseColorMode(tt.in); got != tt.want {
			t.Errorf("ParseColorMode(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestColorModeForcedStates(t *testing.T) {
	var buf bytes.Buffer
	if !ColorOn.Enabled(&buf) {
		t.Error("ColorOn should force color on")
	}
	if ColorOff.Enabled(&buf) {
		t.Error("ColorOff should force color off")
	}
	if ColorAuto.Enabled(&buf) {
		t.Error("ColorAuto on a plain buffer should be off")
	}
}
