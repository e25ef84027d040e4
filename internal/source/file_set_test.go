package source

import "testing"

func TestLineColResolution(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("main.ga", []byte("fn main() {\n    let x = 1\n}\n"))

	cases := []struct {
		offset uint32
		line   uint32
		col    uint32
	}{
		{0, 1, 1},
		{3, 1, 4},
		{12, 2, 1},
		{16, 2, 5},
		{26, 3, 1},
	}
	for _, c := range cases {
		lc := fs.LineCol(id, c.offset)
		if lc.Line != c.line || lc.Col != c.col {
			t.Errorf("offset %d: got %d:%d, want %d:%d", c.offset, lc.Line, lc.Col, c.line, c.col)
		}
	}
}

func TestLineContent(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.ga", []byte("first\nsecond\nthird"))
	if got := fs.LineContent(id, 2); got != "second" {
		t.Errorf("line 2 = %q, want %q", got, "second")
	}
	if got := fs.LineContent(id, 3); got != "third" {
		t.Errorf("line 3 = %q, want %q", got, "third")
	}
	if got := fs.LineContent(id, 4); got != "" {
		t.Errorf("line 4 = %q, want empty", got)
	}
}

func TestNormalizeCRLFAndBOM(t *testing.T) {
	fs := NewFileSet()
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a\r\nb\r\n")...)
	id, err := func() (FileID, error) {
		return fs.Add("x.ga", normalize(raw), FileHadBOM|FileNormalizedCRLF), nil
	}()
	if err != nil {
		t.Fatal(err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a\nb\n" {
		t.Errorf("content = %q", f.Content)
	}
}

func TestByPathTracksLatest(t *testing.T) {
	fs := NewFileSet()
	fs.AddVirtual("m.ga", []byte("one"))
	second := fs.AddVirtual("m.ga", []byte("two"))
	got, ok := fs.ByPath("m.ga")
	if !ok || got != second {
		t.Errorf("ByPath = %d, %v; want %d, true", got, ok, second)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	c := a.Cover(b)
	if c.Start != 2 || c.End != 8 {
		t.Errorf("cover = %v", c)
	}
	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Errorf("cross-file cover changed span: %v", got)
	}
}
