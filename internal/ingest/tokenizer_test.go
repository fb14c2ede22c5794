package ingest

import (
	"reflect"
	"testing"
)

func TestParseLine(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{`a,"b,c",d`, []string{"a", "b,c", "d"}},
		{"", []string{""}},
		{"a", []string{"a"}},
		{"a,", []string{"a", ""}},
		{",,", []string{"", "", ""}},
		{`"R$ 100,00",5%`, []string{"R$ 100,00", "5%"}},
		{`"say ""hi""",x`, []string{`say "hi"`, "x"}},
		{`a,"",b`, []string{"a", "", "b"}},
		{`""""`, []string{`"`}},
	}
	for _, tc := range cases {
		if got := ParseLine(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseLine(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// unquotedSeparators counts commas outside quoted sections.
func unquotedSeparators(s string) int {
	n, in := 0, false
	for _, c := range s {
		switch {
		case c == '"':
			in = !in
		case c == ',' && !in:
			n++
		}
	}
	return n
}

func TestParseLineFieldCount(t *testing.T) {
	inputs := []string{
		"",
		"a,b,c",
		`"a,b",c`,
		`x,"y,z,w",,"",v`,
		`"only quoted, one field"`,
		`1/1/2024,"R$ 1.234,56","12,5%",Green`,
		`"a""b",c`,
		`,,,"",,`,
	}
	for _, in := range inputs {
		if got, want := len(ParseLine(in)), unquotedSeparators(in)+1; got != want {
			t.Errorf("ParseLine(%q) has %d fields, want %d", in, got, want)
		}
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines("h\r\na\r\nb\r\n\r\n\n")
	if !reflect.DeepEqual(got, []string{"h", "a", "b"}) {
		t.Fatalf("unexpected %q", got)
	}
	if got := splitLines("\n\n"); got != nil {
		t.Fatalf("blank text must have no lines, got %q", got)
	}
	if got := splitLines("header\n"); len(got) != 1 {
		t.Fatalf("expected one line, got %q", got)
	}
}
