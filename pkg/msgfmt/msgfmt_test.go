package msgfmt

import (
	"strings"
	"testing"
)

func TestEscAndWrappers(t *testing.T) {
	t.Parallel()
	if got := Esc(`<b> & "quotes"`); !strings.Contains(string(got), "&lt;b&gt;") {
		t.Fatalf("Esc = %q", got)
	}
	if got := B("a<b"); got != "<b>a&lt;b</b>" {
		t.Fatalf("B = %q", got)
	}
	if got := I("x"); got != "<i>x</i>" {
		t.Fatalf("I = %q", got)
	}
	if got := Code("y"); got != "<code>y</code>" {
		t.Fatalf("Code = %q", got)
	}
	if got := Link("a&b", `http://x/?q="1"`); strings.Contains(string(got), `"1"`) {
		t.Fatalf("Link did not escape attribute: %q", got)
	}
}

func TestLinesKeepsBlanks(t *testing.T) {
	t.Parallel()
	got := Lines("a", "", "b")
	if got != "a\n\nb" {
		t.Fatalf("Lines = %q", got)
	}
}

func TestJoinHSkipsBlanks(t *testing.T) {
	t.Parallel()
	got := JoinH(" | ", "a", "", "  ", "b")
	if got != "a | b" {
		t.Fatalf("JoinH = %q", got)
	}
}

func TestTruncRunes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "shorter than limit", in: "abc", n: 10, want: "abc"},
		{name: "exactly at limit", in: "abc", n: 3, want: "abc"},
		{name: "truncated", in: "abcdef", n: 3, want: "abc…"},
		{name: "multibyte", in: "héllo wörld", n: 5, want: "héllo…"},
		{name: "zero", in: "abc", n: 0, want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncRunes(tt.in, tt.n); got != tt.want {
				t.Fatalf("TruncRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestClampLongMessage(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", MaxMessageRunes+100)
	got := Clamp(long)
	if len([]rune(got)) > MaxMessageRunes+1 {
		t.Fatalf("clamped message still %d runes", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatal("clamped message missing ellipsis")
	}
}
