package diff

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWords_Replacement(t *testing.T) {
	ops, err := Words("These is a test", "This is a test")
	if err != nil {
		t.Fatalf("Words failed: %v", err)
	}
	want := []Op{
		{Kind: Delete, Text: "These"},
		{Kind: Insert, Text: "This"},
		{Kind: Equal, Text: " is a test"},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Fatalf("ops mismatch (-want +got):\n%s", diff)
	}
}

func TestWords_PunctuationIsItsOwnToken(t *testing.T) {
	ops, err := Words("Hello world", "Hello, world.")
	if err != nil {
		t.Fatalf("Words failed: %v", err)
	}
	want := []Op{
		{Kind: Equal, Text: "Hello"},
		{Kind: Insert, Text: ","},
		{Kind: Equal, Text: " world"},
		{Kind: Insert, Text: "."},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Fatalf("ops mismatch (-want +got):\n%s", diff)
	}
}

func TestWords_Identical(t *testing.T) {
	ops, err := Words("não mudou", "não mudou")
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 1 || ops[0].Kind != Equal || ops[0].Text != "não mudou" {
		t.Fatalf("unexpected ops: %#v", ops)
	}
}

func TestWords_InvalidUTF8(t *testing.T) {
	if _, err := Words("ok", "\xff"); !errors.Is(err, ErrInvalidText) {
		t.Fatalf("expected ErrInvalidText, got %v", err)
	}
}

func TestTokenize_RoundTrips(t *testing.T) {
	in := "  It's a test,  isn't it?\nYes — 100%. "
	if got := strings.Join(tokenize(in), ""); got != in {
		t.Fatalf("tokens do not rebuild the input: %q", got)
	}
}

func TestHTML_EscapesAndMarks(t *testing.T) {
	out, err := HTML{}.Render("a <b> c", "a <i> c")
	if err != nil {
		t.Fatal(err)
	}
	want := `a &lt;<del class="diffdel">b</del><ins class="diffins">i</ins>&gt; c`
	if out != want {
		t.Fatalf("got %q want %q", out, want)
	}
	if got := (HTML{}).RenderError("bad <x>"); got != `<p class="diff-error">bad &lt;x&gt;</p>` {
		t.Fatalf("error fragment mismatch: %q", got)
	}
}

func TestMarkup(t *testing.T) {
	out, err := Markup{}.Render("These is a test", "This is a test")
	if err != nil {
		t.Fatal(err)
	}
	if out != "[-These-]{+This+} is a test" {
		t.Fatalf("got %q", out)
	}
}

func TestANSI_KeepsText(t *testing.T) {
	out, err := NewANSI(true).Render("These is a test", "This is a test")
	if err != nil {
		t.Fatal(err)
	}
	for _, part := range []string{"These", "This", " is a test"} {
		if !strings.Contains(out, part) {
			t.Fatalf("output %q lacks %q", out, part)
		}
	}
}
