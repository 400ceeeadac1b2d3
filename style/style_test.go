package style

import (
	"errors"
	"testing"
)

func TestCode(t *testing.T) {
	table := NewTable()
	tests := []struct {
		name string
		want string
	}{
		{"red", "\x035"},
		{"blue", "\x0312"},
		{"grey", "\x0315"},
		{"gray", "\x0315"},
		{"darkgray", "\x0314"},
		{"b", "\x02"},
		{"bold", "\x02"},
		{"u", "\x1f"},
		{"underline", "\x1f"},
		{"reset", "\x0f"},
		{"normal", "\x030"},
		{"RED", "\x035"},
		{"  green ", "\x039"},
		{"5", "\x035"},
		{"12", "\x0312"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Code(tt.name)
			if err != nil {
				t.Fatalf("Code(%q) error: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("Code(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestCodeUnknown(t *testing.T) {
	table := NewTable()
	got, err := table.Code("chartreuse")
	if err == nil {
		t.Fatal("expected error for unknown style")
	}
	var unknown *UnknownStyleError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownStyleError, got %T", err)
	}
	if got != Reset {
		t.Errorf("unknown style code = %q, want reset %q", got, Reset)
	}
}

func TestCodes(t *testing.T) {
	table := NewTable()
	got, err := table.Codes("bold,blue")
	if err != nil {
		t.Fatalf("Codes error: %v", err)
	}
	if got != "\x02\x0312" {
		t.Errorf("Codes(bold,blue) = %q, want %q", got, "\x02\x0312")
	}
	if _, err := table.Codes("bold,nope"); err == nil {
		t.Error("expected error for list containing unknown style")
	}
}

func TestText(t *testing.T) {
	table := NewTable()
	got := table.Text("red", "hello", true, false)
	want := "\x02\x035hello\x0f"
	if got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"color", "\x035red text\x0f", "red text"},
		{"color with background", "\x034,1alert\x0f", "alert"},
		{"bold underline", "\x02\x1fword\x0f", "word"},
		{"plain", "nothing here", "nothing here"},
		{"bare prefix", "\x03word", "word"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.in); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNamesOrdered(t *testing.T) {
	table := NewTable()
	names := table.Names()
	if len(names) != 19 {
		t.Fatalf("Names() returned %d entries, want 19", len(names))
	}
	if names[0] != "normal" && names[0] != "none" {
		t.Errorf("first name = %q, want none/normal", names[0])
	}
	if names[len(names)-1] != "reset" {
		t.Errorf("last name = %q, want reset", names[len(names)-1])
	}
}
