package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.conf"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestOpenMissingFile(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "nope.conf"))
	if err != nil {
		t.Fatalf("Open on missing file: %v", err)
	}
	if got := s.Get("anything"); got != "" {
		t.Errorf("Get on empty store = %q", got)
	}
}

func TestSetGetRoundtrip(t *testing.T) {
	s := tempStore(t)
	if err := s.Set("redirect_msgs", "true"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("style_link", "underline,blue"); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if got := reopened.Get("redirect_msgs"); got != "true" {
		t.Errorf("redirect_msgs = %q, want true", got)
	}
	if got := reopened.Get("style_link"); got != "underline,blue" {
		t.Errorf("style_link = %q", got)
	}
}

func TestFileFormat(t *testing.T) {
	s := tempStore(t)
	if err := s.Set("bkey", "bval"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("akey", "aval"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	want := "akey = aval\nbkey = bval\n"
	if string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}
}

func TestLoadSkipsCommentsAndBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.conf")
	content := "# a comment\n\nvalid = yes\nno equals here\ntwo = equals = here\n  spaced  =  value  \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Get("valid"); got != "yes" {
		t.Errorf("valid = %q, want yes", got)
	}
	if got := s.Get("spaced"); got != "value" {
		t.Errorf("spaced = %q, want value", got)
	}
	if got := s.Get("two"); got != "" {
		t.Errorf("line with two '=' should be skipped, got %q", got)
	}
	if got := s.Get("no equals here"); got != "" {
		t.Errorf("line without '=' should be skipped, got %q", got)
	}
}

func TestSetEmptyDeletes(t *testing.T) {
	s := tempStore(t)
	if err := s.Set("key", "val"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("key", ""); err != nil {
		t.Fatal(err)
	}
	reopened, err := Open(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if got := reopened.Get("key"); got != "" {
		t.Errorf("key survived empty set: %q", got)
	}
}

func TestGetBool(t *testing.T) {
	s := tempStore(t)
	tests := []struct {
		val  string
		want bool
	}{
		{"on", true}, {"true", true}, {"yes", true}, {"1", true}, {"+", true},
		{"off", false}, {"false", false}, {"no", false}, {"0", false}, {"-", false},
	}
	for _, tt := range tests {
		t.Run(tt.val, func(t *testing.T) {
			if err := s.Set("flag", tt.val); err != nil {
				t.Fatal(err)
			}
			if got := s.GetBool("flag", !tt.want); got != tt.want {
				t.Errorf("GetBool(%q) = %v, want %v", tt.val, got, tt.want)
			}
		})
	}
	if got := s.GetBool("unset", true); !got {
		t.Error("GetBool fallback not used for unset key")
	}
}

func TestListRoundtrip(t *testing.T) {
	s := tempStore(t)
	patterns := []string{"urgent", "foo.*bar", "release v\\d+"}
	if err := s.SetList("msg_catchers", patterns); err != nil {
		t.Fatal(err)
	}
	reopened, err := Open(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	got := reopened.GetList("msg_catchers")
	if len(got) != len(patterns) {
		t.Fatalf("GetList = %v, want %v", got, patterns)
	}
	for i := range patterns {
		if got[i] != patterns[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i], patterns[i])
		}
	}
}

func TestCommaListRoundtrip(t *testing.T) {
	s := tempStore(t)
	if err := s.SetCommaList("ignored_nicks", []string{"^spam.*", "troll99"}); err != nil {
		t.Fatal(err)
	}
	got := s.GetCommaList("ignored_nicks")
	if len(got) != 2 || got[0] != "^spam.*" || got[1] != "troll99" {
		t.Errorf("GetCommaList = %v", got)
	}
}

func TestEmptyListRemovesSetting(t *testing.T) {
	s := tempStore(t)
	if err := s.SetList("msg_catchers", []string{"one"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetList("msg_catchers", nil); err != nil {
		t.Fatal(err)
	}
	if got := s.Get("msg_catchers"); got != "" {
		t.Errorf("empty list left setting %q", got)
	}
}

func TestHighlightStoreRoundtrip(t *testing.T) {
	store := NewHighlightStore(filepath.Join(t.TempDir(), "hl.bin"))
	records := []HighlightRecord{
		{Pattern: "foo.*bar", Style: "red", Template: "<{}>"},
		{Pattern: "issue-(\\d+)", Style: "bold,blue", Template: "tracker/{}"},
	}
	if err := store.Save(records); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != records[0] || got[1] != records[1] {
		t.Errorf("Load = %v, want %v", got, records)
	}
}

func TestHighlightStoreAbsentOrEmpty(t *testing.T) {
	dir := t.TempDir()
	absent := NewHighlightStore(filepath.Join(dir, "absent.bin"))
	if got, err := absent.Load(); err != nil || got != nil {
		t.Errorf("absent: Load = %v, %v", got, err)
	}

	emptyPath := filepath.Join(dir, "empty.bin")
	if err := os.WriteFile(emptyPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	empty := NewHighlightStore(emptyPath)
	if got, err := empty.Load(); err != nil || got != nil {
		t.Errorf("empty: Load = %v, %v", got, err)
	}
}
