package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if s.ActiveLanguage != "es" {
		t.Errorf("ActiveLanguage = %q, want es", s.ActiveLanguage)
	}
	if s.Engine.Name != "whisper-server" {
		t.Errorf("Engine.Name = %q, want whisper-server", s.Engine.Name)
	}
}

func TestLoadCorruptFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{{{not yaml"), 0644); err != nil {
		t.Fatal(err)
	}
	s := Load(path)
	if !reflect.DeepEqual(s, Default()) {
		t.Error("corrupt file should yield defaults")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, favorites := range [][]string{
		nil,
		{"en"},
		{"en", "ja", "fr"},
		{"en", "ja", "fr", "de", "it"}, // exactly the cap
	} {
		path := filepath.Join(t.TempDir(), "config.yaml")
		want := Default()
		want.ActiveLanguage = "ja"
		want.Favorites = favorites
		want.Pinned = true
		want.Engine.Model = "whisper-1"

		if err := Save(path, want); err != nil {
			t.Fatalf("Save with %d favorites: %v", len(favorites), err)
		}
		got := Load(path)
		if got.ActiveLanguage != want.ActiveLanguage || got.Pinned != want.Pinned {
			t.Errorf("round trip mismatch: got %+v want %+v", got, want)
		}
		if len(got.Favorites) != len(favorites) {
			t.Errorf("Favorites = %v, want %v", got.Favorites, favorites)
		}
		if got.Engine.Model != "whisper-1" {
			t.Errorf("Engine.Model = %q", got.Engine.Model)
		}
	}
}

func TestSaveRejectsTooManyFavorites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	s := Default()
	s.Favorites = []string{"en", "ja", "fr", "de", "it", "pt"}

	err := Save(path, s)
	if !errors.Is(err, ErrTooManyFavorites) {
		t.Fatalf("err = %v, want ErrTooManyFavorites", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("rejected save must not reach storage")
	}
}

func TestSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	// No temp files may remain next to the config.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "config-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestAddFavorite(t *testing.T) {
	s := Default()
	for _, code := range []string{"en", "ja", "fr", "de", "it"} {
		if err := s.AddFavorite(code); err != nil {
			t.Fatalf("AddFavorite(%s): %v", code, err)
		}
	}
	if err := s.AddFavorite("pt"); !errors.Is(err, ErrTooManyFavorites) {
		t.Errorf("sixth favorite: err = %v, want ErrTooManyFavorites", err)
	}
	if err := s.AddFavorite("en"); err != nil {
		t.Errorf("re-adding existing favorite should be a no-op, got %v", err)
	}
	if err := s.AddFavorite("xx"); err == nil {
		t.Error("unknown language must be rejected")
	}

	s.RemoveFavorite("ja")
	if s.IsFavorite("ja") {
		t.Error("ja should be removed")
	}
	if !s.IsFavorite("en") {
		t.Error("en should remain")
	}
}

func TestNormalizeDropsInvalidEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "active_language: klingon\nfavorites: [en, en, xx, ja]\n"
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}
	s := Load(path)
	if s.ActiveLanguage != "es" {
		t.Errorf("ActiveLanguage = %q, want default es", s.ActiveLanguage)
	}
	if !reflect.DeepEqual(s.Favorites, []string{"en", "ja"}) {
		t.Errorf("Favorites = %v, want [en ja]", s.Favorites)
	}
}
