//go:build !integration

package i18n

import (
	"testing"
	"testing/fstest"
)

func TestTranslator(t *testing.T) {
	translator, err := newTranslatorFromBytes([]byte("greeting: Bonjour\ndays_left: \"%d jours restants\""))
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		if got := translator.T("greeting"); got != "Bonjour" {
			t.Errorf("wanted 'Bonjour', got '%s'", got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got := translator.T("nonexistent_key"); got != "nonexistent_key" {
			t.Errorf("wanted 'nonexistent_key', got '%s'", got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got := translator.T("days_left", 16); got != "16 jours restants" {
			t.Errorf("wanted '16 jours restants', got '%s'", got)
		}
	})
}

func TestNewTranslator(t *testing.T) {
	t.Run("should load from any fs", func(t *testing.T) {
		fsys := fstest.MapFS{"locales/en.yaml": {Data: []byte("access_free: Free")}}
		tr, err := NewTranslator(fsys, "en")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tr.T("access_free") != "Free" || tr.Lang() != "en" {
			t.Errorf("unexpected translator state: %q %q", tr.T("access_free"), tr.Lang())
		}
	})

	t.Run("embedded locales carry the same keys", func(t *testing.T) {
		en, err := NewTranslator(LocalesFS, "en")
		if err != nil {
			t.Fatalf("load en: %v", err)
		}
		fr, err := NewTranslator(LocalesFS, "fr")
		if err != nil {
			t.Fatalf("load fr: %v", err)
		}
		for key := range en.translations {
			if _, ok := fr.translations[key]; !ok {
				t.Errorf("fr locale is missing %q", key)
			}
		}
	})

	t.Run("missing locale is an error", func(t *testing.T) {
		if _, err := NewTranslator(LocalesFS, "xx"); err == nil {
			t.Fatal("expected an error for an unknown locale")
		}
	})
}
