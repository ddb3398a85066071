package catalog

import (
	"strings"
	"testing"
	"testing/fstest"
)

func catalogFS(files map[string]string) fstest.MapFS {
	fs := fstest.MapFS{}
	for path, content := range files {
		fs[path] = &fstest.MapFile{Data: []byte(content)}
	}
	return fs
}

func TestLoadFromFS(t *testing.T) {
	bundle, err := LoadFromFS(catalogFS(map[string]string{
		"locales/en-US/errors.yaml": "locale: en-US\nnamespace: errors\nmessages:\n  A: \"alpha\"",
		"locales/pt-BR/errors.yaml": "locale: pt-BR\nnamespace: errors\nmessages:\n  A: \"alfa\"",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := bundle.Locales(); len(got) != 2 || got[0] != "en-US" || got[1] != "pt-BR" {
		t.Fatalf("unexpected locales %v", got)
	}
	if !bundle.HasLocale("pt-BR") || bundle.HasLocale("fr-FR") {
		t.Fatal("unexpected locale presence")
	}
	if got := bundle.LocaleMessages("pt-BR")["A"]; got != "alfa" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestLoadFromFSValidation(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			"no files",
			map[string]string{},
			"no catalog files",
		},
		{
			"locale path mismatch",
			map[string]string{
				"locales/en-US/errors.yaml": "locale: pt-BR\nnamespace: errors\nmessages: {A: a}",
			},
			"must match path locale",
		},
		{
			"missing namespace",
			map[string]string{
				"locales/en-US/errors.yaml": "locale: en-US\nmessages: {A: a}",
			},
			"namespace is required",
		},
		{
			"missing base locale",
			map[string]string{
				"locales/pt-BR/errors.yaml": "locale: pt-BR\nnamespace: errors\nmessages: {A: a}",
			},
			"base locale",
		},
		{
			"duplicate key across namespaces",
			map[string]string{
				"locales/en-US/errors.yaml": "locale: en-US\nnamespace: errors\nmessages: {A: a}",
				"locales/en-US/ui.yaml":     "locale: en-US\nnamespace: ui\nmessages: {A: a}",
			},
			"duplicate key",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFS(catalogFS(tt.files))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMatchLocale(t *testing.T) {
	bundle := Default()
	tests := []struct {
		requested string
		want      string
	}{
		{"en-US", "en-US"},
		{"pt-BR", "pt-BR"},
		{"pt", "pt-BR"},
		{"en-GB", "en-US"},
		{"zz-ZZ", "en-US"},
		{"not a tag", "en-US"},
		{"", "en-US"},
	}
	for _, tt := range tests {
		if got := bundle.MatchLocale(tt.requested); got != tt.want {
			t.Errorf("MatchLocale(%q): expected %q, got %q", tt.requested, tt.want, got)
		}
	}
}

func TestRegisterPublishesMessages(t *testing.T) {
	if err := Default().Register(); err != nil {
		t.Fatalf("register default bundle: %v", err)
	}

	bad, err := LoadFromFS(catalogFS(map[string]string{
		"locales/en-US/errors.yaml":     "locale: en-US\nnamespace: errors\nmessages: {A: a}",
		"locales/not a tag/errors.yaml": "locale: not a tag\nnamespace: errors\nmessages: {B: b}",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := bad.Register(); err == nil {
		t.Fatal("expected an unparseable locale tag to fail registration")
	}
}

func TestNamespaceMessagesWithFallback(t *testing.T) {
	bundle := Default()

	locale, messages := bundle.NamespaceMessagesWithFallback("pt-BR", "errors")
	if locale != "pt-BR" || len(messages) == 0 {
		t.Fatalf("expected pt-BR errors namespace, got %q with %d messages", locale, len(messages))
	}

	locale, messages = bundle.NamespaceMessagesWithFallback("fr-FR", "errors")
	if locale != "en-US" || len(messages) == 0 {
		t.Fatalf("expected en-US fallback, got %q with %d messages", locale, len(messages))
	}

	_, missing := bundle.NamespaceMessagesWithFallback("en-US", "no-such-namespace")
	if len(missing) != 0 {
		t.Fatalf("expected empty map for unknown namespace, got %v", missing)
	}
}
