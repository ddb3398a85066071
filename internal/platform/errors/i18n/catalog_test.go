package i18n

import "testing"

func TestFormatTemplatesMetadata(t *testing.T) {
	cat := GetCatalog("en-US")
	if cat.Locale() != "en-US" {
		t.Fatalf("expected en-US catalog, got %q", cat.Locale())
	}

	got := cat.Format(CodeMissionDuplicateID, map[string]string{"MissionID": "coral-nursery"})
	if got != "Mission coral-nursery is already registered" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestFormatWithoutMetadata(t *testing.T) {
	cat := GetCatalog("en-US")

	// Templates render even with nil metadata, leaving variables empty.
	got := cat.Format(CodeMissionDuplicateID, nil)
	if got != "Mission  is already registered" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestFormatUnknownCodeReturnsCode(t *testing.T) {
	cat := GetCatalog("en-US")
	if got := cat.Format("NO_SUCH_CODE", nil); got != "NO_SUCH_CODE" {
		t.Errorf("expected the raw code, got %q", got)
	}
}

func TestGetCatalogFallsBack(t *testing.T) {
	tests := []struct {
		requested string
		want      string
	}{
		{"en-US", "en-US"},
		{"pt-BR", "pt-BR"},
		{"fr-FR", "en-US"},
		{"", "en-US"},
	}
	for _, tt := range tests {
		if got := GetCatalog(tt.requested).Locale(); got != tt.want {
			t.Errorf("GetCatalog(%q): expected %q, got %q", tt.requested, tt.want, got)
		}
	}
}

func TestGetCatalogTranslates(t *testing.T) {
	cat := GetCatalog("pt-BR")
	got := cat.Format(CodeMissionNotActive, nil)
	if got != "Nenhuma missão está ativa no momento" {
		t.Errorf("unexpected pt-BR message %q", got)
	}
}

func TestRegisterCatalogOverrides(t *testing.T) {
	RegisterCatalog("x-test", NewCatalog("x-test", map[Code]string{
		CodeNotFound: "gone: {{.ID}}",
	}))

	cat := GetCatalog("x-test")
	if got := cat.Format(CodeNotFound, map[string]string{"ID": "a1"}); got != "gone: a1" {
		t.Errorf("unexpected override message %q", got)
	}
}
