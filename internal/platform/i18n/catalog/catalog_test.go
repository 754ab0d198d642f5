package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedHasExpectedLocales(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	if !bundle.HasLocale(BaseLocale) || !bundle.HasLocale("pt-BR") {
		t.Fatalf("locales = %v, want en-US and pt-BR", bundle.Locales())
	}
	locale, messages := bundle.NamespaceMessages("en-US", "errors")
	if locale != BaseLocale || len(messages) == 0 {
		t.Fatalf("errors namespace = %q (%d), want en-US messages", locale, len(messages))
	}
}

func TestEmbeddedLocalesDefineSameKeys(t *testing.T) {
	bundle := Default()
	for _, ns := range []string{"errors", "web"} {
		_, base := bundle.NamespaceMessages(BaseLocale, ns)
		_, pt := bundle.NamespaceMessages("pt-BR", ns)
		for key := range base {
			if _, ok := pt[key]; !ok {
				t.Fatalf("pt-BR %s missing %q", ns, key)
			}
		}
	}
}

func TestLoadFromFSRejectsDuplicateKeysAcrossNamespaces(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/core.toml"), "locale = \"en-US\"\nnamespace = \"core\"\n[messages]\n\"a.key\" = \"a\"\n")
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/web.toml"), "locale = \"en-US\"\nnamespace = \"web\"\n[messages]\n\"a.key\" = \"b\"\n")

	if _, err := LoadFromFS(os.DirFS(tempDir)); err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestLoadFromFSRejectsMismatchedHeaders(t *testing.T) {
	tests := map[string]string{
		"locale":    "locale = \"pt-BR\"\nnamespace = \"web\"\n[messages]\n\"k\" = \"v\"\n",
		"namespace": "locale = \"en-US\"\nnamespace = \"core\"\n[messages]\n\"k\" = \"v\"\n",
		"empty":     "locale = \"en-US\"\nnamespace = \"web\"\n",
		"syntax":    "locale = en-US\n",
	}
	for name, body := range tests {
		tempDir := t.TempDir()
		mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/web.toml"), body)
		if _, err := LoadFromFS(os.DirFS(tempDir)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadFromFSRequiresBaseLocale(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/pt-BR/web.toml"), "locale = \"pt-BR\"\nnamespace = \"web\"\n[messages]\n\"k\" = \"v\"\n")
	if _, err := LoadFromFS(os.DirFS(tempDir)); err == nil {
		t.Fatal("expected missing base locale error")
	}
}

func TestMessageFallsBackToBaseLocale(t *testing.T) {
	bundle := Default()
	got, ok := bundle.Message("fr-FR", "web.overlay.featured")
	if !ok || got != "Featured" {
		t.Fatalf("message = %q, %v, want Featured", got, ok)
	}
	got, ok = bundle.Message("pt-BR", "web.overlay.featured")
	if !ok || got != "Destaque" {
		t.Fatalf("message = %q, %v, want Destaque", got, ok)
	}
	if _, ok := bundle.Message("en-US", "missing.key"); ok {
		t.Fatal("expected missing key")
	}
}

func TestPrinterMatchesAcceptLanguage(t *testing.T) {
	bundle := Default()
	tests := []struct {
		accept string
		want   string
	}{
		{accept: "pt-BR,pt;q=0.9", want: "Nível 3"},
		{accept: "fr-FR", want: "Level 3"},
		{accept: "", want: "Level 3"},
	}
	for _, tc := range tests {
		p := bundle.Printer(tc.accept)
		if got := p.Sprintf("web.character.level", 3); got != tc.want {
			t.Fatalf("Printer(%q) = %q, want %q", tc.accept, got, tc.want)
		}
	}
}

func mustWriteFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}
