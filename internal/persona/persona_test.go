package persona

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name != "being" {
		t.Errorf("name: got %s, want default", p.Name)
	}
	if len(p.Topics) == 0 {
		t.Error("default persona must carry topics")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	content := `
name: nova
mood: happy
traits:
  creativity: 0.9
topics:
  - renewable energy
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write persona: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name != "nova" || p.Mood != "happy" {
		t.Errorf("got %s/%s, want nova/happy", p.Name, p.Mood)
	}
	if p.Trait("creativity") != 0.9 {
		t.Errorf("creativity: got %v", p.Trait("creativity"))
	}
	if len(p.Topics) != 1 || p.Topics[0] != "renewable energy" {
		t.Errorf("topics: got %v", p.Topics)
	}
	// Unset sections keep their defaults.
	if p.Image.BaseStyle == "" {
		t.Error("image branding defaults must survive a partial file")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0o644); err != nil {
		t.Fatalf("write persona: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestTraitUnsetIsZero(t *testing.T) {
	p := DefaultPersona()
	if p.Trait("unknown") != 0 {
		t.Error("unset trait must be 0")
	}
}

func TestStyleFor(t *testing.T) {
	p := DefaultPersona()
	if got := p.StyleFor("resources"); !strings.Contains(got, "infographic") {
		t.Errorf("resources style: got %q", got)
	}
	if got := p.StyleFor("unknown"); got != p.Image.BaseStyle {
		t.Errorf("unknown type must fall back to base style, got %q", got)
	}
}

func TestEnhanceImagePrompt(t *testing.T) {
	p := DefaultPersona()
	got := p.EnhanceImagePrompt("a garden", "unknown")
	if !strings.HasPrefix(got, "a garden, ") {
		t.Errorf("prompt must lead: %q", got)
	}
	if !strings.Contains(got, p.Image.BaseStyle) {
		t.Errorf("base style missing: %q", got)
	}
	if !strings.Contains(got, "lighting: ") {
		t.Errorf("lighting missing: %q", got)
	}
}

func TestFormatImagePrompt(t *testing.T) {
	p := DefaultPersona()
	got, err := p.FormatImagePrompt("resource_visual", map[string]string{"topic": "respite care"})
	if err != nil {
		t.Fatalf("FormatImagePrompt: %v", err)
	}
	if !strings.Contains(got, "respite care") {
		t.Errorf("placeholder not expanded: %q", got)
	}

	if _, err := p.FormatImagePrompt("nope", nil); err == nil {
		t.Error("unknown template must error")
	}
}

func TestHashtagsFor(t *testing.T) {
	p := DefaultPersona()

	tags := p.HashtagsFor([]string{"self_care", "community", "self_care"}, 5)
	if len(tags) != 2 {
		t.Fatalf("tags: got %v, want 2 unique", tags)
	}
	// Stable order.
	if tags[0] > tags[1] {
		t.Errorf("tags not sorted: %v", tags)
	}

	capped := p.HashtagsFor([]string{"self_care", "community", "technology"}, 2)
	if len(capped) != 2 {
		t.Errorf("cap not applied: %v", capped)
	}

	fallback := p.HashtagsFor([]string{"no_such_category"}, 3)
	if len(fallback) != 1 || fallback[0] != p.Hashtags["emotional_support"] {
		t.Errorf("fallback: got %v", fallback)
	}
}
