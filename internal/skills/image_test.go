package skills

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/beinghq/being/internal/apikeys"
	"github.com/beinghq/being/internal/config"
	"github.com/beinghq/being/internal/memory"
)

func newImageTestStore(t *testing.T) memory.Store {
	t.Helper()
	store, err := memory.OpenSQL(filepath.Join(t.TempDir(), "memory.db"), 0)
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestImageSkillQuota(t *testing.T) {
	ctx := context.Background()
	store := newImageTestStore(t)
	keys := apikeys.NewManager("")

	img := NewImageSkill(config.ImageConfig{Enabled: true, MaxPerDay: 2}, keys, store)

	can, err := img.CanGenerate(ctx)
	if err != nil {
		t.Fatalf("CanGenerate: %v", err)
	}
	if !can {
		t.Fatal("fresh day must allow generation")
	}

	for i := 0; i < 2; i++ {
		if err := img.incrementQuota(ctx); err != nil {
			t.Fatalf("incrementQuota: %v", err)
		}
	}

	used, err := img.UsedToday(ctx)
	if err != nil {
		t.Fatalf("UsedToday: %v", err)
	}
	if used != 2 {
		t.Errorf("used: got %d, want 2", used)
	}

	can, err = img.CanGenerate(ctx)
	if err != nil {
		t.Fatalf("CanGenerate: %v", err)
	}
	if can {
		t.Error("quota exhausted, generation must be refused")
	}
}

func TestImageSkillQuotaResetsDaily(t *testing.T) {
	ctx := context.Background()
	store := newImageTestStore(t)
	keys := apikeys.NewManager("")

	img := NewImageSkill(config.ImageConfig{Enabled: true, MaxPerDay: 1}, keys, store)

	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	img.now = func() time.Time { return base }

	if err := img.incrementQuota(ctx); err != nil {
		t.Fatalf("incrementQuota: %v", err)
	}
	if can, _ := img.CanGenerate(ctx); can {
		t.Fatal("today's quota must be exhausted")
	}

	// Next day the counter lives under a new key.
	img.now = func() time.Time { return base.Add(24 * time.Hour) }
	if can, _ := img.CanGenerate(ctx); !can {
		t.Error("new day must reset the quota")
	}
}

func TestImageSkillDisabled(t *testing.T) {
	ctx := context.Background()
	store := newImageTestStore(t)
	keys := apikeys.NewManager("")

	img := NewImageSkill(config.ImageConfig{Enabled: false}, keys, store)

	if can, _ := img.CanGenerate(ctx); can {
		t.Error("disabled skill must refuse generation")
	}
	if err := img.Initialize(ctx); err == nil {
		t.Error("initializing a disabled skill must fail")
	}
}

func TestImageSkillUnsupportedFormat(t *testing.T) {
	ctx := context.Background()
	store := newImageTestStore(t)
	keys := apikeys.NewManager("")

	t.Setenv("OPENAI_API_KEY", "test-key")

	img := NewImageSkill(config.ImageConfig{
		Enabled:          true,
		SupportedFormats: []string{"png", "jpg"},
	}, keys, store)
	if err := img.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	_, err := img.Generate(ctx, GenerateRequest{Prompt: "a scene", Format: "webp"})
	if err == nil {
		t.Fatal("expected unsupported format error")
	}
}
