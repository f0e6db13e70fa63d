package activities

import (
	"context"
	"fmt"
	"time"

	"github.com/beinghq/being/internal/persona"
	"github.com/beinghq/being/internal/skills"
)

// Draw generates a free-form artwork whose prompt reflects the persona's
// current mood and creativity.
type Draw struct {
	Registry *skills.Registry
	Persona  *persona.Persona

	now func() time.Time
}

// NewDraw creates the drawing activity.
func NewDraw(reg *skills.Registry, p *persona.Persona) *Draw {
	return &Draw{Registry: reg, Persona: p, now: time.Now}
}

// Meta implements Activity.
func (a *Draw) Meta() Metadata {
	return Metadata{
		Name:           "draw",
		Description:    "Generate an artwork expressing the persona's current mood",
		EnergyCost:     0.6,
		Cooldown:       1 * time.Hour,
		RequiredSkills: []string{skills.SkillImage},
		Triggers:       []string{"manual"},
	}
}

// Execute implements Activity.
func (a *Draw) Execute(ctx context.Context, shared *SharedData) Result {
	if fail := initSkills(ctx, a.Registry, skills.SkillImage); fail != nil {
		return *fail
	}
	img, err := skills.As[*skills.ImageSkill](a.Registry, skills.SkillImage)
	if err != nil {
		return Fail(err)
	}

	can, err := img.CanGenerate(ctx)
	if err != nil {
		return Failf("check image quota: %v", err)
	}
	if !can {
		return Skip("image generation quota exhausted for today")
	}

	prompt := a.buildPrompt(shared)
	generated, err := img.Generate(ctx, skills.GenerateRequest{Prompt: prompt})
	if err != nil {
		return Failf("generate drawing: %v", err)
	}

	record := map[string]any{
		"prompt":    prompt,
		"url":       generated.URL,
		"mood":      a.Persona.Mood,
		"timestamp": a.now().UTC().Format(time.RFC3339),
	}
	if err := shared.Memory.Set(ctx, "drawing_"+generated.GenerationID, record, 0); err != nil {
		return Failf("store drawing: %v", err)
	}

	return Ok(map[string]any{
		"generation_id": generated.GenerationID,
		"url":           generated.URL,
		"prompt":        prompt,
	})
}

// buildPrompt derives the drawing subject from the trigger context when one
// is supplied, otherwise from the persona's mood and creativity.
func (a *Draw) buildPrompt(shared *SharedData) string {
	if subject, _ := shared.TriggerContext["subject"].(string); subject != "" {
		return a.Persona.EnhanceImagePrompt(subject, "artwork")
	}

	style := "a simple, gentle scene"
	if a.Persona.Trait("creativity") > 0.7 {
		style = "an imaginative, abstract scene"
	}
	prompt := fmt.Sprintf("%s reflecting a %s mood", style, a.Persona.Mood)
	return a.Persona.EnhanceImagePrompt(prompt, "artwork")
}
