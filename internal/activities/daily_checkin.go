package activities

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/beinghq/being/internal/memory"
	"github.com/beinghq/being/internal/persona"
	"github.com/beinghq/being/internal/skills"
)

const checkinDraftTTL = 48 * time.Hour

// DailyCheckin drafts one supportive check-in message per day and queues it
// for sharing, optionally with a branded visual.
type DailyCheckin struct {
	Registry *skills.Registry
	Persona  *persona.Persona

	now func() time.Time
}

// NewDailyCheckin creates the daily check-in activity.
func NewDailyCheckin(reg *skills.Registry, p *persona.Persona) *DailyCheckin {
	return &DailyCheckin{Registry: reg, Persona: p, now: time.Now}
}

// Meta implements Activity. The cooldown is short on purpose: the one-per-day
// guarantee comes from the dated memory key, so a failed run can retry soon.
func (a *DailyCheckin) Meta() Metadata {
	return Metadata{
		Name:           "daily_checkin",
		Description:    "Draft the day's check-in message for the community",
		EnergyCost:     0.7,
		Cooldown:       30 * time.Minute,
		RequiredSkills: []string{skills.SkillChat, skills.SkillImage},
		Triggers:       []string{"manual"},
	}
}

// Execute implements Activity.
func (a *DailyCheckin) Execute(ctx context.Context, shared *SharedData) Result {
	if fail := initSkills(ctx, a.Registry, skills.SkillChat, skills.SkillImage); fail != nil {
		return *fail
	}
	chat, err := skills.As[*skills.ChatSkill](a.Registry, skills.SkillChat)
	if err != nil {
		return Fail(err)
	}
	img, err := skills.As[*skills.ImageSkill](a.Registry, skills.SkillImage)
	if err != nil {
		return Fail(err)
	}

	now := a.now().UTC()
	dateKey := "daily_checkin:" + now.Format("2006-01-02")

	var existing map[string]any
	found, err := shared.Memory.Get(ctx, dateKey, &existing)
	if err != nil {
		return Failf("check today's draft: %v", err)
	}
	if found {
		return Skip("check-in already drafted today")
	}

	text, err := a.draft(ctx, chat)
	if err != nil {
		return Failf("draft check-in: %v", err)
	}

	imageURL := a.maybeGenerateImage(ctx, img)

	record := map[string]any{
		"type":      "checkin",
		"text":      text,
		"image_url": imageURL,
		"timestamp": now.Format(time.RFC3339),
	}
	if err := shared.Memory.Set(ctx, dateKey, record, checkinDraftTTL); err != nil {
		return Failf("store check-in draft: %v", err)
	}
	if err := memory.Append(ctx, shared.Memory, keyShareQueue, record, 0, shareQueueTTL); err != nil {
		return Failf("queue check-in: %v", err)
	}

	return Ok(map[string]any{
		"text":      text,
		"image_url": imageURL,
		"date":      now.Format("2006-01-02"),
	})
}

// draft asks the chat model for the day's message in the persona's voice.
func (a *DailyCheckin) draft(ctx context.Context, chat *skills.ChatSkill) (string, error) {
	tags := a.Persona.HashtagsFor([]string{"emotional_support", "community"}, 2)

	prompt := fmt.Sprintf(
		"You are %s, feeling %s. Write a short check-in message (under 240 characters) for family caregivers: "+
			"acknowledge how hard the work is and offer one gentle encouragement. "+
			"Plain text, no quotes, no hashtags.",
		a.Persona.Name, a.Persona.Mood)

	text, err := chat.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("model returned an empty draft")
	}
	if len(tags) > 0 {
		text = text + "\n" + strings.Join(tags, " ")
	}
	return skills.TruncateTweet(text), nil
}

func (a *DailyCheckin) maybeGenerateImage(ctx context.Context, img *skills.ImageSkill) string {
	can, err := img.CanGenerate(ctx)
	if err != nil || !can {
		if err != nil {
			slog.Warn("image quota check failed, drafting without image", "error", err)
		}
		return ""
	}

	prompt := a.Persona.EnhanceImagePrompt("a comforting daily check-in scene for caregivers", "checkin")
	generated, err := img.Generate(ctx, skills.GenerateRequest{Prompt: prompt})
	if err != nil {
		slog.Warn("image generation failed, drafting without image", "error", err)
		return ""
	}
	return generated.URL
}
