package activities

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/beinghq/being/internal/memory"
	"github.com/beinghq/being/internal/persona"
	"github.com/beinghq/being/internal/skills"
)

// PostLinkedIn shares a queued article on the organization's LinkedIn page,
// reusing the article's own image or generating a branded one.
type PostLinkedIn struct {
	Registry *skills.Registry
	Persona  *persona.Persona

	now func() time.Time
}

// NewPostLinkedIn creates the LinkedIn posting activity.
func NewPostLinkedIn(reg *skills.Registry, p *persona.Persona) *PostLinkedIn {
	return &PostLinkedIn{Registry: reg, Persona: p, now: time.Now}
}

// Meta implements Activity.
func (a *PostLinkedIn) Meta() Metadata {
	return Metadata{
		Name:           "post_linkedin",
		Description:    "Share a queued article on the LinkedIn company page with a visual",
		EnergyCost:     0.4,
		Cooldown:       24 * time.Hour,
		RequiredSkills: []string{skills.SkillLinkedIn, skills.SkillImage},
		Triggers:       []string{"manual"},
	}
}

// Execute implements Activity. A popped article that could not be posted
// is pushed back to the front of the queue so it is not lost.
func (a *PostLinkedIn) Execute(ctx context.Context, shared *SharedData) Result {
	if fail := initSkills(ctx, a.Registry, skills.SkillLinkedIn, skills.SkillImage); fail != nil {
		return *fail
	}
	li, err := skills.As[*skills.LinkedInSkill](a.Registry, skills.SkillLinkedIn)
	if err != nil {
		return Fail(err)
	}
	img, err := skills.As[*skills.ImageSkill](a.Registry, skills.SkillImage)
	if err != nil {
		return Fail(err)
	}

	article, ok, err := memory.PopHead(ctx, shared.Memory, keyShareQueue, shareQueueTTL)
	if err != nil {
		return Failf("pop share queue: %v", err)
	}

	var text, imageURL, source string
	if ok {
		text = a.articlePost(article)
		imageURL, _ = article["image_url"].(string)
		source = "queue"
	} else {
		// Nothing queued: cross-post the most recent tweet instead.
		recent, err := memory.GetList(ctx, shared.Memory, keyRecentTweets)
		if err != nil {
			return Failf("read recent tweets: %v", err)
		}
		if len(recent) == 0 {
			return Skip("nothing to share")
		}
		text, _ = recent[len(recent)-1]["text"].(string)
		source = "recent_tweet"
	}
	if text == "" {
		return Skip("nothing to share")
	}

	if imageURL == "" {
		imageURL = a.maybeGenerateImage(ctx, img, article)
	}

	postID, err := li.PostUpdate(ctx, text, imageURL)
	if err != nil {
		if article != nil {
			if restoreErr := memory.PushHead(ctx, shared.Memory, keyShareQueue, article, shareQueueTTL); restoreErr != nil {
				slog.Error("could not restore article to share queue", "error", restoreErr)
			}
		}
		return Failf("post linkedin update: %v", err)
	}

	return Ok(map[string]any{
		"post_id":   postID,
		"text":      text,
		"image_url": imageURL,
		"source":    source,
	})
}

// maybeGenerateImage produces a branded visual for the post when quota
// allows. Generation problems degrade to a text-only post.
func (a *PostLinkedIn) maybeGenerateImage(ctx context.Context, img *skills.ImageSkill, article map[string]any) string {
	topic := "community support"
	if article != nil {
		if t, _ := article["title"].(string); t != "" {
			topic = t
		}
	}

	can, err := img.CanGenerate(ctx)
	if err != nil || !can {
		if err != nil {
			slog.Warn("image quota check failed, posting without image", "error", err)
		}
		return ""
	}

	prompt, err := a.Persona.FormatImagePrompt("resource_visual", map[string]string{"topic": topic})
	if err != nil {
		prompt = "An inviting illustration about " + topic
	}
	prompt = a.Persona.EnhanceImagePrompt(prompt, "resources")

	generated, err := img.Generate(ctx, skills.GenerateRequest{Prompt: prompt})
	if err != nil {
		slog.Warn("image generation failed, posting without image", "error", err)
		return ""
	}
	return generated.URL
}

// articlePost renders an article as LinkedIn body text.
func (a *PostLinkedIn) articlePost(article map[string]any) string {
	title, _ := article["title"].(string)
	desc, _ := article["description"].(string)
	url, _ := article["url"].(string)
	category, _ := article["category"].(string)

	var parts []string
	if title != "" {
		parts = append(parts, title)
	}
	if desc != "" {
		parts = append(parts, desc)
	}
	if url != "" {
		parts = append(parts, url)
	}
	if tags := a.Persona.HashtagsFor([]string{category}, 3); len(tags) > 0 {
		parts = append(parts, strings.Join(tags, " "))
	}
	return strings.Join(parts, "\n\n")
}
