package activities

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/beinghq/being/internal/memory"
	"github.com/beinghq/being/internal/persona"
	"github.com/beinghq/being/internal/skills"
)

const (
	promoteRepostInterval = 7 * 24 * time.Hour
	promoteMaxPerArticle  = 5
)

// PromoteContent picks a recently fetched article worth amplifying, writes
// promotional copy for it, and queues it for sharing. Each article is
// promoted at most a few times with a minimum interval between reposts.
type PromoteContent struct {
	Registry *skills.Registry
	Persona  *persona.Persona

	now func() time.Time
}

// NewPromoteContent creates the content promotion activity.
func NewPromoteContent(reg *skills.Registry, p *persona.Persona) *PromoteContent {
	return &PromoteContent{Registry: reg, Persona: p, now: time.Now}
}

// Meta implements Activity.
func (a *PromoteContent) Meta() Metadata {
	return Metadata{
		Name:           "promote_content",
		Description:    "Re-share a worthwhile article with fresh promotional copy",
		EnergyCost:     0.4,
		Cooldown:       24 * time.Hour,
		RequiredSkills: []string{skills.SkillNews, skills.SkillChat},
		Triggers:       []string{"manual"},
	}
}

// Execute implements Activity.
func (a *PromoteContent) Execute(ctx context.Context, shared *SharedData) Result {
	if fail := initSkills(ctx, a.Registry, skills.SkillNews, skills.SkillChat); fail != nil {
		return *fail
	}
	chat, err := skills.As[*skills.ChatSkill](a.Registry, skills.SkillChat)
	if err != nil {
		return Fail(err)
	}

	candidates, err := a.candidates(ctx, shared)
	if err != nil {
		return Fail(err)
	}
	if len(candidates) == 0 {
		return Skip("no articles available to promote")
	}

	history, err := memory.GetList(ctx, shared.Memory, keyPromoted)
	if err != nil {
		return Failf("read promotion history: %v", err)
	}

	now := a.now().UTC()
	article := a.pick(candidates, history, now)
	if article == nil {
		return Skip("every candidate was promoted recently or too often")
	}

	title, _ := article["title"].(string)
	url, _ := article["url"].(string)
	copyText := a.writeCopy(ctx, chat, title, article)

	queued := map[string]any{
		"type":      "promotion",
		"title":     title,
		"text":      copyText,
		"url":       url,
		"category":  article["category"],
		"image_url": article["image_url"],
		"timestamp": now.Format(time.RFC3339),
	}
	if err := memory.Append(ctx, shared.Memory, keyShareQueue, queued, 0, shareQueueTTL); err != nil {
		return Failf("queue promotion: %v", err)
	}
	if err := a.recordPromotion(ctx, shared, history, url, now); err != nil {
		return Failf("record promotion: %v", err)
	}

	return Ok(map[string]any{
		"title": title,
		"url":   url,
		"text":  copyText,
	})
}

// candidates returns articles eligible for promotion: the recent news list,
// or a fresh search on the persona's first topic when the list is empty.
func (a *PromoteContent) candidates(ctx context.Context, shared *SharedData) ([]map[string]any, error) {
	items, err := memory.GetList(ctx, shared.Memory, keyRecentNews)
	if err != nil {
		return nil, fmt.Errorf("read recent news: %w", err)
	}
	if len(items) > 0 || len(a.Persona.Topics) == 0 {
		return items, nil
	}

	news, err := skills.As[*skills.NewsSkill](a.Registry, skills.SkillNews)
	if err != nil {
		return nil, err
	}
	topic := a.Persona.Topics[0]
	articles, err := news.SearchNews(ctx, topic, 0)
	if err != nil {
		return nil, fmt.Errorf("news search for %q: %w", topic, err)
	}

	out := make([]map[string]any, 0, len(articles))
	for _, art := range articles {
		out = append(out, map[string]any{
			"title":       art.Title,
			"description": art.Description,
			"url":         art.URL,
			"category":    categorySlug(topic),
			"image_url":   art.ImageURL,
		})
	}
	return out, nil
}

// pick returns the first candidate whose promotion history allows another
// repost, or nil when none qualifies.
func (a *PromoteContent) pick(candidates, history []map[string]any, now time.Time) map[string]any {
	for _, article := range candidates {
		url, _ := article["url"].(string)
		if url == "" {
			continue
		}
		if a.eligible(history, url, now) {
			return article
		}
	}
	return nil
}

func (a *PromoteContent) eligible(history []map[string]any, url string, now time.Time) bool {
	for _, rec := range history {
		recURL, _ := rec["url"].(string)
		if recURL != url {
			continue
		}
		count, _ := rec["count"].(float64) // JSON numbers decode as float64
		if int(count) >= promoteMaxPerArticle {
			return false
		}
		last, _ := rec["last_promoted"].(string)
		if t, err := time.Parse(time.RFC3339, last); err == nil {
			if now.Sub(t) < promoteRepostInterval {
				return false
			}
		}
		return true
	}
	return true
}

// writeCopy asks the chat model for short promotional copy, falling back to
// the bare title when the model is unavailable.
func (a *PromoteContent) writeCopy(ctx context.Context, chat *skills.ChatSkill, title string, article map[string]any) string {
	desc, _ := article["description"].(string)
	prompt := fmt.Sprintf(
		"Write one warm, encouraging sentence (under 200 characters) inviting caregivers to read this article. No hashtags, no quotes.\nTitle: %s\nSummary: %s",
		title, desc)

	text, err := chat.Complete(ctx, prompt)
	if err != nil || text == "" {
		if err != nil {
			slog.Warn("promotional copy generation failed, using title", "error", err)
		}
		return title
	}
	return text
}

// recordPromotion upserts the article's entry in the promotion history. The
// history has no expiry: repost limits must survive any retention window.
func (a *PromoteContent) recordPromotion(ctx context.Context, shared *SharedData, history []map[string]any, url string, now time.Time) error {
	updated := false
	for _, rec := range history {
		if recURL, _ := rec["url"].(string); recURL == url {
			count, _ := rec["count"].(float64)
			rec["count"] = count + 1
			rec["last_promoted"] = now.Format(time.RFC3339)
			updated = true
			break
		}
	}
	if !updated {
		history = append(history, map[string]any{
			"url":           url,
			"count":         float64(1),
			"last_promoted": now.Format(time.RFC3339),
		})
	}
	return shared.Memory.Set(ctx, keyPromoted, history, 0)
}
