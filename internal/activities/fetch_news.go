package activities

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/beinghq/being/internal/memory"
	"github.com/beinghq/being/internal/persona"
	"github.com/beinghq/being/internal/skills"
)

const minRelevance = 0.7

// FetchNews searches news on the persona's topics, scores each article for
// relevance with the chat model, and queues the relevant ones for the
// posting activities.
type FetchNews struct {
	Registry *skills.Registry
	Persona  *persona.Persona

	now func() time.Time
}

// NewFetchNews creates the news fetching activity.
func NewFetchNews(reg *skills.Registry, p *persona.Persona) *FetchNews {
	return &FetchNews{Registry: reg, Persona: p, now: time.Now}
}

// Meta implements Activity.
func (a *FetchNews) Meta() Metadata {
	return Metadata{
		Name:           "fetch_news",
		Description:    "Search news on the persona's topics and queue relevant articles for sharing",
		EnergyCost:     0.5,
		Cooldown:       8 * time.Hour,
		RequiredSkills: []string{skills.SkillNews, skills.SkillChat},
		Triggers:       []string{"topic"},
	}
}

// Execute implements Activity. A "topic" trigger narrows the search to the
// supplied topic instead of the persona defaults.
func (a *FetchNews) Execute(ctx context.Context, shared *SharedData) Result {
	if fail := initSkills(ctx, a.Registry, skills.SkillNews, skills.SkillChat); fail != nil {
		return *fail
	}
	news, err := skills.As[*skills.NewsSkill](a.Registry, skills.SkillNews)
	if err != nil {
		return Fail(err)
	}
	chat, err := skills.As[*skills.ChatSkill](a.Registry, skills.SkillChat)
	if err != nil {
		return Fail(err)
	}

	topics := a.Persona.Topics
	if shared.TriggerType == "topic" {
		if t, _ := shared.TriggerContext["topic"].(string); t != "" {
			topics = []string{t}
		}
	}
	if len(topics) == 0 {
		return Skip("no topics configured")
	}

	now := a.now().UTC()
	var fetched, queued int

	for _, topic := range topics {
		articles, err := news.SearchNews(ctx, topic, 0)
		if err != nil {
			return Failf("news search for %q: %v", topic, err)
		}
		if len(articles) == 0 {
			continue
		}
		fetched += len(articles)

		relevant := a.filterRelevant(ctx, chat, topic, articles)
		if len(relevant) == 0 {
			continue
		}

		category := categorySlug(topic)
		records := make([]map[string]any, 0, len(relevant))
		for _, art := range relevant {
			records = append(records, map[string]any{
				"type":        "news",
				"category":    category,
				"title":       art.Title,
				"description": art.Description,
				"url":         art.URL,
				"source":      art.Source,
				"image_url":   art.ImageURL,
				"timestamp":   now.Format(time.RFC3339),
			})
		}

		if err := shared.Memory.Set(ctx, "news_"+category, records, recentNewsTTL); err != nil {
			return Failf("store news for %s: %v", category, err)
		}
		for _, rec := range records {
			if err := memory.Append(ctx, shared.Memory, keyRecentNews, rec, 100, recentNewsTTL); err != nil {
				return Failf("record recent news: %v", err)
			}
			if err := memory.Append(ctx, shared.Memory, keyShareQueue, rec, 0, shareQueueTTL); err != nil {
				return Failf("queue article for sharing: %v", err)
			}
			queued++
		}
	}

	slog.Info("news fetched", "topics", len(topics), "articles", fetched, "queued", queued)
	if queued == 0 {
		return Skip("no relevant articles found")
	}
	return Ok(map[string]any{
		"topics":  topics,
		"fetched": fetched,
		"queued":  queued,
	}).WithMeta("min_relevance", minRelevance)
}

// filterRelevant asks the chat model to score each article's relevance to
// the topic and keeps those at or above the threshold. When the model's
// answer cannot be used, all articles pass through rather than being lost.
func (a *FetchNews) filterRelevant(ctx context.Context, chat *skills.ChatSkill, topic string, articles []skills.Article) []skills.Article {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Rate each article's relevance to the topic %q from 0.0 to 1.0.\n", topic)
	sb.WriteString("Answer with a JSON array of numbers only, one per article, in order.\n\n")
	for i, art := range articles {
		fmt.Fprintf(&sb, "%d. %s - %s\n", i+1, art.Title, art.Description)
	}

	reply, err := chat.Complete(ctx, sb.String())
	if err != nil {
		slog.Warn("relevance scoring failed, keeping all articles", "topic", topic, "error", err)
		return articles
	}

	scores := parseScores(reply)
	if len(scores) != len(articles) {
		slog.Warn("relevance scores did not match article count, keeping all articles",
			"topic", topic, "articles", len(articles), "scores", len(scores))
		return articles
	}

	var out []skills.Article
	for i, art := range articles {
		if scores[i] >= minRelevance {
			out = append(out, art)
		}
	}
	return out
}

// parseScores extracts a JSON number array from a model reply, tolerating
// surrounding prose and markdown fences.
func parseScores(reply string) []float64 {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil
	}
	var scores []float64
	if err := json.Unmarshal([]byte(reply[start:end+1]), &scores); err != nil {
		return nil
	}
	return scores
}
