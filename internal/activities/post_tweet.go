package activities

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/beinghq/being/internal/memory"
	"github.com/beinghq/being/internal/persona"
	"github.com/beinghq/being/internal/skills"
)

const (
	tweetDedupWindow = 1 * time.Hour
	recentTweetsMax  = 50
)

// ErrNoTweetContent is returned when neither the share queue nor the run's
// inputs provide anything to post.
var ErrNoTweetContent = errors.New("No tweet content provided")

// PostTweet publishes a tweet, preferring queued news articles over ad-hoc
// text supplied with the trigger.
type PostTweet struct {
	Registry *skills.Registry
	Persona  *persona.Persona

	now func() time.Time
}

// NewPostTweet creates the tweet posting activity.
func NewPostTweet(reg *skills.Registry, p *persona.Persona) *PostTweet {
	return &PostTweet{Registry: reg, Persona: p, now: time.Now}
}

// Meta implements Activity.
func (a *PostTweet) Meta() Metadata {
	return Metadata{
		Name:           "post_tweet",
		Description:    "Share a queued news article or ad-hoc text on X",
		EnergyCost:     0.3,
		Cooldown:       4 * time.Hour,
		RequiredSkills: []string{skills.SkillX},
		Triggers:       []string{"manual"},
	}
}

// Execute implements Activity.
func (a *PostTweet) Execute(ctx context.Context, shared *SharedData) Result {
	if fail := initSkills(ctx, a.Registry, skills.SkillX); fail != nil {
		return *fail
	}
	x, err := skills.As[*skills.XSkill](a.Registry, skills.SkillX)
	if err != nil {
		return Fail(err)
	}

	now := a.now().UTC()

	// A recent tweet inside the dedup window means the timeline is fresh
	// enough. Manual triggers bypass the window but never the identical
	// text check below.
	recent, err := memory.GetList(ctx, shared.Memory, keyRecentTweets)
	if err != nil {
		return Failf("read recent tweets: %v", err)
	}
	if shared.TriggerType != "manual" && len(recordsWithin(recent, tweetDedupWindow, now)) > 0 {
		return Skip("a tweet was posted within the last hour")
	}

	text, article, err := a.composeTweet(ctx, shared)
	if err != nil {
		return Fail(err)
	}
	if anyFieldEquals(recent, "text", text) {
		a.restoreArticle(ctx, shared, article)
		return Skip("identical tweet already posted")
	}

	var mediaURLs []string
	if article != nil {
		if img, _ := article["image_url"].(string); img != "" {
			mediaURLs = []string{img}
		}
	}

	post, err := x.PostTweet(ctx, text, mediaURLs)
	if err != nil {
		a.restoreArticle(ctx, shared, article)
		return Failf("post tweet: %v", err)
	}

	tweetType := "direct"
	if article != nil {
		tweetType = "news"
		if t, _ := article["type"].(string); t != "" {
			tweetType = t
		}
	}
	record := map[string]any{
		"id":        post.ID,
		"text":      text,
		"type":      tweetType,
		"timestamp": now.Format(time.RFC3339),
	}
	if err := memory.Append(ctx, shared.Memory, keyRecentTweets, record, recentTweetsMax, 0); err != nil {
		slog.Warn("tweet posted but not recorded", "id", post.ID, "error", err)
	}

	data := map[string]any{
		"tweet_id": post.ID,
		"url":      post.URL,
		"text":     text,
		"type":     tweetType,
	}
	if article != nil {
		data["article"] = article
	}
	return Ok(data)
}

// restoreArticle pushes a popped queue entry back to the front so a run
// that did not publish it does not lose it.
func (a *PostTweet) restoreArticle(ctx context.Context, shared *SharedData, article map[string]any) {
	if article == nil {
		return
	}
	if err := memory.PushHead(ctx, shared.Memory, keyShareQueue, article, shareQueueTTL); err != nil {
		slog.Error("could not restore article to share queue", "error", err)
	}
}

// composeTweet picks the content source: the head of the share queue when
// one is waiting, otherwise the tweet_text input. The queue entry is only
// consumed for good once the post succeeds; Execute restores it otherwise.
func (a *PostTweet) composeTweet(ctx context.Context, shared *SharedData) (string, map[string]any, error) {
	article, ok, err := memory.PopHead(ctx, shared.Memory, keyShareQueue, shareQueueTTL)
	if err != nil {
		return "", nil, fmt.Errorf("pop share queue: %w", err)
	}
	if ok {
		// Promotion and check-in entries carry ready-made text; plain
		// news entries are rendered from their fields.
		if t, _ := article["text"].(string); t != "" {
			return skills.TruncateTweet(t), article, nil
		}
		return a.articleTweet(article), article, nil
	}

	text := shared.Value("tweet_text")
	if text == "" {
		return "", nil, ErrNoTweetContent
	}
	return skills.TruncateTweet(text), nil, nil
}

// articleTweet renders a queued article as tweet text with the persona's
// hashtags for its category.
func (a *PostTweet) articleTweet(article map[string]any) string {
	title, _ := article["title"].(string)
	url, _ := article["url"].(string)
	category, _ := article["category"].(string)

	tags := a.Persona.HashtagsFor([]string{category}, 2)

	parts := []string{title}
	if url != "" {
		parts = append(parts, url)
	}
	if len(tags) > 0 {
		parts = append(parts, strings.Join(tags, " "))
	}
	return skills.TruncateTweet(strings.Join(parts, "\n"))
}
