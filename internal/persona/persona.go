// Package persona loads the being's personality and content branding from a
// YAML definition. Activities read it for prompt flavor, default topics, and
// hashtag selection; the image skill reads it for consistent visual styling.
package persona

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Persona describes who the being is and how its content should look.
type Persona struct {
	Name   string             `yaml:"name"`
	Mood   string             `yaml:"mood"` // "happy", "neutral", "sad"
	Traits map[string]float64 `yaml:"traits"`

	Topics   []string          `yaml:"topics"`   // default news search topics
	Hashtags map[string]string `yaml:"hashtags"` // category -> hashtag

	Image ImageBranding `yaml:"image"`
}

// ImageBranding holds the visual style applied to every generated image.
type ImageBranding struct {
	BaseStyle   string            `yaml:"base_style"`
	Lighting    string            `yaml:"lighting"`
	Composition string            `yaml:"composition"`
	Mood        string            `yaml:"mood"`
	Styles      map[string]string `yaml:"styles"`    // content type -> style override
	Templates   map[string]string `yaml:"templates"` // named prompt templates with {placeholders}
}

// Load reads a persona file. A missing file yields the default persona
// rather than an error, so the being can run before onboarding.
func Load(path string) (*Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPersona(), nil
		}
		return nil, fmt.Errorf("read persona: %w", err)
	}

	p := DefaultPersona()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse persona: %w", err)
	}
	return p, nil
}

// DefaultPersona returns the built-in caregiver-support persona.
func DefaultPersona() *Persona {
	return &Persona{
		Name: "being",
		Mood: "neutral",
		Traits: map[string]float64{
			"creativity": 0.5,
			"curiosity":  0.5,
			"empathy":    0.8,
		},
		Topics: []string{
			"caregiver support resources",
			"caregiver wellness tips",
			"elderly care innovations",
			"caregiver mental health",
			"respite care services",
		},
		Hashtags: map[string]string{
			"emotional_support": "#CaregiverSupport",
			"practical_tips":    "#CaregivingTips",
			"resources":         "#CareResources",
			"health_advice":     "#CaregiverHealth",
			"self_care":         "#SelfCare",
			"respite_care":      "#RespiteCare",
			"technology":        "#CaregivingTech",
			"community":         "#CaregiverCommunity",
		},
		Image: ImageBranding{
			BaseStyle:   "warm digital illustration",
			Lighting:    "soft natural light",
			Composition: "balanced composition",
			Mood:        "calm and supportive",
			Styles: map[string]string{
				"resources": "clean infographic style, friendly colors",
			},
			Templates: map[string]string{
				"resource_visual": "An inviting illustration about {topic}",
			},
		},
	}
}

// Trait returns a named personality trait, or 0 when unset.
func (p *Persona) Trait(name string) float64 {
	return p.Traits[name]
}

// StyleFor returns the image style for a content type, falling back to the
// base style.
func (p *Persona) StyleFor(contentType string) string {
	if s, ok := p.Image.Styles[contentType]; ok {
		return s
	}
	return p.Image.BaseStyle
}

// EnhanceImagePrompt appends the branding elements to a raw prompt.
func (p *Persona) EnhanceImagePrompt(prompt, contentType string) string {
	parts := []string{prompt, p.StyleFor(contentType)}
	if p.Image.Lighting != "" {
		parts = append(parts, "lighting: "+p.Image.Lighting)
	}
	if p.Image.Composition != "" {
		parts = append(parts, p.Image.Composition)
	}
	if p.Image.Mood != "" {
		parts = append(parts, p.Image.Mood)
	}
	return strings.Join(parts, ", ")
}

// FormatImagePrompt expands a named template with {placeholder} args.
func (p *Persona) FormatImagePrompt(key string, args map[string]string) (string, error) {
	tmpl, ok := p.Image.Templates[key]
	if !ok {
		return "", fmt.Errorf("unknown image template %q", key)
	}
	out := tmpl
	for k, v := range args {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out, nil
}

// HashtagsFor returns up to max hashtags for the given categories, in a
// stable order. Falls back to the emotional_support tag when nothing matches.
func (p *Persona) HashtagsFor(categories []string, max int) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, c := range categories {
		if tag, ok := p.Hashtags[c]; ok && !seen[tag] {
			tags = append(tags, tag)
			seen[tag] = true
		}
	}
	sort.Strings(tags)
	if len(tags) > max {
		tags = tags[:max]
	}
	if len(tags) == 0 {
		if tag, ok := p.Hashtags["emotional_support"]; ok {
			tags = []string{tag}
		}
	}
	return tags
}
