package activities

import (
	"fmt"

	"github.com/beinghq/being/internal/persona"
	"github.com/beinghq/being/internal/skills"
)

// InstallDefaults registers the built-in activity set.
func InstallDefaults(r *Registry, sreg *skills.Registry, p *persona.Persona) error {
	builtins := []Activity{
		NewFetchNews(sreg, p),
		NewPostTweet(sreg, p),
		NewPostLinkedIn(sreg, p),
		NewDraw(sreg, p),
		NewPromoteContent(sreg, p),
		NewDailyCheckin(sreg, p),
	}
	for _, a := range builtins {
		if err := r.Register(a); err != nil {
			return fmt.Errorf("install activities: %w", err)
		}
	}
	return nil
}
