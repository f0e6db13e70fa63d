package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/beinghq/being/internal/activities"
	"github.com/beinghq/being/internal/apikeys"
	"github.com/beinghq/being/internal/config"
	"github.com/beinghq/being/internal/events"
	"github.com/beinghq/being/internal/memory"
	"github.com/beinghq/being/internal/persona"
	"github.com/beinghq/being/internal/scheduler"
	"github.com/beinghq/being/internal/skills"
)

// runtime bundles everything a command needs to operate the being.
type runtime struct {
	cfg       *config.Config
	store     memory.Store
	bus       *events.Bus
	keys      *apikeys.Manager
	skills    *skills.Registry
	acts      *activities.Registry
	persona   *persona.Persona
	scheduler *scheduler.Scheduler
}

func (r *runtime) Close() {
	r.bus.Close()
	if err := r.store.Close(); err != nil {
		slog.Warn("closing memory store", "error", err)
	}
}

// setup loads config and wires the full runtime: memory store, event bus,
// skill and activity registries, persona, and scheduler.
func setup(cmd *cli.Command) (*runtime, error) {
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	configPath := cmd.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Warn("config not found, using defaults", "path", configPath, "error", err)
		cfg = config.Default()
	}

	store, err := memory.Open(cfg.Memory)
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}

	bus := events.NewBus(cfg.Events.BufferSize)

	if ss, ok := store.(*memory.SQLStore); ok {
		ss.OnEvict = func(key string) {
			bus.Publish(events.NewEvent(events.EventMemoryEvicted, events.SourceMemory, map[string]any{
				"key": key,
			}))
		}
	}

	p, err := persona.Load(cfg.Persona.Path)
	if err != nil {
		bus.Close()
		store.Close()
		return nil, fmt.Errorf("load persona: %w", err)
	}

	keys := apikeys.NewManager(config.AgeKeyPath())

	sreg := skills.NewRegistry()
	sreg.OnInitialized = func(name string) {
		bus.Publish(events.NewEvent(events.EventSkillInitialized, events.SourceSkill, map[string]any{
			"skill": name,
		}))
	}
	sreg.Register(skills.NewChatSkill(cfg.Skills.Chat, keys))
	sreg.Register(skills.NewNewsSkill(cfg.Skills.News, keys))
	sreg.Register(skills.NewImageSkill(cfg.Skills.Image, keys, store))
	sreg.Register(skills.NewXSkill(cfg.Skills.X, keys))
	sreg.Register(skills.NewLinkedInSkill(cfg.Skills.LinkedIn, keys))
	sreg.Alias("twitter", skills.SkillX)
	sreg.Alias("image", skills.SkillImage)

	areg := activities.NewRegistry()
	if err := activities.InstallDefaults(areg, sreg, p); err != nil {
		bus.Close()
		store.Close()
		return nil, err
	}

	sched, err := scheduler.New(cfg.Scheduler, cfg.Activities, areg, sreg, store, bus)
	if err != nil {
		bus.Close()
		store.Close()
		return nil, fmt.Errorf("build scheduler: %w", err)
	}

	return &runtime{
		cfg:       cfg,
		store:     store,
		bus:       bus,
		keys:      keys,
		skills:    sreg,
		acts:      areg,
		persona:   p,
		scheduler: sched,
	}, nil
}
