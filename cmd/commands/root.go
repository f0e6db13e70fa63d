package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/beinghq/being/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "being",
		Usage: "An autonomous digital being that fetches, creates, and shares content",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewWakeCommand(),
			NewLiveCommand(),
			NewRunCommand(),
			NewStatusCommand(),
			NewActivitiesCommand(),
			NewSkillsCommand(),
			NewMemoryCommand(),
		},
	}
}
