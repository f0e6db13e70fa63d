package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
)

// NewLiveCommand returns the daemon subcommand.
func NewLiveCommand() *cli.Command {
	return &cli.Command{
		Name:   "live",
		Usage:  "Start the being's activity loop",
		Action: runLive,
	}
}

func runLive(ctx context.Context, cmd *cli.Command) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	fmt.Printf("%s is live. %d activities, skills: %v\n",
		rt.persona.Name, len(rt.acts.All()), rt.skills.Names())

	if err := rt.scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
