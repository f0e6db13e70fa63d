package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

// NewActivitiesCommand returns the activity listing subcommand.
func NewActivitiesCommand() *cli.Command {
	return &cli.Command{
		Name:   "activities",
		Usage:  "List installed activities and their requirements",
		Action: runActivities,
	}
}

func runActivities(_ context.Context, cmd *cli.Command) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	for _, a := range rt.acts.All() {
		meta := a.Meta()
		ready := "ready"
		if !rt.skills.Has(meta.RequiredSkills...) {
			ready = "missing skills"
		}
		fmt.Printf("  %-16s energy %.1f  cooldown %-8s  skills [%s]  %s\n",
			meta.Name, meta.EnergyCost, meta.Cooldown,
			strings.Join(meta.RequiredSkills, ", "), ready)
		if meta.Description != "" {
			fmt.Printf("    %s\n", meta.Description)
		}
	}
	return nil
}
