package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show the being's scheduling state",
		Action: runStatus,
	}
}

func runStatus(ctx context.Context, cmd *cli.Command) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.scheduler.Restore(ctx)
	st := rt.scheduler.Status()
	fmt.Printf("Persona: %s (mood: %s)\n", rt.persona.Name, rt.persona.Mood)
	fmt.Printf("Energy:  %.2f / %.2f\n\n", st.Energy, st.MaxEnergy)

	for _, a := range st.Activities {
		state := "enabled"
		if !a.Enabled {
			state = "disabled"
		}
		if a.Running {
			state = "running"
		}
		last := "never"
		if !a.LastRun.IsZero() {
			last = time.Since(a.LastRun).Truncate(time.Second).String() + " ago"
		}
		fmt.Printf("  %-16s %-8s cooldown %-8s last run %s", a.Name, state, a.Cooldown, last)
		if a.Cron != "" {
			fmt.Printf("  cron %q", a.Cron)
		}
		fmt.Println()
	}
	return nil
}
