package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
)

// NewRunCommand returns the one-shot activity subcommand.
func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a single activity immediately",
		ArgsUsage: "<activity>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "trigger",
				Usage: "Trigger type to run the activity with",
				Value: "manual",
			},
			&cli.StringMapFlag{
				Name:  "with",
				Usage: "Input values for the run, e.g. --with tweet_text=hello",
			},
			&cli.IntFlag{
				Name:  "events",
				Usage: "Print the last N bus events after the run",
			},
		},
		Action: runRun,
	}
}

func runRun(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: being run <activity>")
	}

	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	triggerCtx := make(map[string]any)
	for k, v := range cmd.StringMap("with") {
		triggerCtx[k] = v
	}

	result, err := rt.scheduler.Trigger(ctx, name, cmd.String("trigger"), triggerCtx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}

	if n := cmd.Int("events"); n > 0 {
		// The dispatcher runs on its own goroutine; give it a beat to
		// drain before reading the ring buffer.
		time.Sleep(50 * time.Millisecond)
		for _, ev := range rt.bus.History(n) {
			fmt.Printf("%s  %-20s %s  %v\n", ev.Timestamp.Format(time.RFC3339), ev.Type, ev.Source, ev.Payload)
		}
	}

	if !result.Success {
		return fmt.Errorf("activity %s failed", name)
	}
	return nil
}
