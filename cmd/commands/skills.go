package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

// NewSkillsCommand returns the skill listing subcommand.
func NewSkillsCommand() *cli.Command {
	return &cli.Command{
		Name:   "skills",
		Usage:  "List registered skills and whether their credentials resolve",
		Action: runSkills,
	}
}

func runSkills(_ context.Context, cmd *cli.Command) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	for _, name := range rt.skills.Names() {
		required := rt.keys.Required(name)

		var missing []string
		for _, key := range required {
			if _, err := rt.keys.Resolve(name, key); err != nil {
				missing = append(missing, key)
			}
		}

		switch {
		case len(required) == 0:
			fmt.Printf("  %-18s ok (no credentials required)\n", name)
		case len(missing) == 0:
			fmt.Printf("  %-18s ok (keys: %s)\n", name, strings.Join(required, ", "))
		default:
			fmt.Printf("  %-18s missing: %s\n", name, strings.Join(missing, ", "))
		}
	}
	return nil
}
