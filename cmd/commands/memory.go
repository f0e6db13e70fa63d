package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// NewMemoryCommand returns the memory inspection subcommand.
func NewMemoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "memory",
		Usage: "Inspect and edit the being's memory store",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Print the value stored at a key",
				ArgsUsage: "<key>",
				Action:    runMemoryGet,
			},
			{
				Name:      "set",
				Usage:     "Store a JSON value at a key",
				ArgsUsage: "<key> <json>",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Expiry for the value (0 = never)",
					},
				},
				Action: runMemorySet,
			},
			{
				Name:      "del",
				Usage:     "Delete a key",
				ArgsUsage: "<key>",
				Action:    runMemoryDel,
			},
			{
				Name:      "keys",
				Usage:     "List keys, optionally by prefix",
				ArgsUsage: "[prefix]",
				Action:    runMemoryKeys,
			},
		},
	}
}

func runMemoryGet(ctx context.Context, cmd *cli.Command) error {
	key := cmd.Args().First()
	if key == "" {
		return fmt.Errorf("usage: being memory get <key>")
	}

	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	var value any
	found, err := rt.store.Get(ctx, key, &value)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("key %q not found", key)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func runMemorySet(ctx context.Context, cmd *cli.Command) error {
	key := cmd.Args().Get(0)
	raw := cmd.Args().Get(1)
	if key == "" || raw == "" {
		return fmt.Errorf("usage: being memory set <key> <json>")
	}

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		// Not valid JSON: store it as a plain string.
		value = raw
	}

	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	ttl := cmd.Duration("ttl")
	if err := rt.store.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if ttl > 0 {
		fmt.Printf("Stored %q (expires in %s)\n", key, ttl)
	} else {
		fmt.Printf("Stored %q\n", key)
	}
	return nil
}

func runMemoryDel(ctx context.Context, cmd *cli.Command) error {
	key := cmd.Args().First()
	if key == "" {
		return fmt.Errorf("usage: being memory del <key>")
	}

	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.store.Delete(ctx, key); err != nil {
		return err
	}
	fmt.Printf("Deleted %q\n", key)
	return nil
}

func runMemoryKeys(ctx context.Context, cmd *cli.Command) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	keys, err := rt.store.Keys(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Println(k)
	}
	return nil
}
