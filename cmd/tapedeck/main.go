package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/hailam/tapedeck/internal"
	"github.com/hailam/tapedeck/internal/config"
)

// options loads the configuration named by --config. A missing file leaves
// the defaults in place.
func options(cmd *cli.Command) ([]internal.Option, error) {
	cfg := config.NewDefault()
	if err := config.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return []internal.Option{internal.WithConfig(cfg)}, nil
}

// profiled runs fn under a CPU profile when --cpuprofile is set.
func profiled(cmd *cli.Command, fn func() error) error {
	path := cmd.String("cpuprofile")
	if path == "" {
		return fn()
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return fmt.Errorf("could not start CPU profile: %w", err)
	}
	defer pprof.StopCPUProfile()
	return fn()
}

// action adapts a Run function to a cli action.
func action(run func(ctx context.Context, cmd *cli.Command, opts []internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		opts, err := options(cmd)
		if err != nil {
			return err
		}
		return profiled(cmd, func() error {
			return run(ctx, cmd, opts)
		})
	}
}

// boxArg returns the first argument, which names a box.
func boxArg(cmd *cli.Command) (string, error) {
	if cmd.NArg() < 1 {
		return "", fmt.Errorf("%s: box name required", cmd.Name)
	}
	return cmd.Args().First(), nil
}

func main() {
	cmd := &cli.Command{
		Name:  "tapedeck",
		Usage: "Record, replay and search reversible shogi move tapes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("TAPEDECK_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "cpuprofile",
				Usage:   "Write a CPU profile to file",
				Sources: cli.EnvVars("CPUPROFILE"),
			},
		},
		Action: action(func(ctx context.Context, _ *cli.Command, opts []internal.Option) error {
			return internal.RunShell(ctx, opts...)
		}),
		Commands: []*cli.Command{
			{
				Name:  "shell",
				Usage: "Interactive tape shell on stdin/stdout",
				Action: action(func(ctx context.Context, _ *cli.Command, opts []internal.Option) error {
					return internal.RunShell(ctx, opts...)
				}),
			},
			{
				Name:      "import",
				Usage:     "Convert USI game records into tapes stored in a box",
				ArgsUsage: "<box> <file.usi>...",
				Action: action(func(ctx context.Context, cmd *cli.Command, opts []internal.Option) error {
					box, err := boxArg(cmd)
					if err != nil {
						return err
					}
					paths := cmd.Args().Tail()
					if len(paths) == 0 {
						return fmt.Errorf("import: no files given")
					}
					return internal.RunImport(ctx, box, paths, opts...)
				}),
			},
			{
				Name:      "watch",
				Usage:     "Import every record dropped into the inbox until interrupted",
				ArgsUsage: "<box>",
				Action: action(func(ctx context.Context, cmd *cli.Command, opts []internal.Option) error {
					box, err := boxArg(cmd)
					if err != nil {
						return err
					}
					return internal.RunWatch(ctx, box, opts...)
				}),
			},
			{
				Name:      "dump",
				Usage:     "Print every tape of a box",
				ArgsUsage: "<box>",
				Action: action(func(ctx context.Context, cmd *cli.Command, opts []internal.Option) error {
					box, err := boxArg(cmd)
					if err != nil {
						return err
					}
					return internal.RunDump(ctx, box, opts...)
				}),
			},
			{
				Name:      "search",
				Usage:     "Find tapes by USI move or by a run of note signs",
				ArgsUsage: "<pattern>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of hits, 0 for all",
						Value: 20,
					},
				},
				Action: action(func(ctx context.Context, cmd *cli.Command, opts []internal.Option) error {
					if cmd.NArg() == 0 {
						return fmt.Errorf("search: pattern required")
					}
					pattern := strings.Join(cmd.Args().Slice(), " ")
					return internal.RunSearch(ctx, pattern, int(cmd.Int("limit")), opts...)
				}),
			},
			{
				Name:  "list",
				Usage: "List stored boxes",
				Action: action(func(ctx context.Context, _ *cli.Command, opts []internal.Option) error {
					return internal.RunList(ctx, opts...)
				}),
			},
			{
				Name:      "reindex",
				Usage:     "Rebuild the catalog of a box, or of every box",
				ArgsUsage: "[box]",
				Action: action(func(ctx context.Context, cmd *cli.Command, opts []internal.Option) error {
					return internal.RunReindex(ctx, cmd.Args().First(), opts...)
				}),
			},
			{
				Name:      "delete",
				Usage:     "Delete a box",
				ArgsUsage: "<box>",
				Action: action(func(ctx context.Context, cmd *cli.Command, opts []internal.Option) error {
					box, err := boxArg(cmd)
					if err != nil {
						return err
					}
					return internal.RunDelete(ctx, box, opts...)
				}),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
