package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/clovern/internal"
	pkgconfig "github.com/starford/clovern/pkg/config"
)

var version = "dev"

// options loads the config named by --config, falling back to defaults when
// the file does not exist.
func options(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if p := cmd.String("data"); p != "" {
		cfg.Data.Path = p
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func importFile(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("import: file argument is required")
	}
	mapping, err := internal.ParseMapping(cmd.StringSlice("map"))
	if err != nil {
		return err
	}
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	n, err := internal.Import(ctx, internal.ImportRequest{
		Path:     path,
		Mapping:  mapping,
		FolderID: cmd.String("folder"),
	}, opts...)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	fmt.Printf("imported %d applications from %s\n", n, path)
	return nil
}

func exportFile(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("export: file argument is required")
	}
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	n, err := internal.Export(ctx, internal.ExportRequest{
		Path:     path,
		Format:   cmd.String("format"),
		FolderID: cmd.String("folder"),
		Search:   cmd.String("search"),
	}, opts...)
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	fmt.Printf("exported %d applications to %s\n", n, path)
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func listHistory(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	snaps, err := internal.ListHistory(ctx, int(cmd.Int("limit")), opts...)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tCHANGE\tAPPLICATIONS\tFOLDERS")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n",
			s.ID, s.CreatedAt.Local().Format(time.DateTime), s.Kind, s.Applications, s.Folders)
	}
	return tw.Flush()
}

func restoreHistory(ctx context.Context, cmd *cli.Command) error {
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("restore: snapshot id is required")
	}
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.RestoreHistory(ctx, id, opts...); err != nil {
		return err
	}
	fmt.Printf("restored snapshot %d\n", id)
	return nil
}

func issueToken(_ context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	tok, err := internal.IssueToken(cmd.String("subject"), cmd.Duration("ttl"), opts...)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "clovern",
		Usage:   "Local-first job application tracker backed by a single JSON document",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("CLOVERN_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "data",
				Usage:   "Path to the tracker document (overrides data.path)",
				Sources: cli.EnvVars("CLOVERN_DATA"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serve,
			},
			{
				Name:      "import",
				Usage:     "Append the rows of a CSV or XLSX file",
				ArgsUsage: "<file>",
				Action:    importFile,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "map",
						Usage: "Map a column to a header, e.g. --map company=Employer",
					},
					&cli.StringFlag{
						Name:  "folder",
						Usage: "File every imported application under this folder id",
					},
				},
			},
			{
				Name:      "export",
				Usage:     "Write applications to a CSV or XLSX file",
				ArgsUsage: "<file>",
				Action:    exportFile,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "csv or xlsx (default: from the file extension)",
					},
					&cli.StringFlag{
						Name:  "folder",
						Usage: "Only applications in this folder id",
					},
					&cli.StringFlag{
						Name:  "search",
						Usage: "Only applications matching this text",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve tracker tools over MCP stdio",
				Action: serveMCP,
			},
			{
				Name:   "token",
				Usage:  "Issue an API token (auth.mode: jwt)",
				Action: issueToken,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "subject",
						Usage: "Who the token is for",
						Value: "cli",
					},
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Token lifetime (default: auth.jwt.ttl)",
					},
				},
			},
			{
				Name:  "history",
				Usage: "Inspect and restore document snapshots",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List recent snapshots",
						Action: listHistory,
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:  "limit",
								Usage: "Number of snapshots to show",
								Value: 20,
							},
						},
					},
					{
						Name:      "restore",
						Usage:     "Replace the document with a snapshot",
						ArgsUsage: "<id>",
						Action:    restoreHistory,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
