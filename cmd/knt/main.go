package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/knt/internal"
	"github.com/starford/knt/internal/models"
	"github.com/starford/knt/internal/notefile"
	"github.com/starford/knt/internal/parser"
	"github.com/starford/knt/internal/storage"
	pkgconfig "github.com/starford/knt/pkg/config"
)

var version = "dev"

// stdout receives command output.
var stdout io.Writer = os.Stdout

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// fileOptions builds the decode options of the file commands.
func fileOptions(cmd *cli.Command) []notefile.Option {
	level := slog.LevelInfo
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	opts := []notefile.Option{
		notefile.WithLogger(logger),
		notefile.WithPassphraseProvider(newPrompter(cmd.String("passphrase"))),
	}
	if cmd.Bool("debug") {
		opts = append(opts, notefile.WithObserver(parser.SlogObserver{Logger: logger}))
	}
	return opts
}

// appOptions builds the options of the library commands. Only an explicit
// passphrase overrides library.passphrase; a server never prompts.
func appOptions(cmd *cli.Command, cfg *internal.Config) []internal.Option {
	opts := []internal.Option{internal.WithConfig(cfg), internal.WithVersion(version)}
	if pass := cmd.String("passphrase"); pass != "" {
		opts = append(opts, internal.WithPassphraseProvider(newPrompter(pass)))
	}
	return opts
}

func fileArg(cmd *cli.Command, n int) ([]string, error) {
	if cmd.Args().Len() != n {
		return nil, fmt.Errorf("%s: expected %d argument(s), got %d", cmd.Name, n, cmd.Args().Len())
	}
	return cmd.Args().Slice(), nil
}

func show(_ context.Context, cmd *cli.Command) error {
	args, err := fileArg(cmd, 1)
	if err != nil {
		return err
	}
	doc, err := notefile.Open(args[0], fileOptions(cmd)...)
	if err != nil {
		return err
	}
	writeDocument(stdout, args[0], doc)
	return nil
}

func export(_ context.Context, cmd *cli.Command) error {
	args, err := fileArg(cmd, 1)
	if err != nil {
		return err
	}
	doc, err := notefile.Open(args[0], fileOptions(cmd)...)
	if err != nil {
		return err
	}
	return writeExport(stdout, doc, cmd.String("format"))
}

// convertFile rewrites in as out in the container named by to.
func convertFile(in, out, to string, force bool, opts []notefile.Option) error {
	target, err := models.ParseFileFormat(to)
	if err != nil {
		return err
	}
	doc, err := notefile.Open(in, opts...)
	if err != nil {
		return err
	}
	if force {
		doc.ReadOnly = false
		doc.Flags.ReadOnly = false
	}
	doc.Format = target

	dir := filepath.Dir(out)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("convert: mkdir: %w", err)
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		return err
	}
	return notefile.Save(store, filepath.Base(out), doc, opts...)
}

func convert(_ context.Context, cmd *cli.Command) error {
	args, err := fileArg(cmd, 2)
	if err != nil {
		return err
	}
	if err := convertFile(args[0], args[1], cmd.String("to"), cmd.Bool("force"), fileOptions(cmd)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s (%s)\n", args[1], cmd.String("to"))
	return nil
}

func reindex(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, closeFn, err := internal.OpenService(append(appOptions(cmd, cfg), internal.WithLogOutput(os.Stderr))...)
	if err != nil {
		return err
	}
	defer closeFn()

	files, err := svc.ListFiles(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tFORMAT\tNOTES\tDESCRIPTION")
	notes := 0
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", f.Path, f.Format, f.NoteCount, f.Description)
		notes += f.NoteCount
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%d files, %d notes\n", len(files), notes)
	return nil
}

func search(ctx context.Context, cmd *cli.Command) error {
	args, err := fileArg(cmd, 1)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, closeFn, err := internal.OpenService(append(appOptions(cmd, cfg), internal.WithLogOutput(os.Stderr))...)
	if err != nil {
		return err
	}
	defer closeFn()

	results, err := svc.Search(ctx, args[0], int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t#%d\t%s\t%s\n", r.Path, r.NoteID, r.Name, r.Snippet)
	}
	return tw.Flush()
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, appOptions(cmd, cfg)...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, appOptions(cmd, cfg)...); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "knt",
		Usage:   "Read, convert and serve KeyNote note files",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "passphrase",
				Aliases: []string{"p"},
				Usage:   "Passphrase for encrypted files (prompted when omitted)",
				Sources: cli.EnvVars("KNT_PASSPHRASE"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Log parse events to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Print a note file",
				ArgsUsage: "<file>",
				Action:    show,
			},
			{
				Name:      "export",
				Usage:     "Export a note file as YAML or JSON",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "yaml", Usage: "yaml or json"},
				},
				Action: export,
			},
			{
				Name:      "convert",
				Usage:     "Rewrite a note file in another container",
				ArgsUsage: "<in> <out>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Value: "keynote", Usage: "keynote, encrypted or dartnotes"},
					&cli.BoolFlag{Name: "force", Usage: "Clear the read-only flag of the source"},
				},
				Action: convert,
			},
			{
				Name:   "index",
				Usage:  "Synchronize the catalog with the library and list it",
				Action: reindex,
			},
			{
				Name:      "search",
				Usage:     "Full-text search over the catalog",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20},
				},
				Action: search,
			},
			{
				Name:   "serve",
				Usage:  "Serve the library over HTTP",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the library over MCP on stdio",
				Action: serveMCP,
			},
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
