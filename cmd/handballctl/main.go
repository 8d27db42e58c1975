// Command handballctl scores measurements, converts recorded workbooks and
// inspects the stored file catalog.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/okian/handball/internal/adapters/kv"
	"github.com/okian/handball/internal/adapters/repository"
	"github.com/okian/handball/internal/adapters/spreadsheet"
	"github.com/okian/handball/internal/config"
	"github.com/okian/handball/internal/domain/model"
	"github.com/okian/handball/internal/domain/scoring"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
	testFlag   = "test"
	inputFlag  = "in"
	formatFlag = "format"

	formatYAML = "yaml"
	formatJSON = "json"
)

// Exit codes.
const (
	exitUsage    = 2
	exitInput    = 3
	exitNotFound = 4
	exitStore    = 5
)

var version = "v0.1.0-dev"

// openStore opens the configured backend. Tests replace it.
var openStore = func(ctx context.Context) (kv.Store, *config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	store, err := kv.Open(ctx, kv.Config{
		Driver:      cfg.StoreDriver,
		Path:        cfg.StorePath,
		PostgresDSN: cfg.PostgresDSN,
		S3: kv.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
			Prefix:    cfg.S3Prefix,
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func newApp(out io.Writer) *cli.App {
	formatOpt := &cli.StringFlag{
		Name:    formatFlag,
		Aliases: []string{"f"},
		Usage:   "Output encoding: yaml or json",
		Value:   formatYAML,
	}
	return &cli.App{
		Name:      "handballctl",
		Usage:     "Score handball fitness tests and manage recorded files",
		Version:   version,
		Writer:    out,
		ErrWriter: out,
		Commands: []*cli.Command{
			{
				Name:      "score",
				Usage:     "Print the score of each measurement",
				ArgsUsage: "VALUE...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     testFlag,
						Aliases:  []string{"t"},
						Usage:    "Test table: " + joinTests(),
						Required: true,
					},
				},
				Action: func(cCtx *cli.Context) error {
					return scoreValues(cCtx.App.Writer, cCtx.String(testFlag), cCtx.Args().Slice())
				},
			},
			{
				Name:  "convert",
				Usage: "Dump the groups of an xlsx workbook",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     inputFlag,
						Aliases:  []string{"i"},
						Usage:    "Path of the workbook to read",
						Required: true,
					},
					formatOpt,
				},
				Action: func(cCtx *cli.Context) error {
					return convertWorkbook(cCtx.Context, cCtx.App.Writer, cCtx.String(inputFlag), cCtx.String(formatFlag))
				},
			},
			{
				Name:  "files",
				Usage: "Inspect the file catalog of the configured store",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List files, newest first",
						Action: func(cCtx *cli.Context) error {
							return withCatalog(cCtx.Context, func(c *repository.Catalog) error {
								return listFiles(cCtx.Context, cCtx.App.Writer, c)
							})
						},
					},
					{
						Name:      "show",
						Usage:     "Print the groups of a file",
						ArgsUsage: "ID",
						Flags:     []cli.Flag{formatOpt},
						Action: func(cCtx *cli.Context) error {
							id, err := oneArg(cCtx)
							if err != nil {
								return err
							}
							return withCatalog(cCtx.Context, func(c *repository.Catalog) error {
								return showFile(cCtx.Context, cCtx.App.Writer, c, id, cCtx.String(formatFlag))
							})
						},
					},
					{
						Name:      "delete",
						Usage:     "Delete a file",
						ArgsUsage: "ID",
						Action: func(cCtx *cli.Context) error {
							id, err := oneArg(cCtx)
							if err != nil {
								return err
							}
							return withCatalog(cCtx.Context, func(c *repository.Catalog) error {
								if err := c.DeleteFile(cCtx.Context, id); err != nil {
									return cli.Exit(err.Error(), exitStore)
								}
								fmt.Fprintf(cCtx.App.Writer, "deleted %s\n", id)
								return nil
							})
						},
					},
				},
			},
		},
	}
}

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func joinTests() string {
	names := make([]string, 0, len(scoring.Tests()))
	for _, t := range scoring.Tests() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

func oneArg(cCtx *cli.Context) (string, error) {
	if cCtx.NArg() != 1 {
		return "", cli.Exit("expected exactly one file ID", exitUsage)
	}
	return cCtx.Args().First(), nil
}

func scoreValues(out io.Writer, test string, args []string) error {
	table, ok := scoring.Lookup(scoring.Test(test))
	if !ok {
		return cli.Exit(fmt.Sprintf("unknown test %q; expected one of %s", test, joinTests()), exitUsage)
	}
	if len(args) == 0 {
		return cli.Exit("no values given", exitUsage)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, arg := range args {
		v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
		if err != nil || !isFinite(v) {
			return cli.Exit(fmt.Sprintf("%q is not a finite number", arg), exitInput)
		}
		fmt.Fprintf(w, "%s\t%d\n", arg, table.Score(v))
	}
	return w.Flush()
}

func convertWorkbook(ctx context.Context, out io.Writer, path, format string) error {
	f, err := os.Open(path)
	if err != nil {
		return cli.Exit(err.Error(), exitInput)
	}
	defer f.Close()

	groups, err := spreadsheet.Read(ctx, f)
	if err != nil {
		return cli.Exit(err.Error(), exitInput)
	}
	return encode(out, format, groups)
}

func withCatalog(ctx context.Context, fn func(*repository.Catalog) error) error {
	store, cfg, err := openStore(ctx)
	if err != nil {
		return cli.Exit(err.Error(), exitStore)
	}
	defer store.Close()
	return fn(repository.NewCatalog(store,
		repository.WithCatalogKey(cfg.CatalogKey),
		repository.WithPayloadPrefix(cfg.PayloadPrefix),
	))
}

func listFiles(ctx context.Context, out io.Writer, c *repository.Catalog) error {
	files := c.ListFiles(ctx)
	sortNewestFirst(files)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLAST MODIFIED")
	for _, f := range files {
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.ID, f.Name, f.LastModified.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func showFile(ctx context.Context, out io.Writer, c *repository.Catalog, id, format string) error {
	if _, ok := c.FileInfo(ctx, id); !ok {
		return cli.Exit(fmt.Sprintf("file %s not found", id), exitNotFound)
	}
	groups, _ := c.LoadFile(ctx, id)
	if groups == nil {
		groups = []model.Group{}
	}
	return encode(out, format, groups)
}

func encode(out io.Writer, format string, groups []model.Group) error {
	switch strings.ToLower(format) {
	case "", formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(groups); err != nil {
			return fmt.Errorf("encoding to YAML failed: %w", err)
		}
		return enc.Close()
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(groups)
	default:
		return cli.Exit(fmt.Sprintf("unknown format %q", format), exitUsage)
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func sortNewestFirst(files []repository.FileInfo) {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].LastModified.After(files[j].LastModified)
	})
}
