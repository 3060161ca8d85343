package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/osusume/internal/cli"
	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/pkg/utils"
)

// queryFlags are shared by the commands that can run against a server or locally.
type queryFlags struct {
	fs         *flag.FlagSet
	configPath *string
	serverURL  *string
	limit      *int
	output     *string
}

func newQueryFlags(name string, withLimit bool) *queryFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	q := &queryFlags{
		fs:         fs,
		configPath: fs.String("config", config.DefaultConfigPath, "config file path (local mode)"),
		serverURL:  fs.String("server", defaultServerURL, "server URL (empty = open the local database directly)"),
		output:     fs.String("output", "text", "output format: text, compact or json"),
	}
	if withLimit {
		q.limit = fs.Int("limit", 0, "number of results (default: configured default_limit)")
	}
	return q
}

// limitValue returns the --limit value, or nil when the flag was not given so the
// configured default applies.
func (q *queryFlags) limitValue() *int {
	if q.limit == nil {
		return nil
	}
	var set bool
	q.fs.Visit(func(f *flag.Flag) {
		if f.Name == "limit" {
			set = true
		}
	})
	if !set {
		return nil
	}
	n := *q.limit
	return &n
}

func (q *queryFlags) format() (cli.OutputFormat, error) {
	return cli.ParseOutputFormat(*q.output)
}

// open returns the recommender the flags select and a function releasing it.
func (q *queryFlags) open() (recommender, func(), error) {
	if *q.serverURL != "" {
		return newAPIClient(*q.serverURL), func() {}, nil
	}
	cfg, _, err := loadConfig(*q.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := utils.NewCLILogger(!cfg.Debug)
	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return &localClient{c: comps}, func() {
		comps.Close()
		_ = logger.Sync()
	}, nil
}

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse sees them. The flag package stops at the
// first non-flag argument, so "osusume search red shoe --limit 3" would otherwise leave
// --limit unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 1 && a[0] == '-' && !isNumber(a) {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// buildSearchQuery joins all positional args with spaces so multi-word queries work the
// same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// parseIDs parses product ids. Ids may be separate arguments or comma separated.
func parseIDs(args []string) ([]int64, error) {
	var ids []int64
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid product id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}

func runSimilar(args []string) error {
	q := newQueryFlags("similar", true)
	q.fs.Usage = func() {
		fmt.Fprintf(q.fs.Output(), "Usage: osusume similar [flags] <product-id>\n\n")
		q.fs.PrintDefaults()
	}
	_ = q.fs.Parse(argsReorder(args))
	ids, err := parseIDs(q.fs.Args())
	if err != nil {
		return err
	}
	if len(ids) != 1 {
		q.fs.Usage()
		return fmt.Errorf("exactly one product id is required")
	}
	return runRecommend(q, func(ctx context.Context, r recommender) error {
		resp, err := r.SimilarToID(ctx, ids[0], q.limitValue())
		if err != nil {
			return err
		}
		return writeRecommendations(os.Stdout, q, resp)
	})
}

func runCart(args []string) error {
	q := newQueryFlags("cart", true)
	q.fs.Usage = func() {
		fmt.Fprintf(q.fs.Output(), "Usage: osusume cart [flags] <product-id> [product-id...]\n\n")
		q.fs.PrintDefaults()
	}
	_ = q.fs.Parse(argsReorder(args))
	ids, err := parseIDs(q.fs.Args())
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		q.fs.Usage()
		return fmt.Errorf("at least one product id is required")
	}
	return runRecommend(q, func(ctx context.Context, r recommender) error {
		resp, err := r.SimilarToCart(ctx, ids, q.limitValue())
		if err != nil {
			return err
		}
		return writeRecommendations(os.Stdout, q, resp)
	})
}

func runSearch(args []string) error {
	q := newQueryFlags("search", true)
	q.fs.Usage = func() {
		fmt.Fprintf(q.fs.Output(), "Usage: osusume search [flags] <query>\n\n")
		fmt.Fprintf(q.fs.Output(), "Query is all remaining arguments joined by spaces.\n\n")
		q.fs.PrintDefaults()
		fmt.Fprintf(q.fs.Output(), `
Examples:
  osusume search red running shoe
  osusume search "wireless headphones" --limit 3
  osusume search --server "" --output json gaming laptop
`)
	}
	_ = q.fs.Parse(argsReorder(args))
	query := buildSearchQuery(q.fs.Args())
	if query == "" {
		q.fs.Usage()
		return fmt.Errorf("a query is required")
	}
	return runRecommend(q, func(ctx context.Context, r recommender) error {
		resp, err := r.SimilarToText(ctx, query, q.limitValue())
		if err != nil {
			return err
		}
		return writeRecommendations(os.Stdout, q, resp)
	})
}

func runRecommend(q *queryFlags, fn func(ctx context.Context, r recommender) error) error {
	if _, err := q.format(); err != nil {
		return err
	}
	r, closeFn, err := q.open()
	if err != nil {
		return err
	}
	defer closeFn()
	ctx, cancel := commandContext()
	defer cancel()
	return fn(ctx, r)
}

func writeRecommendations(w io.Writer, q *queryFlags, resp *models.RecommendResponse) error {
	format, err := q.format()
	if err != nil {
		return err
	}
	return cli.WriteRecommendations(w, resp, format)
}

func runStatus(args []string) error {
	q := newQueryFlags("status", false)
	_ = q.fs.Parse(args)
	format, err := q.format()
	if err != nil {
		return err
	}
	r, closeFn, err := q.open()
	if err != nil {
		return err
	}
	defer closeFn()
	ctx, cancel := commandContext()
	defer cancel()
	st, err := r.Status(ctx)
	if err != nil {
		return err
	}
	return cli.WriteStatus(os.Stdout, st, format)
}

func runReload(args []string) error {
	q := newQueryFlags("reload", false)
	_ = q.fs.Parse(args)
	format, err := q.format()
	if err != nil {
		return err
	}
	r, closeFn, err := q.open()
	if err != nil {
		return err
	}
	defer closeFn()
	ctx, cancel := commandContext()
	defer cancel()
	res, err := r.Reload(ctx)
	if err != nil {
		return err
	}
	if format == cli.OutputJSON {
		return cli.WriteJSON(os.Stdout, res)
	}
	fmt.Printf("Reloaded generation %d: %d products in %s (build %s)\n",
		res.Generation, res.Products, res.Took.Round(time.Millisecond), res.BuildID)
	return nil
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultConfigPath, "config file path")
	appendMode := fs.Bool("append", false, "upsert the file's products instead of replacing the catalog")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: osusume import [flags] <file.csv|file.xlsx|file.json>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(args))
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("exactly one file is required")
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()
	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	ctx, cancel := commandContext()
	defer cancel()
	res, err := comps.reloader.ImportFile(ctx, fs.Arg(0), !*appendMode)
	if err != nil {
		return err
	}
	mode := "replaced catalog"
	if *appendMode {
		mode = "upserted"
	}
	fmt.Printf("Imported %d products from %s (%s)\n", res.Imported, res.Path, mode)
	if res.Reload != nil {
		fmt.Printf("Model rebuilt: generation %d, %d products\n", res.Reload.Generation, res.Reload.Products)
	}
	return nil
}
