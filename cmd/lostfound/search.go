package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/search"
	"github.com/urfave/cli/v2"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find items similar to a description or a photo",
		ArgsUsage: "[description...]",
		Action:    searchAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "Path to a JPEG or PNG photo (ignored when a description is given)",
			},
			&cli.IntFlag{
				Name:    "top-k",
				Aliases: []string{"k"},
				Usage:   "Number of results (defaults to search.top_k)",
			},
			&cli.BoolFlag{
				Name:  "heads",
				Usage: "Show the leading vector components of each match",
			},
		},
	}
}

func searchAction(c *cli.Context) error {
	q := search.Query{
		Text: strings.Join(c.Args().Slice(), " "),
		TopK: c.Int("top-k"),
	}
	if path := c.String("image"); path != "" {
		q.Image = ai.ImagePath(path)
	}
	if _, ok := q.Modality(); !ok {
		return errors.New("provide a description or --image")
	}

	cfg := loadedConfig(c)
	db, err := openDatabase(c.Context, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := append(cfg.SearchOptions(), search.WithMonitor(&logMonitor{logger: slog.Default()}))
	searcher, err := db.NewSearcher(opts...)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.Search(c.Context, q)
	if err != nil {
		return err
	}
	return printResults(os.Stdout, results, c.Bool("heads"))
}

func printResults(w io.Writer, results []*core.SearchResult, heads bool) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No items found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "#\tID\tSCORE\tTYPE\tCATEGORY\tOWNER\tTITLE"
	if heads {
		header += "\tQUERY\tITEM"
	}
	fmt.Fprintln(tw, header)
	for i, r := range results {
		fmt.Fprintf(tw, "%d\t%d\t%.4f\t%s\t%s\t%s\t%s",
			i+1, r.Item.Id, r.Score, r.Item.Type, r.Item.Category, r.Owner, r.Item.Title)
		if heads {
			fmt.Fprintf(tw, "\t%v\t%v", r.QueryHead, r.ItemHead)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// logMonitor reports search progress at debug level.
type logMonitor struct {
	logger *slog.Logger
}

var _ search.SearchMonitor = (*logMonitor)(nil)

func (m *logMonitor) Start(q search.Query) {
	modality, _ := q.Modality()
	m.logger.Debug("search started", "modality", modality.String(), "text", q.Text, "top_k", q.TopK)
}

func (m *logMonitor) OnQueryEmbedded(variants []search.Variant) {
	for _, v := range variants {
		m.logger.Debug("query variant", "text", v.Text, "dim", len(v.Vector))
	}
}

func (m *logMonitor) OnCandidatesFetched(candidates []search.Candidate) {
	m.logger.Debug("candidates fetched", "count", len(candidates))
}

func (m *logMonitor) OnRanked(results []*core.SearchResult) {
	if len(results) > 0 {
		m.logger.Debug("ranked", "count", len(results), "best", results[0].Score)
		return
	}
	m.logger.Debug("ranked", "count", 0)
}
