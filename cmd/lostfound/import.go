package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/ingestion"
	"github.com/poiesic/lostfound/storage"
	"github.com/urfave/cli/v2"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Upload items listed in a tab-separated manifest",
		ArgsUsage: "<manifest>",
		Description: "Each manifest line is TYPE<TAB>TITLE<TAB>IMAGE[<TAB>CATEGORY].\n" +
			"Image paths are relative to the manifest. Blank lines and lines starting with # are skipped.",
		Action: importAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "owner",
				Aliases:  []string{"o"},
				Usage:    "Username that owns the imported items",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "keep-going",
				Usage: "Log failed lines and continue instead of stopping",
			},
		},
	}
}

// manifestLine is one parsed line of an import manifest.
type manifestLine struct {
	number   int
	itemType core.ItemType
	title    string
	image    string
	category string
}

// linesFromFile returns an iterator over the numbered lines of a file.
func linesFromFile(filename string) (iter.Seq2[int, string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(int, string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		n := 0
		for scanner.Scan() {
			n++
			if !yield(n, scanner.Text()) {
				return
			}
		}
	}, nil
}

// parseManifestLine returns ok=false for blank and comment lines.
func parseManifestLine(number int, line, baseDir string) (manifestLine, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return manifestLine{}, false, nil
	}

	fields := strings.Split(line, "\t")
	if len(fields) < 3 || len(fields) > 4 {
		return manifestLine{}, false, fmt.Errorf("line %d: expected 3 or 4 tab-separated fields, got %d", number, len(fields))
	}

	ml := manifestLine{
		number:   number,
		itemType: core.ItemType(strings.ToLower(strings.TrimSpace(fields[0]))),
		title:    strings.TrimSpace(fields[1]),
		image:    strings.TrimSpace(fields[2]),
	}
	if len(fields) == 4 {
		ml.category = strings.TrimSpace(fields[3])
	}
	if ml.image == "" {
		return manifestLine{}, false, fmt.Errorf("line %d: missing image path", number)
	}
	if !filepath.IsAbs(ml.image) {
		ml.image = filepath.Join(baseDir, ml.image)
	}
	return ml, true, nil
}

// importManifest uploads every item in source and returns the number stored.
func importManifest(ctx context.Context, pipeline *ingestion.Pipeline, source iter.Seq2[int, string], baseDir string, owner core.ID, keepGoing bool) (int, error) {
	var (
		imported int
		failures []error
	)
	for n, line := range source {
		if err := ctx.Err(); err != nil {
			return imported, err
		}

		ml, ok, err := parseManifestLine(n, line, baseDir)
		if err == nil && ok {
			var item *core.Item
			item, err = pipeline.Upload(ctx, ingestion.UploadRequest{
				Title:    ml.title,
				Type:     ml.itemType,
				Category: ml.category,
				OwnerID:  owner,
				Image:    ai.ImagePath(ml.image),
			})
			if err != nil {
				err = fmt.Errorf("line %d: %w", n, err)
			} else {
				imported++
				slog.Info("imported item", "line", n, "id", uint64(item.Id), "title", item.Title, "category", item.Category)
			}
		}
		if err == nil {
			continue
		}
		if !keepGoing {
			return imported, err
		}
		slog.Warn("skipping line", "error", err)
		failures = append(failures, err)
	}
	return imported, errors.Join(failures...)
}

func importAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one manifest path")
	}
	manifest := c.Args().First()

	source, err := linesFromFile(manifest)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}

	db, err := openDatabase(c.Context, loadedConfig(c))
	if err != nil {
		return err
	}
	defer db.Close()

	username := c.String("owner")
	owner, err := db.UserRepository().GetUser(c.Context, core.UserIDFor(username))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("unknown owner %q: create it with useradd first", username)
	}
	if err != nil {
		return err
	}

	pipeline, err := db.NewUploadPipeline()
	if err != nil {
		return fmt.Errorf("failed to create upload pipeline: %w", err)
	}
	defer pipeline.Release()

	imported, err := importManifest(c.Context, pipeline, source, filepath.Dir(manifest), owner.Id, c.Bool("keep-going"))
	fmt.Fprintf(os.Stderr, "Imported %d items\n", imported)
	return err
}
