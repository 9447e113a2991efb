package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shelfwise/shelfwise-server/internal/category"
	"github.com/shelfwise/shelfwise-server/internal/service"
)

var (
	seedFile      string
	seedCanonical bool
	seedDryRun    bool
)

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML catalog file, or - for stdin (required)")
	seedCmd.Flags().BoolVar(&seedCanonical, "canonical", true, "canonicalize category names before saving")
	seedCmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "parse and validate the file without writing")
	_ = seedCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load books from a YAML catalog file",
	Long: `Load books from a YAML catalog file. Each entry is created through the
same validation the API applies, and indexed for search.

File format:

  books:
    - title: Dune
      author: Frank Herbert
      published_year: 1965
      categories: [Science Fiction, Classics]
      available: true
      description: A desert planet and its spice.

Examples:
  shelfctl seed --file catalog.yaml
  cat catalog.yaml | shelfctl seed --file -`,
	RunE: runSeed,
}

// seedCatalog is the YAML seed file layout.
type seedCatalog struct {
	Books []seedBook `yaml:"books"`
}

type seedBook struct {
	Title         string   `yaml:"title"`
	Author        string   `yaml:"author"`
	PublishedYear int      `yaml:"published_year"`
	Categories    []string `yaml:"categories"`
	Available     *bool    `yaml:"available"`
	ImageURL      string   `yaml:"image_url"`
	Description   string   `yaml:"description"`
}

func (b seedBook) input(canonical bool) service.BookInput {
	cats := b.Categories
	if canonical {
		cats = category.CanonicalAll(cats)
	}
	return service.BookInput{
		Title:         b.Title,
		Author:        b.Author,
		PublishedYear: b.PublishedYear,
		Categories:    cats,
		Available:     b.Available,
		ImageURL:      b.ImageURL,
		Description:   b.Description,
	}
}

// loadCatalog decodes a seed file. Unknown keys are rejected so typos do not
// silently drop fields.
func loadCatalog(r io.Reader, canonical bool) ([]service.BookInput, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cat seedCatalog
	if err := dec.Decode(&cat); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	out := make([]service.BookInput, len(cat.Books))
	for i, b := range cat.Books {
		out[i] = b.input(canonical)
	}
	return out, nil
}

func openSeedFile(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	f, err := openSeedFile(seedFile)
	if err != nil {
		return err
	}
	defer f.Close()

	books, err := loadCatalog(f, seedCanonical)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No books in catalog file.")
		return nil
	}

	if seedDryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "Parsed %d books (dry run, nothing written)\n", len(books))
		return nil
	}

	return withContainer(cmd, func(ctx context.Context, injector *do.RootScope) error {
		svc := do.MustInvoke[*service.BookService](injector)

		created, failed := 0, 0
		for i, in := range books {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b, err := svc.CreateBook(ctx, in)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "  entry %d (%q): %v\n", i+1, in.Title, err)
				continue
			}
			created++
			fmt.Fprintf(cmd.OutOrStdout(), "  + %s  %s\n", b.ID, b.Title)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d books, %d failed\n", created, failed)
		if failed > 0 {
			return fmt.Errorf("%d entries failed", failed)
		}
		return nil
	})
}
