package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/shelfwise/shelfwise-server/internal/category"
	"github.com/shelfwise/shelfwise-server/internal/di/providers"
)

var (
	migrateFrom      string
	migrateTo        string
	migrateCanonical bool
)

func init() {
	migrateCategoriesCmd.Flags().StringVar(&migrateFrom, "from", "", "category to rename (case-insensitive)")
	migrateCategoriesCmd.Flags().StringVar(&migrateTo, "to", "", "new category name")
	migrateCategoriesCmd.Flags().BoolVar(&migrateCanonical, "canonical", false, "rewrite every category to its canonical name")
	migrateCategoriesCmd.MarkFlagsRequiredTogether("from", "to")
	migrateCategoriesCmd.MarkFlagsOneRequired("from", "canonical")
	migrateCategoriesCmd.MarkFlagsMutuallyExclusive("from", "canonical")

	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(migrateCategoriesCmd)
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the distinct categories with book counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd, func(ctx context.Context, injector *do.RootScope) error {
			st := do.MustInvoke[*providers.StoreHandle](injector)
			counts, err := st.CategoryCounts(ctx)
			if err != nil {
				return err
			}
			if len(counts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No categories.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tBOOKS")
			for _, c := range counts {
				fmt.Fprintf(w, "%s\t%d\n", c.Category, c.Count)
			}
			return w.Flush()
		})
	},
}

var migrateCategoriesCmd = &cobra.Command{
	Use:   "migrate-categories",
	Short: "Rename a category across the catalog",
	Long: `Rename a category in every book that carries it, or rewrite all
categories to their canonical names. Books whose categories end up
unchanged are not touched.

Examples:
  shelfctl migrate-categories --from "Sci-Fi" --to "Science Fiction"
  shelfctl migrate-categories --canonical`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rewrite := category.CanonicalAll
		if !migrateCanonical {
			to := strings.TrimSpace(migrateTo)
			if to == "" {
				return fmt.Errorf("--to must not be blank")
			}
			rewrite = renameCategory(migrateFrom, to)
		}

		return withContainer(cmd, func(ctx context.Context, injector *do.RootScope) error {
			st := do.MustInvoke[*providers.StoreHandle](injector)
			n, err := st.RewriteCategories(ctx, rewrite)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d books\n", n)
			return nil
		})
	},
}

// renameCategory returns a rewrite that replaces from with to, matching
// case-insensitively, and drops the duplicate when a book already has to.
func renameCategory(from, to string) func([]string) []string {
	from = strings.TrimSpace(from)
	return func(cats []string) []string {
		out := make([]string, 0, len(cats))
		for _, c := range cats {
			if strings.EqualFold(strings.TrimSpace(c), from) {
				c = to
			}
			if slices.ContainsFunc(out, func(o string) bool { return strings.EqualFold(o, c) }) {
				continue
			}
			out = append(out, c)
		}
		return out
	}
}
