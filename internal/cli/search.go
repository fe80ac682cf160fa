package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/storyshelf/internal/export"
	"github.com/raphaelgruber/storyshelf/internal/query"
)

var (
	searchFormat string
	searchSort   string
	searchOut    string
)

var searchCmd = &cobra.Command{
	Use:   "search <expression>",
	Short: "Run a search expression over the library",
	Long: `Run a boolean search expression over the tag graph.

A condition pairs a start tag with a pattern: t == 'topic' ^ q == 'seafaring'.
Patterns are substrings by default; wrap in slashes for a regex. Conditions
combine with && (intersection), || (union), - (difference) and ! (complement).

Examples:
  storyshelf search "t == 'author' ^ q == 'lagerlöf'"
  storyshelf search "t == 'topic' ^ q == '/sea|ship/' && !(t == 'maturity' ^ q == 'restricted')"
  storyshelf search "t == 'custom' ^ q == 'favorite'" --format mermaid --sort asc`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchFormat, "format", "f", "text", "output format: text, tags, mermaid")
	searchCmd.Flags().StringVarP(&searchSort, "sort", "s", "", "sort by path weight: asc, desc")
	searchCmd.Flags().StringVarP(&searchOut, "output", "o", "", "write to file instead of stdout")
}

func runSearch(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(searchFormat)
	if err != nil {
		return err
	}

	_, search, err := loadLibrary(context.Background())
	if err != nil {
		return err
	}

	out := os.Stdout
	if searchOut != "" {
		f, err := os.Create(searchOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	result, err := search.Search(out, args[0], searchOut, format, query.ParseSortOrder(searchSort))
	if err != nil {
		return err
	}
	cmd.PrintErrf("%d books, recorded as search #%d\n", len(result.Books), result.Entry.Seq)
	return nil
}
