package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/storyshelf/internal/export"
	"github.com/raphaelgruber/storyshelf/internal/library"
	"github.com/raphaelgruber/storyshelf/internal/query"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the whole library in a chosen format",
	Long: `Render every book in the library without running a query.

The tags format lists every tag with its ancestor lineage; text renders
one block per book; mermaid emits a flowchart of the touched subgraph.

Examples:
  storyshelf export --format tags
  storyshelf export --format mermaid -o library.mmd`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "tags", "output format: text, tags, mermaid")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "write to file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	lib, _, err := loadLibrary(context.Background())
	if err != nil {
		return err
	}

	out := os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	all := query.Result(func(yield func(*library.Book, query.Path) bool) {
		for _, b := range lib.Books() {
			if !yield(b, nil) {
				return
			}
		}
	})
	_, err = export.New(lib).Export(out, all, format)
	return err
}
