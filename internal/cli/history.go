package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/storyshelf/internal/export"
	"github.com/raphaelgruber/storyshelf/internal/query"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded searches",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var (
	rerunFormat string
	rerunSort   string
)

var historyRerunCmd = &cobra.Command{
	Use:   "rerun <seq>",
	Short: "Re-execute a recorded search by its sequence number",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryRerun,
}

func init() {
	historyRerunCmd.Flags().StringVarP(&rerunFormat, "format", "f", "text", "output format: text, tags, mermaid")
	historyRerunCmd.Flags().StringVarP(&rerunSort, "sort", "s", "", "sort by path weight: asc, desc")
	historyCmd.AddCommand(historyRerunCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	entries, err := store.History()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No searches recorded yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("#%d  %s  %d books\n    %s\n",
			e.Seq, e.Timestamp.Format("2006-01-02 15:04"), len(e.Books), e.Input)
	}
	return nil
}

func runHistoryRerun(cmd *cobra.Command, args []string) error {
	seq, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("sequence number must be an integer: %q", args[0])
	}

	format, err := export.ParseFormat(rerunFormat)
	if err != nil {
		return err
	}

	_, search, err := loadLibrary(context.Background())
	if err != nil {
		return err
	}

	result, err := search.Rerun(os.Stdout, seq, "", format, query.ParseSortOrder(rerunSort))
	if err != nil {
		return err
	}
	cmd.PrintErrf("%d books, recorded as search #%d\n", len(result.Books), result.Entry.Seq)
	return nil
}
