package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raphaelgruber/storyshelf/internal/export"
	"github.com/raphaelgruber/storyshelf/internal/metrics"
	"github.com/raphaelgruber/storyshelf/internal/query"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Interactive query and tagging session",
	Long: `Start an interactive session. Plain lines are search expressions;
lines starting with ':' are session commands:

  :tag <statement>   apply a tagging statement
  :format <name>     set the output format (text, tags, mermaid)
  :sort <order>      set the sort order (asc, desc, none)
  :stats             show run statistics
  :quit              leave the session

Errors are reported and the session keeps running.`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	_, search, err := loadLibrary(context.Background())
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	format := export.FormatText
	sort := query.SortNone

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("storyshelf> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			if quit := runBrowseCommand(search, line, &format, &sort); quit {
				break
			}
			continue
		}

		result, err := search.Search(os.Stdout, line, "", format, sort)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Printf("%d books (search #%d)\n", len(result.Books), result.Entry.Seq)
	}
	return scanner.Err()
}

// runBrowseCommand handles one ':' command; returns true on quit.
func runBrowseCommand(search searchSession, line string, format *export.Format, sort *query.SortOrder) bool {
	name, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "quit", "q", "exit":
		return true

	case "tag":
		if rest == "" {
			fmt.Fprintln(os.Stderr, "usage: :tag <statement>")
			return false
		}
		if err := search.TagAndRecord(rest); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return false
		}
		fmt.Println("ok")

	case "format":
		f, err := export.ParseFormat(rest)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return false
		}
		*format = f

	case "sort":
		*sort = query.ParseSortOrder(rest)

	case "stats":
		printStats()

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", ":"+name)
	}
	return false
}

// searchSession is the slice of SearchService the browse loop needs.
type searchSession interface {
	TagAndRecord(input string) error
}

func printStats() {
	snap := collector.Snapshot()
	fmt.Printf("uptime: %.0fs\n", snap.UptimeSeconds)
	printOpStats("queries", snap.QueryExec)
	printOpStats("exports", snap.Export)
	printOpStats("pages fetched", snap.FetchPage)
	printOpStats("stories fetched", snap.FetchStory)
	printOpStats("stories scored", snap.Score)
}

func printOpStats(label string, s *metrics.OperationSnapshot) {
	if s == nil {
		return
	}
	fmt.Printf("%s: %d (avg %.1fms", label, s.Count, s.AvgTimeMs)
	if s.TotalItems > 0 {
		fmt.Printf(", %d items", s.TotalItems)
	}
	if s.Errors > 0 {
		fmt.Printf(", %d errors", s.Errors)
	}
	fmt.Println(")")
}
