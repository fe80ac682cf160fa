package cli

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raphaelgruber/storyshelf/internal/fetch"
	"github.com/raphaelgruber/storyshelf/internal/score"
	"github.com/raphaelgruber/storyshelf/internal/service"
)

var (
	fetchFrom  int
	fetchTo    int
	fetchScore bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <source>",
	Short: "Download listing pages from a configured source",
	Long: `Download listing pages from a configured source and store them as
page records. With --score, each story's text is also fetched, scored
by the configured language model and stored as a profile.

Examples:
  storyshelf fetch stories
  storyshelf fetch stories --from 3 --to 7 --score`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().IntVar(&fetchFrom, "from", 1, "first page to fetch")
	fetchCmd.Flags().IntVar(&fetchTo, "to", 0, "last page to fetch, 0 = until the source runs out")
	fetchCmd.Flags().BoolVar(&fetchScore, "score", false, "score each story into a profile")
}

func runFetch(cmd *cobra.Command, args []string) error {
	sources, err := loadSources()
	if err != nil {
		return err
	}

	var scorer *score.Scorer
	if fetchScore {
		model, err := score.NewModel(cfg)
		if err != nil {
			return fmt.Errorf("init scorer: %w", err)
		}
		scorer = score.NewScorer(model, cfg.ScoreChunkSize, nil)
	}

	client := fetch.NewClient(cfg.FetchTimeout, cfg.UserAgent, nil)
	svc := service.NewFetchService(client, sources.Registry(), store, scorer, collector, nil)

	opts := service.FetchOptions{
		Source:   args[0],
		FromPage: fetchFrom,
		ToPage:   fetchTo,
		Score:    fetchScore,
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return runFetchInteractive(svc, opts)
	}
	return runFetchPlain(svc, opts)
}

// runFetchInteractive drives the fetch from a goroutine and renders
// progress with bubbletea. Quitting the UI cancels the fetch.
func runFetchInteractive(svc *service.FetchService, opts service.FetchOptions) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	totalPages := 0
	if opts.ToPage > 0 {
		totalPages = opts.ToPage - max(opts.FromPage, 1) + 1
	}
	p := tea.NewProgram(newFetchModel(opts.Source, totalPages))

	opts.Progress = func(ev service.ProgressEvent) {
		p.Send(fetchEventMsg(ev))
	}
	go func() {
		result, err := svc.Fetch(ctx, opts)
		p.Send(fetchDoneMsg{result: result, err: err})
	}()

	final, err := p.Run()
	cancel()
	if err != nil {
		return err
	}
	if m, ok := final.(fetchModel); ok && m.err != nil && !m.quitting {
		return m.err
	}
	return nil
}

func runFetchPlain(svc *service.FetchService, opts service.FetchOptions) error {
	opts.Progress = func(ev service.ProgressEvent) {
		if ev.Err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", ev.Err)
			return
		}
		switch ev.Stage {
		case service.StagePage:
			fmt.Printf("fetched page %d\n", ev.Page)
		case service.StageScore:
			fmt.Printf("scored story %s\n", ev.StoryID)
		}
	}

	result, err := svc.Fetch(context.Background(), opts)
	if err != nil {
		return err
	}
	fmt.Printf("done: %d pages, %d stories, %d scored, %d errors\n",
		result.Pages, result.Stories, result.Scored, len(result.Errors))
	return nil
}
