package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/storyshelf/internal/fetch"
	"github.com/raphaelgruber/storyshelf/internal/library"
)

// Source configures one remote story index.
type Source struct {
	Name        string `yaml:"name"`
	Alias       string `yaml:"alias,omitempty"`
	PagePattern string `yaml:"page_pattern"`
	Pages       int    `yaml:"pages,omitempty"`
}

// Sources is the sources.yaml file in the data directory.
type Sources struct {
	Sources []Source `yaml:"sources"`
}

// Descriptors converts the configured sources into library descriptors.
func (s Sources) Descriptors() []*library.IndexDescriptor {
	out := make([]*library.IndexDescriptor, 0, len(s.Sources))
	for _, src := range s.Sources {
		out = append(out, &library.IndexDescriptor{
			Name:  src.Name,
			Alias: src.Alias,
			Pages: src.Pages,
		})
	}
	return out
}

// Registry builds the fetch adapter registry from the configured sources.
func (s Sources) Registry() *fetch.Registry {
	r := fetch.NewRegistry()
	for _, src := range s.Sources {
		r.Register(&fetch.ListingAdapter{
			SourceName:  src.Name,
			PagePattern: src.PagePattern,
			MaxPages:    src.Pages,
		})
	}
	return r
}

func sourcesPath() string {
	return filepath.Join(cfg.DataDir, "sources.yaml")
}

func loadSources() (Sources, error) {
	var s Sources
	data, err := os.ReadFile(sourcesPath())
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read sources: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("decode sources: %w", err)
	}
	return s, nil
}

func saveSources(s Sources) error {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}
	if err := os.WriteFile(sourcesPath(), data, 0644); err != nil {
		return fmt.Errorf("write sources: %w", err)
	}
	return nil
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured story sources",
	Args:  cobra.NoArgs,
	RunE:  runSources,
}

var (
	sourceAlias string
	sourcePages int
)

var sourcesAddCmd = &cobra.Command{
	Use:   "add <name> <page-pattern>",
	Short: "Register a story source",
	Long: `Register a story source. The page pattern is a URL template with
one %d verb for the page number.

Examples:
  storyshelf sources add stories "https://stories.example/list/%d" --alias st --pages 40`,
	Args: cobra.ExactArgs(2),
	RunE: runSourcesAdd,
}

func init() {
	sourcesAddCmd.Flags().StringVar(&sourceAlias, "alias", "", "short alias for tagging statements")
	sourcesAddCmd.Flags().IntVar(&sourcePages, "pages", 0, "page count, 0 = unbounded")
	sourcesCmd.AddCommand(sourcesAddCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	sources, err := loadSources()
	if err != nil {
		return err
	}
	if len(sources.Sources) == 0 {
		fmt.Println("No sources configured. Add one with 'storyshelf sources add'.")
		return nil
	}
	for _, src := range sources.Sources {
		line := src.Name
		if src.Alias != "" {
			line += " (" + src.Alias + ")"
		}
		if src.Pages > 0 {
			line += fmt.Sprintf(", %d pages", src.Pages)
		}
		fmt.Printf("%s\n  %s\n", line, src.PagePattern)
	}
	return nil
}

func runSourcesAdd(cmd *cobra.Command, args []string) error {
	sources, err := loadSources()
	if err != nil {
		return err
	}
	for _, src := range sources.Sources {
		if src.Name == args[0] {
			return fmt.Errorf("source %q already configured", args[0])
		}
	}
	sources.Sources = append(sources.Sources, Source{
		Name:        args[0],
		PagePattern: args[1],
		Alias:       sourceAlias,
		Pages:       sourcePages,
	})
	if err := saveSources(sources); err != nil {
		return err
	}
	fmt.Printf("Added source %q\n", args[0])
	return nil
}
