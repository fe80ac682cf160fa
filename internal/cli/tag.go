package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag <statement>",
	Short: "Apply a tagging statement",
	Long: `Apply a tagging statement to the library's custom tags.

Statements chain with ';' and abort on the first failure:
  +t('name')                      create a custom tag
  -t('name')                      delete a custom tag
  t('a') -> t('b')                connect tag a to tag b
  t('a') -/> t('b')               disconnect
  t('fav') -> s('st').id('42')    attach a tag to a book

Examples:
  storyshelf tag "+t('favorite'); t('favorite') -> s('stories').id('42')"
  storyshelf tag "-t('old-shelf')"`,
	Args: cobra.ExactArgs(1),
	RunE: runTag,
}

func runTag(cmd *cobra.Command, args []string) error {
	_, search, err := loadLibrary(context.Background())
	if err != nil {
		return err
	}
	if err := search.TagAndRecord(args[0]); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}
