package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"task-helper/api/internal/book"
	"task-helper/api/internal/task"
)

var (
	findBook string
	findTask int
	findPage int
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Print the page and text of a numbered exercise",
	Long: `Look up an exercise without asking the AI.

With --page only that page is searched, otherwise the whole book from page 1.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := book.NewLibrary(cfg.BooksDir).Open(findBook)
		if err != nil {
			return err
		}
		defer doc.Close()

		var hit task.Hit
		if findPage > 0 {
			hit, err = task.FindOnPage(doc, findPage, findTask)
		} else {
			hit, err = task.FindTask(cmd.Context(), doc, findTask)
		}
		if errors.Is(err, task.ErrNotFound) {
			return fmt.Errorf("task %d not found in %s", findTask, findBook)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "page %d\n%s\n", hit.PageIndex, hit.Fragment)
		return nil
	},
}

func init() {
	findCmd.Flags().StringVar(&findBook, "book", "", "PDF file name inside BOOKS_DIR")
	findCmd.Flags().IntVar(&findTask, "task", 0, "exercise number")
	findCmd.Flags().IntVar(&findPage, "page", 0, "page number (strict mode)")
	_ = findCmd.MarkFlagRequired("book")
	_ = findCmd.MarkFlagRequired("task")
}
