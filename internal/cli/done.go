package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/irontodo/internal/model"
)

func newDoneCmd(e *env) *cobra.Command {
	var undo bool

	doneCmd := &cobra.Command{
		Use:   "done [todo-key]",
		Short: "Mark a todo as done",
		Long: `Mark a todo as completed. A unique key prefix is enough.

Examples:
  irontodo done 1a2b3c4d
  irontodo done 1a2b3c4d --undo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			t, err := findTodo(ctx, a, args[0])
			if err != nil {
				return err
			}

			done := !undo
			if _, err := a.Todos.Edit(ctx, t.Key, model.TodoPatch{Completed: model.BoolPtr(done)}); err != nil {
				return fmt.Errorf("failed to update todo: %w", err)
			}

			if done {
				e.printf("✓ Completed: \"%s\"\n", t.Title)
			} else {
				e.printf("○ Reopened: \"%s\"\n", t.Title)
			}
			return nil
		},
	}

	doneCmd.Flags().BoolVar(&undo, "undo", false, "Mark todo as not done")
	return doneCmd
}
