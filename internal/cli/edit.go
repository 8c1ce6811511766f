package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/irontodo/internal/model"
)

func newEditCmd(e *env) *cobra.Command {
	var (
		title       string
		description string
		priority    string
		status      string
		completed   bool
	)

	editCmd := &cobra.Command{
		Use:   "edit [todo-key]",
		Short: "Edit a todo",
		Long: `Change the fields of a todo. Only the flags given are changed.

Examples:
  irontodo edit 1a2b3c4d --title "Buy oat milk"
  irontodo edit 1a2b3c4d -p low --status done`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var patch model.TodoPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = model.StringPtr(title)
			}
			if flags.Changed("description") {
				patch.Description = model.StringPtr(description)
			}
			if flags.Changed("priority") {
				patch.Priority = model.StringPtr(priority)
			}
			if flags.Changed("status") {
				patch.Status = model.StringPtr(status)
			}
			if flags.Changed("completed") {
				patch.Completed = model.BoolPtr(completed)
			}
			if patch == (model.TodoPatch{}) {
				return fmt.Errorf("nothing to change, pass at least one flag")
			}

			t, err := findTodo(ctx, a, args[0])
			if err != nil {
				return err
			}
			saved, err := a.Todos.Edit(ctx, t.Key, patch)
			if err != nil {
				return fmt.Errorf("failed to update todo: %w", err)
			}

			e.printf("✏️  Updated: \"%s\"\n", saved.Title)
			return nil
		},
	}

	editCmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	editCmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	editCmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority key")
	editCmd.Flags().StringVar(&status, "status", "", "New status key")
	editCmd.Flags().BoolVar(&completed, "completed", false, "Completed flag")
	return editCmd
}
