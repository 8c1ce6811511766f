package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd(e *env) *cobra.Command {
	var force bool

	deleteCmd := &cobra.Command{
		Use:     "delete [todo-key]",
		Aliases: []string{"rm"},
		Short:   "Delete a todo",
		Long: `Delete a todo by its key or a unique key prefix.

Examples:
  irontodo delete 1a2b3c4d
  irontodo rm 1a2b3c4d --force`,
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

			if e.cfg.Confirm && !force {
				e.printf("About to delete: \"%s\" (key: %s)\n", t.Title, t.Key)
				if !e.confirm("Are you sure?") {
					e.printf("Cancelled.\n")
					return nil
				}
			}

			if err := a.Todos.Delete(ctx, t.Key); err != nil {
				return fmt.Errorf("failed to delete todo: %w", err)
			}
			e.printf("🗑️  Deleted: \"%s\"\n", t.Title)
			return nil
		},
	}

	deleteCmd.Flags().BoolVarP(&force, "force", "f", false, "Do not ask for confirmation")
	return deleteCmd
}
