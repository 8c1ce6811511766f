package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/irontodo/internal/model"
)

func newAddCmd(e *env) *cobra.Command {
	var (
		priority    string
		description string
		status      string
		completed   bool
	)

	addCmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a new todo",
		Long: `Add a new todo.

Examples:
  irontodo add "Buy milk"
  irontodo add "Ship release" -p urgent --status in-progress`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session()
			if err != nil {
				return err
			}

			draft := model.TodoDraft{
				Title:       strings.Join(args, " "),
				Description: description,
				Priority:    priority,
				Completed:   completed,
			}
			if status != "" {
				draft.Status = model.StringPtr(status)
			}

			t, err := a.Todos.Add(cmd.Context(), draft)
			if err != nil {
				return fmt.Errorf("failed to create todo: %w", err)
			}

			c := loadCatalogs(cmd.Context(), a)
			e.printf("✓ Added: \"%s\" (%s) %s\n", t.Title, c.priority(t.Priority), shortKey(t.Key))
			return nil
		},
	}

	addCmd.Flags().StringVarP(&priority, "priority", "p", "medium", "Priority key")
	addCmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	addCmd.Flags().StringVar(&status, "status", "", "Status key")
	addCmd.Flags().BoolVar(&completed, "completed", false, "Create as completed")
	return addCmd
}
