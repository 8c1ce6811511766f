package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/store"
)

func newListCmd(e *env) *cobra.Command {
	var (
		page      int
		completed string
		priority  string
		status    string
		sortMode  string
		search    string
	)

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List todos one page at a time",
		Long: `List todos, one server page at a time.

Examples:
  irontodo list
  irontodo list --page 2
  irontodo list --completed incomplete --priority high
  irontodo list --sort text-asc --search milk`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session()
			if err != nil {
				return err
			}
			done, err := store.ParseCompleted(completed)
			if err != nil {
				return err
			}
			if sortMode != "" && model.SortLabel(sortMode) == sortMode {
				return fmt.Errorf("unknown sort mode %q", sortMode)
			}
			ctx := cmd.Context()

			todos := a.Todos
			err = todos.SetFilter(ctx, func(f *store.TodoFilter) {
				f.Completed = done
				f.Priority = priority
				f.Status = status
				if sortMode != "" {
					f.Sort = sortMode
				}
			})
			if err == nil && page > 1 {
				err = todos.FetchPage(ctx, page, false)
			}
			if err != nil {
				return fmt.Errorf("failed to list todos: %w", err)
			}
			todos.SetSearch(search)

			st := todos.Snapshot()
			visible := todos.VisibleItems()
			c := loadCatalogs(ctx, a)

			e.printf("\n📋 Todos · page %d/%d · %d total · %s\n",
				st.Page, st.TotalPages(), st.Total, model.SortLabel(st.Filter.Sort))
			e.printf("%s\n", strings.Repeat("─", 72))
			if len(visible) == 0 {
				if search != "" {
					e.printf("  No todos on this page match %q.\n", search)
				} else {
					e.printf("  No todos found. Add one with: irontodo add \"Your todo\"\n")
				}
			}
			for _, t := range visible {
				printTodo(e.out, t, c)
			}
			pageFooter(e.out, "irontodo list", st.Page, st.HasPrev(), st.HasNext())
			return nil
		},
	}

	listCmd.Flags().IntVarP(&page, "page", "n", 1, "Page number")
	listCmd.Flags().StringVarP(&completed, "completed", "c", store.CompletedAll, "all, completed or incomplete")
	listCmd.Flags().StringVarP(&priority, "priority", "p", "", "Only todos with this priority key")
	listCmd.Flags().StringVar(&status, "status", "", "Only todos with this status key")
	listCmd.Flags().StringVarP(&sortMode, "sort", "s", "", "Sort mode (priority-desc, priority-desc-text-asc, incomplete-priority-desc, text-asc, text-desc)")
	listCmd.Flags().StringVarP(&search, "search", "q", "", "Filter the page by title")
	return listCmd
}
