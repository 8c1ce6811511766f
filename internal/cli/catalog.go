package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/irontodo/internal/model"
)

// catalogFlags are the form fields shared by priorities and statuses
type catalogFlags struct {
	name        string
	description string
	color       string
	icon        string
	order       int
	isDefault   bool
}

func (f *catalogFlags) bind(cmd *cobra.Command, withDefault bool) {
	cmd.Flags().StringVar(&f.name, "name", "", "Display name")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Description")
	cmd.Flags().StringVarP(&f.color, "color", "c", "#4ECDC4", "Color (#RRGGBB)")
	cmd.Flags().StringVarP(&f.icon, "icon", "i", "fa-circle", "Icon key")
	cmd.Flags().IntVarP(&f.order, "order", "o", 1, "Position, starting at 1")
	if withDefault {
		cmd.Flags().BoolVar(&f.isDefault, "default", false, "Use for new todos")
	}
}

func parseOrders(args []string) (int, int, error) {
	from, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid from order %q", args[1])
	}
	to, err := strconv.Atoi(args[2])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid to order %q", args[2])
	}
	return from, to, nil
}

func newPriorityCmd(e *env) *cobra.Command {
	priorityCmd := &cobra.Command{
		Use:     "priority",
		Aliases: []string{"priorities"},
		Short:   "Manage priorities",
		Long:    `Create, list, reorder and delete the priorities todos are ranked by.`,
	}

	var page int
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List priorities",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session()
			if err != nil {
				return err
			}
			s := a.Priorities
			if err := s.FetchPage(cmd.Context(), page, false); err != nil {
				return fmt.Errorf("failed to list priorities: %w", err)
			}

			st := s.Snapshot()
			e.printf("\n🏷️  Priorities · page %d/%d · %d total\n", st.Page, st.TotalPages(), st.Total)
			e.printf("%s\n", strings.Repeat("─", 60))
			if len(st.Items) == 0 {
				e.printf("  No priorities. Create one with: irontodo priority new \"High\"\n")
			}
			printPriorities(e.out, st.Items)
			pageFooter(e.out, "irontodo priority list", st.Page, st.HasPrev(), st.HasNext())
			return nil
		},
	}
	listCmd.Flags().IntVarP(&page, "page", "n", 1, "Page number")

	var newFlags catalogFlags
	newCmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Create a priority",
		Long: `Create a priority. Inserting at a used order shifts the others down.

Examples:
  irontodo priority new "Someday" --color "#9CA3AF" --icon fa-clock --order 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			draft := model.PriorityDraft{
				Name:        args[0],
				Description: newFlags.description,
				Color:       newFlags.color,
				Icon:        newFlags.icon,
				Order:       newFlags.order,
			}

			avail, err := a.Priorities.CheckAvailability(ctx, draft)
			if err != nil {
				return fmt.Errorf("failed to check name: %w", err)
			}
			if !avail.Available {
				msg := avail.Message
				if msg == "" {
					msg = "name already in use"
				}
				return fmt.Errorf("cannot create %q: %s", draft.Name, msg)
			}

			p, err := a.Priorities.Add(ctx, draft)
			if err != nil {
				return fmt.Errorf("failed to create priority: %w", err)
			}
			e.printf("✓ Created priority %s %s (order %d)\n", model.IconFor(p).Glyph, p.Name, p.Order)
			return nil
		},
	}
	newFlags.bind(newCmd, false)

	var editFlags catalogFlags
	editCmd := &cobra.Command{
		Use:   "edit [key]",
		Short: "Change fields of a priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session()
			if err != nil {
				return err
			}
			var patch model.PriorityPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = model.StringPtr(editFlags.name)
			}
			if flags.Changed("description") {
				patch.Description = model.StringPtr(editFlags.description)
			}
			if flags.Changed("color") {
				patch.Color = model.StringPtr(editFlags.color)
			}
			if flags.Changed("icon") {
				patch.Icon = model.StringPtr(editFlags.icon)
			}
			if flags.Changed("order") {
				patch.Order = &editFlags.order
			}
			if patch == (model.PriorityPatch{}) {
				return fmt.Errorf("nothing to change, pass at least one flag")
			}

			p, err := a.Priorities.Patch(cmd.Context(), args[0], patch)
			if err != nil {
				return fmt.Errorf("failed to update priority: %w", err)
			}
			e.printf("✏️  Updated priority %s\n", p.Name)
			return nil
		},
	}
	editFlags.bind(editCmd, false)

	deleteCmd := &cobra.Command{
		Use:     "delete [key]",
		Aliases: []string{"rm"},
		Short:   "Delete a priority",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session()
			if err != nil {
				return err
			}
			if err := a.Priorities.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete priority: %w", err)
			}
			e.printf("🗑️  Deleted priority %s\n", args[0])
			return nil
		},
	}

	reorderCmd := &cobra.Command{
		Use:   "reorder [key] [from] [to]",
		Short: "Move a priority to another position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session()
			if err != nil {
				return err
			}
			from, to, err := parseOrders(args)
			if err != nil {
				return err
			}
			if err := a.Priorities.Reorder(cmd.Context(), args[0], from, to); err != nil {
				return fmt.Errorf("failed to reorder priority: %w", err)
			}
			printPriorities(e.out, a.Priorities.Snapshot().Items)
			return nil
		},
	}

	priorityCmd.AddCommand(listCmd, newCmd, editCmd, deleteCmd, reorderCmd)
	return priorityCmd
}

func newStatusCmd(e *env) *cobra.Command {
	statusCmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"statuses"},
		Short:   "Manage statuses",
		Long:    `Create, list, reorder and delete the workflow statuses of todos.`,
	}

	var page int
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List statuses",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session()
			if err != nil {
				return err
			}
			s := a.Statuses
			if err := s.FetchPage(cmd.Context(), page, false); err != nil {
				return fmt.Errorf("failed to list statuses: %w", err)
			}

			st := s.Snapshot()
			e.printf("\n🚦 Statuses · page %d/%d · %d total\n", st.Page, st.TotalPages(), st.Total)
			e.printf("%s\n", strings.Repeat("─", 60))
			if len(st.Items) == 0 {
				e.printf("  No statuses.\n")
			}
			printStatuses(e.out, st.Items)
			pageFooter(e.out, "irontodo status list", st.Page, st.HasPrev(), st.HasNext())
			return nil
		},
	}
	listCmd.Flags().IntVarP(&page, "page", "n", 1, "Page number")

	var newFlags catalogFlags
	newCmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Create a status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session()
			if err != nil {
				return err
			}
			st, err := a.Statuses.Add(cmd.Context(), model.StatusDraft{
				Name:        args[0],
				Description: newFlags.description,
				Color:       newFlags.color,
				Icon:        newFlags.icon,
				Order:       newFlags.order,
				IsDefault:   newFlags.isDefault,
			})
			if err != nil {
				return fmt.Errorf("failed to create status: %w", err)
			}
			e.printf("✓ Created status %s (order %d)\n", st.Name, st.Order)
			return nil
		},
	}
	newFlags.bind(newCmd, true)

	var editFlags catalogFlags
	editCmd := &cobra.Command{
		Use:   "edit [key]",
		Short: "Change fields of a status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session()
			if err != nil {
				return err
			}
			var patch model.StatusPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = model.StringPtr(editFlags.name)
			}
			if flags.Changed("description") {
				patch.Description = model.StringPtr(editFlags.description)
			}
			if flags.Changed("color") {
				patch.Color = model.StringPtr(editFlags.color)
			}
			if flags.Changed("icon") {
				patch.Icon = model.StringPtr(editFlags.icon)
			}
			if flags.Changed("order") {
				patch.Order = &editFlags.order
			}
			if flags.Changed("default") {
				patch.IsDefault = model.BoolPtr(editFlags.isDefault)
			}
			if patch == (model.StatusPatch{}) {
				return fmt.Errorf("nothing to change, pass at least one flag")
			}

			st, err := a.Statuses.Patch(cmd.Context(), args[0], patch)
			if err != nil {
				return fmt.Errorf("failed to update status: %w", err)
			}
			e.printf("✏️  Updated status %s\n", st.Name)
			return nil
		},
	}
	editFlags.bind(editCmd, true)

	deleteCmd := &cobra.Command{
		Use:     "delete [key]",
		Aliases: []string{"rm"},
		Short:   "Delete a status",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session()
			if err != nil {
				return err
			}
			if err := a.Statuses.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete status: %w", err)
			}
			e.printf("🗑️  Deleted status %s\n", args[0])
			return nil
		},
	}

	reorderCmd := &cobra.Command{
		Use:   "reorder [key] [from] [to]",
		Short: "Move a status to another position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session()
			if err != nil {
				return err
			}
			from, to, err := parseOrders(args)
			if err != nil {
				return err
			}
			if err := a.Statuses.Reorder(cmd.Context(), args[0], from, to); err != nil {
				return fmt.Errorf("failed to reorder status: %w", err)
			}
			printStatuses(e.out, a.Statuses.Snapshot().Items)
			return nil
		},
	}

	statusCmd.AddCommand(listCmd, newCmd, editCmd, deleteCmd, reorderCmd)
	return statusCmd
}
