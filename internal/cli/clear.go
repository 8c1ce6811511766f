package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCmd(e *env) *cobra.Command {
	var force bool

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget local state",
		Long: `Clear the local state database: stored token, user key and theme.
Nothing on the server is touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force && !e.confirm("Are you sure you want to clear local state?") {
				e.printf("Aborted.\n")
				return nil
			}

			a, err := e.App()
			if err != nil {
				return err
			}
			e.printf("🧹 Clearing local state...\n")
			if err := a.Storage.Clear(); err != nil {
				return fmt.Errorf("failed to clear local state: %w", err)
			}
			a.ResetStores()
			e.printf("Local state cleared.\n")
			return nil
		},
	}

	clearCmd.Flags().BoolVarP(&force, "force", "f", false, "Do not ask for confirmation")
	return clearCmd
}
