package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/irontodo/internal/model"
)

func newAuthCmd(e *env) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
		Long:  `Log in to the todo API, manage the account and the stored token.`,
	}

	var username string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with username and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.App()
			if err != nil {
				return err
			}

			if username == "" {
				if username, err = e.readLine("Username: "); err != nil {
					return err
				}
			}
			password, err := e.readPassword("Password: ")
			if err != nil {
				return err
			}

			e.printf("🔄 Logging in...\n")
			u, err := a.User.Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			e.printf("✅ Logged in as %s\n", u.Username)
			return nil
		},
	}
	loginCmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted when empty)")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.App()
			if err != nil {
				return err
			}
			if !a.Session.Authenticated() {
				e.printf("Not logged in.\n")
				return nil
			}
			if err := a.Logout(); err != nil {
				return fmt.Errorf("failed to log out: %w", err)
			}
			e.printf("✅ Logged out successfully.\n")
			return nil
		},
	}

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.App()
			if err != nil {
				return err
			}

			var reg model.Registration
			if reg.Username, err = e.readLine("Username: "); err != nil {
				return err
			}
			if reg.Email, err = e.readLine("Email: "); err != nil {
				return err
			}
			if reg.FullName, err = e.readLine("Full name (optional): "); err != nil {
				return err
			}
			if reg.Password, err = e.readPassword("Password: "); err != nil {
				return err
			}
			confirm, err := e.readPassword("Confirm Password: ")
			if err != nil {
				return err
			}
			if reg.Password != confirm {
				return fmt.Errorf("passwords do not match")
			}

			e.printf("🔄 Creating account...\n")
			u, err := a.User.Register(cmd.Context(), reg)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			e.printf("✅ Account %s created. Log in with: irontodo auth login -u %s\n", u.Username, u.Username)
			return nil
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session()
			if err != nil {
				return err
			}
			u, err := a.User.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load profile: %w", err)
			}

			e.printf("👤 %s <%s>\n", u.Username, u.Email)
			if u.FullName != "" {
				e.printf("   %s\n", u.FullName)
			}
			e.printf("   key: %s\n", u.Key)
			if rec, ok := a.Session.Record(); ok && rec.ExpiresAt != nil {
				e.printf("   token expires: %s\n", rec.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	passwordCmd := &cobra.Command{
		Use:   "password",
		Short: "Change the account password",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.session()
			if err != nil {
				return err
			}

			var change model.PasswordChange
			if change.CurrentPassword, err = e.readPassword("Current Password: "); err != nil {
				return err
			}
			if change.NewPassword, err = e.readPassword("New Password: "); err != nil {
				return err
			}
			confirm, err := e.readPassword("Confirm New Password: ")
			if err != nil {
				return err
			}
			if change.NewPassword != confirm {
				return fmt.Errorf("passwords do not match")
			}

			if err := a.User.ChangePassword(cmd.Context(), change); err != nil {
				return fmt.Errorf("failed to change password: %w", err)
			}
			e.printf("✅ Password changed.\n")
			return nil
		},
	}

	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(whoamiCmd)
	authCmd.AddCommand(passwordCmd)
	return authCmd
}
