package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/accountd/internal/database"
	"github.com/jon4hz/accountd/internal/password"
	"github.com/spf13/cobra"
)

var seedCmdFlags struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo user",
	Long:  `Create a demo user if no user with the given email exists yet. An existing user is left untouched unless a password is given.`,
	Example: `accountd seed
accountd seed --email jane@example.com --first-name Jane --password secret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := database.New(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		user, created, err := db.GetOrCreateUser(cmd.Context(), &database.User{
			Email:     seedCmdFlags.Email,
			FirstName: seedCmdFlags.FirstName,
			LastName:  seedCmdFlags.LastName,
		})
		if err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		if seedCmdFlags.Password != "" {
			hash, err := password.New(cfg.Password.BcryptCost).Hash(seedCmdFlags.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
			if err := db.UpdateUser(cmd.Context(), user); err != nil {
				return fmt.Errorf("failed to set password: %w", err)
			}
		}

		if created {
			log.Info("created user", "id", user.ID, "email", user.Email)
		} else {
			log.Info("user already exists", "id", user.ID, "email", user.Email)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedCmdFlags.Email, "email", "demo@example.com", "Email of the user")
	seedCmd.Flags().StringVar(&seedCmdFlags.FirstName, "first-name", "Demo", "First name of the user")
	seedCmd.Flags().StringVar(&seedCmdFlags.LastName, "last-name", "User", "Last name of the user")
	seedCmd.Flags().StringVar(&seedCmdFlags.Password, "password", "", "Password to set for the user")
	rootCmd.AddCommand(seedCmd)
}
