package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/jon4hz/accountd/internal/database"
	"github.com/jon4hz/accountd/internal/storage"
	"github.com/mergestat/timediff"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Inspect and manage users",
}

var userShowCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show a user",
	Args:    cobra.ExactArgs(1),
	Example: `accountd user show 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		db, err := database.New(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		user, err := db.GetUserByID(cmd.Context(), id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("user %d not found", id)
			}
			return err
		}

		fmt.Printf("ID:              %d\n", user.ID)
		fmt.Printf("Email:           %s\n", user.Email)
		fmt.Printf("Name:            %s %s\n", user.FirstName, user.LastName)
		fmt.Printf("Password set:    %t\n", user.PasswordHash != "")
		if user.ProfilePicture != "" {
			fmt.Printf("Profile picture: %s\n", user.ProfilePicture)
		}
		fmt.Printf("Created:         %s (%s)\n", user.CreatedAt.Format(time.RFC3339), timediff.TimeDiff(user.CreatedAt))
		fmt.Printf("Updated:         %s (%s)\n", user.UpdatedAt.Format(time.RFC3339), timediff.TimeDiff(user.UpdatedAt))
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete a user together with its settings and profile picture",
	Args:    cobra.ExactArgs(1),
	Example: `accountd user delete 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		db, err := database.New(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		return deleteUser(cmd.Context(), db, id, func(ctx context.Context) (storage.Storage, error) {
			return storage.New(ctx, cfg)
		})
	},
}

func deleteUser(ctx context.Context, db database.DB, id uint, openStorage func(context.Context) (storage.Storage, error)) error {
	user, err := db.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("user %d not found", id)
		}
		return err
	}

	if err := db.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	log.Info("deleted user", "id", id, "email", user.Email)

	if user.ProfilePicture == "" {
		return nil
	}
	store, err := openStorage(ctx)
	if err != nil {
		log.Warn("failed to open storage, profile picture was not removed", "key", user.ProfilePicture, "error", err)
		return nil
	}
	if err := store.Delete(ctx, user.ProfilePicture); err != nil {
		log.Warn("failed to delete profile picture", "key", user.ProfilePicture, "error", err)
	}
	return nil
}

func parseUserID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return safecast.Convert[uint](id)
}

func init() {
	userCmd.AddCommand(userShowCmd, userDeleteCmd)
	rootCmd.AddCommand(userCmd)
}
