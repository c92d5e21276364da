package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"recipe-restful/database"
	"recipe-restful/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) waitForDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wait-for-db",
		Short: "Block until the database accepts connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := a.openDB()
			if err != nil {
				return err
			}
			if err := a.newProbe("database", database.GormPinger(db)).Wait(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database available!")
			return nil
		},
	}
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			a.logger.Info("database migrated")
			return nil
		},
	}
}

func (a *app) createSuperuserCmd() *cobra.Command {
	var email, password string
	c := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a user with staff and superuser rights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				email = a.cfg.Superuser.Email
			}
			if password == "" {
				password = a.cfg.Superuser.Password
			}
			if email == "" {
				return errors.New("an email is required (--email or superuser.email)")
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			hasher := services.NewHasher(runtime.NumCPU(), a.cfg.BcryptCost)
			defer hasher.Close()

			user, err := services.NewUserService(db, hasher).CreateSuperuser(email, password)
			if err != nil {
				return err
			}
			a.logger.Info("superuser created", zap.Uint("id", user.ID), zap.String("email", user.Email))
			fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created.\n", user.Email)
			return nil
		},
	}
	c.Flags().StringVar(&email, "email", "", "email address of the superuser")
	c.Flags().StringVar(&password, "password", "", "password (empty leaves the account without a usable password)")
	return c
}
