package main

import (
	"context"
	"fmt"
	"os"

	"find-my-doctor/cmd/bootstrap"
	"find-my-doctor/internal/infrastructure/database"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "find-my-doctor",
		Short: "Doctor discovery and appointment booking API",
		// serve is the default so the binary runs without arguments
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(false)
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(promoteCmd())

	if err := rootCmd.Execute(); err != nil {
		logrus.Errorf("%v", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrate, _ := cmd.Flags().GetBool("migrate")
			return runServer(migrate)
		},
	}
	cmd.Flags().Bool("migrate", false, "Apply pending migrations before serving")
	return cmd
}

func runServer(migrate bool) error {
	// Initialize application with all dependencies
	app, err := bootstrap.New()
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if migrate {
		migrator, err := database.NewMigrator(app.DB, app.Log)
		if err != nil {
			app.Close()
			return err
		}
		if err := migrator.Up(); err != nil {
			app.Close()
			return err
		}
	}

	// Run the application
	return app.Run()
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *database.Migrator) error {
				return m.Up()
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			return withMigrator(func(m *database.Migrator) error {
				return m.Down(steps)
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migrations to roll back")

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

func withMigrator(fn func(*database.Migrator) error) error {
	app, err := bootstrap.Base()
	if err != nil {
		return err
	}
	defer app.Close()

	migrator, err := database.NewMigrator(app.DB, app.Log)
	if err != nil {
		return err
	}
	return fn(migrator)
}

func promoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Grant the admin role to a registered user",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")

			app, err := bootstrap.Base()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.AuthUsecase().PromoteToAdmin(context.Background(), email); err != nil {
				return fmt.Errorf("promote %s: %w", email, err)
			}

			fmt.Printf("%s is now an admin.\n", email)
			return nil
		},
	}
	cmd.Flags().String("email", "", "Email of the user to promote")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
