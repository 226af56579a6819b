package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parcdesk/parcbot/internal/store"
)

// seedCmd bootstraps the database with the demo dataset.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the schema and load demo inventory data",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		path, err := dbPath()
		if err != nil {
			return err
		}
		st, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		if err := st.Seed(ctx); err != nil {
			return fmt.Errorf("failed to seed data: %w", err)
		}
		fmt.Printf("Database ready at %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
