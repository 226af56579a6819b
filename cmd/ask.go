package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the inventory",
	Long: `Ask a natural language question about the asset inventory.

Examples:
  parcbot ask "Liste des fournisseurs"
  parcbot ask "Combien de commandes en attente ?"
  parcbot ask "Garantie de PC-101"
  parcbot ask "Qui utilise le PC-102 ?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := args[0]
		showMeta, _ := cmd.Flags().GetBool("meta")

		ctx := context.Background()
		p, cleanup, err := newPipeline(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize pipeline: %w", err)
		}
		defer cleanup()

		envelope := p.Process(ctx, question)
		fmt.Println(envelope.Response)
		if showMeta || viper.GetBool("debug") {
			fmt.Printf("\n[intent=%s confidence=%d source=%s method=%s]\n",
				envelope.Intent, envelope.Confidence, envelope.Source, envelope.Method)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().Bool("meta", false, "Show intent, confidence and routing metadata")
}
