package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// chatCmd runs an interactive loop. Each question is classified
// independently; there is no conversation state between turns.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		p, cleanup, err := newPipeline(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize pipeline: %w", err)
		}
		defer cleanup()

		fmt.Println("parcbot - posez vos questions sur le parc (quit pour sortir)")
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "quit" || line == "exit" {
				break
			}
			envelope := p.Process(ctx, line)
			fmt.Println(envelope.Response)
			fmt.Println()
		}
		return scanner.Err()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
