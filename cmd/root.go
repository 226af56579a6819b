package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "parcbot",
	Short: "Assistant en langage naturel pour le parc informatique",
	Long: `Parcbot answers natural-language questions about your IT asset
inventory: equipment, purchase orders, suppliers, deliveries and
equipment requests. Ask in French, get a precise answer from the
inventory database.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.parcbot.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug output (shows classification diagnostics)")
	rootCmd.PersistentFlags().String("db", "", "path to the inventory database (default is $HOME/.parcbot.db)")
	rootCmd.PersistentFlags().String("gemini-key", "", "Gemini API key for the semantic and LLM tiers (or set GEMINI_API_KEY)")

	// TODO: add error return here
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("db.path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("ai.api_key", rootCmd.PersistentFlags().Lookup("gemini-key"))

	viper.SetDefault("ai.model", "gemini-2.0-flash")
	viper.SetDefault("ai.embed_model", "text-embedding-004")
	viper.SetDefault("ai.timeout_seconds", 15)
	viper.SetDefault("classifier.confidence_floor", 20)
	viper.SetDefault("classifier.critical_floor", 50)
	viper.SetDefault("classifier.semantic_floor", 0.80)
	viper.SetDefault("cache.lexicon_ttl_minutes", 10)
	viper.SetDefault("retrieval.k", 8)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".parcbot")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("debug") {
			fmt.Println("Using config file:", viper.ConfigFileUsed())
		}
	}
}
