package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "storybooth",
		Short: "Turn a batch of photos into an illustrated storybook",
		Long: `Storybooth imports a batch of photos, restyles each one into a storybook
illustration with a caption, and assembles the results into a persisted story.

Run the web backend with "storybooth serve", or build a story straight from a
directory of photos with "storybooth create".`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "storybooth.yaml", "path to the YAML config file")

	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newCreateCmd(&configPath))

	return cmd
}
