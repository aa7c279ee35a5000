package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dialoguecore",
	Short: "Dialoguecore is a deterministic dialogue resolution engine",
	Long: `Dialoguecore resolves NPC dialogue from world state: authored graphs of
nodes, condition-gated rules, and response templates, resolved the same
way every time the same state walks in.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}
