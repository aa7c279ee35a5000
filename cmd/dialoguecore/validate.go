package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nathoo/dialoguecore/loader"
)

var validateCmd = &cobra.Command{
	Use:   "validate <dialogue_directory>",
	Short: "Check a dialogue graph for consistency",
	Long: `Compiles the dialogue files and reports structural problems: unknown
targets, unreachable nodes, missing fallbacks, unsupported operators,
and dangling template references.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		g, err := loader.Load(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
		for _, w := range g.Warnings() {
			fmt.Printf("warning: %s\n", w)
		}
		fmt.Printf("Dialogue is valid: %d nodes, entry %q.\n", len(g.Nodes()), g.Entry())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
