package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gridbase/gridbase/internal/registry"
)

var green = color.New(color.FgGreen).SprintFunc()

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a metadata document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Printf("error: %s\n", err)
			os.Exit(1)
		}
		if err := registry.ValidateDocument(data); err != nil {
			fmt.Printf("error: %s\n", err)
			os.Exit(1)
		}
		fmt.Println(green("valid"))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
