package cmd

import (
	"fmt"
	"os"

	"github.com/shopmonkeyus/go-common/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set by the main package at build time.
var Version string

func mustFlagString(cmd *cobra.Command, name string, required bool) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
	if val == "" {
		val = viper.GetString(name)
	}
	if required && val == "" {
		fmt.Printf("error: required flag --%s missing\n", name)
		os.Exit(1)
	}
	return val
}

func mustFlagBool(cmd *cobra.Command, name string, required bool) bool {
	val, err := cmd.Flags().GetBool(name)
	if required && err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
	return val
}

func mustFlagInt(cmd *cobra.Command, name string, required bool) int {
	val, err := cmd.Flags().GetInt(name)
	if required && err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
	return val
}

func newLogger(cmd *cobra.Command) logger.Logger {
	if mustFlagBool(cmd, "verbose", false) {
		return logger.NewConsoleLogger(logger.LevelTrace)
	}
	if mustFlagBool(cmd, "silent", false) {
		return logger.NewConsoleLogger(logger.LevelError)
	}
	return logger.NewConsoleLogger(logger.LevelInfo)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gridbase",
	Short: "gridbase query engine",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	viper.SetEnvPrefix("GRIDBASE")
	viper.AutomaticEnv()
	rootCmd.PersistentFlags().String("db-url", "", "the database connection url")
	rootCmd.PersistentFlags().String("data-dir", "", "the directory for the compiled query cache")
	rootCmd.PersistentFlags().Bool("verbose", false, "turn on verbose logging")
	rootCmd.PersistentFlags().Bool("silent", false, "turn off all logging")
	viper.BindPFlag("db-url", rootCmd.PersistentFlags().Lookup("db-url"))
	viper.BindPFlag("data-dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}
