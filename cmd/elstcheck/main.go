package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/deepch/elstcheck/scenario"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "elstcheck",
	Short:         "Edit list conformance checks for MP4 demuxers.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		scenario.SetLogger(&stdLogger{l: log.New(cmd.ErrOrStderr(), "", log.LstdFlags), verbose: verbose})
	},
}

func init() {
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug lines")
	rootCmd.AddCommand(listCmd, runCmd, genCmd, inspectCmd, templatesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
