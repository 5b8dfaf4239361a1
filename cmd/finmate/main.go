package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var cfgPath string
	root := &cobra.Command{
		Use:          "finmate",
		Short:        "Personal finance assistant",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.json", "config file (JSON or YAML)")

	root.AddCommand(
		serveCMD(&cfgPath),
		chatCMD(&cfgPath),
		askCMD(&cfgPath),
		ingestCMD(&cfgPath),
		categorizeCMD(&cfgPath),
		forecastCMD(&cfgPath),
		migrateCMD(&cfgPath),
	)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
