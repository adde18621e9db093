//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

// Command ckt works with streaming boolean circuits: preallocation of
// sparse circuits into dense form, cleartext execution, garbling and
// evaluation, and file inspection.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "ckt",
	Short:         "Streaming boolean circuit toolkit",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false,
		"increase logging verbosity")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
