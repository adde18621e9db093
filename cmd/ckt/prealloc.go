//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alpenlabs/ckt/prealloc"
)

var preallocCmd = &cobra.Command{
	Use:   "prealloc <input.sparse> <output.dense>",
	Short: "Convert a sparse circuit into a dense circuit",
	Long: `Preallocate dense memory addresses for a sparse wire-ID circuit.
The pass assigns each wire the lowest free slot, reclaims slots the
moment a wire's last consumer executes, and records the resulting
peak live-wire count as the circuit's scratch space.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := prealloc.Transform(args[0], args[1])
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"scratch": res.ScratchSpace,
			"outputs": len(res.Outputs),
			"leaked":  res.Leaked,
		}).Info("dense circuit written")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(preallocCmd)
}
