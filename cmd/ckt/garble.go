//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package main

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alpenlabs/ckt/dense"
	"github.com/alpenlabs/ckt/engine"
	"github.com/alpenlabs/ckt/runner"
)

var garbleCmd = &cobra.Command{
	Use:   "garble <circuit.dense>",
	Short: "Garble a dense circuit",
	Long: `Garble a dense circuit, streaming one 16-byte ciphertext per AND
gate to the table file. Labels are derived deterministically from the
seed: rerunning with the same seed reproduces the same table.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tablePath, _ := cmd.Flags().GetString("table")
		seed, err := getSeed(cmd)
		if err != nil {
			return err
		}

		source, err := dense.OpenReader(args[0])
		if err != nil {
			return err
		}
		defer source.Close()

		delta, inputLabels, err := engine.ExpandSeed(seed,
			int(source.Header().PrimaryInputs))
		if err != nil {
			return err
		}

		f, err := os.Create(tablePath)
		if err != nil {
			return err
		}
		defer f.Close()
		bw := bufio.NewWriterSize(f, 1<<20)
		hw := runner.NewHashWriter(bw)

		out, err := runner.Run[*runner.GarbleState, *runner.GarbleOutput](
			&runner.GarbleTask{
				Delta:       delta,
				InputLabels: inputLabels,
				Table:       hw,
			}, source)
		if err != nil {
			return err
		}
		if err := f.Sync(); err != nil {
			return err
		}

		digest := hw.Sum()
		log.WithFields(log.Fields{
			"table":  tablePath,
			"digest": hex.EncodeToString(digest[:]),
		}).Info("garbled table written")

		for i, label := range out.OutputLabels {
			fmt.Printf("output %d false label %s\n", i, label)
		}
		return nil
	},
}

func init() {
	garbleCmd.Flags().StringP("table", "t", "circuit.tbl",
		"garbled table output file")
	garbleCmd.Flags().StringP("seed", "s", "",
		"32-byte hex label seed (random if omitted)")
	rootCmd.AddCommand(garbleCmd)
}

// getSeed parses the seed flag or draws a fresh random seed.
func getSeed(cmd *cobra.Command) ([32]byte, error) {
	var seed [32]byte

	s, _ := cmd.Flags().GetString("seed")
	if s == "" {
		if _, err := rand.Read(seed[:]); err != nil {
			return seed, err
		}
		log.WithField("seed", hex.EncodeToString(seed[:])).Info("generated seed")
		return seed, nil
	}

	raw, err := hex.DecodeString(s)
	if err != nil {
		return seed, fmt.Errorf("invalid seed: %w", err)
	}
	if len(raw) != len(seed) {
		return seed, fmt.Errorf("seed must be %d bytes, got %d",
			len(seed), len(raw))
	}
	copy(seed[:], raw)
	return seed, nil
}
