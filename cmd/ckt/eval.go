//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alpenlabs/ckt/dense"
	"github.com/alpenlabs/ckt/engine"
	"github.com/alpenlabs/ckt/runner"
)

var evalCmd = &cobra.Command{
	Use:   "eval <circuit.dense>",
	Short: "Evaluate a garbled dense circuit",
	Long: `Evaluate a garbled circuit against its ciphertext table. The
construction is privacy free: input labels are re-derived from the
garbler's seed and selected with the cleartext input bits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tablePath, _ := cmd.Flags().GetString("table")
		input, _ := cmd.Flags().GetString("input")
		inputs, err := parseBits(input)
		if err != nil {
			return err
		}
		if s, _ := cmd.Flags().GetString("seed"); s == "" {
			return fmt.Errorf("eval requires the garbler's --seed")
		}
		seed, err := getSeed(cmd)
		if err != nil {
			return err
		}

		source, err := dense.OpenReader(args[0])
		if err != nil {
			return err
		}
		defer source.Close()

		delta, falseLabels, err := engine.ExpandSeed(seed,
			int(source.Header().PrimaryInputs))
		if err != nil {
			return err
		}
		selected, err := engine.Encode(inputs, falseLabels, delta)
		if err != nil {
			return err
		}

		f, err := os.Open(tablePath)
		if err != nil {
			return err
		}
		defer f.Close()

		out, err := runner.Run[*runner.EvalState, *runner.EvalOutput](
			&runner.EvalTask{
				InputLabels: selected,
				InputValues: inputs,
				Table:       bufio.NewReaderSize(f, 1<<20),
			}, source)
		if err != nil {
			return err
		}

		fmt.Println(formatBits(out.Values))
		for i, label := range out.Labels {
			fmt.Printf("output %d label %s\n", i, label)
		}
		return nil
	},
}

func init() {
	evalCmd.Flags().StringP("table", "t", "circuit.tbl",
		"garbled table input file")
	evalCmd.Flags().StringP("input", "i", "",
		"primary input bits, e.g. 1011 (input 0 first)")
	evalCmd.Flags().StringP("seed", "s", "",
		"32-byte hex label seed used by the garbler")
	rootCmd.AddCommand(evalCmd)
}
