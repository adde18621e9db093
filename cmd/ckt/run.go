//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alpenlabs/ckt/dense"
	"github.com/alpenlabs/ckt/runner"
)

var runCmd = &cobra.Command{
	Use:   "run <circuit.dense>",
	Short: "Execute a dense circuit in cleartext",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		inputs, err := parseBits(input)
		if err != nil {
			return err
		}

		source, err := dense.OpenReader(args[0])
		if err != nil {
			return err
		}
		defer source.Close()

		values, err := runner.Run[*runner.ExecState, []bool](
			&runner.ExecTask{Inputs: inputs}, source)
		if err != nil {
			return err
		}

		fmt.Println(formatBits(values))
		return nil
	},
}

func init() {
	runCmd.Flags().StringP("input", "i", "",
		"primary input bits, e.g. 1011 (input 0 first)")
	rootCmd.AddCommand(runCmd)
}

func parseBits(s string) ([]bool, error) {
	bits := make([]bool, len(s))
	for i, c := range s {
		switch c {
		case '0':
			bits[i] = false
		case '1':
			bits[i] = true
		default:
			return nil, fmt.Errorf("invalid input bit %q", c)
		}
	}
	return bits, nil
}

func formatBits(bits []bool) string {
	out := make([]byte, len(bits))
	for i, b := range bits {
		if b {
			out[i] = '1'
		} else {
			out[i] = '0'
		}
	}
	return string(out)
}
