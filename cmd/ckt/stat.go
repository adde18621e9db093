//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/markkurossi/tabulate"
	"github.com/spf13/cobra"

	"github.com/alpenlabs/ckt"
	"github.com/alpenlabs/ckt/dense"
	"github.com/alpenlabs/ckt/sparse"
)

var statCmd = &cobra.Command{
	Use:   "stat <circuit>",
	Short: "Show circuit file statistics and verify its checksum",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		header, err := readHeader(args[0])
		if err != nil {
			return err
		}

		var format string
		var verify func(string) error
		switch header.Format {
		case ckt.FormatSparse:
			format = "sparse"
			verify = sparse.VerifyChecksum
		case ckt.FormatDense:
			format = "dense"
			verify = dense.VerifyChecksum
		}

		checksum := "OK"
		if err := verify(args[0]); err != nil {
			checksum = err.Error()
		}

		tab := tabulate.New(tabulate.UnicodeLight)
		tab.Header("Field").SetAlign(tabulate.ML)
		tab.Header("Value").SetAlign(tabulate.MR)

		addRow(tab, "Format", format)
		addRow(tab, "Total gates", fmt.Sprintf("%d", header.TotalGates()))
		addRow(tab, "XOR gates", fmt.Sprintf("%d", header.XORGates))
		addRow(tab, "AND gates", fmt.Sprintf("%d", header.ANDGates))
		addRow(tab, "Primary inputs", fmt.Sprintf("%d", header.PrimaryInputs))
		addRow(tab, "Outputs", fmt.Sprintf("%d", header.NumOutputs))
		if header.Format == ckt.FormatDense {
			addRow(tab, "Scratch space", fmt.Sprintf("%d", header.ScratchSpace))
		}
		addRow(tab, "Checksum", hex.EncodeToString(header.Checksum[:]))
		addRow(tab, "Verification", checksum)
		tab.Print(os.Stdout)

		if checksum != "OK" {
			return fmt.Errorf("checksum verification failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statCmd)
}

func addRow(tab *tabulate.Tabulate, field, value string) {
	row := tab.Row()
	row.Column(field)
	row.Column(value)
}

// readHeader parses a circuit header of either format, dispatching on
// the format byte.
func readHeader(path string) (*ckt.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, ckt.DenseHeaderSize)
	n, err := io.ReadAtLeast(f, buf, ckt.SparseHeaderSize)
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	switch buf[5] {
	case ckt.FormatSparse:
		return ckt.ParseSparseHeader(buf[:n])
	case ckt.FormatDense:
		return ckt.ParseDenseHeader(buf[:n])
	default:
		return nil, fmt.Errorf("invalid format type 0x%02x", buf[5])
	}
}
