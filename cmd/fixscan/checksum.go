package main

import (
	"bytes"
	"fmt"

	"github.com/rawbytedev/fixscan"
	"github.com/spf13/cobra"
)

func newChecksumCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checksum <message>",
		Short: "Print the tag 10 value a message needs",
		Long: `Checksum sums the bytes before the message's "10=" field, or the whole
message if it has none, and prints the three-digit value. '|' stands for SOH.`,
		Example: `  fixscan checksum '8=FIX.4.4|9=5|35=0|'`,
		Args:    cobra.ExactArgs(1),
		RunE: a.command(func(cmd *cobra.Command, args []string) error {
			msg := bytes.ReplaceAll([]byte(args[0]), []byte{'|'}, []byte{fixscan.SOH})
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%03d\n", fixscan.Checksum(checksumBody(msg)))
			return err
		}),
	}
}

// checksumBody returns the bytes tag 10 covers, ending in SOH.
func checksumBody(msg []byte) []byte {
	if bytes.HasPrefix(msg, []byte("10=")) {
		return nil
	}
	if i := bytes.LastIndex(msg, []byte("\x0110=")); i >= 0 {
		return msg[:i+1]
	}
	if len(msg) > 0 && msg[len(msg)-1] != fixscan.SOH {
		msg = append(msg, fixscan.SOH)
	}
	return msg
}
