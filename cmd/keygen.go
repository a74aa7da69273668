package main

import (
	"fmt"

	"token_ledger_go/pkg/crypto"

	"github.com/spf13/cobra"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate an ed25519 keypair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			priv, addr, err := crypto.GenerateKeyPair()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "address:     %s\nprivate_key: %s\n", addr, priv.String())
			return nil
		},
	}
}
