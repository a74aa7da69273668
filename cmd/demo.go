package main

import (
	"fmt"
	"io"

	"token_ledger_go/internal/service"
	"token_ledger_go/internal/store"
	"token_ledger_go/internal/txVerify"
	"token_ledger_go/internal/types"
	"token_ledger_go/pkg/crypto"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newDemoCmd() *cobra.Command {
	var mintAmount, transferAmount uint64
	var verbose bool
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Mint and transfer against an in-memory ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := logrus.New()
			logger.SetOutput(io.Discard)
			if verbose {
				logger.SetOutput(cmd.ErrOrStderr())
			}
			return runDemo(cmd.OutOrStdout(), logrus.NewEntry(logger), mintAmount, transferAmount)
		},
	}
	cmd.Flags().Uint64Var(&mintAmount, "mint-amount", 10, "units minted to the first account")
	cmd.Flags().Uint64Var(&transferAmount, "transfer-amount", 5, "units transferred to the second account")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log ledger activity to stderr")
	return cmd
}

func runDemo(out io.Writer, log *logrus.Entry, mintAmount, transferAmount uint64) error {
	db, err := store.Open("", nil)
	if err != nil {
		return fmt.Errorf("open badger: %w", err)
	}
	defer db.Close()

	s := store.NewStore(db)
	accountSvc := service.NewAccountService(s, log)
	txSvc := service.NewTransactionService(s, txVerify.NewValidator(), log)

	authPriv, authAddr, err := crypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	alicePriv, aliceAddr, err := crypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	_, bobAddr, err := crypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "authority: %s\nalice:     %s\nbob:       %s\n", authAddr, aliceAddr, bobAddr)

	m, err := service.NewMint(authAddr, 0)
	if err != nil {
		return err
	}
	mint, err := accountSvc.CreateMint(*m)
	if err != nil {
		return err
	}
	aliceAcc, err := accountSvc.OpenAccount(mint.Address, aliceAddr)
	if err != nil {
		return err
	}
	bobAcc, err := accountSvc.OpenAccount(mint.Address, bobAddr)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "mint:      %s\n", mint.Address)

	nonces := map[string]uint64{}
	apply := func(priv solana.PrivateKey, ins types.Instruction) error {
		ins.Authority = crypto.AddressOf(priv)
		ins.Nonce = nonces[ins.Authority] + 1
		if err := txVerify.SignInstruction(priv, &ins); err != nil {
			return err
		}
		if _, err := txSvc.Apply(ins); err != nil {
			return err
		}
		nonces[ins.Authority] = ins.Nonce
		return nil
	}

	if err := apply(authPriv, types.Instruction{Type: types.InstructionMintTo, Mint: mint.Address, Destination: aliceAcc.Address, Amount: mintAmount}); err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	fmt.Fprintf(out, "\n=== After MINT (authority -> alice %d) ===\n", mintAmount)
	if err := showState(out, accountSvc, mint.Address, aliceAcc.Address, bobAcc.Address); err != nil {
		return err
	}

	if err := apply(alicePriv, types.Instruction{Type: types.InstructionTransfer, Source: aliceAcc.Address, Destination: bobAcc.Address, Amount: transferAmount}); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	fmt.Fprintf(out, "\n=== After TRANSFER (alice -> bob %d) ===\n", transferAmount)
	if err := showState(out, accountSvc, mint.Address, aliceAcc.Address, bobAcc.Address); err != nil {
		return err
	}

	overdraft := mintAmount * 10
	err = apply(alicePriv, types.Instruction{Type: types.InstructionTransfer, Source: aliceAcc.Address, Destination: bobAcc.Address, Amount: overdraft})
	fmt.Fprintf(out, "\n=== TRANSFER alice -> bob %d rejected: %s ===\n", overdraft, service.ErrorKind(err))
	return showState(out, accountSvc, mint.Address, aliceAcc.Address, bobAcc.Address)
}

func showState(out io.Writer, svc *service.AccountService, mint, alice, bob string) error {
	m, err := svc.GetMint(mint)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%-8s supply=%d\n", "mint", m.Supply)
	for _, acc := range []struct{ name, addr string }{{"alice", alice}, {"bob", bob}} {
		a, err := svc.GetAccount(acc.addr)
		if err != nil {
			return fmt.Errorf("get %s: %w", acc.name, err)
		}
		fmt.Fprintf(out, "%-8s balance=%d\n", acc.name, a.Balance)
	}
	return nil
}
