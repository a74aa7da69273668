package token

import (
	"fmt"
)

type MintToArgs struct {
	Mint        string
	Destination string
	Authority   string
	Amount      uint64
}

type TransferArgs struct {
	// Mint 可选，非空时必须与双方账户一致
	Mint        string
	Source      string
	Destination string
	Authority   string
	Amount      uint64
}

// MintTo 向 Destination 增发 Amount，同时增加 Mint 的发行量。
func MintTo(l Ledger, args MintToArgs) error {
	if args.Amount == 0 {
		return ErrInvalidAmount
	}
	mint, err := l.LookupMint(args.Mint)
	if err != nil {
		return err
	}
	dest, err := l.LookupAccount(args.Destination)
	if err != nil {
		return err
	}
	if dest.Mint != mint.Address {
		return fmt.Errorf("%w: account %s belongs to mint %s, not %s", ErrAccountMismatch, dest.Address, dest.Mint, mint.Address)
	}
	if args.Authority != mint.Authority {
		return fmt.Errorf("%w: %s is not the mint authority of %s", ErrUnauthorized, args.Authority, mint.Address)
	}
	// 先检查两处溢出，保证下面的写入不会半途失败
	if _, ok := AddChecked(mint.Supply, args.Amount); !ok {
		return fmt.Errorf("%w: supply of %s", ErrOverflow, mint.Address)
	}
	if _, ok := AddChecked(dest.Balance, args.Amount); !ok {
		return fmt.Errorf("%w: balance of %s", ErrOverflow, dest.Address)
	}

	if err := l.Mint(mint.Address, args.Amount); err != nil {
		return err
	}
	return l.Credit(dest.Address, args.Amount)
}

// Transfer 从 Source 向 Destination 转移 Amount，发行量不变。
func Transfer(l Ledger, args TransferArgs) error {
	if args.Amount == 0 {
		return ErrInvalidAmount
	}
	src, err := l.LookupAccount(args.Source)
	if err != nil {
		return err
	}
	dest, err := l.LookupAccount(args.Destination)
	if err != nil {
		return err
	}
	if src.Mint != dest.Mint {
		return fmt.Errorf("%w: %s (mint %s) and %s (mint %s)", ErrAccountMismatch, src.Address, src.Mint, dest.Address, dest.Mint)
	}
	if args.Mint != "" && args.Mint != src.Mint {
		return fmt.Errorf("%w: accounts belong to mint %s, not %s", ErrAccountMismatch, src.Mint, args.Mint)
	}
	if args.Authority != src.Owner {
		return fmt.Errorf("%w: %s is not the owner of %s", ErrUnauthorized, args.Authority, src.Address)
	}
	if src.Balance < args.Amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, src.Address, src.Balance, args.Amount)
	}
	// 自转账不改变余额
	if src.Address == dest.Address {
		return nil
	}
	if _, ok := AddChecked(dest.Balance, args.Amount); !ok {
		return fmt.Errorf("%w: balance of %s", ErrOverflow, dest.Address)
	}

	if err := l.Debit(src.Address, args.Amount); err != nil {
		return err
	}
	return l.Credit(dest.Address, args.Amount)
}
