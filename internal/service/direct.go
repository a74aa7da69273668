package service

import "token_ledger_go/internal/types"

// Direct 在本进程内直接执行写操作，不经 Raft 复制。
// Raft FSM 与单机模式都通过它落库。
type Direct struct {
	Accounts     *AccountService
	Transactions *TransactionService
}

func (d *Direct) SubmitInstruction(ins *types.Instruction) (*types.Entry, error) {
	return d.Transactions.Apply(*ins)
}

func (d *Direct) CreateMint(mint types.Mint) (*types.Mint, error) {
	return d.Accounts.CreateMint(mint)
}

func (d *Direct) OpenAccount(mint, owner string) (*types.Account, error) {
	return d.Accounts.OpenAccount(mint, owner)
}
