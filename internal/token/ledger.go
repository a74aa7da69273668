// Package token 实现代币账本的两个核心操作：MintTo 与 Transfer。
// 所有校验都在操作开始时显式完成，状态读写通过 Ledger 接口交给调用方的事务。
package token

import (
	"math"

	"token_ledger_go/internal/types"
)

// Ledger 是一次原子事务内可见的账本视图。
// 实现方负责在事务失败时丢弃全部修改。
type Ledger interface {
	LookupAccount(address string) (*types.Account, error)
	LookupMint(address string) (*types.Mint, error)
	// Debit 从账户扣款，余额不足返回 ErrInsufficientFunds。
	Debit(account string, amount uint64) error
	// Credit 向账户入账，溢出返回 ErrOverflow。
	Credit(account string, amount uint64) error
	// Mint 增加发行量，溢出返回 ErrOverflow。
	Mint(mint string, amount uint64) error
}

// AddChecked 返回 a+b，结果超出 uint64 时 ok 为 false。
func AddChecked(a, b uint64) (uint64, bool) {
	if b > math.MaxUint64-a {
		return 0, false
	}
	return a + b, true
}
