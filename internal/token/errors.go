package token

import "errors"

// 账本操作的错误类型，调用方用 errors.Is 判断。
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrAccountMismatch   = errors.New("account mismatch")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOverflow          = errors.New("amount overflow")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrAccountNotFound   = errors.New("account not found")
	ErrMintNotFound      = errors.New("mint not found")
)
