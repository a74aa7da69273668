package types

import "fmt"

// 指令类型
type InstructionType int

const (
	InstructionMintTo InstructionType = iota
	InstructionTransfer
)

func (t InstructionType) String() string {
	switch t {
	case InstructionMintTo:
		return "mint_to"
	case InstructionTransfer:
		return "transfer"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Instruction 是一条由 Authority 签名的账本指令。
// mint_to 时 Source 为空；transfer 时 Mint 可选，填写则必须与双方账户一致。
type Instruction struct {
	Type        InstructionType `json:"type"`
	Mint        string          `json:"mint,omitempty"`
	Source      string          `json:"source,omitempty"`
	Destination string          `json:"destination"`
	Authority   string          `json:"authority"`
	Amount      uint64          `json:"amount"`
	Nonce       uint64          `json:"nonce"`
	Signature   []byte          `json:"signature,omitempty"`
}
