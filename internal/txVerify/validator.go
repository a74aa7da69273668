package txVerify

import (
	"errors"
	"fmt"

	"token_ledger_go/internal/token"
	"token_ledger_go/internal/types"
	"token_ledger_go/pkg/crypto"

	"github.com/gagliardetto/solana-go"
)

var ErrInvalidInstruction = errors.New("invalid instruction")

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// 验证指令格式与签名，不读取账本状态
func (v *Validator) ValidateInstruction(ins types.Instruction) error {
	switch ins.Type {
	case types.InstructionMintTo:
		if err := requireAddress("mint", ins.Mint); err != nil {
			return err
		}
		if ins.Source != "" {
			return fmt.Errorf("%w: mint_to has no source", ErrInvalidInstruction)
		}
	case types.InstructionTransfer:
		if err := requireAddress("source", ins.Source); err != nil {
			return err
		}
		if ins.Mint != "" {
			if err := requireAddress("mint", ins.Mint); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unknown type %d", ErrInvalidInstruction, ins.Type)
	}
	if err := requireAddress("destination", ins.Destination); err != nil {
		return err
	}
	if err := requireAddress("authority", ins.Authority); err != nil {
		return err
	}
	if ins.Amount == 0 {
		return token.ErrInvalidAmount
	}
	return v.VerifySignature(ins)
}

// 验证签名
func (v *Validator) VerifySignature(ins types.Instruction) error {
	if len(ins.Signature) == 0 {
		return fmt.Errorf("%w: missing signature", token.ErrUnauthorized)
	}
	if !crypto.Verify(ins.Authority, InstructionHash(ins), ins.Signature) {
		return fmt.Errorf("%w: signature verification failed for %s", token.ErrUnauthorized, ins.Authority)
	}
	return nil
}

// SignInstruction 用私钥为指令签名并写入 Signature
func SignInstruction(priv solana.PrivateKey, ins *types.Instruction) error {
	sig, err := crypto.Sign(priv, InstructionHash(*ins))
	if err != nil {
		return err
	}
	ins.Signature = sig
	return nil
}

func requireAddress(field, addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: %s required", ErrInvalidInstruction, field)
	}
	if _, err := crypto.ParseAddress(addr); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidInstruction, field, err)
	}
	return nil
}
