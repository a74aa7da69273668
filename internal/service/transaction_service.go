package service

import (
	"encoding/json"
	"errors"
	"time"

	"token_ledger_go/internal/metrics"
	"token_ledger_go/internal/store"
	"token_ledger_go/internal/token"
	"token_ledger_go/internal/txVerify"
	"token_ledger_go/internal/types"

	"github.com/dgraph-io/badger/v3"
	"github.com/sirupsen/logrus"
)

// 负责指令的校验、执行与审计，三者在同一个存储事务中提交。
type TransactionService struct {
	store     *store.Store
	validator *txVerify.Validator
	log       *logrus.Entry
}

func NewTransactionService(s *store.Store, v *txVerify.Validator, log *logrus.Entry) *TransactionService {
	return &TransactionService{
		store:     s,
		validator: v,
		log:       log.WithField("component", "transactions"),
	}
}

// Apply 执行一条签名指令：先校验签名，再在事务内检查 nonce、修改余额并写审计。
func (svc *TransactionService) Apply(ins types.Instruction) (*types.Entry, error) {
	if svc.validator != nil {
		if err := svc.validator.ValidateInstruction(ins); err != nil {
			svc.finish(ins, time.Now(), err)
			return nil, err
		}
	}
	return svc.commit(ins, true)
}

// MintTo 供受信任的进程内调用方使用，不要求签名与 nonce，账本校验照常执行。
func (svc *TransactionService) MintTo(args token.MintToArgs) (*types.Entry, error) {
	return svc.commit(types.Instruction{
		Type:        types.InstructionMintTo,
		Mint:        args.Mint,
		Destination: args.Destination,
		Authority:   args.Authority,
		Amount:      args.Amount,
	}, false)
}

// Transfer 同 MintTo，为受信任调用方提供转账。
func (svc *TransactionService) Transfer(args token.TransferArgs) (*types.Entry, error) {
	return svc.commit(types.Instruction{
		Type:        types.InstructionTransfer,
		Mint:        args.Mint,
		Source:      args.Source,
		Destination: args.Destination,
		Authority:   args.Authority,
		Amount:      args.Amount,
	}, false)
}

func (svc *TransactionService) commit(ins types.Instruction, checkNonce bool) (*types.Entry, error) {
	start := time.Now()
	payload, err := json.Marshal(ins)
	if err != nil {
		return nil, err
	}

	var entry *types.Entry
	err = svc.store.Update(func(tx *store.Txn) error {
		if checkNonce {
			if err := tx.UseNonce(ins.Authority, ins.Nonce); err != nil {
				return err
			}
		}
		if err := execute(tx, ins); err != nil {
			return err
		}
		e, err := tx.AppendEntry(payload)
		entry = e
		return err
	})
	svc.finish(ins, start, err)
	if err != nil {
		return nil, err
	}
	if ins.Type == types.InstructionMintTo {
		metrics.RecordMinted(ins.Amount)
	}
	return entry, nil
}

func execute(l token.Ledger, ins types.Instruction) error {
	switch ins.Type {
	case types.InstructionMintTo:
		return token.MintTo(l, token.MintToArgs{
			Mint:        ins.Mint,
			Destination: ins.Destination,
			Authority:   ins.Authority,
			Amount:      ins.Amount,
		})
	case types.InstructionTransfer:
		return token.Transfer(l, token.TransferArgs{
			Mint:        ins.Mint,
			Source:      ins.Source,
			Destination: ins.Destination,
			Authority:   ins.Authority,
			Amount:      ins.Amount,
		})
	default:
		return txVerify.ErrInvalidInstruction
	}
}

func (svc *TransactionService) finish(ins types.Instruction, start time.Time, err error) {
	kind := ErrorKind(err)
	metrics.RecordInstruction(ins.Type.String(), kind, time.Since(start))

	fields := logrus.Fields{
		"type":        ins.Type.String(),
		"mint":        ins.Mint,
		"source":      ins.Source,
		"destination": ins.Destination,
		"authority":   ins.Authority,
		"amount":      ins.Amount,
	}
	if err != nil {
		svc.log.WithFields(fields).WithError(err).Warn("instruction rejected")
		return
	}
	svc.log.WithFields(fields).Info("instruction applied")
}

// ErrorKind 将错误归类为稳定的短名称，用于指标标签与 API 响应。
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, token.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, token.ErrAccountMismatch):
		return "account_mismatch"
	case errors.Is(err, token.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, token.ErrOverflow):
		return "overflow"
	case errors.Is(err, token.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, token.ErrAccountNotFound), errors.Is(err, token.ErrMintNotFound),
		errors.Is(err, badger.ErrKeyNotFound):
		return "not_found"
	case errors.Is(err, store.ErrNonceMismatch):
		return "nonce_mismatch"
	case errors.Is(err, store.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, txVerify.ErrInvalidInstruction):
		return "invalid_instruction"
	default:
		return "internal"
	}
}
