package service

import (
	"encoding/json"

	"token_ledger_go/internal/store"
	"token_ledger_go/internal/types"
)

// 封装审计链读操作，写入随交易事务完成。
type AuditService struct {
	store *store.Store
}

func NewAuditService(s *store.Store) *AuditService {
	return &AuditService{store: s}
}

// 按索引读取审计条目。
func (svc *AuditService) GetEntry(index uint64) (*types.Entry, error) {
	return svc.store.GetEntry(index)
}

// 校验链式哈希完整性。
func (svc *AuditService) VerifyChain() error {
	return svc.store.VerifyChain()
}

func (svc *AuditService) ListEntries(from uint64) ([]*types.Entry, error) {
	return svc.store.ListEntries(from)
}

// DecodeInstruction 还原条目中记录的指令。
func DecodeInstruction(e *types.Entry) (types.Instruction, error) {
	var ins types.Instruction
	err := json.Unmarshal(e.TxBytes, &ins)
	return ins, err
}
