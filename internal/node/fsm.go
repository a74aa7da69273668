package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"token_ledger_go/internal/service"
	"token_ledger_go/internal/types"

	"github.com/dgraph-io/badger/v3"
	"github.com/hashicorp/raft"
)

const (
	commandInstruction = "instruction"
	commandCreateMint  = "create_mint"
	commandOpenAccount = "open_account"
)

// raftCommand 为 Raft 日志条目的统一格式。
type raftCommand struct {
	Type        string             `json:"type"`
	Instruction *types.Instruction `json:"instruction,omitempty"`
	Mint        *types.Mint        `json:"mint,omitempty"`
	Owner       string             `json:"owner,omitempty"`
}

// applyResult 是 FSM.Apply 的返回值，经 ApplyFuture.Response 交回提议方。
type applyResult struct {
	value interface{}
	err   error
}

// fsm 实现 raft.FSM 接口，负责真正的状态变更。
type fsm struct {
	direct *service.Direct
	db     *badger.DB
}

// Apply 会在日志提交后执行具体业务操作。
func (f *fsm) Apply(logEntry *raft.Log) interface{} {
	var cmd raftCommand
	if err := json.Unmarshal(logEntry.Data, &cmd); err != nil {
		return applyResult{err: err}
	}
	switch cmd.Type {
	case commandInstruction:
		if cmd.Instruction == nil {
			return applyResult{err: errors.New("nil instruction")}
		}
		entry, err := f.direct.SubmitInstruction(cmd.Instruction)
		return applyResult{value: entry, err: err}
	case commandCreateMint:
		if cmd.Mint == nil {
			return applyResult{err: errors.New("nil mint")}
		}
		mint, err := f.direct.CreateMint(*cmd.Mint)
		return applyResult{value: mint, err: err}
	case commandOpenAccount:
		if cmd.Mint == nil {
			return applyResult{err: errors.New("nil mint")}
		}
		acc, err := f.direct.OpenAccount(cmd.Mint.Address, cmd.Owner)
		return applyResult{value: acc, err: err}
	default:
		return applyResult{err: fmt.Errorf("unknown command: %s", cmd.Type)}
	}
}

// Snapshot 使用 Badger 自带备份生成快照。
func (f *fsm) Snapshot() (raft.FSMSnapshot, error) {
	return &badgerSnapshot{db: f.db}, nil
}

// Restore 清空 Badger 并从快照恢复。
func (f *fsm) Restore(rc io.ReadCloser) error {
	defer rc.Close()
	if err := f.db.DropAll(); err != nil {
		return err
	}
	return f.db.Load(rc, 16)
}

// badgerSnapshot 负责将 Badger 快照写入 Raft sink。
type badgerSnapshot struct {
	db *badger.DB
}

func (s *badgerSnapshot) Persist(sink raft.SnapshotSink) error {
	if _, err := s.db.Backup(sink, 0); err != nil {
		_ = sink.Cancel()
		return err
	}
	return sink.Close()
}

func (s *badgerSnapshot) Release() {}
