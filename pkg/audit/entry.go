// Package audit 定义审计链条目的二进制编码与链式哈希。
//
// 编码格式（小端）：
//
//	index(8) | prevHash(32) | entryHash(32) | len(4) | txBytes(len)
package audit

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"token_ledger_go/internal/types"
)

const headerSize = 8 + 32 + 32 + 4

// Encode 序列化条目
func Encode(e *types.Entry) ([]byte, error) {
	if e == nil {
		return nil, errors.New("nil entry")
	}
	if uint64(len(e.TxBytes)) > uint64(^uint32(0)) {
		return nil, errors.New("tx too large")
	}

	out := make([]byte, headerSize, headerSize+len(e.TxBytes))
	binary.LittleEndian.PutUint64(out[0:8], e.Index)
	copy(out[8:40], e.PrevHash[:])
	copy(out[40:72], e.EntryHash[:])
	binary.LittleEndian.PutUint32(out[72:76], uint32(len(e.TxBytes)))
	return append(out, e.TxBytes...), nil
}

// Decode 反序列化条目，长度不符时报错
func Decode(b []byte) (*types.Entry, error) {
	if len(b) < headerSize {
		return nil, errors.New("invalid entry bytes: too short")
	}
	txLen := binary.LittleEndian.Uint32(b[72:76])
	if uint64(len(b)) != headerSize+uint64(txLen) {
		return nil, errors.New("invalid entry bytes: length mismatch")
	}

	e := &types.Entry{Index: binary.LittleEndian.Uint64(b[0:8])}
	copy(e.PrevHash[:], b[8:40])
	copy(e.EntryHash[:], b[40:72])
	if txLen > 0 {
		e.TxBytes = append([]byte(nil), b[headerSize:]...)
	}
	return e, nil
}

// Hash 计算 sha256(index || prevHash || sha256(txBytes))
func Hash(index uint64, prev [32]byte, txBytes []byte) [32]byte {
	h := sha256.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], index)
	h.Write(buf[:])
	h.Write(prev[:])
	txHash := sha256.Sum256(txBytes)
	h.Write(txHash[:])

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Next 基于上一条的索引与哈希构造新条目
func Next(lastIndex uint64, lastHash [32]byte, txBytes []byte) *types.Entry {
	e := &types.Entry{
		Index:    lastIndex + 1,
		PrevHash: lastHash,
		TxBytes:  append([]byte(nil), txBytes...),
	}
	e.EntryHash = Hash(e.Index, e.PrevHash, e.TxBytes)
	return e
}

// VerifyLink 校验 e 是否正确地接在 (wantIndex-1, prev) 之后
func VerifyLink(wantIndex uint64, prev [32]byte, e *types.Entry) error {
	if e.Index != wantIndex {
		return fmt.Errorf("audit entry index mismatch: want %d got %d", wantIndex, e.Index)
	}
	if e.PrevHash != prev {
		return fmt.Errorf("audit chain broken at %d: prevHash mismatch", wantIndex)
	}
	if Hash(e.Index, e.PrevHash, e.TxBytes) != e.EntryHash {
		return fmt.Errorf("audit chain broken at %d: entryHash mismatch", wantIndex)
	}
	return nil
}
