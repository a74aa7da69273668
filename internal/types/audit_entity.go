package types

// Entry 是审计链上的一条记录，TxBytes 为已提交指令的 JSON。
type Entry struct {
	Index     uint64   `json:"index"`
	PrevHash  [32]byte `json:"prev_hash"`
	TxBytes   []byte   `json:"tx_bytes"`
	EntryHash [32]byte `json:"entry_hash"`
}
