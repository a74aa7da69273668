package txVerify

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"token_ledger_go/internal/types"
)

// 签名域前缀，避免与其它用途的签名混用
var signingDomain = []byte("token_ledger_go/instruction/v1")

// InstructionHash 生成指令哈希（不包含签名字段），字符串字段带长度前缀
func InstructionHash(ins types.Instruction) []byte {
	res := new(bytes.Buffer)
	res.Write(signingDomain)
	_ = binary.Write(res, binary.BigEndian, int32(ins.Type))
	for _, field := range []string{ins.Mint, ins.Source, ins.Destination, ins.Authority} {
		_ = binary.Write(res, binary.BigEndian, uint32(len(field)))
		res.WriteString(field)
	}
	_ = binary.Write(res, binary.BigEndian, ins.Amount)
	_ = binary.Write(res, binary.BigEndian, ins.Nonce)

	hash := sha256.Sum256(res.Bytes())
	return hash[:]
}
