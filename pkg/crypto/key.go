package crypto

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// GenerateKeyPair 生成 ed25519 密钥对，返回私钥与 base58 地址。
func GenerateKeyPair() (solana.PrivateKey, string, error) {
	priv, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, "", err
	}
	return priv, priv.PublicKey().String(), nil
}

// ParseAddress 将 base58 地址解析为公钥。
func ParseAddress(addr string) (solana.PublicKey, error) {
	if addr == "" {
		return solana.PublicKey{}, errors.New("empty address")
	}
	pub, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return pub, nil
}

// ParsePrivateKey 解析 base58 编码的 64 字节私钥。
func ParsePrivateKey(s string) (solana.PrivateKey, error) {
	priv, err := solana.PrivateKeyFromBase58(s)
	if err != nil {
		return nil, err
	}
	if len(priv) != 64 {
		return nil, errors.New("invalid private key length: expected 64 bytes")
	}
	return priv, nil
}

// AddressOf 返回私钥对应的地址。
func AddressOf(priv solana.PrivateKey) string {
	return priv.PublicKey().String()
}

// Sign 对消息签名，返回 64 字节签名。
func Sign(priv solana.PrivateKey, msg []byte) ([]byte, error) {
	sig, err := priv.Sign(msg)
	if err != nil {
		return nil, err
	}
	return sig[:], nil
}

// Verify 校验 addr 对 msg 的签名。
func Verify(addr string, msg, signature []byte) bool {
	pub, err := ParseAddress(addr)
	if err != nil {
		return false
	}
	if len(signature) != 64 {
		return false
	}
	var sig solana.Signature
	copy(sig[:], signature)
	return sig.Verify(pub, msg)
}

// ParseSignature 解析 base58 签名。
func ParseSignature(s string) ([]byte, error) {
	sig, err := solana.SignatureFromBase58(s)
	if err != nil {
		return nil, err
	}
	return sig[:], nil
}

// AssociatedAccount 推导 owner 在 mint 下的关联代币账户地址。
func AssociatedAccount(owner, mint string) (string, error) {
	ownerKey, err := ParseAddress(owner)
	if err != nil {
		return "", err
	}
	mintKey, err := ParseAddress(mint)
	if err != nil {
		return "", err
	}
	ata, _, err := solana.FindAssociatedTokenAddress(ownerKey, mintKey)
	if err != nil {
		return "", err
	}
	return ata.String(), nil
}
