package types

// Mint 表示一种代币，只有 Authority 可以增发。
type Mint struct {
	Address   string `json:"address"`
	Authority string `json:"authority"`
	Supply    uint64 `json:"supply"`
	Decimals  uint8  `json:"decimals"`
}

// Account 表示某个 Mint 下的代币账户，Owner 是唯一可以扣款的签名者。
type Account struct {
	Address string `json:"address"`
	Mint    string `json:"mint"`
	Owner   string `json:"owner"`
	Balance uint64 `json:"balance"`
}
