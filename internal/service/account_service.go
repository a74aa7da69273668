package service

import (
	"fmt"

	"token_ledger_go/internal/store"
	"token_ledger_go/internal/types"
	"token_ledger_go/pkg/crypto"

	"github.com/sirupsen/logrus"
)

// 封装 Mint 与代币账户的注册和查询。
type AccountService struct {
	store *store.Store
	log   *logrus.Entry
}

func NewAccountService(s *store.Store, log *logrus.Entry) *AccountService {
	return &AccountService{store: s, log: log.WithField("component", "accounts")}
}

// NewMint 生成一个新的 Mint 地址，尚未写入账本。
func NewMint(authority string, decimals uint8) (*types.Mint, error) {
	if _, err := crypto.ParseAddress(authority); err != nil {
		return nil, err
	}
	_, addr, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return &types.Mint{Address: addr, Authority: authority, Decimals: decimals}, nil
}

// CreateMint 注册 Mint，发行量从 0 开始。
func (svc *AccountService) CreateMint(mint types.Mint) (*types.Mint, error) {
	if _, err := crypto.ParseAddress(mint.Address); err != nil {
		return nil, err
	}
	if _, err := crypto.ParseAddress(mint.Authority); err != nil {
		return nil, err
	}
	mint.Supply = 0
	if err := svc.store.CreateMint(&mint); err != nil {
		return nil, err
	}
	svc.log.WithFields(logrus.Fields{"mint": mint.Address, "authority": mint.Authority}).Info("mint created")
	return &mint, nil
}

// OpenAccount 为 owner 在 mint 下开设关联代币账户。
func (svc *AccountService) OpenAccount(mint, owner string) (*types.Account, error) {
	addr, err := crypto.AssociatedAccount(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("derive associated account: %w", err)
	}
	acc := &types.Account{Address: addr, Mint: mint, Owner: owner}
	if err := svc.store.CreateAccount(acc); err != nil {
		return nil, err
	}
	svc.log.WithFields(logrus.Fields{"account": addr, "mint": mint, "owner": owner}).Info("account opened")
	return acc, nil
}

func (svc *AccountService) GetAccount(address string) (*types.Account, error) {
	return svc.store.GetAccount(address)
}

func (svc *AccountService) GetMint(address string) (*types.Mint, error) {
	return svc.store.GetMint(address)
}

func (svc *AccountService) ListAccounts(mint string) ([]*types.Account, error) {
	if _, err := svc.store.GetMint(mint); err != nil {
		return nil, err
	}
	return svc.store.ListAccounts(mint)
}

// Nonce 返回 authority 最近使用的 nonce，下一条签名指令应使用其加一。
func (svc *AccountService) Nonce(authority string) (uint64, error) {
	return svc.store.Nonce(authority)
}
