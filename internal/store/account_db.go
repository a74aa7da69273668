package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"token_ledger_go/internal/token"
	"token_ledger_go/internal/types"

	"github.com/dgraph-io/badger/v3"
)

const (
	AccPrefix  = "acc:"
	MintPrefix = "mint:"
)

var _ token.Ledger = (*Txn)(nil)

// CreateMint 注册新的 Mint（已存在则报错）
func (s *Store) CreateMint(mint *types.Mint) error {
	return s.Update(func(t *Txn) error {
		return t.CreateMint(mint)
	})
}

// CreateAccount 注册新的代币账户，所属 Mint 必须已存在
func (s *Store) CreateAccount(acc *types.Account) error {
	return s.Update(func(t *Txn) error {
		return t.CreateAccount(acc)
	})
}

// 获取账户信息
func (s *Store) GetAccount(address string) (*types.Account, error) {
	var acc *types.Account
	err := s.View(func(t *Txn) error {
		var err error
		acc, err = t.LookupAccount(address)
		return err
	})
	return acc, err
}

// 获取 Mint 信息
func (s *Store) GetMint(address string) (*types.Mint, error) {
	var mint *types.Mint
	err := s.View(func(t *Txn) error {
		var err error
		mint, err = t.LookupMint(address)
		return err
	})
	return mint, err
}

// ListAccounts 列出某个 Mint 下的全部账户
func (s *Store) ListAccounts(mint string) ([]*types.Account, error) {
	var out []*types.Account
	err := s.View(func(t *Txn) error {
		prefix := []byte(AccPrefix)
		it := t.txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var acc types.Account
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &acc)
			}); err != nil {
				return err
			}
			if acc.Mint == mint {
				out = append(out, &acc)
			}
		}
		return nil
	})
	return out, err
}

func (t *Txn) CreateMint(mint *types.Mint) error {
	key := []byte(MintPrefix + mint.Address)
	if err := t.absent(key); err != nil {
		return fmt.Errorf("mint %s: %w", mint.Address, err)
	}
	return t.put(key, mint)
}

func (t *Txn) CreateAccount(acc *types.Account) error {
	if _, err := t.LookupMint(acc.Mint); err != nil {
		return err
	}
	key := []byte(AccPrefix + acc.Address)
	if err := t.absent(key); err != nil {
		return fmt.Errorf("account %s: %w", acc.Address, err)
	}
	return t.put(key, acc)
}

// 读取账户（未注册则报错）
func (t *Txn) LookupAccount(address string) (*types.Account, error) {
	var acc types.Account
	err := t.get([]byte(AccPrefix+address), &acc)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", token.ErrAccountNotFound, address)
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (t *Txn) LookupMint(address string) (*types.Mint, error) {
	var mint types.Mint
	err := t.get([]byte(MintPrefix+address), &mint)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", token.ErrMintNotFound, address)
	}
	if err != nil {
		return nil, err
	}
	return &mint, nil
}

func (t *Txn) Debit(account string, amount uint64) error {
	acc, err := t.LookupAccount(account)
	if err != nil {
		return err
	}
	if acc.Balance < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", token.ErrInsufficientFunds, account, acc.Balance, amount)
	}
	acc.Balance -= amount
	return t.put([]byte(AccPrefix+acc.Address), acc)
}

func (t *Txn) Credit(account string, amount uint64) error {
	acc, err := t.LookupAccount(account)
	if err != nil {
		return err
	}
	sum, ok := token.AddChecked(acc.Balance, amount)
	if !ok {
		return fmt.Errorf("%w: balance of %s", token.ErrOverflow, account)
	}
	acc.Balance = sum
	return t.put([]byte(AccPrefix+acc.Address), acc)
}

func (t *Txn) Mint(mint string, amount uint64) error {
	m, err := t.LookupMint(mint)
	if err != nil {
		return err
	}
	sum, ok := token.AddChecked(m.Supply, amount)
	if !ok {
		return fmt.Errorf("%w: supply of %s", token.ErrOverflow, mint)
	}
	m.Supply = sum
	return t.put([]byte(MintPrefix+m.Address), m)
}

func (t *Txn) get(key []byte, v any) error {
	item, err := t.txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func (t *Txn) put(key []byte, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.txn.Set(key, val)
}

func (t *Txn) absent(key []byte) error {
	_, err := t.txn.Get(key)
	if err == nil {
		return ErrAlreadyExists
	}
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}
