package store

import (
	"math"
	"sync"
	"testing"

	"token_ledger_go/internal/token"
	"token_ledger_go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

// seed 创建 mint M（authority auth）以及账户 A、B
func seed(t *testing.T, s *Store) {
	t.Helper()
	require.NoError(t, s.CreateMint(&types.Mint{Address: "M", Authority: "auth"}))
	require.NoError(t, s.CreateAccount(&types.Account{Address: "A", Mint: "M", Owner: "alice"}))
	require.NoError(t, s.CreateAccount(&types.Account{Address: "B", Mint: "M", Owner: "bob"}))
}

func balance(t *testing.T, s *Store, addr string) uint64 {
	t.Helper()
	acc, err := s.GetAccount(addr)
	require.NoError(t, err)
	return acc.Balance
}

func TestCreateDuplicates(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	assert.ErrorIs(t, s.CreateMint(&types.Mint{Address: "M", Authority: "x"}), ErrAlreadyExists)
	assert.ErrorIs(t, s.CreateAccount(&types.Account{Address: "A", Mint: "M", Owner: "x"}), ErrAlreadyExists)
	assert.ErrorIs(t, s.CreateAccount(&types.Account{Address: "C", Mint: "nope", Owner: "x"}), token.ErrMintNotFound)

	_, err := s.GetAccount("missing")
	assert.ErrorIs(t, err, token.ErrAccountNotFound)
	_, err = s.GetMint("missing")
	assert.ErrorIs(t, err, token.ErrMintNotFound)
}

func TestScenario(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	require.NoError(t, s.Update(func(tx *Txn) error {
		return token.MintTo(tx, token.MintToArgs{Mint: "M", Destination: "A", Authority: "auth", Amount: 10})
	}))
	mint, err := s.GetMint("M")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), mint.Supply)
	assert.Equal(t, uint64(10), balance(t, s, "A"))

	require.NoError(t, s.Update(func(tx *Txn) error {
		return token.Transfer(tx, token.TransferArgs{Source: "A", Destination: "B", Authority: "alice", Amount: 5})
	}))
	assert.Equal(t, uint64(5), balance(t, s, "A"))
	assert.Equal(t, uint64(5), balance(t, s, "B"))

	err = s.Update(func(tx *Txn) error {
		return token.Transfer(tx, token.TransferArgs{Source: "A", Destination: "B", Authority: "alice", Amount: 100})
	})
	require.ErrorIs(t, err, token.ErrInsufficientFunds)
	assert.Equal(t, uint64(5), balance(t, s, "A"))
	assert.Equal(t, uint64(5), balance(t, s, "B"))
}

func TestUpdateRollsBack(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	// 入账成功后再失败，整个事务都不应生效
	err := s.Update(func(tx *Txn) error {
		if err := tx.Credit("A", 7); err != nil {
			return err
		}
		if _, err := tx.AppendEntry([]byte("x")); err != nil {
			return err
		}
		return tx.Debit("B", 1)
	})
	require.ErrorIs(t, err, token.ErrInsufficientFunds)
	assert.Zero(t, balance(t, s, "A"))

	entries, err := s.ListEntries(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConcurrentTransfersSerialize(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	require.NoError(t, s.Update(func(tx *Txn) error {
		return token.MintTo(tx, token.MintToArgs{Mint: "M", Destination: "A", Authority: "auth", Amount: 5})
	}))

	const workers = 2
	errs := make([]error, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = s.Update(func(tx *Txn) error {
				return token.Transfer(tx, token.TransferArgs{Source: "A", Destination: "B", Authority: "alice", Amount: 5})
			})
		}(i)
	}
	close(start)
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, token.ErrInsufficientFunds)
	}
	assert.Equal(t, 1, ok)
	assert.Zero(t, balance(t, s, "A"))
	assert.Equal(t, uint64(5), balance(t, s, "B"))
}

func TestManyWritersNoConflict(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	const workers = 48
	require.NoError(t, s.Update(func(tx *Txn) error {
		return token.MintTo(tx, token.MintToArgs{Mint: "M", Destination: "A", Authority: "auth", Amount: workers})
	}))

	// 每个写事务都追加审计，全部落在同一组 audit 键上
	errs := make([]error, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = s.Update(func(tx *Txn) error {
				if err := token.Transfer(tx, token.TransferArgs{Source: "A", Destination: "B", Authority: "alice", Amount: 1}); err != nil {
					return err
				}
				_, err := tx.AppendEntry([]byte{byte(i)})
				return err
			})
		}(i)
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Zero(t, balance(t, s, "A"))
	assert.Equal(t, uint64(workers), balance(t, s, "B"))

	entries, err := s.ListEntries(0)
	require.NoError(t, err)
	assert.Len(t, entries, workers)
	require.NoError(t, s.VerifyChain())
}

func TestOverflowRejected(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateMint(&types.Mint{Address: "M", Authority: "auth", Supply: math.MaxUint64 - 1}))
	require.NoError(t, s.CreateAccount(&types.Account{Address: "A", Mint: "M", Owner: "alice"}))
	require.NoError(t, s.CreateAccount(&types.Account{Address: "B", Mint: "M", Owner: "bob", Balance: math.MaxUint64}))

	err := s.Update(func(tx *Txn) error {
		return token.MintTo(tx, token.MintToArgs{Mint: "M", Destination: "A", Authority: "auth", Amount: 2})
	})
	require.ErrorIs(t, err, token.ErrOverflow)

	err = s.Update(func(tx *Txn) error { return tx.Mint("M", 2) })
	require.ErrorIs(t, err, token.ErrOverflow)
	err = s.Update(func(tx *Txn) error { return tx.Credit("B", 1) })
	require.ErrorIs(t, err, token.ErrOverflow)

	// 恰好到上限仍然允许
	require.NoError(t, s.Update(func(tx *Txn) error { return tx.Mint("M", 1) }))

	mint, err := s.GetMint("M")
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), mint.Supply)
	assert.Zero(t, balance(t, s, "A"))
	assert.Equal(t, uint64(math.MaxUint64), balance(t, s, "B"))
}

func TestNonce(t *testing.T) {
	s := newTestStore(t)

	n, err := s.Nonce("auth")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Update(func(tx *Txn) error { return tx.UseNonce("auth", 1) }))
	err = s.Update(func(tx *Txn) error { return tx.UseNonce("auth", 1) })
	assert.ErrorIs(t, err, ErrNonceMismatch)
	err = s.Update(func(tx *Txn) error { return tx.UseNonce("auth", 3) })
	assert.ErrorIs(t, err, ErrNonceMismatch)

	n, err = s.Nonce("auth")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestAuditChain(t *testing.T) {
	s := newTestStore(t)
	for _, p := range []string{"a", "b", "c"} {
		require.NoError(t, s.Update(func(tx *Txn) error {
			_, err := tx.AppendEntry([]byte(p))
			return err
		}))
	}
	require.NoError(t, s.VerifyChain())

	entries, err := s.ListEntries(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(2), entries[0].Index)
	assert.Equal(t, []byte("c"), entries[1].TxBytes)

	e, err := s.GetEntry(1)
	require.NoError(t, err)
	assert.Equal(t, entries[0].PrevHash, e.EntryHash)
}

func TestListAccounts(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	require.NoError(t, s.CreateMint(&types.Mint{Address: "N", Authority: "auth"}))
	require.NoError(t, s.CreateAccount(&types.Account{Address: "X", Mint: "N", Owner: "alice"}))

	accs, err := s.ListAccounts("M")
	require.NoError(t, err)
	assert.Len(t, accs, 2)
}
