package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"token_ledger_go/internal/service"
	"token_ledger_go/internal/store"
	"token_ledger_go/internal/txVerify"
	"token_ledger_go/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	log := logrus.NewEntry(logger)

	s := store.NewStore(db)
	accounts := service.NewAccountService(s, log)
	txs := service.NewTransactionService(s, txVerify.NewValidator(), log)
	return NewServer(Options{
		Accounts: accounts,
		Audit:    service.NewAuditService(s),
		Submit:   &service.Direct{Accounts: accounts, Transactions: txs},
		Logger:   log,
	})
}

func do(t *testing.T, srv *Server, method, path string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

type keyResp struct {
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
}

func TestMintAndTransferFlow(t *testing.T) {
	srv := newTestServer(t)

	var authority, alice, bob keyResp
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/keys", nil, &authority))
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/keys", nil, &alice))
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/keys", nil, &bob))

	var mint types.Mint
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/mints", gin.H{"authority": authority.Address}, &mint))

	var a, b types.Account
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/accounts", gin.H{"mint": mint.Address, "owner": alice.Address}, &a))
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/accounts", gin.H{"mint": mint.Address, "owner": bob.Address}, &b))
	assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/accounts", gin.H{"mint": mint.Address, "owner": bob.Address}, nil))

	code := do(t, srv, http.MethodPost, "/instructions/mint", gin.H{
		"mint": mint.Address, "destination": a.Address, "authority": authority.Address,
		"amount": 10, "nonce": 1, "private_key": authority.PrivateKey,
	}, nil)
	require.Equal(t, http.StatusOK, code)

	code = do(t, srv, http.MethodPost, "/instructions/transfer", gin.H{
		"source": a.Address, "destination": b.Address, "authority": alice.Address,
		"amount": 5, "nonce": 1, "private_key": alice.PrivateKey,
	}, nil)
	require.Equal(t, http.StatusOK, code)

	var errResp struct {
		Kind string `json:"kind"`
	}
	code = do(t, srv, http.MethodPost, "/instructions/transfer", gin.H{
		"source": a.Address, "destination": b.Address, "authority": alice.Address,
		"amount": 100, "nonce": 2, "private_key": alice.PrivateKey,
	}, &errResp)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "insufficient_funds", errResp.Kind)

	var got types.Account
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/accounts/"+a.Address, nil, &got))
	assert.Equal(t, uint64(5), got.Balance)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/accounts/"+b.Address, nil, &got))
	assert.Equal(t, uint64(5), got.Balance)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/mints/"+mint.Address, nil, &mint))
	assert.Equal(t, uint64(10), mint.Supply)

	var nonce struct {
		Next uint64 `json:"next"`
	}
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/authorities/"+alice.Address+"/nonce", nil, &nonce))
	assert.Equal(t, uint64(2), nonce.Next)

	var audit struct {
		Entries []auditRecord `json:"entries"`
	}
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/audit", nil, &audit))
	require.Len(t, audit.Entries, 2)
	assert.Equal(t, types.InstructionMintTo, audit.Entries[0].Instruction.Type)

	var verify struct {
		Valid bool `json:"valid"`
	}
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/audit/verify", nil, &verify))
	assert.True(t, verify.Valid)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/audit/entries/99", nil, nil))
}

func TestUnauthorizedMint(t *testing.T) {
	srv := newTestServer(t)

	var authority, mallory keyResp
	do(t, srv, http.MethodPost, "/keys", nil, &authority)
	do(t, srv, http.MethodPost, "/keys", nil, &mallory)

	var mint types.Mint
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/mints", gin.H{"authority": authority.Address}, &mint))
	var acc types.Account
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/accounts", gin.H{"mint": mint.Address, "owner": mallory.Address}, &acc))

	var errResp struct {
		Kind string `json:"kind"`
	}
	code := do(t, srv, http.MethodPost, "/instructions/mint", gin.H{
		"mint": mint.Address, "destination": acc.Address, "authority": mallory.Address,
		"amount": 10, "nonce": 1, "private_key": mallory.PrivateKey,
	}, &errResp)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "unauthorized", errResp.Kind)

	// 私钥与 authority 不匹配
	code = do(t, srv, http.MethodPost, "/instructions/mint", gin.H{
		"mint": mint.Address, "destination": acc.Address, "authority": authority.Address,
		"amount": 10, "nonce": 1, "private_key": mallory.PrivateKey,
	}, nil)
	assert.Equal(t, http.StatusForbidden, code)

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/mints/"+mint.Address, nil, &mint))
	assert.Zero(t, mint.Supply)
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/mints", gin.H{}, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/mints", gin.H{"authority": "nope"}, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/instructions/mint", gin.H{"destination": "x", "authority": "y"}, nil))
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/accounts/unknown", nil, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/audit/entries/abc", nil, nil))
	assert.Equal(t, http.StatusServiceUnavailable, do(t, srv, http.MethodGet, "/raft/status", nil, nil))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(&NotLeaderError{Leader: "n1"}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
