package api

import (
	"errors"
	"fmt"
	"net/http"

	"token_ledger_go/internal/service"
	"token_ledger_go/internal/store"
	"token_ledger_go/internal/token"
	"token_ledger_go/internal/txVerify"

	"github.com/dgraph-io/badger/v3"
	"github.com/gin-gonic/gin"
)

// NotLeaderError 表示写请求落在了 follower 上。
type NotLeaderError struct {
	Leader string
}

func (e *NotLeaderError) Error() string {
	if e.Leader == "" {
		return "not leader: no leader elected"
	}
	return fmt.Sprintf("not leader: leader is %s", e.Leader)
}

func statusFor(err error) int {
	var nl *NotLeaderError
	switch {
	case errors.As(err, &nl):
		return http.StatusServiceUnavailable
	case errors.Is(err, token.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, token.ErrInsufficientFunds), errors.Is(err, store.ErrNonceMismatch), errors.Is(err, store.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, token.ErrOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, token.ErrAccountNotFound), errors.Is(err, token.ErrMintNotFound), errors.Is(err, badger.ErrKeyNotFound):
		return http.StatusNotFound
	case errors.Is(err, token.ErrAccountMismatch), errors.Is(err, token.ErrInvalidAmount), errors.Is(err, txVerify.ErrInvalidInstruction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError 输出错误与其分类，follower 上附带 X-Raft-Leader
func writeError(c *gin.Context, err error) {
	var nl *NotLeaderError
	if errors.As(err, &nl) && nl.Leader != "" {
		c.Header("X-Raft-Leader", nl.Leader)
	}
	c.JSON(statusFor(err), gin.H{"error": err.Error(), "kind": service.ErrorKind(err)})
}
