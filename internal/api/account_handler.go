package api

import (
	"net/http"

	"token_ledger_go/internal/service"
	"token_ledger_go/pkg/crypto"

	"github.com/gin-gonic/gin"
)

type createMintRequest struct {
	Authority string `json:"authority"`
	Decimals  uint8  `json:"decimals"`
}

type openAccountRequest struct {
	Mint  string `json:"mint"`
	Owner string `json:"owner"`
}

func (s *Server) handleGenerateKey(c *gin.Context) {
	priv, addr, err := crypto.GenerateKeyPair()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"address":     addr,
		"private_key": priv.String(),
	})
}

func (s *Server) handleCreateMint(c *gin.Context) {
	var req createMintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Authority == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authority required"})
		return
	}
	mint, err := service.NewMint(req.Authority, req.Decimals)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := s.submit.CreateMint(*mint)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleGetMint(c *gin.Context) {
	mint, err := s.accountSvc.GetMint(c.Param("address"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mint)
}

func (s *Server) handleListAccounts(c *gin.Context) {
	accs, err := s.accountSvc.ListAccounts(c.Param("address"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accs})
}

func (s *Server) handleOpenAccount(c *gin.Context) {
	var req openAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Mint == "" || req.Owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mint & owner required"})
		return
	}
	if _, err := crypto.AssociatedAccount(req.Owner, req.Mint); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	acc, err := s.submit.OpenAccount(req.Mint, req.Owner)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, acc)
}

func (s *Server) handleGetAccount(c *gin.Context) {
	acc, err := s.accountSvc.GetAccount(c.Param("address"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (s *Server) handleGetNonce(c *gin.Context) {
	addr := c.Param("address")
	n, err := s.accountSvc.Nonce(addr)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authority": addr, "nonce": n, "next": n + 1})
}
