package api

import (
	"net/http"

	"token_ledger_go/internal/txVerify"
	"token_ledger_go/internal/types"
	"token_ledger_go/pkg/crypto"

	"github.com/gin-gonic/gin"
)

// signature 为 base58；未提供时使用 private_key 在服务端签名
type instructionRequest struct {
	Mint        string `json:"mint"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Authority   string `json:"authority"`
	Amount      uint64 `json:"amount"`
	Nonce       uint64 `json:"nonce"`
	Signature   string `json:"signature"`
	PrivateKey  string `json:"private_key"`
}

func (s *Server) handleMint(c *gin.Context) {
	s.handleInstruction(c, types.InstructionMintTo)
}

func (s *Server) handleTransfer(c *gin.Context) {
	s.handleInstruction(c, types.InstructionTransfer)
}

func (s *Server) handleInstruction(c *gin.Context, kind types.InstructionType) {
	var req instructionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Destination == "" || req.Authority == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "destination & authority required"})
		return
	}
	if req.Signature == "" && req.PrivateKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature or private_key required"})
		return
	}
	ins := types.Instruction{
		Type:        kind,
		Mint:        req.Mint,
		Source:      req.Source,
		Destination: req.Destination,
		Authority:   req.Authority,
		Amount:      req.Amount,
		Nonce:       req.Nonce,
	}

	if req.Signature != "" {
		sig, err := crypto.ParseSignature(req.Signature)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ins.Signature = sig
	} else {
		priv, err := crypto.ParsePrivateKey(req.PrivateKey)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if crypto.AddressOf(priv) != req.Authority {
			c.JSON(http.StatusForbidden, gin.H{"error": "private key does not match authority"})
			return
		}
		if err := txVerify.SignInstruction(priv, &ins); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	entry, err := s.submit.SubmitInstruction(&ins)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := gin.H{"status": "ok"}
	if entry != nil {
		resp["audit_index"] = entry.Index
	}
	c.JSON(http.StatusOK, resp)
}
