package api

import (
	"net/http"

	"token_ledger_go/internal/service"
	"token_ledger_go/internal/types"

	"github.com/gin-gonic/gin"
)

type auditRecord struct {
	Index       uint64            `json:"index"`
	Hash        string            `json:"hash"`
	Instruction types.Instruction `json:"instruction"`
}

func (s *Server) handleAuditEntry(c *gin.Context) {
	idx, ok := parseIndex(c, c.Param("index"))
	if !ok {
		return
	}
	entry, err := s.auditSvc.GetEntry(idx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleListAudit(c *gin.Context) {
	var from uint64
	if raw := c.Query("from"); raw != "" {
		var ok bool
		if from, ok = parseIndex(c, raw); !ok {
			return
		}
	}
	entries, err := s.auditSvc.ListEntries(from)
	if err != nil {
		writeError(c, err)
		return
	}
	records := make([]auditRecord, 0, len(entries))
	for _, e := range entries {
		ins, err := service.DecodeInstruction(e)
		if err != nil {
			continue
		}
		records = append(records, auditRecord{Index: e.Index, Hash: hexHash(e.EntryHash), Instruction: ins})
	}
	c.JSON(http.StatusOK, gin.H{"entries": records})
}

func (s *Server) handleVerifyAudit(c *gin.Context) {
	if err := s.auditSvc.VerifyChain(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"valid": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}
