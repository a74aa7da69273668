package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"token_ledger_go/internal/metrics"
	"token_ledger_go/internal/service"
	"token_ledger_go/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Submitter 负责所有写操作：单机直接落库，集群模式经 Raft 复制。
type Submitter interface {
	SubmitInstruction(ins *types.Instruction) (*types.Entry, error)
	CreateMint(mint types.Mint) (*types.Mint, error)
	OpenAccount(mint, owner string) (*types.Account, error)
}

// JoinFunc 处理节点加入，失败且非 leader 时返回 leader 地址。
type JoinFunc func(nodeID, raftAddr string) (string, error)

// StatusFunc 返回 Raft 状态。
type StatusFunc func() map[string]interface{}

type Options struct {
	Accounts *service.AccountService
	Audit    *service.AuditService
	Submit   Submitter
	Join     JoinFunc
	Status   StatusFunc
	Logger   *logrus.Entry
}

// Server 使用 Gin 暴露 Mint、账户、指令与审计接口。
type Server struct {
	engine     *gin.Engine
	accountSvc *service.AccountService
	auditSvc   *service.AuditService
	submit     Submitter
	joinFunc   JoinFunc
	statusFunc StatusFunc
	log        *logrus.Entry
}

func NewServer(opts Options) *Server {
	engine := gin.New()
	s := &Server{
		engine:     engine,
		accountSvc: opts.Accounts,
		auditSvc:   opts.Audit,
		submit:     opts.Submit,
		joinFunc:   opts.Join,
		statusFunc: opts.Status,
		log:        opts.Logger.WithField("component", "api"),
	}
	engine.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.POST("/keys", s.handleGenerateKey)

	s.engine.POST("/mints", s.handleCreateMint)
	s.engine.GET("/mints/:address", s.handleGetMint)
	s.engine.GET("/mints/:address/accounts", s.handleListAccounts)

	s.engine.POST("/accounts", s.handleOpenAccount)
	s.engine.GET("/accounts/:address", s.handleGetAccount)
	s.engine.GET("/authorities/:address/nonce", s.handleGetNonce)

	s.engine.POST("/instructions/mint", s.handleMint)
	s.engine.POST("/instructions/transfer", s.handleTransfer)

	s.engine.GET("/audit", s.handleListAudit)
	s.engine.GET("/audit/verify", s.handleVerifyAudit)
	s.engine.GET("/audit/entries/:index", s.handleAuditEntry)

	s.engine.POST("/raft/join", s.handleRaftJoin)
	s.engine.GET("/raft/status", s.handleRaftStatus)

	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// Handler 返回底层 http.Handler，便于测试。
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) ListenAndServe(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(status))
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": time.Since(start).String(),
		}).Debug("request")
	}
}

func parseIndex(c *gin.Context, raw string) (uint64, bool) {
	idx, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid index: %v", err)})
		return 0, false
	}
	return idx, true
}
