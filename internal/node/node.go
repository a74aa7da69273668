package node

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"token_ledger_go/config"
	"token_ledger_go/internal/api"
	"token_ledger_go/internal/service"
	"token_ledger_go/internal/store"
	"token_ledger_go/internal/txVerify"
	"token_ledger_go/internal/types"

	"github.com/dgraph-io/badger/v3"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
	"github.com/sirupsen/logrus"
)

const (
	applyTimeout = 5 * time.Second
	joinRounds   = 5
)

// joinRequest 表示节点加入集群时提交的信息。
type joinRequest struct {
	NodeID      string `json:"node_id"`
	RaftAddress string `json:"raft_address"`
}

// Node 表示一个账本节点，封装业务服务与 Raft 复制。
type Node struct {
	cfg    *config.Config
	db     *badger.DB
	server *api.Server
	direct *service.Direct
	log    *logrus.Entry

	raftNode *raft.Raft
	hasState bool
}

var _ api.Submitter = (*Node)(nil)

// NewNode 根据配置初始化业务服务与 Raft 实例。
func NewNode(cfg *config.Config, logger *logrus.Logger) (*Node, error) {
	log := logger.WithField("node", cfg.NodeID)
	db, err := store.Open(cfg.DataDir, log.WithField("component", "badger"))
	if err != nil {
		return nil, err
	}
	s := store.NewStore(db)
	accountSvc := service.NewAccountService(s, log)
	auditSvc := service.NewAuditService(s)
	if err := auditSvc.VerifyChain(); err != nil {
		db.Close()
		return nil, err
	}
	txSvc := service.NewTransactionService(s, txVerify.NewValidator(), log)

	n := &Node{
		cfg:    cfg,
		db:     db,
		direct: &service.Direct{Accounts: accountSvc, Transactions: txSvc},
		log:    log,
	}

	hasState, err := n.initRaft()
	if err != nil {
		n.Close()
		return nil, err
	}
	n.hasState = hasState
	if !hasState && !cfg.RaftBootstrap {
		if err := n.joinCluster(); err != nil {
			n.Close()
			return nil, err
		}
	}

	n.server = api.NewServer(api.Options{
		Accounts: accountSvc,
		Audit:    auditSvc,
		Submit:   n,
		Join:     n.handleJoinRequest,
		Status:   n.raftStatus,
		Logger:   log,
	})
	return n, nil
}

// initRaft 创建并配置 Raft 组件，返回是否存在旧状态。
func (n *Node) initRaft() (bool, error) {
	if err := os.MkdirAll(n.cfg.RaftDir, 0o755); err != nil {
		return false, err
	}

	raftLog := n.log.WithField("component", "raft").Writer()
	rConfig := raft.DefaultConfig()
	rConfig.LocalID = raft.ServerID(n.cfg.NodeID)
	rConfig.LogOutput = raftLog

	f := &fsm{direct: n.direct, db: n.db}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(n.cfg.RaftDir, "raft-log.bolt"))
	if err != nil {
		return false, err
	}
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(n.cfg.RaftDir, "raft-stable.bolt"))
	if err != nil {
		return false, err
	}
	snapStore, err := raft.NewFileSnapshotStore(n.cfg.RaftDir, 1, raftLog)
	if err != nil {
		return false, err
	}

	transport, err := raft.NewTCPTransport(n.cfg.RaftBind, nil, 3, 10*time.Second, raftLog)
	if err != nil {
		return false, err
	}

	hasState, err := raft.HasExistingState(logStore, stableStore, snapStore)
	if err != nil {
		return false, err
	}

	raftNode, err := raft.NewRaft(rConfig, f, logStore, stableStore, snapStore, transport)
	if err != nil {
		return false, err
	}

	if n.cfg.RaftBootstrap && !hasState {
		conf := raft.Configuration{
			Servers: []raft.Server{
				{
					ID:      raft.ServerID(n.cfg.NodeID),
					Address: transport.LocalAddr(),
				},
			},
		}
		if err := raftNode.BootstrapCluster(conf).Error(); err != nil {
			return false, err
		}
	}

	n.raftNode = raftNode
	return hasState, nil
}

// Start 启动 HTTP 服务，提供对外接口。
func (n *Node) Start() error {
	addr := fmt.Sprintf(":%d", n.cfg.HTTPPort)
	n.log.WithFields(logrus.Fields{
		"addr":      addr,
		"raft_bind": n.cfg.RaftBind,
		"data_dir":  n.cfg.DataDir,
		"raft_dir":  n.cfg.RaftDir,
	}).Info("node listening")
	return n.server.ListenAndServe(addr)
}

// Close 关闭 Raft 和 Badger。
func (n *Node) Close() error {
	if n.raftNode != nil {
		_ = n.raftNode.Shutdown().Error()
	}
	if n.db != nil {
		return n.db.Close()
	}
	return nil
}

// IsLeader 报告本节点当前是否为 leader。
func (n *Node) IsLeader() bool {
	return n.raftNode != nil && n.raftNode.State() == raft.Leader
}

func (n *Node) SubmitInstruction(ins *types.Instruction) (*types.Entry, error) {
	v, err := n.propose(raftCommand{Type: commandInstruction, Instruction: ins})
	if err != nil {
		return nil, err
	}
	entry, _ := v.(*types.Entry)
	return entry, nil
}

func (n *Node) CreateMint(mint types.Mint) (*types.Mint, error) {
	v, err := n.propose(raftCommand{Type: commandCreateMint, Mint: &mint})
	if err != nil {
		return nil, err
	}
	created, _ := v.(*types.Mint)
	return created, nil
}

func (n *Node) OpenAccount(mint, owner string) (*types.Account, error) {
	v, err := n.propose(raftCommand{Type: commandOpenAccount, Mint: &types.Mint{Address: mint}, Owner: owner})
	if err != nil {
		return nil, err
	}
	acc, _ := v.(*types.Account)
	return acc, nil
}

// propose 将命令序列化后提交给 Raft 日志，并取回 FSM 的执行结果。
func (n *Node) propose(cmd raftCommand) (interface{}, error) {
	if n.raftNode == nil {
		return nil, errors.New("raft not initialized")
	}
	if n.raftNode.State() != raft.Leader {
		return nil, &api.NotLeaderError{Leader: string(n.raftNode.Leader())}
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	future := n.raftNode.Apply(payload, applyTimeout)
	if err := future.Error(); err != nil {
		if errors.Is(err, raft.ErrNotLeader) || errors.Is(err, raft.ErrLeadershipLost) {
			return nil, &api.NotLeaderError{Leader: string(n.raftNode.Leader())}
		}
		return nil, err
	}
	res, ok := future.Response().(applyResult)
	if !ok {
		return nil, fmt.Errorf("unexpected fsm response %T", future.Response())
	}
	return res.value, res.err
}

// joinCluster 轮询 raft_peers（HTTP 地址）直到某个 leader 接受加入。
func (n *Node) joinCluster() error {
	if len(n.cfg.RaftPeers) == 0 {
		return errors.New("raft_peers required for join")
	}
	body, err := json.Marshal(joinRequest{NodeID: n.cfg.NodeID, RaftAddress: n.cfg.RaftBind})
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 5 * time.Second}
	for round := 0; round < joinRounds; round++ {
		for _, peer := range n.cfg.RaftPeers {
			url := fmt.Sprintf("http://%s/raft/join", peer)
			resp, err := client.Post(url, "application/json", bytes.NewReader(body))
			if err != nil {
				n.log.WithError(err).WithField("peer", url).Warn("join request failed")
				continue
			}
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				n.log.WithField("peer", url).Info("joined cluster")
				return nil
			}
		}
		time.Sleep(time.Duration(round+1) * time.Second)
	}
	return errors.New("failed to join raft cluster")
}

// handleJoinRequest 响应其它节点提交的 join 请求。
func (n *Node) handleJoinRequest(nodeID, raftAddr string) (string, error) {
	if n.raftNode == nil {
		return "", errors.New("raft not initialized")
	}
	if n.raftNode.State() != raft.Leader {
		leader := string(n.raftNode.Leader())
		if leader == "" {
			return "", errors.New("no leader")
		}
		return leader, errors.New("not leader")
	}
	future := n.raftNode.AddVoter(raft.ServerID(nodeID), raft.ServerAddress(raftAddr), 0, 0)
	if err := future.Error(); err != nil {
		return "", err
	}
	n.log.WithFields(logrus.Fields{"peer_id": nodeID, "peer_addr": raftAddr}).Info("voter added")
	return "", nil
}

// raftStatus 返回当前节点的 Raft 状态信息。
func (n *Node) raftStatus() map[string]interface{} {
	if n.raftNode == nil {
		return map[string]interface{}{"state": "not_initialized"}
	}
	stats := n.raftNode.Stats()
	return map[string]interface{}{
		"node_id":        n.cfg.NodeID,
		"state":          n.raftNode.State().String(),
		"leader":         string(n.raftNode.Leader()),
		"term":           stats["term"],
		"last_log_index": stats["last_log_index"],
		"applied_index":  stats["applied_index"],
	}
}
