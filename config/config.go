package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	NodeID   string `yaml:"node_id"`
	DataDir  string `yaml:"data_dir"`
	HTTPPort int    `yaml:"http_port"`

	RaftBind      string   `yaml:"raft_bind"`
	RaftDir       string   `yaml:"raft_dir"`
	RaftBootstrap bool     `yaml:"raft_bootstrap"`
	RaftPeers     []string `yaml:"raft_peers"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse 解析 YAML 并补齐默认值
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.NodeID == "" {
		return nil, errors.New("node_id is required")
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = 8080
	}
	if cfg.RaftBind == "" {
		cfg.RaftBind = "127.0.0.1:7000"
	}
	if cfg.RaftDir == "" {
		cfg.RaftDir = filepath.Join(cfg.DataDir, "raft")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if !cfg.RaftBootstrap && len(cfg.RaftPeers) == 0 {
		return nil, errors.New("raft_peers required unless raft_bootstrap is set")
	}

	return &cfg, nil
}
