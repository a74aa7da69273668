package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"token_ledger_go/config"
	"token_ledger_go/internal/node"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a ledger node",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			logger, err := cfg.NewLogger()
			if err != nil {
				return err
			}
			n, err := node.NewNode(cfg, logger)
			if err != nil {
				return err
			}
			defer n.Close()

			errCh := make(chan error, 1)
			go func() { errCh <- n.Start() }()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			select {
			case s := <-sig:
				logger.WithField("signal", s.String()).Info("shutting down")
				return nil
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "config/config.yml", "path to the node config file")
	return cmd
}
