package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/inkwell"
	"pkt.systems/inkwell/httpapi"
	"pkt.systems/inkwell/internal/appconfig"
	"pkt.systems/inkwell/schema"
	"pkt.systems/pslog"
)

const hubHistory = 256

func newServeCmd() *cobra.Command {
	var cfgPath string
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			stack, err := inkwell.NewStack(cfg, logger)
			if err != nil {
				return err
			}
			if _, source := stack.Settings.EnvCredential(); source != "" {
				logger.Info("credential from environment", "var", source)
			}
			serverCfg := inkwell.ServerConfig{
				Session:    stack.Session,
				HTTP:       httpapi.Config{Addr: cfg.HTTP.Addr, HistorySize: hubHistory},
				HubHistory: hubHistory,
			}
			server, err := inkwell.New(serverCfg, inkwell.ServerDeps{SessionDeps: stack.SessionDeps(logger)}, inkwell.WithHTTP())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			events, unsubscribe := server.Events().Subscribe()
			defer unsubscribe()
			go logDocumentEvents(ctx, logger, events)
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	return cmd
}

func logDocumentEvents(ctx context.Context, logger pslog.Logger, events <-chan schema.DocumentEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case schema.DocumentSaved:
				logger.Info("project saved", "project", ev.ProjectID)
			case schema.DocumentProject:
				logger.Info("project switched", "project", ev.ProjectID)
			case schema.DocumentUsage:
				if ev.Usage != nil {
					logger.Info("completion usage", "project", ev.ProjectID, "total_tokens", ev.Usage.TotalTokens, "cost", ev.Usage.Cost)
				}
			}
		}
	}
}
