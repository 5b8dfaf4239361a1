package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rahul/finmate/internal/finance"
	"github.com/rahul/finmate/internal/gateway"
	"github.com/rahul/finmate/internal/observability"
	"github.com/rahul/finmate/internal/server"
	"github.com/spf13/cobra"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web front end, chat gateways and ingest watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			observability.PrintBanner("finance assistant")
			log.SetOutput(observability.NewTermWriter())

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, *cfgPath, true)
			if err != nil {
				return err
			}
			defer a.Close()

			chatAgent, err := a.chatAgent()
			if err != nil {
				return err
			}

			messengers := startGateways(a, chatAgent)
			defer func() {
				for _, m := range messengers {
					_ = m.Stop()
				}
			}()

			if a.cfg.Ingest.Watch {
				if err := startWatcher(ctx, a, messengers); err != nil {
					return err
				}
			}

			go func() {
				ticker := time.NewTicker(30 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						a.events.LogHeartbeat()
					}
				}
			}()

			srv := server.New(a.cfg.Server, chatAgent, a.executor(), nil)
			if a.ledger != nil {
				srv.Dashboard = a.ledger
			}
			if addr == "" {
				addr = a.cfg.Server.Address
			}
			return srv.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.address)")
	return cmd
}

// startGateways launches every enabled chat gateway in the background.
func startGateways(a *app, d gateway.Dialoguer) map[string]gateway.Messenger {
	messengers := make(map[string]gateway.Messenger)
	if gw, ok := a.cfg.GetGatewayConfig("telegram"); ok {
		tg, err := gateway.NewTelegramGateway(gw.Token, d)
		if err != nil {
			log.Printf("Warning: telegram gateway disabled: %v", err)
		} else {
			messengers["telegram"] = tg
		}
	}
	if gw, ok := a.cfg.GetGatewayConfig("discord"); ok {
		dg, err := gateway.NewDiscordGateway(gw.Token, d)
		if err != nil {
			log.Printf("Warning: discord gateway disabled: %v", err)
		} else {
			messengers["discord"] = dg
		}
	}
	for name, m := range messengers {
		go func(name string, m gateway.Messenger) {
			if err := m.Start(); err != nil {
				log.Printf("\033[91m[ FAIL ] %s gateway error: %v\033[0m", name, err)
			}
		}(name, m)
	}
	return messengers
}

func startWatcher(ctx context.Context, a *app, messengers map[string]gateway.Messenger) error {
	l, err := a.requireLedger()
	if err != nil {
		return fmt.Errorf("ingest watcher: %w", err)
	}
	rules, err := loadRules(a)
	if err != nil {
		return err
	}
	ing := finance.NewIngester(l, rules, a.cfg.Ingest.BatchSize)
	ing.Events = a.events

	w, err := finance.NewWatcher(a.cfg.App.DataDir, a.cfg.Ingest.Schedule, ing, l)
	if err != nil {
		return err
	}
	if m, ok := messengers[a.cfg.Ingest.NotifyGateway]; ok && a.cfg.Ingest.NotifyChat != "" {
		w.Notifier = m
		w.NotifyChat = a.cfg.Ingest.NotifyChat
	}
	go w.Start(ctx)
	return nil
}

func loadRules(a *app) ([]finance.Rule, error) {
	return finance.LoadRules(a.cfg.Ingest.RulesFile)
}
