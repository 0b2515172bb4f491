// Copyright (c) 2025 tgram-dev

package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tgram-dev/tgram/internal/session"
	"github.com/tgram-dev/tgram/telegram"
)

var (
	configFile string

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the bot until interrupted",
		Long:  "Run the bot with the fetcher, sessions and logging described by the config file.",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := LoadConfig(configFile)
			if err != nil {
				log.Fatalf("Failed to load config: %v", err)
			}

			client, err := buildClient(cfg)
			if err != nil {
				log.Fatalf("Failed to build client: %v", err)
			}

			registerHandlers(client)

			switch cfg.Mode {
			case "webhook":
				err = client.StartWebhook(&telegram.WebhookOptions{
					Addr:        cfg.Webhook.Addr,
					Path:        cfg.Webhook.Path,
					URL:         cfg.Webhook.URL,
					SecretToken: cfg.Webhook.SecretToken,
					DropPending: cfg.Webhook.DropPending,
				})
			default:
				err = client.StartPolling(&telegram.PollingOptions{
					Timeout:        cfg.Polling.Timeout,
					Limit:          cfg.Polling.Limit,
					Concurrent:     cfg.Polling.Concurrent,
					MaxConcurrency: cfg.Polling.MaxConcurrency,
				})
			}
			if err != nil {
				log.Fatalf("Failed to start fetcher: %v", err)
			}

			client.Log.Info("running in %s mode, send SIGINT or SIGTERM to stop", cfg.Mode)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			client.Log.Info("shutting down")
			client.Stop()
		},
	}

	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate the config file without starting anything",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := LoadConfig(configFile)
			if err != nil {
				log.Fatalf("Config invalid: %v", err)
			}
			fmt.Printf("Config OK: %s mode", cfg.Mode)
			if cfg.Sessions.File != "" {
				fmt.Printf(", sessions in %s", cfg.Sessions.File)
			}
			fmt.Println()
		},
	}
)

func init() {
	runCmd.Flags().StringVarP(&configFile, "config", "c", "tgram.yaml", "Path to config file")
	validateCmd.Flags().StringVarP(&configFile, "config", "c", "tgram.yaml", "Path to config file")
}

func buildClient(cfg *Config) (*telegram.Client, error) {
	var store telegram.SessionStore
	if cfg.Sessions.File != "" {
		store = session.NewFileStore(cfg.Sessions.File)
	} else {
		store = session.NewMemoryStore()
	}

	client, err := telegram.NewClient(telegram.ClientConfig{
		Token:        cfg.Token,
		APIURL:       cfg.APIURL,
		ParseMode:    cfg.ParseMode,
		LogLevel:     cfg.Logging.Level,
		SessionStore: store,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0o755); err != nil {
			return nil, err
		}
		rotated := &lumberjack.Logger{
			Filename:   cfg.Logging.File,
			MaxSize:    cfg.Logging.MaxSize,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAge,
			Compress:   cfg.Logging.Compress,
		}
		client.Log.SetOutput(io.MultiWriter(os.Stderr, rotated))
		client.Log.SetColor(false)
	}
	return client, nil
}

// registerHandlers wires the demonstration handlers: a /start greeting, an
// /id lookup, a per-chat message counter backed by the session store and an
// echo fallback.
func registerHandlers(c *telegram.Client) {
	c.Use(func(next telegram.HandlerFunc) telegram.HandlerFunc {
		return func(ctx *telegram.Context) error {
			if s, ok := ctx.Session(); ok {
				n, _ := s["messages"].(int)
				s["messages"] = n + 1
			}
			return next(ctx)
		}
	})

	c.On(telegram.Command("start"), func(ctx *telegram.Context) error {
		_, err := ctx.Reply("Hello! Send me anything and I will echo it back.")
		return err
	})

	c.On(telegram.Command("id"), func(ctx *telegram.Context) error {
		_, err := ctx.Reply(fmt.Sprintf("chat %d, user %d", ctx.ChatID(), ctx.SenderID()))
		return err
	})

	c.On(telegram.Command("count"), func(ctx *telegram.Context) error {
		s, ok := ctx.Session()
		if !ok {
			_, err := ctx.Reply("sessions are disabled")
			return err
		}
		n, _ := s["messages"].(int)
		_, err := ctx.Reply(fmt.Sprintf("seen %d message(s) from this chat", n))
		return err
	})

	c.On(telegram.And(telegram.OnMessage, telegram.HasText(), telegram.Not(telegram.TextPrefix("/"))),
		func(ctx *telegram.Context) error {
			_, err := ctx.Reply(ctx.Text())
			return err
		})

	c.OnError(func(ctx *telegram.Context, err error) {
		c.Log.WithError(err).Error("update %d failed", ctx.Update.UpdateID)
	})
}
