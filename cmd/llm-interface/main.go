package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Munger/llm-interface/config"
	"github.com/Munger/llm-interface/internal/chat"
	"github.com/Munger/llm-interface/internal/prompts"
	"github.com/Munger/llm-interface/internal/research"
	"github.com/Munger/llm-interface/internal/server"
	"github.com/Munger/llm-interface/internal/telemetry"
	"github.com/Munger/llm-interface/provider"
	"github.com/Munger/llm-interface/session"
	"github.com/Munger/llm-interface/session/index"
	"github.com/Munger/llm-interface/session/inmemory"
	"github.com/Munger/llm-interface/tools"
)

func main() {
	var root = &cobra.Command{Use: "llm-interface"}

	var cfgPath string
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	root.AddCommand(serveCMD(&cfgPath), chatCMD(&cfgPath))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCMD(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*cfgPath)
			if err != nil {
				return err
			}
			return server.Run(cfg)
		},
	}
}

func chatCMD(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat session on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*cfgPath)
			if err != nil {
				return err
			}
			svc, err := buildChat(cfg)
			if err != nil {
				return err
			}

			sessionID := uuid.NewString()
			fmt.Printf("session %s, %q starts research, ctrl-d quits\n", sessionID, strings.TrimSpace(cfg.Research.TriggerPrefix))

			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					fmt.Println()
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				reply, err := svc.Handle(cmd.Context(), sessionID, line)
				if err != nil {
					if cmd.Context().Err() != nil {
						return cmd.Context().Err()
					}
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				fmt.Println(reply)
			}
		},
	}
}

func buildChat(cfg *config.Config) (*chat.Service, error) {
	tel := telemetry.New()

	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return nil, err
	}
	registry, err := tools.NewDefaultRegistry(cfg.Tools)
	if err != nil {
		return nil, err
	}
	templates := prompts.NewRegistry()
	if cfg.Research.PromptOverrides != "" {
		if err := templates.LoadOverrides(cfg.Research.PromptOverrides); err != nil {
			return nil, err
		}
	}

	orchLogger := log.New(os.Stderr, "[ORCH] ", log.LstdFlags)
	orch := research.NewOrchestrator(cfg.Research, orchLogger, llm, registry, templates, tel)

	tracker := session.NewTracker(inmemory.NewStore(cfg.Session.TTL))
	chatLogger := log.New(os.Stderr, "[CHAT] ", log.LstdFlags)
	return chat.NewService(cfg.Research, chatLogger, llm, orch, templates, tracker, index.NewManager(), tel), nil
}
