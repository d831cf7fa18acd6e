package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/relbot/internal/api"
	"github.com/kalambet/relbot/internal/config"
	"github.com/kalambet/relbot/internal/dataset"
	"github.com/kalambet/relbot/internal/search"
)

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the release notes locally and print the matching rows",
	Long: `Search the release notes CSV and print the context table that would be
sent to the model. No model or webhook call is made.

Examples:
  relbot search "search ui"
  relbot search --csv ./releases.csv viewer`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("csv")
		if path == "" {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			path = cfg.Dataset.CSVFile
		}
		return runSearch(cmd.OutOrStdout(), dataset.NewFile(path), strings.Join(args, " "))
	},
}

func runSearch(out io.Writer, records dataset.Loader, query string) error {
	rows, err := records.Load()
	if err != nil {
		return err
	}

	res := search.Search(query, rows)
	if !res.Found() {
		printWarning("no rows matched %q", query)
	} else if res.Keyword != "" {
		printStep("no match for the full query, matched on %q", res.Keyword)
	}
	fmt.Fprintln(out, res.Text)
	return nil
}

// --- ask ---

type askReply struct {
	Answer          string `json:"answer"`
	RequiresContact bool   `json:"requires_contact"`
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a running relbot server a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runAsk(ctx, cmd.OutOrStdout(), client, strings.Join(args, " "))
	},
}

func runAsk(ctx context.Context, out io.Writer, client *apiClient, question string) error {
	resp, err := client.post(ctx, "/ask", map[string]string{"question": question})
	if err != nil {
		return err
	}

	var reply askReply
	if err := decodeJSON(resp, &reply); err != nil {
		return err
	}

	fmt.Fprintln(out, reply.Answer)
	if reply.RequiresContact {
		printWarning("the assistant suggests contacting support; use the web page to leave your details")
	}
	return nil
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server on stdio exposing release search and answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s := api.NewMCPServer(newAssistant(cfg, logger), version)
		logger.Info().Msg("MCP server started (stdio transport)")
		if err := server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mcp stdio server: %w", err)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().String("csv", "", "release notes CSV (defaults to CSV_FILE)")
	askCmd.Flags().StringVar(&serverURL, "server", "", "server base URL (defaults to HOST and PORT)")
	statusCmd.Flags().StringVar(&serverURL, "server", "", "server base URL (defaults to HOST and PORT)")
}
