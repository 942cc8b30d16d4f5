package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"zchat/internal/logger"
	"zchat/internal/render"
	"zchat/pkg/types"
)

var sessionsExportOut string

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage stored conversation sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	Run: func(_ *cobra.Command, _ []string) {
		a := mustApp()
		sessions, err := a.api.ListSessions(context.Background())
		if err != nil {
			logger.Fatal("failed to list sessions", "error", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No conversations yet.")
			return
		}
		for _, s := range sessions {
			fmt.Println(formatSessionRow(s))
		}
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a session's full message log",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		a := mustApp()
		detail, err := a.api.SessionDetail(context.Background(), args[0])
		if err != nil {
			logger.Fatal("failed to open session", "session", args[0], "error", err)
		}
		renderer := render.New(a.cfg.Plain)
		for _, msg := range detail.Messages {
			printMessage(renderer, msg)
		}
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a stored session",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		a := mustApp()
		if err := a.api.DeleteSession(context.Background(), args[0]); err != nil {
			logger.Fatal("failed to delete session", "session", args[0], "error", err)
		}
		fmt.Println("Deleted.")
	},
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session's message log to YAML",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		a := mustApp()
		detail, err := a.api.SessionDetail(context.Background(), args[0])
		if err != nil {
			logger.Fatal("failed to open session", "session", args[0], "error", err)
		}
		out, err := yaml.Marshal(detail)
		if err != nil {
			logger.Fatal("failed to encode session", "error", err)
		}
		if sessionsExportOut == "" {
			fmt.Print(string(out))
			return
		}
		if err := os.WriteFile(sessionsExportOut, out, 0644); err != nil {
			logger.Fatal("failed to write export", "path", sessionsExportOut, "error", err)
		}
		fmt.Printf("Exported to %s\n", sessionsExportOut)
	},
}

// formatSessionRow renders one list line, substituting placeholders for
// sessions the backend returned without a title or preview.
func formatSessionRow(s types.SessionSummary) string {
	title := s.Title
	if title == "" {
		title = "Untitled chat"
	}
	preview := s.LastMessagePreview
	if preview == "" {
		preview = "No messages yet"
	}
	return fmt.Sprintf("%s  %s - %s", s.ID, title, preview)
}

func init() {
	sessionsExportCmd.Flags().StringVar(&sessionsExportOut, "out", "", "Write to file instead of stdout")
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsDeleteCmd, sessionsExportCmd)
	rootCmd.AddCommand(sessionsCmd)
}
