package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"zchat/internal/chat"
	"zchat/internal/logger"
	"zchat/internal/render"
	"zchat/pkg/types"
)

var (
	chatSessionID string
	chatSync      bool
	chatPlain     bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Start an interactive conversation with the assistant. Replies stream
in as they are generated; Ctrl-C cancels the reply in progress. Inputs
like "generate an image of a red fox" are routed to image generation.`,
	Run: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "Resume a stored session by id")
	chatCmd.Flags().BoolVar(&chatSync, "sync", false, "Disable streaming, wait for full replies")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "Disable markdown rendering")
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, _ []string) {
	a := mustApp()
	renderer := render.New(a.cfg.Plain || chatPlain)

	var lastShown string
	streamed := false
	hook := func(content string) {
		streamed = true
		if strings.HasPrefix(content, lastShown) {
			fmt.Print(content[len(lastShown):])
		} else {
			// The terminal frame replaced the preview text wholesale.
			fmt.Print("\n" + content)
		}
		lastShown = content
	}

	opts := []chat.Option{chat.WithDeltaHook(hook)}
	if chatSync || a.cfg.ForceSync {
		opts = append(opts, chat.WithForceSync())
	}
	conv := chat.NewConversation(a.api, opts...)

	ctx := context.Background()
	if chatSessionID != "" {
		if err := conv.Hydrate(ctx, chatSessionID); err != nil {
			logger.Fatal("failed to open session", "session", chatSessionID, "error", err)
		}
		for _, msg := range conv.Messages() {
			printMessage(renderer, msg)
		}
	}

	// Ctrl-C cancels the in-flight stream; a second one (or one while
	// idle) exits.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	go func() {
		for range interrupts {
			if !conv.Cancel() {
				fmt.Println("\nbye")
				os.Exit(0)
			}
		}
	}()

	fmt.Println("Connected. Type a message, /new for a fresh session, /quit to leave.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return
		case line == "/new":
			if err := conv.StartNew(); err != nil {
				fmt.Println("busy, finish the current turn first")
			} else {
				fmt.Println("started a new conversation")
			}
			continue
		}

		lastShown = ""
		streamed = false
		err := conv.Submit(ctx, line)

		var aborted *chat.StreamAbortedError
		switch {
		case err == nil:
			if streamed {
				fmt.Println()
			} else if msgs := conv.Messages(); len(msgs) > 0 {
				printMessage(renderer, msgs[len(msgs)-1])
			}
			if notice := conv.LangNotice(); notice != "" {
				fmt.Println(notice)
			}
		case errors.As(err, &aborted):
			fmt.Println("\n(generation cancelled)")
		case errors.Is(err, chat.ErrOffline):
			fmt.Println("You are offline. Reconnect to send messages.")
		default:
			logger.Error("turn failed", "error", err)
			fmt.Println("Failed to process message:", err)
		}
	}
}

func printMessage(renderer *render.Renderer, msg types.Message) {
	switch {
	case msg.IsImage:
		path, err := saveDataURL(msg.Content)
		if err != nil {
			logger.Error("failed to save image", "error", err)
			fmt.Println("assistant> [image could not be saved]")
			return
		}
		fmt.Printf("assistant> [image saved to %s]\n", path)
	case msg.Role == types.RoleUser:
		fmt.Printf("you> %s\n", msg.Content)
	default:
		fmt.Print("assistant> ")
		fmt.Print(renderer.Markdown(msg.Content))
	}
}

// saveDataURL writes a data:image/png;base64 payload next to the
// working directory and returns the file name.
func saveDataURL(dataURL string) (string, error) {
	const prefix = "data:image/png;base64,"
	encoded := strings.TrimPrefix(dataURL, prefix)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid image payload: %w", err)
	}
	name := fmt.Sprintf("zchat-image-%d.png", time.Now().Unix())
	if err := os.WriteFile(name, raw, 0644); err != nil {
		return "", err
	}
	return name, nil
}
