package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"zchat/internal/logger"
)

var (
	translateFrom string
	translateTo   string
)

var translateCmd = &cobra.Command{
	Use:   "translate <text>",
	Short: "Translate text between languages",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		a := mustApp()
		text := strings.Join(args, " ")

		translated, err := a.api.Translate(context.Background(), text, translateFrom, translateTo)
		if err != nil {
			logger.Fatal("translation failed", "error", err)
		}
		fmt.Println(translated)
	},
}

func init() {
	translateCmd.Flags().StringVar(&translateFrom, "from", "en", "Source language code")
	translateCmd.Flags().StringVar(&translateTo, "to", "ur", "Target language code")
	rootCmd.AddCommand(translateCmd)
}
