package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"task-helper/api/internal/llm"
	"task-helper/api/internal/prompt"
)

var (
	askType  string
	askModel string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the AI once and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ai, err := llm.NewFromConfig(cfg)
		if err != nil {
			return err
		}
		ans := ai.Ask(cmd.Context(), llm.Request{
			System:    prompt.System,
			Prompt:    prompt.Chat(strings.Join(args, " ")),
			Type:      llm.ParseTaskType(askType),
			ModelHint: askModel,
		})
		if !ans.OK() {
			return errors.New(ans.Message())
		}
		fmt.Fprintln(cmd.OutOrStdout(), ans.Text)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askType, "type", "chat", "task type: general | math | code | deep | chat")
	askCmd.Flags().StringVar(&askModel, "model", "", "model for the first attempt")
}
