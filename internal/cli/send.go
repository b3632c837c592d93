package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/raphaelgruber/wayfinder/internal/conversation"
	"github.com/raphaelgruber/wayfinder/internal/models"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send a message to the assistant",
	Long: `Send a message and print the assistant's reply.

Examples:
  wayfinder send "hotels in Lisbon under 150 a night"
  wayfinder send find me a rental car in Porto`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	text := strings.Join(args, " ")

	if err := sendMessage(ctx, text); err != nil {
		return err
	}

	msgs, err := sess.Messages(ctx)
	if err != nil {
		return fmt.Errorf("message sent, but reloading history failed: %w", err)
	}
	if reply, ok := latestReply(msgs); ok {
		renderMessage(os.Stdout, defaultTheme, reply)
	}
	return nil
}

// sendMessage submits text and turns failures into user-facing errors.
func sendMessage(ctx context.Context, text string) error {
	err := sess.Submit(ctx, text)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, conversation.ErrEmptyMessage):
		return fmt.Errorf("nothing to send")
	case errors.Is(err, conversation.ErrSubmissionInFlight):
		return fmt.Errorf("a message is already being sent")
	default:
		return fmt.Errorf("message not sent: %w", err)
	}
}

// latestReply returns the final message when the assistant wrote it.
func latestReply(msgs []models.Message) (models.Message, bool) {
	if len(msgs) == 0 {
		return models.Message{}, false
	}
	last := msgs[len(msgs)-1]
	if last.Role != models.RoleAssistant {
		return models.Message{}, false
	}
	return last, true
}
