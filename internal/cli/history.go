package cli

import (
	"fmt"
	"os"

	"github.com/raphaelgruber/wayfinder/internal/models"
	"github.com/spf13/cobra"
)

var historyOffers bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the conversation",
	Long: `Show the conversation history in order, including the offers the
assistant suggested.

Examples:
  wayfinder history
  wayfinder history --offers`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyOffers, "offers", false, "only show the latest offers")
}

func runHistory(cmd *cobra.Command, args []string) error {
	msgs, err := sess.Messages(cmd.Context())
	if err != nil {
		return err
	}

	if historyOffers {
		latest, ok := models.LatestOffers(msgs)
		if !ok {
			fmt.Println("No offers yet.")
			return nil
		}
		renderMessage(os.Stdout, defaultTheme, latest)
		return nil
	}

	renderMessages(os.Stdout, defaultTheme, msgs)
	return nil
}
