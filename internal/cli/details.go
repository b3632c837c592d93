package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/raphaelgruber/wayfinder/internal/enrichment"
	"github.com/raphaelgruber/wayfinder/internal/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var detailsFrom string

var detailsCmd = &cobra.Command{
	Use:   "details <offer>",
	Short: "Show enriched details for an offer",
	Long: `Open an offer and show its price breakdown, travel time, places to eat
and things to do nearby. The offer is either its id or its number in the
latest list of offers.

Examples:
  wayfinder details 2
  wayfinder details hotel-lisbon-alfama
  wayfinder details 1 --from "Berlin"`,
	Args: cobra.ExactArgs(1),
	RunE: runDetails,
}

func init() {
	detailsCmd.Flags().StringVar(&detailsFrom, "from", "", "origin for travel time (default from config)")
}

func runDetails(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	msgs, err := sess.Messages(ctx)
	if err != nil {
		return err
	}
	offerID, err := resolveOffer(msgs, args[0])
	if err != nil {
		return err
	}

	return showDetails(ctx, os.Stdout, offerID, detailsFrom)
}

// showDetails opens the offer, waits for enrichment and prints the result.
func showDetails(ctx context.Context, w io.Writer, offerID, from string) error {
	ctrl, err := sess.OpenFrom(ctx, offerID, from)
	if err != nil {
		return fmt.Errorf("open offer: %w", err)
	}

	snap, closed, err := waitDetails(ctx, ctrl)
	if err != nil {
		sess.CloseOffer()
		return err
	}
	if closed {
		sess.CloseOffer()
		return nil
	}

	if snap.State == enrichment.StateError {
		logger.Warn("enrichment failed, showing offer only", "offer", offerID, "error", snap.Err)
	}
	renderDetails(w, defaultTheme, snap)
	return nil
}

// waitDetails shows a spinner on a terminal and blocks silently otherwise.
func waitDetails(ctx context.Context, ctrl *enrichment.Controller) (enrichment.Snapshot, bool, error) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return runDetailsView(ctrl)
	}
	snap, err := ctrl.Wait(ctx)
	if err != nil {
		return snap, false, fmt.Errorf("wait for details: %w", err)
	}
	return snap, false, nil
}

// resolveOffer maps an argument to an offer id. Small numbers index the latest
// offers (1-based); anything else must be an id present in the history.
func resolveOffer(msgs []models.Message, arg string) (string, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		latest, ok := models.LatestOffers(msgs)
		if ok && n >= 1 && n <= len(latest.Results) {
			return latest.Results[n-1].ID, nil
		}
	}
	if _, ok := models.FindOffer(msgs, arg); ok {
		return arg, nil
	}
	return "", fmt.Errorf("no offer %q in this conversation", arg)
}
