package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/wayfinder/internal/enrichment"
	"github.com/raphaelgruber/wayfinder/internal/metrics"
	"github.com/raphaelgruber/wayfinder/internal/models"
)

// amenityPreviewLimit is how many amenities an offer card shows before "+N".
const amenityPreviewLimit = 3

// Theme holds the color scheme for terminal output.
type Theme struct {
	User      lipgloss.Color
	Assistant lipgloss.Color
	Offer     lipgloss.Color
	Status    lipgloss.Color
	Error     lipgloss.Color
	Hint      lipgloss.Color
}

var defaultTheme = Theme{
	User:      lipgloss.Color("#D7AF5F"), // amber
	Assistant: lipgloss.Color("#00D787"), // green
	Offer:     lipgloss.Color("#5FAFD7"), // light blue
	Status:    lipgloss.Color("#5FAFD7"),
	Error:     lipgloss.Color("#FF005F"), // red
	Hint:      lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) roleStyle(role models.Role) lipgloss.Style {
	if role == models.RoleUser {
		return lipgloss.NewStyle().Foreground(t.User).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(t.Assistant).Bold(true)
}

func (t Theme) offerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Offer).Bold(true)
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) headingStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Underline(true)
}

// renderMessages prints the conversation in history order.
func renderMessages(w io.Writer, t Theme, msgs []models.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, t.hintStyle().Render("No messages yet."))
		return
	}
	for _, msg := range msgs {
		renderMessage(w, t, msg)
	}
}

// renderMessage prints one message with its offers, numbered from 1.
func renderMessage(w io.Writer, t Theme, msg models.Message) {
	label := "You"
	if msg.Role == models.RoleAssistant {
		label = "Assistant"
	}
	header := t.roleStyle(msg.Role).Render(label)
	if msg.CreatedAt != nil {
		header += " " + t.hintStyle().Render(msg.CreatedAt.Local().Format("Jan 2 15:04"))
	}
	fmt.Fprintln(w, header)
	if msg.Content != "" {
		fmt.Fprintln(w, indent(msg.Content, "  "))
	}
	for i := range msg.Results {
		renderOffer(w, t, i+1, msg.Results[i])
	}
	fmt.Fprintln(w)
}

// renderOffer prints a compact offer card.
func renderOffer(w io.Writer, t Theme, n int, offer models.SearchResult) {
	fmt.Fprintf(w, "  %d. %s [%s]\n", n, t.offerStyle().Render(offer.Name), offer.Type)

	var facts []string
	if offer.Location != "" {
		facts = append(facts, offer.Location)
	}
	if offer.Price != "" {
		facts = append(facts, offer.Price)
	}
	if offer.Rating > 0 {
		facts = append(facts, fmt.Sprintf("★ %.1f", offer.Rating))
	}
	if len(facts) > 0 {
		fmt.Fprintf(w, "     %s\n", strings.Join(facts, " · "))
	}
	if line := amenityLine(offer.Amenities); line != "" {
		fmt.Fprintf(w, "     %s\n", line)
	}
	fmt.Fprintf(w, "     %s\n", t.hintStyle().Render("id: "+offer.ID))
}

// amenityLine joins the amenity preview and its overflow label.
func amenityLine(amenities []string) string {
	shown, more := models.AmenityPreview(amenities, amenityPreviewLimit)
	if len(shown) == 0 {
		return ""
	}
	line := strings.Join(shown, ", ")
	if more != "" {
		line += " " + more
	}
	return line
}

// renderDetails prints the detail view for a settled selection. When the
// enrichment failed the offer's own fields are shown instead.
func renderDetails(w io.Writer, t Theme, snap enrichment.Snapshot) {
	fmt.Fprintln(w, t.offerStyle().Render(snap.DisplayName()))
	if loc := snap.DisplayLocation(); loc != "" {
		fmt.Fprintln(w, loc)
	}
	if img := snap.DisplayImage(); img != "" {
		fmt.Fprintln(w, t.hintStyle().Render(img))
	}

	switch snap.State {
	case enrichment.StateError:
		fmt.Fprintln(w, t.errorStyle().Render("Could not load details: "+snap.Err.Error()))
		if snap.Offer != nil {
			renderOfferFallback(w, t, *snap.Offer)
		}
		return
	case enrichment.StatePending:
		fmt.Fprintln(w, t.statusStyle().Render("Loading details..."))
		return
	case enrichment.StateIdle:
		return
	}

	d := snap.Details
	if d.Description != "" {
		fmt.Fprintf(w, "\n%s\n", d.Description)
	}
	if d.Rating > 0 {
		fmt.Fprintf(w, "Rating: ★ %.1f\n", d.Rating)
	}

	fmt.Fprintf(w, "\n%s\n", t.headingStyle().Render("Price"))
	fmt.Fprintf(w, "  Room per night:  %s\n", d.PriceBreakdown.RoomPerNight)
	fmt.Fprintf(w, "  Taxes:           %s\n", d.PriceBreakdown.Taxes)
	fmt.Fprintf(w, "  Estimated total: %s\n", d.PriceBreakdown.EstimatedTotal)

	fmt.Fprintf(w, "\n%s\n", t.headingStyle().Render("Getting there from "+d.TravelTime.FromLocation))
	fmt.Fprintf(w, "  Flying:  %s\n", formatHours(d.TravelTime.FlyingHours))
	fmt.Fprintf(w, "  Driving: %s\n", formatHours(d.TravelTime.DrivingHours))
	fmt.Fprintf(w, "  Transit: %s\n", formatHours(d.TravelTime.PublicTransitHours))

	if len(d.Amenities) > 0 {
		fmt.Fprintf(w, "\n%s\n", t.headingStyle().Render("Amenities"))
		for _, a := range d.Amenities {
			fmt.Fprintf(w, "  • %s\n", a)
		}
	}

	if len(d.FoodRecommendations) > 0 {
		fmt.Fprintf(w, "\n%s\n", t.headingStyle().Render("Where to eat"))
		for _, f := range d.FoodRecommendations {
			fmt.Fprintf(w, "  • %s%s\n", f.Name, suffix(f.Cuisine, f.Distance))
		}
	}

	if len(d.ThingsToDoNearby) > 0 {
		fmt.Fprintf(w, "\n%s\n", t.headingStyle().Render("Things to do"))
		for _, a := range d.ThingsToDoNearby {
			fmt.Fprintf(w, "  • %s%s\n", a.Name, suffix(a.Category, a.Distance))
		}
	}

	if url := bookingURL(snap); url != "" {
		fmt.Fprintf(w, "\nBook: %s\n", url)
	}
}

func renderOfferFallback(w io.Writer, t Theme, offer models.SearchResult) {
	if offer.Description != "" {
		fmt.Fprintf(w, "\n%s\n", offer.Description)
	}
	if offer.Price != "" {
		fmt.Fprintf(w, "Price: %s\n", offer.Price)
	}
	if offer.Rating > 0 {
		fmt.Fprintf(w, "Rating: ★ %.1f\n", offer.Rating)
	}
	if line := amenityLine(offer.Amenities); line != "" {
		fmt.Fprintf(w, "Amenities: %s\n", line)
	}
	if offer.BookingURL != "" {
		fmt.Fprintf(w, "\nBook: %s\n", offer.BookingURL)
	}
}

func bookingURL(snap enrichment.Snapshot) string {
	if snap.Details != nil && snap.Details.BookingURL != "" {
		return snap.Details.BookingURL
	}
	if snap.Offer != nil {
		return snap.Offer.BookingURL
	}
	return ""
}

func formatHours(h float64) string {
	if h <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1fh", h)
}

func suffix(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) == 0 {
		return ""
	}
	return " (" + strings.Join(nonEmpty, ", ") + ")"
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// printStats prints per-operation call statistics.
func printStats(w io.Writer, s metrics.Snapshot) {
	fmt.Fprintf(w, "Session (%.1fs)\n", s.UptimeSeconds)
	printOpStats(w, "history", s.History)
	printOpStats(w, "send", s.Send)
	printOpStats(w, "details", s.Details)
}

func printOpStats(w io.Writer, name string, op *metrics.OperationSnapshot) {
	if op == nil {
		return
	}
	fmt.Fprintf(w, "  %-8s %d calls, %d failed, avg %.0fms (min %dms, max %dms)\n",
		name, op.Count, op.Failures, op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}
