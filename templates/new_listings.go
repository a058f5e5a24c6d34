package templates

import (
	"fmt"
	"strings"

	"buswatch-service/internal/domain/entity"
	"buswatch-service/pkg/utils"
)

// NewListingsMessage renders the notification for listings that appeared
// since the previous cycle. Output is Telegram legacy Markdown.
func NewListingsMessage(journey entity.Journey, listings []entity.Listing, bookingURL string) string {
	var b strings.Builder

	b.WriteString("New Buses Added: \n\n")
	fmt.Fprintf(&b, "From: %s, To: %s, \n", utils.EscapeMarkdown(journey.From), utils.EscapeMarkdown(journey.To))
	fmt.Fprintf(&b, "Date: %s, AC: %s\n\n", utils.FormatJourneyDate(journey.Date), journey.Class.Label())

	for i, l := range listings {
		fmt.Fprintf(&b, "%d. *%s*\n", i+1, utils.EscapeMarkdown(l.Company))
		fmt.Fprintf(&b, "   - Type: %s\n", l.Class.Label())
		fmt.Fprintf(&b, "   - Time: %s - %s\n", utils.ConvertToAMPM(l.DepartureTime), utils.ConvertToAMPM(l.ArrivalTime))
		fmt.Fprintf(&b, "   - Seats Available: %d\n\n", l.SeatsAvailable)
	}

	fmt.Fprintf(&b, "Book your ticket now: [Link to Book Tickets](%s)", bookingURL)
	return b.String()
}
