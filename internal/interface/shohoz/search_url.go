package shohoz

import (
	"net/url"

	"buswatch-service/internal/domain/entity"
	"buswatch-service/pkg/utils"
)

// DefaultBaseURL is the one-way bus search endpoint.
const DefaultBaseURL = "https://www.shohoz.com/booking/bus/search"

// SearchURL builds the search (and booking) link for a journey. The return
// date parameter is sent empty for one-way queries.
func SearchURL(baseURL string, journey entity.Journey) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	params := url.Values{}
	params.Set("fromcity", journey.From)
	params.Set("tocity", journey.To)
	params.Set("doj", utils.FormatJourneyDate(journey.Date))
	params.Set("dor", "")
	return baseURL + "?" + params.Encode()
}
