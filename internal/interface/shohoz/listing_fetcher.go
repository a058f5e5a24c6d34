package shohoz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"buswatch-service/internal/domain"
	"buswatch-service/internal/domain/entity"
	"buswatch-service/internal/domain/repository"
	"buswatch-service/pkg/logger"

	"github.com/PuerkitoBio/goquery"
)

const (
	rowSelector         = ".trip-row"
	seatsSelector       = `td[data-title="Seats Available"]`
	emptyResultSelector = ".no-trip-found, .no-trips-found"

	defaultUserAgent = "buswatch/1.0"
	defaultTimeout   = 60 * time.Second
	maxBodyBytes     = 8 << 20
)

// ListingFetcher loads the search result page for a journey and extracts its trip rows.
type ListingFetcher struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	client    *http.Client
	logger    logger.Logger
}

// NewListingFetcher creates a fetcher. timeout bounds each Fetch call end to end.
func NewListingFetcher(baseURL, userAgent string, timeout time.Duration, logger logger.Logger) *ListingFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ListingFetcher{
		baseURL:   baseURL,
		userAgent: userAgent,
		timeout:   timeout,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

var _ repository.ListingRepository = (*ListingFetcher)(nil)

// tripData mirrors the data-trip JSON attribute on each result row.
type tripData struct {
	TripID    json.RawMessage `json:"tripId"`
	TripRoute struct {
		BusDesc string `json:"bus_desc"`
	} `json:"tripRoute"`
	Details struct {
		CompanyName   string `json:"company_name"`
		TripHeading   string `json:"trip_heading"`
		DepartureTime string `json:"departure_time"`
		ArrivalTime   string `json:"arrival_time"`
	} `json:"details"`
}

// Fetch retrieves the listings for journey that pass its class filter.
func (f *ListingFetcher) Fetch(ctx context.Context, journey entity.Journey) ([]entity.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	searchURL := SearchURL(f.baseURL, journey)
	f.logger.Debug("Fetching search page", "journey", journey.ID, "url", searchURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, domain.FetchError{JourneyID: journey.ID, Reason: domain.ReasonNavigation, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, domain.FetchError{JourneyID: journey.ID, Reason: failureReason(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, domain.FetchError{
			JourneyID: journey.ID,
			Reason:    domain.ReasonNavigation,
			Err:       fmt.Errorf("search page returned status %d", resp.StatusCode),
		}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.FetchError{JourneyID: journey.ID, Reason: failureReason(err), Err: fmt.Errorf("parse html: %w", err)}
	}

	listings, err := ExtractListings(doc, journey)
	if err != nil {
		return nil, domain.FetchError{JourneyID: journey.ID, Reason: domain.ReasonPageStructure, Err: err}
	}

	f.logger.Info("Fetched listings", "journey", journey.ID, "count", len(listings))
	return listings, nil
}

// ErrNoResultList is returned when the page has neither result rows nor an empty-result marker.
var ErrNoResultList = errors.New("result list not found on page")

// ExtractListings reads every result row in doc and applies journey's class filter.
// A page with no rows is only accepted as empty when it carries an explicit
// empty-result marker.
func ExtractListings(doc *goquery.Document, journey entity.Journey) ([]entity.Listing, error) {
	rows := doc.Find(rowSelector)
	if rows.Length() == 0 {
		if doc.Find(emptyResultSelector).Length() > 0 {
			return []entity.Listing{}, nil
		}
		return nil, ErrNoResultList
	}

	listings := make([]entity.Listing, 0, rows.Length())
	var extractErr error
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		listing, err := extractRow(row, journey.ID)
		if err != nil {
			extractErr = fmt.Errorf("row %d: %w", i, err)
			return false
		}
		if journey.Class.Allows(listing.Class) {
			listings = append(listings, listing)
		}
		return true
	})
	if extractErr != nil {
		return nil, extractErr
	}
	return listings, nil
}

func extractRow(row *goquery.Selection, journeyID string) (entity.Listing, error) {
	raw, ok := row.Attr("data-trip")
	if !ok {
		return entity.Listing{}, errors.New("missing data-trip attribute")
	}

	var trip tripData
	if err := json.Unmarshal([]byte(raw), &trip); err != nil {
		return entity.Listing{}, fmt.Errorf("decode data-trip: %w", err)
	}

	id := tripID(trip.TripID)
	if id == "" {
		return entity.Listing{}, errors.New("missing tripId")
	}

	seatsText := strings.TrimSpace(row.Find(seatsSelector).First().Text())
	seats, err := strconv.Atoi(seatsText)
	if err != nil {
		return entity.Listing{}, fmt.Errorf("seats available %q: %w", seatsText, err)
	}

	return entity.Listing{
		ID:             id,
		JourneyID:      journeyID,
		Company:        strings.TrimSpace(trip.Details.CompanyName),
		Class:          entity.ClassFromDescription(trip.TripRoute.BusDesc),
		Route:          strings.TrimSpace(trip.Details.TripHeading),
		DepartureTime:  strings.TrimSpace(trip.Details.DepartureTime),
		ArrivalTime:    strings.TrimSpace(trip.Details.ArrivalTime),
		SeatsAvailable: seats,
	}, nil
}

// tripID accepts both numeric and string trip ids.
func tripID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ReasonTimeout
	}
	return domain.ReasonNavigation
}
