package shohoz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"buswatch-service/internal/domain"
	"buswatch-service/internal/domain/entity"
	"buswatch-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoRowPage = `<!DOCTYPE html>
<html><body>
<table>
  <tr class="trip-row" data-trip='{"tripId":101,"tripRoute":{"bus_desc":"AC Business"},"details":{"company_name":"Green Line","trip_heading":"Bogura - Dhaka","departure_time":"13:05","arrival_time":"18:30"}}'>
    <td data-title="Operator">Green Line</td>
    <td data-title="Seats Available"> 12 </td>
  </tr>
  <tr class="trip-row" data-trip='{"tripId":"202","tripRoute":{"bus_desc":"Non AC Economy"},"details":{"company_name":"Hanif Enterprise","trip_heading":"Bogura - Dhaka","departure_time":"00:15","arrival_time":"06:00"}}'>
    <td data-title="Seats Available">30</td>
  </tr>
</table>
</body></html>`

const emptyResultPage = `<html><body><div class="no-trip-found">No trips found</div></body></html>`

const brokenPage = `<html><body><h1>Service unavailable</h1></body></html>`

const malformedRowPage = `<html><body>
<table><tr class="trip-row" data-trip='{not json'><td data-title="Seats Available">3</td></tr></table>
</body></html>`

func testJourney(class entity.SeatClass) entity.Journey {
	return entity.Journey{
		ID:     "bogura-dhaka",
		From:   "Bogura",
		To:     "Dhaka",
		Date:   time.Date(2024, time.June, 22, 0, 0, 0, 0, time.UTC),
		Class:  class,
		Target: "log:test",
	}
}

func servePage(t *testing.T, status int, body string) (*httptest.Server, *url.Values) {
	t.Helper()
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &query
}

func TestFetch_ClassFilter(t *testing.T) {
	srv, _ := servePage(t, http.StatusOK, twoRowPage)

	tests := []struct {
		class entity.SeatClass
		want  []string
	}{
		{entity.ClassAC, []string{"101"}},
		{entity.ClassNonAC, []string{"202"}},
		{entity.ClassAny, []string{"101", "202"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			f := NewListingFetcher(srv.URL, "", time.Second, logger.NewNopLogger())
			listings, err := f.Fetch(context.Background(), testJourney(tt.class))
			require.NoError(t, err)

			ids := make([]string, 0, len(listings))
			for _, l := range listings {
				ids = append(ids, l.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFetch_ExtractsFields(t *testing.T) {
	srv, query := servePage(t, http.StatusOK, twoRowPage)
	f := NewListingFetcher(srv.URL, "", time.Second, logger.NewNopLogger())

	listings, err := f.Fetch(context.Background(), testJourney(entity.ClassAny))
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, entity.Listing{
		ID:             "101",
		JourneyID:      "bogura-dhaka",
		Company:        "Green Line",
		Class:          entity.ClassAC,
		Route:          "Bogura - Dhaka",
		DepartureTime:  "13:05",
		ArrivalTime:    "18:30",
		SeatsAvailable: 12,
	}, listings[0])
	assert.Equal(t, entity.ClassNonAC, listings[1].Class)

	assert.Equal(t, "Bogura", query.Get("fromcity"))
	assert.Equal(t, "Dhaka", query.Get("tocity"))
	assert.Equal(t, "22-Jun-2024", query.Get("doj"))
	assert.True(t, query.Has("dor"))
	assert.Equal(t, "", query.Get("dor"))
}

func TestFetch_EmptyResultIsNotAnError(t *testing.T) {
	srv, _ := servePage(t, http.StatusOK, emptyResultPage)
	f := NewListingFetcher(srv.URL, "", time.Second, logger.NewNopLogger())

	listings, err := f.Fetch(context.Background(), testJourney(entity.ClassAny))
	require.NoError(t, err)
	assert.NotNil(t, listings)
	assert.Empty(t, listings)
}

func TestFetch_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		reason string
	}{
		{"missing result list", http.StatusOK, brokenPage, domain.ReasonPageStructure},
		{"malformed row", http.StatusOK, malformedRowPage, domain.ReasonPageStructure},
		{"upstream error", http.StatusBadGateway, brokenPage, domain.ReasonNavigation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := servePage(t, tt.status, tt.body)
			f := NewListingFetcher(srv.URL, "", time.Second, logger.NewNopLogger())

			listings, err := f.Fetch(context.Background(), testJourney(entity.ClassAny))
			assert.Nil(t, listings)

			var fetchErr domain.FetchError
			require.True(t, errors.As(err, &fetchErr))
			assert.Equal(t, tt.reason, fetchErr.Reason)
			assert.Equal(t, "bogura-dhaka", fetchErr.JourneyID)
		})
	}
}

func TestFetch_TimeoutIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f := NewListingFetcher(srv.URL, "", 50*time.Millisecond, logger.NewNopLogger())
	_, err := f.Fetch(context.Background(), testJourney(entity.ClassAny))

	var fetchErr domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, domain.ReasonTimeout, fetchErr.Reason)
}

func TestSearchURL(t *testing.T) {
	got := SearchURL("https://example.test/search", testJourney(entity.ClassAny))
	assert.True(t, strings.HasPrefix(got, "https://example.test/search?"))

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "22-Jun-2024", u.Query().Get("doj"))
	assert.Equal(t, "Bogura", u.Query().Get("fromcity"))

	assert.True(t, strings.HasPrefix(SearchURL("", testJourney(entity.ClassAny)), DefaultBaseURL+"?"))
}
