// Package amadeus is a minimal client for the Amadeus flight offers
// search API.
package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ascendtravel/concierge/internal/config"
)

const defaultBaseURL = "https://test.api.amadeus.com"

type Service struct {
	client       *http.Client
	baseURL      string
	clientID     string
	clientSecret string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// SearchParams describes one flight offers query.
type SearchParams struct {
	OriginLocationCode      string `json:"originLocationCode"`
	DestinationLocationCode string `json:"destinationLocationCode"`
	DepartureDate           string `json:"departureDate"`
	ReturnDate              string `json:"returnDate,omitempty"`
	Adults                  int    `json:"adults,omitempty"`
}

// Offer is a flight offer reduced to what the assistant presents.
type Offer struct {
	Airline     string      `json:"airline"`
	TotalPrice  string      `json:"total_price"`
	Itineraries []Itinerary `json:"itineraries"`
}

type Itinerary struct {
	Segments []Segment `json:"segments"`
}

type Segment struct {
	DepartureAirport string `json:"departure_airport"`
	DepartureTime    string `json:"departure_time"`
	ArrivalAirport   string `json:"arrival_airport"`
	ArrivalTime      string `json:"arrival_time"`
	FlightNumber     string `json:"flight_number"`
	Duration         string `json:"duration"`
}

// NewService builds an Amadeus client from the environment. Returns nil
// when credentials are missing; the flight search tool is then disabled.
func NewService() *Service {
	id := config.GetAmadeusClientID()
	secret := config.GetAmadeusClientSecret()
	if id == "" || secret == "" {
		log.Warn().Msg("Amadeus service not configured - flight search disabled")
		return nil
	}
	return NewServiceWithBaseURL(id, secret, defaultBaseURL)
}

// NewServiceWithBaseURL builds a client against a specific API host.
func NewServiceWithBaseURL(clientID, clientSecret, baseURL string) *Service {
	return &Service{
		client:       &http.Client{Timeout: 20 * time.Second},
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// SearchFlights returns up to three simplified offers for the query.
func (s *Service) SearchFlights(ctx context.Context, params SearchParams) ([]Offer, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("amadeus auth failed: %w", err)
	}

	adults := params.Adults
	if adults < 1 {
		adults = 1
	}

	q := url.Values{}
	q.Set("originLocationCode", params.OriginLocationCode)
	q.Set("destinationLocationCode", params.DestinationLocationCode)
	q.Set("departureDate", params.DepartureDate)
	q.Set("adults", strconv.Itoa(adults))
	q.Set("nonStop", "false")
	q.Set("max", "3")
	q.Set("currencyCode", "USD")
	if params.ReturnDate != "" {
		q.Set("returnDate", params.ReturnDate)
	}

	reqURL := fmt.Sprintf("%s/v2/shopping/flight-offers?%s", s.baseURL, q.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to search flights: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("amadeus returned status %d: %s", resp.StatusCode, string(body))
	}

	var offersResp flightOffersResponse
	if err := json.NewDecoder(resp.Body).Decode(&offersResp); err != nil {
		return nil, fmt.Errorf("failed to decode offers: %w", err)
	}

	carriers := offersResp.Dictionaries.Carriers
	offers := make([]Offer, 0, len(offersResp.Data))
	for _, raw := range offersResp.Data {
		offer := Offer{
			TotalPrice: fmt.Sprintf("%s %s", raw.Price.Total, raw.Price.Currency),
		}
		for _, itin := range raw.Itineraries {
			var segments []Segment
			for _, seg := range itin.Segments {
				segments = append(segments, Segment{
					DepartureAirport: seg.Departure.IataCode,
					DepartureTime:    seg.Departure.At,
					ArrivalAirport:   seg.Arrival.IataCode,
					ArrivalTime:      seg.Arrival.At,
					FlightNumber:     fmt.Sprintf("%s %s", seg.CarrierCode, seg.Number),
					Duration:         seg.Duration,
				})
			}
			offer.Itineraries = append(offer.Itineraries, Itinerary{Segments: segments})
		}
		if len(raw.Itineraries) > 0 && len(raw.Itineraries[0].Segments) > 0 {
			code := raw.Itineraries[0].Segments[0].CarrierCode
			if name, ok := carriers[code]; ok {
				offer.Airline = name
			} else {
				offer.Airline = code
			}
		}
		offers = append(offers, offer)
	}

	return offers, nil
}

// token returns a cached OAuth token, refreshing when near expiry.
func (s *Service) token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		return s.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)

	tokenURL := s.baseURL + "/v1/security/oauth2/token"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token response carried no access token")
	}

	s.accessToken = tokenResp.AccessToken
	// Refresh a minute early so in-flight searches never race expiry.
	s.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - time.Minute)
	return s.accessToken, nil
}

type flightOffersResponse struct {
	Data []struct {
		Itineraries []struct {
			Segments []struct {
				Departure struct {
					IataCode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"departure"`
				Arrival struct {
					IataCode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"arrival"`
				CarrierCode string `json:"carrierCode"`
				Number      string `json:"number"`
				Duration    string `json:"duration"`
			} `json:"segments"`
		} `json:"itineraries"`
		Price struct {
			Total    string `json:"total"`
			Currency string `json:"currency"`
		} `json:"price"`
	} `json:"data"`
	Dictionaries struct {
		Carriers map[string]string `json:"carriers"`
	} `json:"dictionaries"`
}
