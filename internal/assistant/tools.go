package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/ascendtravel/concierge/internal/infrastructure/amadeus"
	"github.com/ascendtravel/concierge/internal/infrastructure/tavily"
)

const (
	toolSearchFlights      = "search_flights"
	toolGeneralWebSearch   = "general_web_search"
	toolRequestContactForm = "request_contact_form"
)

// ToolExecutor dispatches the assistant's tool calls to the external
// search services. Either service may be nil; the matching tool is then
// withheld from the model.
type ToolExecutor struct {
	amadeusService *amadeus.Service
	tavilyService  *tavily.Service
}

func NewToolExecutor(amadeusService *amadeus.Service, tavilyService *tavily.Service) *ToolExecutor {
	return &ToolExecutor{
		amadeusService: amadeusService,
		tavilyService:  tavilyService,
	}
}

type webSearchParams struct {
	Query string `json:"query"`
}

// Definitions returns the tool schemas offered to the model.
func (e *ToolExecutor) Definitions() []openai.Tool {
	tools := []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolRequestContactForm,
				Description: "Display a contact form to the user so the travel team can follow up on a booking. Use at most once per conversation.",
				Parameters: &jsonschema.Definition{
					Type:       jsonschema.Object,
					Properties: map[string]jsonschema.Definition{},
				},
			},
		},
	}

	if e.amadeusService != nil {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolSearchFlights,
				Description: "Search for specific flight offers. This is for flights ONLY.",
				Parameters: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"originLocationCode": {
							Type:        jsonschema.String,
							Description: "The IATA code of the departure city.",
						},
						"destinationLocationCode": {
							Type:        jsonschema.String,
							Description: "The IATA code of the arrival city.",
						},
						"departureDate": {
							Type:        jsonschema.String,
							Description: "The departure date in YYYY-MM-DD format.",
						},
						"returnDate": {
							Type:        jsonschema.String,
							Description: "The return date for round-trip flights.",
						},
						"adults": {
							Type:        jsonschema.Integer,
							Description: "The number of adult passengers.",
						},
					},
					Required: []string{"originLocationCode", "destinationLocationCode", "departureDate"},
				},
			},
		})
	}

	if e.tavilyService != nil {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolGeneralWebSearch,
				Description: "Search the internet for general travel information, such as local events, weather, or restaurant recommendations. NOT for flight prices.",
				Parameters: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"query": {
							Type:        jsonschema.String,
							Description: "A specific, detailed search query for the web.",
						},
					},
					Required: []string{"query"},
				},
			},
		})
	}

	return tools
}

// Execute runs one tool call and returns the tool message content.
func (e *ToolExecutor) Execute(ctx context.Context, name, arguments string) (string, error) {
	log.Info().Str("tool", name).Msg("Executing tool call")

	switch name {
	case toolSearchFlights:
		if e.amadeusService == nil {
			return "Flight search is not available right now.", nil
		}

		var params amadeus.SearchParams
		if err := json.Unmarshal([]byte(arguments), &params); err != nil {
			return "", fmt.Errorf("invalid parameters: %w", err)
		}

		offers, err := e.amadeusService.SearchFlights(ctx, params)
		if err != nil {
			log.Error().Err(err).Msg("Flight search failed")
			return fmt.Sprintf("Flight search error: %v", err), nil
		}
		if len(offers) == 0 {
			return "No flight offers found for the given criteria. Please inform the user.", nil
		}

		data, err := json.Marshal(offers)
		if err != nil {
			return "", fmt.Errorf("failed to marshal offers: %w", err)
		}
		return string(data), nil

	case toolGeneralWebSearch:
		if e.tavilyService == nil {
			return "Web search is not available right now.", nil
		}

		var params webSearchParams
		if err := json.Unmarshal([]byte(arguments), &params); err != nil {
			return "", fmt.Errorf("invalid parameters: %w", err)
		}

		results, err := e.tavilyService.Search(ctx, params.Query)
		if err != nil {
			log.Error().Err(err).Msg("Web search failed")
			return fmt.Sprintf("Web search error: %v", err), nil
		}

		data, err := json.Marshal(results)
		if err != nil {
			return "", fmt.Errorf("failed to marshal results: %w", err)
		}
		return string(data), nil

	default:
		return "", fmt.Errorf("unknown function: %s", name)
	}
}
