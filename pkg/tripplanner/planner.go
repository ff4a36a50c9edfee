package tripplanner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"motonomad-hq/gateway/pkg/gateway"
)

// TransportType is how the trip is travelled.
type TransportType string

const (
	TransportMotorcycle TransportType = "motorcycle"
	TransportAirplane   TransportType = "airplane"
	TransportTrain      TransportType = "train"
	TransportCar        TransportType = "car"
)

// systemPrompt fixes the assistant's role and answer language.
const systemPrompt = "You are a travel assistant. Respond in Polish."

// dateLayout is the day.month.year form used in the prompt.
const dateLayout = "02.01.2006"

// Completer sends a chat completion. *gateway.Client implements it.
type Completer interface {
	SendCompletion(ctx context.Context, req *gateway.CompletionRequest) (*gateway.CompletionResponse, error)
}

// TripRequest describes the trip to plan.
type TripRequest struct {
	Name          string
	StartDate     time.Time
	EndDate       time.Time
	TransportType TransportType
}

// Days returns the inclusive length of the trip in days.
func (r TripRequest) Days() int {
	return int(r.EndDate.Sub(r.StartDate).Hours()/24) + 1
}

// Suggestion is the parsed answer: a short route description and up to
// MaxHighlights places to see.
type Suggestion struct {
	Description string   `json:"description"`
	Highlights  []string `json:"highlights"`
}

// Settings are the model parameters used for suggestions.
type Settings struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Planner generates trip suggestions through the gateway.
type Planner struct {
	completer Completer
	settings  Settings
	logger    *slog.Logger
}

// New creates a planner.
func New(completer Completer, settings Settings, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		completer: completer,
		settings:  settings,
		logger:    logger.With("component", "tripplanner"),
	}
}

// Suggest asks the model for a route description and highlights for trip.
// Gateway errors are returned unchanged so callers can react per kind.
func (p *Planner) Suggest(ctx context.Context, trip TripRequest) (*Suggestion, error) {
	req := p.BuildRequest(trip)

	p.logger.InfoContext(ctx, "generating trip suggestions",
		"trip", trip.Name,
		"duration_days", trip.Days(),
	)

	resp, err := p.completer.SendCompletion(ctx, req)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to generate trip suggestions", "trip", trip.Name, "error", err)
		return nil, err
	}

	suggestion := ParseSuggestion(resp.Content())
	p.logger.InfoContext(ctx, "generated trip suggestions",
		"trip", trip.Name,
		"highlights", len(suggestion.Highlights),
	)
	return suggestion, nil
}

// BuildRequest returns the two-message completion request for trip.
func (p *Planner) BuildRequest(trip TripRequest) *gateway.CompletionRequest {
	return &gateway.CompletionRequest{
		Model: p.settings.Model,
		Messages: []gateway.Message{
			gateway.SystemMessage(systemPrompt),
			gateway.UserMessage(userPrompt(trip)),
		},
		Temperature: gateway.Ptr(p.settings.Temperature),
		MaxTokens:   gateway.Ptr(p.settings.MaxTokens),
	}
}

func userPrompt(trip TripRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Planuję wycieczkę %s '%s' od %s do %s (%d dni).\n",
		trip.TransportType, trip.Name,
		trip.StartDate.Format(dateLayout), trip.EndDate.Format(dateLayout),
		trip.Days(),
	)
	sb.WriteString("Zasugeruj:\n")
	sb.WriteString("1) Krótki opis trasy (3-5 zdań)\n")
	sb.WriteString("2) Top 3-5 miejsc do zobaczenia\n")
	sb.WriteString("\n")
	sb.WriteString("Odpowiedz w następującym formacie:\n")
	sb.WriteString(descriptionMarker + "\n")
	sb.WriteString("[opis trasy]\n")
	sb.WriteString("\n")
	sb.WriteString(highlightsMarker + "\n")
	for i := 1; i <= MaxHighlights; i++ {
		fmt.Fprintf(&sb, "- [atrakcja %d]", i)
		if i < MaxHighlights {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
