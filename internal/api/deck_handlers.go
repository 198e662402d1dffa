package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerDeckRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listDecks",
		Method:      http.MethodGet,
		Path:        "/api/v1/decks",
		Summary:     "List decks",
		Description: "Returns synced decks, optionally narrowed by a tag query",
		Tags:        []string{"Decks"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleListDecks)
}

// === DTOs ===

// ListDecksInput contains parameters for listing decks.
type ListDecksInput struct {
	Cookie string `header:"Cookie"`
	Query  string `query:"query" doc:"Tag query, e.g. \"quarterly and rank < 3\"; empty returns all decks"`
}

// DeckResponse contains deck data in API responses.
type DeckResponse struct {
	ID           string    `json:"id" doc:"Deck ID"`
	Name         string    `json:"name" doc:"Deck file name"`
	ModifiedTime time.Time `json:"modified_time" doc:"Remote modification time"`
}

// ListDecksResponse contains a list of decks.
type ListDecksResponse struct {
	Decks []DeckResponse `json:"decks" doc:"Matching decks sorted by name"`
}

// ListDecksOutput wraps the list decks response for Huma.
type ListDecksOutput struct {
	Body ListDecksResponse
}

// === Handlers ===

func (s *Server) handleListDecks(ctx context.Context, input *ListDecksInput) (*ListDecksOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	decks, err := s.services.Tag.DecksByQuery(ctx, sess, input.Query)
	if err != nil {
		return nil, err
	}

	resp := make([]DeckResponse, len(decks))
	for i, d := range decks {
		resp[i] = DeckResponse{
			ID:           d.ID,
			Name:         d.Name,
			ModifiedTime: d.ModifiedTime,
		}
	}
	return &ListDecksOutput{Body: ListDecksResponse{Decks: resp}}, nil
}
