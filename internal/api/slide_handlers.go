package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/errors"
	"github.com/lisashushakova/PresentationConfigurator/internal/service"
)

func (s *Server) registerSlideRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getDeckSlides",
		Method:      http.MethodGet,
		Path:        "/api/v1/decks/{id}/slides",
		Summary:     "Deck slides",
		Description: "Returns one deck's slides in presentation order",
		Tags:        []string{"Slides"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleGetDeckSlides)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchSlides",
		Method:      http.MethodPost,
		Path:        "/api/v1/slides/search",
		Summary:     "Search slides",
		Description: "Returns slides matching deck/slide tag queries, a text substring and a ratio",
		Tags:        []string{"Slides"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleSearchSlides)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSlideThumbnail",
		Method:      http.MethodGet,
		Path:        "/api/v1/slides/{id}/thumbnail",
		Summary:     "Slide thumbnail",
		Description: "Returns the slide's rendered thumbnail as PNG",
		Tags:        []string{"Slides"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleGetSlideThumbnail)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSlideLinks",
		Method:      http.MethodGet,
		Path:        "/api/v1/slides/{id}/links",
		Summary:     "Slide tag links",
		Description: "Returns the slide's tag links with optional values",
		Tags:        []string{"Slides"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleGetSlideLinks)
}

// === DTOs ===

// DeckSlidesInput contains parameters for listing a deck's slides.
type DeckSlidesInput struct {
	Cookie string `header:"Cookie"`
	ID     string `path:"id" doc:"Deck ID"`
}

// SlideResponse contains slide data in API responses. Thumbnails are served
// separately; BlurHash gives clients a placeholder while they load.
type SlideResponse struct {
	ID       int64  `json:"id" doc:"Slide ID"`
	DeckID   string `json:"deck_id" doc:"Owning deck ID"`
	Index    int    `json:"index" doc:"Zero-based position in the deck"`
	Text     string `json:"text" doc:"Extracted slide text"`
	Ratio    string `json:"ratio,omitempty" doc:"widescreen_16_to_9 or standard_4_to_3"`
	BlurHash string `json:"blur_hash,omitempty" doc:"Compact thumbnail placeholder"`
}

// DeckSlidesResponse contains one deck's slides.
type DeckSlidesResponse struct {
	Slides []SlideResponse `json:"slides" doc:"Slides in presentation order"`
}

// DeckSlidesOutput wraps the deck slides response for Huma.
type DeckSlidesOutput struct {
	Body DeckSlidesResponse
}

// SearchSlidesRequest is the request body for a slide search.
type SearchSlidesRequest struct {
	DeckQuery  string `json:"deck_query,omitempty" doc:"Tag query narrowing the deck set"`
	SlideQuery string `json:"slide_query,omitempty" doc:"Tag query over slides"`
	Text       string `json:"text,omitempty" doc:"Case-insensitive substring of slide text"`
	Ratio      string `json:"ratio,omitempty" doc:"widescreen_16_to_9 or standard_4_to_3"`
}

// SearchSlidesInput wraps the slide search request for Huma.
type SearchSlidesInput struct {
	Cookie string `header:"Cookie"`
	Body   SearchSlidesRequest
}

// SlideViewResponse is a search hit with its display label.
type SlideViewResponse struct {
	SlideResponse
	DeckName string `json:"deck_name" doc:"Owning deck name"`
	Label    string `json:"label" doc:"Display label, e.g. \"Quarterly Review 3\""`
}

// SearchSlidesResponse contains slide search hits.
type SearchSlidesResponse struct {
	Slides []SlideViewResponse `json:"slides" doc:"Hits grouped by deck"`
}

// SearchSlidesOutput wraps the slide search response for Huma.
type SearchSlidesOutput struct {
	Body SearchSlidesResponse
}

// SlideIDInput addresses one slide.
type SlideIDInput struct {
	Cookie string `header:"Cookie"`
	ID     int64  `path:"id" doc:"Slide ID"`
}

// ThumbnailOutput returns raw PNG bytes.
type ThumbnailOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// SlideLinkResponse is one tag link on a slide.
type SlideLinkResponse struct {
	Tag   string `json:"tag" doc:"Tag name"`
	Value *int64 `json:"value,omitempty" doc:"Optional numeric value"`
}

// SlideLinksResponse contains a slide's tag links.
type SlideLinksResponse struct {
	Links []SlideLinkResponse `json:"links" doc:"Links sorted by tag name"`
}

// SlideLinksOutput wraps the slide links response for Huma.
type SlideLinksOutput struct {
	Body SlideLinksResponse
}

// === Handlers ===

func (s *Server) handleGetDeckSlides(ctx context.Context, input *DeckSlidesInput) (*DeckSlidesOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	slides, err := s.services.Slide.ByDeck(ctx, sess, input.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]SlideResponse, len(slides))
	for i, sl := range slides {
		resp[i] = slideResponse(sl)
	}
	return &DeckSlidesOutput{Body: DeckSlidesResponse{Slides: resp}}, nil
}

func (s *Server) handleSearchSlides(ctx context.Context, input *SearchSlidesInput) (*SearchSlidesOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	filters := service.SlideFilters{
		DeckQuery:  input.Body.DeckQuery,
		SlideQuery: input.Body.SlideQuery,
		Text:       input.Body.Text,
	}
	if input.Body.Ratio != "" {
		ratio, err := domain.ParseRatio(input.Body.Ratio)
		if err != nil {
			return nil, errors.Validationf("invalid ratio %q", input.Body.Ratio)
		}
		filters.Ratio = &ratio
	}

	views, err := s.services.Slide.ByFilters(ctx, sess, filters)
	if err != nil {
		return nil, err
	}

	resp := make([]SlideViewResponse, len(views))
	for i, v := range views {
		resp[i] = SlideViewResponse{
			SlideResponse: slideResponse(v.Slide),
			DeckName:      v.DeckName,
			Label:         v.Label,
		}
	}
	return &SearchSlidesOutput{Body: SearchSlidesResponse{Slides: resp}}, nil
}

func (s *Server) handleGetSlideThumbnail(ctx context.Context, input *SlideIDInput) (*ThumbnailOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	slide, err := s.services.Slide.Get(ctx, sess, input.ID)
	if err != nil {
		return nil, err
	}
	return &ThumbnailOutput{ContentType: "image/png", Body: slide.Thumbnail}, nil
}

func (s *Server) handleGetSlideLinks(ctx context.Context, input *SlideIDInput) (*SlideLinksOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	// Ownership check rides on the slide lookup.
	if _, err := s.services.Slide.Get(ctx, sess, input.ID); err != nil {
		return nil, err
	}

	links, err := s.services.Tag.SlideLinks(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]SlideLinkResponse, len(links))
	for i, l := range links {
		resp[i] = SlideLinkResponse{Tag: l.TagName, Value: l.Value}
	}
	return &SlideLinksOutput{Body: SlideLinksResponse{Links: resp}}, nil
}

func slideResponse(sl *domain.Slide) SlideResponse {
	resp := SlideResponse{
		ID:       sl.ID,
		DeckID:   sl.DeckID,
		Index:    sl.Index,
		Text:     sl.Text,
		BlurHash: sl.BlurHash,
	}
	if sl.Ratio != nil {
		resp.Ratio = sl.Ratio.Wire()
	}
	return resp
}
