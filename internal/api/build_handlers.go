package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/errors"
	"github.com/lisashushakova/PresentationConfigurator/internal/service"
)

const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

func (s *Server) registerBuildRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "buildPresentation",
		Method:      http.MethodPost,
		Path:        "/api/v1/presentations/build",
		Summary:     "Build presentation",
		Description: "Assembles selected slides into a new deck, uploads it to the drive and syncs it in",
		Tags:        []string{"Build"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleBuild)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStylePreview",
		Method:      http.MethodPost,
		Path:        "/api/v1/presentations/style-preview",
		Summary:     "Style preview",
		Description: "Renders one slide re-skinned with another deck's theme",
		Tags:        []string{"Build"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleStylePreview)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBuiltPresentation",
		Method:      http.MethodGet,
		Path:        "/api/v1/presentations/built/{id}",
		Summary:     "Download built presentation",
		Description: "Returns the stored artifact of a deck built by this user",
		Tags:        []string{"Build"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleGetBuilt)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearBuiltPresentations",
		Method:      http.MethodPost,
		Path:        "/api/v1/presentations/clear-built",
		Summary:     "Clear built presentations",
		Description: "Removes all of the user's stored build artifacts",
		Tags:        []string{"Build"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleClearBuilt)
}

// === DTOs ===

// SelectionRequest picks one slide of a deck by position.
type SelectionRequest struct {
	DeckID     string `json:"deck_id" validate:"required" doc:"Source deck ID"`
	SlideIndex int    `json:"slide_index" validate:"gte=0" doc:"Zero-based slide position"`
}

// BuildRequest is the request body for assembling a presentation.
type BuildRequest struct {
	Name       string             `json:"name" validate:"required,min=1,max=200" doc:"Presentation name"`
	Ratio      string             `json:"ratio" validate:"required" doc:"widescreen_16_to_9 or standard_4_to_3"`
	Selections []SelectionRequest `json:"selections" validate:"required,min=1,dive" doc:"Ordered slide selections"`
	StyleDeck  string             `json:"style_deck_id,omitempty" doc:"Deck whose theme re-skins the result"`
}

// BuildInput wraps the build request for Huma.
type BuildInput struct {
	Cookie string `header:"Cookie"`
	Body   BuildRequest
}

// BuildResponse reports a finished build.
type BuildResponse struct {
	Deck       DeckResponse `json:"deck" doc:"The newly created deck"`
	SlideCount int          `json:"slide_count" doc:"Slides in the built deck"`
	Dropped    int          `json:"dropped" doc:"Selections skipped as visual duplicates"`
}

// BuildOutput wraps the build response for Huma.
type BuildOutput struct {
	Body BuildResponse
}

// StylePreviewRequest selects the slide and style for a preview.
type StylePreviewRequest struct {
	SlideID   int64  `json:"slide_id" validate:"required" doc:"Slide to preview"`
	StyleDeck string `json:"style_deck_id" validate:"required" doc:"Deck whose theme to apply"`
}

// StylePreviewInput wraps the style preview request for Huma.
type StylePreviewInput struct {
	Cookie string `header:"Cookie"`
	Body   StylePreviewRequest
}

// GetBuiltInput addresses one stored build artifact.
type GetBuiltInput struct {
	Cookie string `header:"Cookie"`
	ID     string `path:"id" doc:"Built deck ID"`
}

// FileOutput returns raw file bytes with a download disposition.
type FileOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// === Handlers ===

func (s *Server) handleBuild(ctx context.Context, input *BuildInput) (*BuildOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	if err := validate.Validate(&input.Body); err != nil {
		return nil, err
	}

	ratio, err := domain.ParseRatio(input.Body.Ratio)
	if err != nil {
		return nil, errors.Validationf("invalid ratio %q", input.Body.Ratio)
	}

	selections := make([]service.Selection, len(input.Body.Selections))
	for i, sel := range input.Body.Selections {
		selections[i] = service.Selection{DeckID: sel.DeckID, SlideIndex: sel.SlideIndex}
	}

	result, err := s.services.Build.Build(ctx, sess, service.BuildRequest{
		Name:        input.Body.Name,
		Ratio:       ratio,
		Selections:  selections,
		StyleDeckID: input.Body.StyleDeck,
	})
	if err != nil {
		return nil, err
	}

	return &BuildOutput{Body: BuildResponse{
		Deck: DeckResponse{
			ID:           result.Deck.ID,
			Name:         result.Deck.Name,
			ModifiedTime: result.Deck.ModifiedTime,
		},
		SlideCount: result.SlideCount,
		Dropped:    result.Dropped,
	}}, nil
}

func (s *Server) handleStylePreview(ctx context.Context, input *StylePreviewInput) (*ThumbnailOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	if err := validate.Validate(&input.Body); err != nil {
		return nil, err
	}

	preview, err := s.services.Build.StylePreview(ctx, sess, input.Body.SlideID, input.Body.StyleDeck)
	if err != nil {
		return nil, err
	}
	return &ThumbnailOutput{ContentType: "image/png", Body: preview}, nil
}

func (s *Server) handleGetBuilt(ctx context.Context, input *GetBuiltInput) (*FileOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	data, err := s.services.Build.GetBuilt(ctx, sess, input.ID)
	if err != nil {
		return nil, err
	}

	return &FileOutput{
		ContentType:        pptxContentType,
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", input.ID+".pptx"),
		Body:               data,
	}, nil
}

func (s *Server) handleClearBuilt(ctx context.Context, input *AuthedInput) (*MessageOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	if err := s.services.Build.ClearBuilt(ctx, sess); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Built presentations cleared"}}, nil
}
