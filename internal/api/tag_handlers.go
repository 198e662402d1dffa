package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns the user's tag names, split by what they are linked to",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "linkSlideTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/slides/{id}/links",
		Summary:     "Link tag to slide",
		Description: "Creates or updates a tag link on a slide",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleLinkSlideTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "unlinkSlideTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/slides/{id}/links/{tag}",
		Summary:     "Unlink tag from slide",
		Description: "Removes a tag link from a slide; tags without remaining links are deleted",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleUnlinkSlideTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "linkDeckTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/decks/{id}/links",
		Summary:     "Link tag to deck",
		Description: "Creates or updates a tag link on a deck",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleLinkDeckTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "unlinkDeckTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/decks/{id}/links/{tag}",
		Summary:     "Unlink tag from deck",
		Description: "Removes a tag link from a deck; tags without remaining links are deleted",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleUnlinkDeckTag)
}

// === DTOs ===

// TagListsResponse splits the user's tag names by what they are linked to.
type TagListsResponse struct {
	DeckTags  []string `json:"deck_tags" doc:"Tags linked to at least one deck"`
	SlideTags []string `json:"slide_tags" doc:"Tags linked to at least one slide"`
}

// TagListsOutput wraps the tag lists response for Huma.
type TagListsOutput struct {
	Body TagListsResponse
}

// LinkRequest is the request body for creating a tag link.
type LinkRequest struct {
	Tag   string `json:"tag" validate:"required,tagname" doc:"Tag name, lowercase alphanumeric"`
	Value *int64 `json:"value,omitempty" doc:"Optional numeric value for range queries"`
}

// LinkSlideTagInput wraps the slide link request for Huma.
type LinkSlideTagInput struct {
	Cookie string `header:"Cookie"`
	ID     int64  `path:"id" doc:"Slide ID"`
	Body   LinkRequest
}

// UnlinkSlideTagInput addresses one slide link.
type UnlinkSlideTagInput struct {
	Cookie string `header:"Cookie"`
	ID     int64  `path:"id" doc:"Slide ID"`
	Tag    string `path:"tag" doc:"Tag name"`
}

// LinkDeckTagInput wraps the deck link request for Huma.
type LinkDeckTagInput struct {
	Cookie string `header:"Cookie"`
	ID     string `path:"id" doc:"Deck ID"`
	Body   LinkRequest
}

// UnlinkDeckTagInput addresses one deck link.
type UnlinkDeckTagInput struct {
	Cookie string `header:"Cookie"`
	ID     string `path:"id" doc:"Deck ID"`
	Tag    string `path:"tag" doc:"Tag name"`
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, input *AuthedInput) (*TagListsOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	lists, err := s.services.Tag.Lists(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &TagListsOutput{Body: TagListsResponse{
		DeckTags:  lists.DeckTags,
		SlideTags: lists.SlideTags,
	}}, nil
}

func (s *Server) handleLinkSlideTag(ctx context.Context, input *LinkSlideTagInput) (*MessageOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	if err := validate.Validate(&input.Body); err != nil {
		return nil, err
	}

	if _, err := s.services.Tag.LinkSlide(ctx, sess, input.ID, input.Body.Tag, input.Body.Value); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Tag linked"}}, nil
}

func (s *Server) handleUnlinkSlideTag(ctx context.Context, input *UnlinkSlideTagInput) (*MessageOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.UnlinkSlide(ctx, sess, input.ID, input.Tag); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Tag unlinked"}}, nil
}

func (s *Server) handleLinkDeckTag(ctx context.Context, input *LinkDeckTagInput) (*MessageOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	if err := validate.Validate(&input.Body); err != nil {
		return nil, err
	}

	if _, err := s.services.Tag.LinkDeck(ctx, sess, input.ID, input.Body.Tag, input.Body.Value); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Tag linked"}}, nil
}

func (s *Server) handleUnlinkDeckTag(ctx context.Context, input *UnlinkDeckTagInput) (*MessageOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.UnlinkDeck(ctx, sess, input.ID, input.Tag); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Tag unlinked"}}, nil
}
