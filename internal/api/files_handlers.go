package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerFileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getFolderTree",
		Method:      http.MethodGet,
		Path:        "/api/v1/files/tree",
		Summary:     "Folder tree",
		Description: "Returns the user's drive folder tree with sync marks",
		Tags:        []string{"Files"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleGetFolderTree)

	huma.Register(s.api, huma.Operation{
		OperationID: "setFolderMark",
		Method:      http.MethodPost,
		Path:        "/api/v1/files/{id}/mark",
		Summary:     "Set folder mark",
		Description: "Marks or unmarks a folder for sync; marks cascade to descendants",
		Tags:        []string{"Files"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleSetFolderMark)

	huma.Register(s.api, huma.Operation{
		OperationID: "syncPresentations",
		Method:      http.MethodPost,
		Path:        "/api/v1/files/sync",
		Summary:     "Sync presentations",
		Description: "Synchronizes marked folders' decks from the drive into local storage",
		Tags:        []string{"Files"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleSync)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSyncStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/files/sync/status",
		Summary:     "Sync status",
		Description: "Returns per-deck progress of a sync in flight",
		Tags:        []string{"Files"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleSyncStatus)
}

// === DTOs ===

// FolderResponse contains one drive folder.
type FolderResponse struct {
	ID       string  `json:"id" doc:"Folder ID"`
	Name     string  `json:"name" doc:"Folder name"`
	ParentID *string `json:"parent_id,omitempty" doc:"Parent folder ID, empty for roots"`
	Marked   bool    `json:"marked" doc:"Whether the folder is marked for sync"`
}

// FolderTreeResponse contains the user's folder tree.
type FolderTreeResponse struct {
	Folders []FolderResponse `json:"folders" doc:"All folders, parents before children not guaranteed"`
}

// FolderTreeOutput wraps the folder tree response for Huma.
type FolderTreeOutput struct {
	Body FolderTreeResponse
}

// SetFolderMarkInput selects a folder and the mark to apply.
type SetFolderMarkInput struct {
	Cookie string `header:"Cookie"`
	ID     string `path:"id" doc:"Folder ID"`
	Body   struct {
		Marked bool `json:"marked" doc:"New mark state"`
	}
}

// SyncReportResponse summarizes a finished sync run.
type SyncReportResponse struct {
	Created int `json:"created" doc:"Decks synced for the first time"`
	Updated int `json:"updated" doc:"Decks re-synced after a remote change"`
	Removed int `json:"removed" doc:"Decks deleted locally"`
	Failed  int `json:"failed" doc:"Decks that failed to sync"`
}

// SyncOutput wraps the sync report for Huma.
type SyncOutput struct {
	Body SyncReportResponse
}

// SyncStatusResponse maps deck IDs to their in-flight sync state.
type SyncStatusResponse struct {
	Status map[string]string `json:"status" doc:"Deck ID to creating/updating/failed"`
}

// SyncStatusOutput wraps the sync status response for Huma.
type SyncStatusOutput struct {
	Body SyncStatusResponse
}

// === Handlers ===

func (s *Server) handleGetFolderTree(ctx context.Context, input *AuthedInput) (*FolderTreeOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	folders, err := s.services.Files.FolderTree(ctx, sess)
	if err != nil {
		return nil, err
	}

	resp := make([]FolderResponse, len(folders))
	for i, f := range folders {
		resp[i] = FolderResponse{
			ID:       f.ID,
			Name:     f.Name,
			ParentID: f.Parent,
			Marked:   f.Mark,
		}
	}
	return &FolderTreeOutput{Body: FolderTreeResponse{Folders: resp}}, nil
}

func (s *Server) handleSetFolderMark(ctx context.Context, input *SetFolderMarkInput) (*MessageOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	if err := s.services.Files.SetFolderMark(ctx, sess, input.ID, input.Body.Marked); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Folder mark updated"}}, nil
}

func (s *Server) handleSync(ctx context.Context, input *AuthedInput) (*SyncOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	report, err := s.services.Sync.Sync(ctx, sess)
	if err != nil {
		return nil, err
	}

	return &SyncOutput{Body: SyncReportResponse{
		Created: report.Created,
		Updated: report.Updated,
		Removed: report.Removed,
		Failed:  report.Failed,
	}}, nil
}

func (s *Server) handleSyncStatus(ctx context.Context, input *AuthedInput) (*SyncStatusOutput, error) {
	sess, err := s.authenticate(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	return &SyncStatusOutput{Body: SyncStatusResponse{
		Status: s.services.Sync.Status(sess.UserID),
	}}, nil
}
