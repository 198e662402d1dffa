package service

import (
	"context"
	"log/slog"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/errors"
	"github.com/lisashushakova/PresentationConfigurator/internal/remote"
	"github.com/lisashushakova/PresentationConfigurator/internal/store/sqlite"
)

// FileService mirrors the remote folder tree and owns sync marks.
type FileService struct {
	db     *sqlite.Store
	drive  remote.Drive
	logger *slog.Logger
}

// NewFileService creates a new file service.
func NewFileService(db *sqlite.Store, drive remote.Drive, logger *slog.Logger) *FileService {
	return &FileService{db: db, drive: drive, logger: logger}
}

// FolderTree refreshes the stored folder tree from the drive and returns
// it. Marks on folders that still exist survive the refresh.
func (s *FileService) FolderTree(ctx context.Context, sess *domain.Session) ([]*domain.Folder, error) {
	remoteFolders, err := s.drive.ListFolders(ctx, sess.Credentials)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to list drive folders")
	}
	for i := range remoteFolders {
		remoteFolders[i].OwnerID = sess.UserID
	}

	if err := s.db.ReplaceFolders(ctx, sess.UserID, remoteFolders); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to store folder tree")
	}
	folders, err := s.db.ListFolders(ctx, sess.UserID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to load folder tree")
	}
	return folders, nil
}

// SetFolderMark flips the sync mark on one stored folder.
func (s *FileService) SetFolderMark(ctx context.Context, sess *domain.Session, folderID string, mark bool) error {
	if err := s.db.SetFolderMark(ctx, sess.UserID, folderID, mark); err != nil {
		return errors.Wrap(err, errors.CodeNotFound, "folder is not in the stored tree")
	}
	return nil
}

// MarkedDecks lists the remote decks visible to sync: those with a parent
// inside a marked folder subtree. Marks cascade to all descendants.
func (s *FileService) MarkedDecks(ctx context.Context, sess *domain.Session) ([]domain.DeckSummary, error) {
	folders, err := s.db.ListFolders(ctx, sess.UserID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to load folder tree")
	}
	included := markedSubtrees(folders)
	if len(included) == 0 {
		return nil, nil
	}

	decks, err := s.drive.ListDecks(ctx, sess.Credentials)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to list drive decks")
	}

	visible := decks[:0]
	for _, d := range decks {
		for _, parent := range d.ParentIDs {
			if included[parent] {
				visible = append(visible, d)
				break
			}
		}
	}
	return visible, nil
}

// markedSubtrees expands folder marks downward: a folder is included when
// it or any ancestor is marked.
func markedSubtrees(folders []*domain.Folder) map[string]bool {
	children := make(map[string][]string)
	var roots []string
	for _, f := range folders {
		if f.Mark {
			roots = append(roots, f.ID)
		}
		if f.Parent != nil {
			children[*f.Parent] = append(children[*f.Parent], f.ID)
		}
	}

	included := make(map[string]bool)
	queue := roots
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if included[id] {
			continue
		}
		included[id] = true
		queue = append(queue, children[id]...)
	}
	return included
}
