package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/store"
)

// scanFolder scans a row into a domain.Folder.
func scanFolder(scanner interface{ Scan(dest ...any) error }) (*domain.Folder, error) {
	var (
		f      domain.Folder
		parent sql.NullString
		marked int
	)
	if err := scanner.Scan(&f.ID, &f.Name, &parent, &marked, &f.OwnerID); err != nil {
		return nil, err
	}
	if parent.Valid {
		f.Parent = &parent.String
	}
	f.Mark = marked != 0
	return &f, nil
}

// ReplaceFolders mirrors the remote folder tree for one user. Marks on
// folders that still exist are preserved; folders gone from the remote are
// dropped along with their marks.
func (s *Store) ReplaceFolders(ctx context.Context, ownerID string, folders []domain.Folder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace folders: %w", err)
	}
	defer tx.Rollback()

	marked := make(map[string]bool)
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM folders WHERE owner_id = ? AND marked = 1`, ownerID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		marked[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM folders WHERE owner_id = ?`, ownerID); err != nil {
		return err
	}

	for _, f := range folders {
		mark := f.Mark || marked[f.ID]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO folders (id, name, parent_id, marked, owner_id)
			VALUES (?, ?, ?, ?, ?)`,
			f.ID, f.Name, nullableString(f.Parent), boolToInt(mark), ownerID,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListFolders returns the stored folder tree for a user.
func (s *Store) ListFolders(ctx context.Context, ownerID string) ([]*domain.Folder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, parent_id, marked, owner_id
		FROM folders WHERE owner_id = ? ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []*domain.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// SetFolderMark flips the sync mark on one folder.
func (s *Store) SetFolderMark(ctx context.Context, ownerID, folderID string, mark bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE folders SET marked = ? WHERE id = ? AND owner_id = ?`,
		boolToInt(mark), folderID, ownerID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("folder not found")
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
