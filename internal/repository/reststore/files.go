package reststore

import (
	"context"
	"net/url"
	"time"

	"zyboard/internal/domain"
)

func (s *Store) InsertFile(ctx context.Context, f *domain.File) (int64, error) {
	row := fileRow{
		UserID:       f.UserID,
		Filename:     f.Filename,
		OriginalName: f.OriginalName,
		Size:         f.Size,
		Type:         f.MimeType,
		Path:         f.Path,
		CreatedAt:    stamp(f.CreatedAt),
		UpdatedAt:    time.Now(),
	}
	var out []fileRow
	if err := s.c.insertRow(ctx, tableFiles, row, &out); err != nil {
		return 0, wrap("insert file", err)
	}
	created, err := one("insert file", out)
	if err != nil {
		return 0, err
	}
	f.ID = created.ID
	f.CreatedAt = created.CreatedAt
	f.UpdatedAt = created.UpdatedAt
	return f.ID, nil
}

func (s *Store) FindFilesByUserID(ctx context.Context, userID int64) ([]domain.File, error) {
	q := byUser(userID)
	q.Set("order", "created_at.desc,id.desc")
	var rows []fileRow
	if err := s.c.selectRows(ctx, tableFiles, q, &rows); err != nil {
		return nil, wrap("find files by user", err)
	}
	files := make([]domain.File, 0, len(rows))
	for _, r := range rows {
		files = append(files, r.toDomain())
	}
	return files, nil
}

func (s *Store) findFile(ctx context.Context, op string, q url.Values) (*domain.File, error) {
	q.Set("limit", "1")
	var rows []fileRow
	if err := s.c.selectRows(ctx, tableFiles, q, &rows); err != nil {
		return nil, wrap(op, err)
	}
	row, err := one(op, rows)
	if err != nil {
		return nil, err
	}
	f := row.toDomain()
	return &f, nil
}

func (s *Store) FindFileByID(ctx context.Context, id, userID int64) (*domain.File, error) {
	q := byID(id)
	q.Set("user_id", eq(userID))
	return s.findFile(ctx, "find file by id", q)
}

func (s *Store) FindFileByFilename(ctx context.Context, filename string, userID int64) (*domain.File, error) {
	q := byUser(userID)
	q.Set("filename", eq(filename))
	return s.findFile(ctx, "find file by filename", q)
}

func (s *Store) DeleteFile(ctx context.Context, id, userID int64) (int64, error) {
	q := byID(id)
	q.Set("user_id", eq(userID))
	n, err := s.c.deleteRows(ctx, tableFiles, q)
	if err != nil {
		return 0, wrap("delete file", err)
	}
	return n, nil
}
