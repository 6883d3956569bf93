package gormstore

import (
	"context"

	"zyboard/internal/domain"
)

func (s *Store) InsertFile(ctx context.Context, f *domain.File) (int64, error) {
	if err := s.conn(ctx).Create(f).Error; err != nil {
		return 0, wrap("insert file", err)
	}
	return f.ID, nil
}

func (s *Store) FindFilesByUserID(ctx context.Context, userID int64) ([]domain.File, error) {
	files := make([]domain.File, 0)
	err := s.conn(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&files).Error
	if err != nil {
		return nil, wrap("find files by user", err)
	}
	return files, nil
}

func (s *Store) FindFileByID(ctx context.Context, id, userID int64) (*domain.File, error) {
	var f domain.File
	if err := s.conn(ctx).Where("id = ? AND user_id = ?", id, userID).First(&f).Error; err != nil {
		return nil, wrap("find file by id", err)
	}
	return &f, nil
}

func (s *Store) FindFileByFilename(ctx context.Context, filename string, userID int64) (*domain.File, error) {
	var f domain.File
	if err := s.conn(ctx).Where("filename = ? AND user_id = ?", filename, userID).First(&f).Error; err != nil {
		return nil, wrap("find file by filename", err)
	}
	return &f, nil
}

func (s *Store) DeleteFile(ctx context.Context, id, userID int64) (int64, error) {
	res := s.conn(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.File{})
	if res.Error != nil {
		return 0, wrap("delete file", res.Error)
	}
	return res.RowsAffected, nil
}
