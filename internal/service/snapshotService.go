package service

import (
	"io"

	"github.com/ds124wfegd/pixelcanvas/internal/database"
	"github.com/ds124wfegd/pixelcanvas/internal/entity"
)

type snapshotService struct {
	repo database.SnapshotRepository
}

func NewSnapshotService(repo database.SnapshotRepository) SnapshotService {
	return &snapshotService{repo: repo}
}

func (s *snapshotService) ListSnapshots() ([]*entity.SnapshotRecord, error) {
	return s.repo.List()
}

// OpenSnapshot returns the record and its image; the caller closes the reader.
func (s *snapshotService) OpenSnapshot(id string) (*entity.SnapshotRecord, io.ReadCloser, error) {
	record, err := s.repo.FindByID(id)
	if err != nil {
		return nil, nil, err
	}

	image, err := s.repo.Open(id)
	if err != nil {
		return nil, nil, err
	}
	return record, image, nil
}
