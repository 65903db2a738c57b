package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ds124wfegd/pixelcanvas/internal/entity"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/storage"
)

func NewSnapshotRepository(storage storage.FileStorage) SnapshotRepository {
	return &fileSnapshotRepository{storage: storage}
}

// Save writes the image first so metadata never points at a missing file.
func (r *fileSnapshotRepository) Save(record *entity.SnapshotRecord, image io.Reader) error {
	record.Path = r.getImagePath(record.ID, record.Format)
	if err := r.storage.Save(record.Path, image); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return r.storage.Save(r.getMetadataPath(record.ID), bytes.NewReader(data))
}

func (r *fileSnapshotRepository) FindByID(id string) (*entity.SnapshotRecord, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || !r.storage.Exists(r.getMetadataPath(id)) {
		return nil, entity.ErrSnapshotNotFound
	}

	reader, err := r.storage.Get(r.getMetadataPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, entity.ErrSnapshotNotFound
		}
		return nil, err
	}
	defer reader.Close()

	var record entity.SnapshotRecord
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&record); err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *fileSnapshotRepository) List() ([]*entity.SnapshotRecord, error) {
	names, err := r.storage.List("metadata")
	if err != nil {
		return nil, err
	}

	records := make([]*entity.SnapshotRecord, 0, len(names))
	for _, name := range names {
		id, ok := strings.CutSuffix(name, ".json")
		if !ok {
			continue
		}
		record, err := r.FindByID(id)
		if err != nil {
			// deleted between List and FindByID
			if errors.Is(err, entity.ErrSnapshotNotFound) {
				continue
			}
			return nil, err
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (r *fileSnapshotRepository) Open(id string) (io.ReadCloser, error) {
	record, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	return r.storage.Get(record.Path)
}

func (r *fileSnapshotRepository) Delete(id string) error {
	record, err := r.FindByID(id)
	if err != nil {
		return err
	}

	if err := r.storage.Delete(record.Path); err != nil && !os.IsNotExist(err) {
		return err
	}

	if err := r.storage.Delete(r.getMetadataPath(id)); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

func (r *fileSnapshotRepository) getImagePath(id, format string) string {
	return filepath.Join("snapshots", id+"."+format)
}

func (r *fileSnapshotRepository) getMetadataPath(id string) string {
	return filepath.Join("metadata", id+".json")
}
