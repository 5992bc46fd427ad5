package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"persona-survey-bot/internal/domain"
)

// FileLoader reads instrument datasets from JSON files in a directory
// (priorities.json, thinking.json, personality.json). Used for local runs;
// production content lives in Postgres.
type FileLoader struct {
	dir string
}

func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{dir: dir}
}

func (l *FileLoader) LoadDataset(_ context.Context, inst domain.Instrument) ([]domain.Question, error) {
	path := filepath.Join(l.dir, inst.String()+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal dataset %s: %w", path, err)
	}
	return questions, nil
}
