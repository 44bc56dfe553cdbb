package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
)

const (
	filePrefix = "interview_"
	fileSuffix = ".json"
)

// FileStore keeps every interview as an indented JSON document in a directory.
type FileStore struct {
	mu     sync.RWMutex
	dir    string
	now    func() time.Time
	logger *zap.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the directory if needed and returns a store rooted at it.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("store directory is required")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory %s: %w", dir, err)
	}

	s := &FileStore{
		dir:    dir,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *FileStore) Create(ctx context.Context, iv *Interview) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if iv == nil {
		return errors.New("interview is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if iv.ID == "" {
		iv.ID = uuid.NewString()
	} else if _, err := uuid.Parse(iv.ID); err != nil {
		return fmt.Errorf("invalid interview id %q: %w", iv.ID, err)
	}
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = s.now().UTC()
	}
	if iv.Status == "" {
		iv.Status = StatusPending
	}
	if iv.Answers == nil {
		iv.Answers = make(map[int]Answer)
	}

	if err := s.write(iv); err != nil {
		return err
	}

	s.logger.Debug("interview created", zap.String(logger.FieldInterviewID, iv.ID), zap.String("user_id", iv.UserID))

	return nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*Interview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.read(id)
}

func (s *FileStore) List(ctx context.Context, userID string) ([]*Interview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store directory %s: %w", s.dir, err)
	}

	interviews := make([]*Interview, 0)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}

		iv, err := s.read(strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
		if err != nil {
			s.logger.Warn("skipping unreadable interview file", zap.String("file", name), zap.Error(err))
			continue
		}
		if iv.UserID != userID {
			continue
		}
		interviews = append(interviews, iv)
	}

	sort.SliceStable(interviews, func(i, j int) bool {
		return interviews[i].CreatedAt.After(interviews[j].CreatedAt)
	})

	return interviews, nil
}

func (s *FileStore) SaveAnswer(ctx context.Context, id string, index int, answer string) (*Interview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	iv, err := s.read(id)
	if err != nil {
		return nil, err
	}
	if iv.Status == StatusCompleted {
		return nil, ErrCompleted
	}
	if index < 0 || index >= len(iv.Questions) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidIndex, index, len(iv.Questions))
	}

	if iv.Answers == nil {
		iv.Answers = make(map[int]Answer)
	}
	iv.Answers[index] = Answer{
		Question:  iv.Questions[index],
		Answer:    answer,
		Timestamp: s.now().UTC(),
	}

	if err := s.write(iv); err != nil {
		return nil, err
	}

	return iv, nil
}

func (s *FileStore) Complete(ctx context.Context, id string, feedback *interview.FeedbackResult) (*Interview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if feedback == nil {
		return nil, errors.New("feedback is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	iv, err := s.read(id)
	if err != nil {
		return nil, err
	}
	if iv.Status == StatusCompleted {
		return nil, ErrCompleted
	}

	completedAt := s.now().UTC()
	iv.Feedback = feedback
	iv.Score = feedback.OverallScore
	iv.Status = StatusCompleted
	iv.CompletedAt = &completedAt

	if err := s.write(iv); err != nil {
		return nil, err
	}

	s.logger.Debug("interview completed", zap.String(logger.FieldInterviewID, iv.ID), zap.Float64("score", iv.Score))

	return iv, nil
}

func (s *FileStore) path(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrNotFound
	}
	return filepath.Join(s.dir, filePrefix+parsed.String()+fileSuffix), nil
}

func (s *FileStore) read(id string) (*Interview, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read interview %s: %w", id, err)
	}

	var iv Interview
	if err := json.Unmarshal(data, &iv); err != nil {
		return nil, fmt.Errorf("decode interview %s: %w", id, err)
	}

	return &iv, nil
}

// write replaces the document through a temporary file so readers never see a partial file.
func (s *FileStore) write(iv *Interview) error {
	path, err := s.path(iv.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(iv, "", "  ")
	if err != nil {
		return fmt.Errorf("encode interview %s: %w", iv.ID, err)
	}

	tmp, err := os.CreateTemp(s.dir, filePrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write interview %s: %w", iv.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save interview %s: %w", iv.ID, err)
	}

	return nil
}
