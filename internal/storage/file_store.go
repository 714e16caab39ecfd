// Package storage keeps staging records, the batch job handle and finished generation
// bundles on the local filesystem.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"medmonics/internal/domain"
	"medmonics/internal/util"

	"go.uber.org/zap"
)

const (
	dataFileName  = "data.json"
	imageFileName = "image.png"
	folderTime    = "20060102_150405"
)

type quizData struct {
	Quizzes []domain.QuizItem `json:"quizzes"`
}

type imageInfo struct {
	Prompt   string `json:"prompt"`
	MIMEType string `json:"mime_type"`
	Fallback bool   `json:"fallback,omitempty"`
}

// bundle is the data.json layout of a generation folder.
type bundle struct {
	MnemonicData domain.MnemonicRecord     `json:"mnemonic_data"`
	BboxData     domain.BboxSet            `json:"bbox_data"`
	QuizData     quizData                  `json:"quiz_data"`
	Image        imageInfo                 `json:"image"`
	Metadata     domain.GenerationMetadata `json:"metadata"`
}

// FileStore implements domain.BundleStore as one folder per generation:
// <base>/<specialty-slug>/<timestamp>_<topic-slug>_<ulid>/{data.json,image.png}.
type FileStore struct {
	baseDir string
	now     func() time.Time
	logger  *zap.Logger
}

var _ domain.BundleStore = (*FileStore)(nil)

func NewFileStore(baseDir string, logger *zap.Logger) *FileStore {
	return &FileStore{baseDir: baseDir, now: time.Now, logger: logger}
}

func (s *FileStore) Save(ctx context.Context, gen *domain.Generation) (domain.GenerationSummary, error) {
	if err := ctx.Err(); err != nil {
		return domain.GenerationSummary{}, err
	}
	if len(gen.Image.Data) == 0 {
		return domain.GenerationSummary{}, domain.NewInvalidInputError("generation has no image")
	}

	meta := gen.Metadata
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = s.now().UTC()
	}
	if meta.Topic == "" {
		meta.Topic = gen.Record.Topic
	}
	if meta.Specialty == "" {
		meta.Specialty = "General"
	}
	id := util.NewULIDAt(meta.CreatedAt)
	if meta.TopicID == "" {
		meta.TopicID = id
	}

	specialtySlug := util.Slugify(meta.Specialty, 60)
	if specialtySlug == "" {
		specialtySlug = "general"
	}
	topicSlug := util.Slugify(gen.Record.Topic, 40)
	if topicSlug == "" {
		topicSlug = "untitled"
	}
	folder := strings.Join([]string{meta.CreatedAt.Format(folderTime), topicSlug, strings.ToLower(id)}, "_")
	dir := filepath.Join(s.baseDir, specialtySlug, folder)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.GenerationSummary{}, domain.NewIOError("create", dir, err)
	}

	imagePath := filepath.Join(dir, imageFileName)
	if err := os.WriteFile(imagePath, gen.Image.Data, 0o644); err != nil {
		return domain.GenerationSummary{}, domain.NewIOError("write", imagePath, err)
	}

	data, err := json.MarshalIndent(bundle{
		MnemonicData: gen.Record,
		BboxData:     gen.Boxes,
		QuizData:     quizData{Quizzes: gen.Quizzes},
		Image:        imageInfo{Prompt: gen.Image.Prompt, MIMEType: gen.Image.MIMEType, Fallback: gen.Image.Fallback},
		Metadata:     meta,
	}, "", "  ")
	if err != nil {
		return domain.GenerationSummary{}, domain.NewInternalError("failed to encode generation", err)
	}
	dataPath := filepath.Join(dir, dataFileName)
	if err := os.WriteFile(dataPath, data, 0o644); err != nil {
		return domain.GenerationSummary{}, domain.NewIOError("write", dataPath, err)
	}

	summary := domain.GenerationSummary{
		ID:        specialtySlug + "/" + folder,
		Topic:     meta.Topic,
		Specialty: meta.Specialty,
		Path:      dir,
		BatchJob:  meta.BatchJob,
		CreatedAt: meta.CreatedAt,
	}
	s.logger.Info("Generation saved", zap.String("id", summary.ID), zap.String("topic", summary.Topic))
	return summary, nil
}

// List returns saved generations, newest first. A non-empty specialty restricts the
// listing to that specialty's folder.
func (s *FileStore) List(ctx context.Context, specialty string) ([]domain.GenerationSummary, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.GenerationSummary{}, nil
		}
		return nil, domain.NewIOError("list", s.baseDir, err)
	}

	filter := ""
	if specialty != "" {
		filter = util.Slugify(specialty, 60)
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(s.baseDir, e.Name())
		if fileExists(filepath.Join(dir, dataFileName)) {
			// Folder saved before specialties existed.
			if filter == "" {
				ids = append(ids, e.Name())
			}
			continue
		}
		if filter != "" && e.Name() != filter {
			continue
		}
		children, err := os.ReadDir(dir)
		if err != nil {
			return nil, domain.NewIOError("list", dir, err)
		}
		for _, c := range children {
			if c.IsDir() && fileExists(filepath.Join(dir, c.Name(), dataFileName)) {
				ids = append(ids, e.Name()+"/"+c.Name())
			}
		}
	}

	sort.Slice(ids, func(i, j int) bool { return path.Base(ids[i]) > path.Base(ids[j]) })

	out := make([]domain.GenerationSummary, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := s.readBundle(id)
		if err != nil {
			s.logger.Warn("Skipping unreadable generation", zap.String("id", id), zap.Error(err))
			continue
		}
		out = append(out, summaryOf(id, s.dirOf(id), b))
	}
	return out, nil
}

func (s *FileStore) Load(ctx context.Context, id string) (*domain.Generation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}
	b, err := s.readBundle(id)
	if err != nil {
		return nil, err
	}
	img, err := s.LoadImage(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.Generation{
		Record: b.MnemonicData,
		Image: domain.ImageArtifact{
			RecordID: b.MnemonicData.ID,
			Data:     img,
			MIMEType: b.Image.MIMEType,
			Prompt:   b.Image.Prompt,
			Fallback: b.Image.Fallback,
		},
		Boxes:    b.BboxData,
		Quizzes:  b.QuizData.Quizzes,
		Metadata: b.Metadata,
	}, nil
}

func (s *FileStore) LoadImage(_ context.Context, id string) ([]byte, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	p := filepath.Join(s.dirOf(id), imageFileName)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewNotFoundError("generation image not found: " + id)
		}
		return nil, domain.NewIOError("read", p, err)
	}
	return data, nil
}

func (s *FileStore) readBundle(id string) (*bundle, error) {
	p := filepath.Join(s.dirOf(id), dataFileName)
	raw, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewNotFoundError("generation not found: " + id)
		}
		return nil, domain.NewIOError("read", p, err)
	}
	var b bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, domain.NewIOError("decode", p, err)
	}
	return &b, nil
}

func (s *FileStore) dirOf(id string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(id))
}

func summaryOf(id, dir string, b *bundle) domain.GenerationSummary {
	topic := b.Metadata.Topic
	if topic == "" {
		topic = b.MnemonicData.Topic
	}
	return domain.GenerationSummary{
		ID:        id,
		Topic:     topic,
		Specialty: b.Metadata.Specialty,
		Path:      dir,
		BatchJob:  b.Metadata.BatchJob,
		CreatedAt: b.Metadata.CreatedAt,
	}
}

// validateID accepts "<specialty>/<folder>" or a bare legacy folder name.
func validateID(id string) error {
	if id == "" || strings.Contains(id, "\\") || path.IsAbs(id) {
		return domain.NewInvalidInputError("invalid generation id")
	}
	parts := strings.Split(id, "/")
	if len(parts) > 2 {
		return domain.NewInvalidInputError("invalid generation id")
	}
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			return domain.NewInvalidInputError("invalid generation id")
		}
	}
	return nil
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
