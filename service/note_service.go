package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"smartnote/internal/metrics"
	"smartnote/internal/summarizer"
	"smartnote/model"
)

var (
	ErrNoteNotFound    = errors.New("note not found")
	ErrEmptyNote       = errors.New("note title and content are both empty")
	ErrEmptyContent    = errors.New("note content is empty")
	ErrSummaryInFlight = errors.New("summary generation already in progress")
)

// NoteStore 笔记持久层。写操作返回影响行数，0 行表示笔记不存在
// 或不属于该用户，上层统一按 ErrNoteNotFound 处理。
type NoteStore interface {
	CreateNote(note *model.Note) error
	ListByUser(userID uint64) ([]model.Note, error)
	GetByID(id, userID uint64) (*model.Note, error)
	UpdateContent(id, userID uint64, title, content string) (int64, error)
	UpdateSummary(id, userID uint64, summary string) (int64, error)
	DeleteNote(id, userID uint64) (int64, error)
}

// GeneratingMarker 每条笔记的"摘要生成中"标记
type GeneratingMarker interface {
	Acquire(noteID uint64) (bool, error)
	Release(noteID uint64) error
	Generating(noteID uint64) (bool, error)
}

// NoteStats 从笔记列表派生的统计，不落库。
type NoteStats struct {
	Total       int `json:"total"`
	WithSummary int `json:"with_summary"`
	WordCount   int `json:"word_count"`
}

// NoteService 笔记编排层：CRUD、检索、统计与摘要工作流。
type NoteService struct {
	store  NoteStore
	marker GeneratingMarker
	sum    summarizer.Summarizer
	logger *zap.Logger
}

// NewNoteService 创建一个新的 NoteService 实例
func NewNoteService(store NoteStore, marker GeneratingMarker, sum summarizer.Summarizer, logger *zap.Logger) *NoteService {
	return &NoteService{store: store, marker: marker, sum: sum, logger: logger}
}

// normalizeNote 两个字段都先 trim；全空拒绝保存，空标题回退到占位标题。
func normalizeNote(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" && content == "" {
		return "", "", ErrEmptyNote
	}
	if title == "" {
		title = model.DefaultNoteTitle
	}
	return title, content, nil
}

// CreateNote 持久化一条新笔记并返回带 id / 时间戳的行。
func (s *NoteService) CreateNote(userID uint64, title, content string) (*model.Note, error) {
	title, content, err := normalizeNote(title, content)
	if err != nil {
		return nil, err
	}
	note := &model.Note{UserID: userID, Title: title, Content: content}
	if err := s.store.CreateNote(note); err != nil {
		return nil, err
	}
	return note, nil
}

// UpdateNote 只改标题与正文，永不触碰 summary；返回更新后的行。
func (s *NoteService) UpdateNote(userID, id uint64, title, content string) (*model.Note, error) {
	title, content, err := normalizeNote(title, content)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.UpdateContent(id, userID, title, content)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNoteNotFound
	}
	return s.store.GetByID(id, userID)
}

// DeleteNote 立即硬删除，无软删除、无撤销。
func (s *NoteService) DeleteNote(userID, id uint64) error {
	rows, err := s.store.DeleteNote(id, userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// ListNotes 返回用户全部笔记（updated_at 倒序）。term 非空时在内存里
// 过滤：标题/正文/摘要任一字段大小写不敏感包含该子串即保留。
func (s *NoteService) ListNotes(userID uint64, term string) ([]model.Note, error) {
	notes, err := s.store.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		if notes == nil {
			notes = []model.Note{}
		}
		return notes, nil
	}
	filtered := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if n.Matches(term) {
			filtered = append(filtered, n)
		}
	}
	return filtered, nil
}

// Stats 统计笔记总数、有摘要数和正文总词数（按空白切词，空正文记 0）。
func (s *NoteService) Stats(userID uint64) (NoteStats, error) {
	notes, err := s.store.ListByUser(userID)
	if err != nil {
		return NoteStats{}, err
	}
	stats := NoteStats{Total: len(notes)}
	for i := range notes {
		if notes[i].HasSummary() {
			stats.WithSummary++
		}
		stats.WordCount += notes[i].WordCount()
	}
	return stats, nil
}

// SummarizeNote 摘要工作流：空正文先拒绝，同一笔记的并发请求被
// 生成中标记挡掉，上游成功后只更新 summary 列。标记成功失败都清除。
func (s *NoteService) SummarizeNote(ctx context.Context, userID, id uint64) (*model.Note, error) {
	note, err := s.store.GetByID(id, userID)
	if err != nil {
		return nil, ErrNoteNotFound
	}
	if strings.TrimSpace(note.Content) == "" {
		return nil, ErrEmptyContent
	}

	ok, err := s.marker.Acquire(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSummaryInFlight
	}
	defer func() {
		if err := s.marker.Release(id); err != nil {
			s.logger.Warn("release generating marker failed", zap.Uint64("note_id", id), zap.Error(err))
		}
	}()

	start := time.Now()
	result, err := s.sum.Summarize(ctx, note.Title, note.Content)
	metrics.ObserveSummaryLatency(time.Since(start))
	if err != nil {
		s.logger.Warn("summary generation failed", zap.Uint64("note_id", id), zap.Error(err))
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	rows, err := s.store.UpdateSummary(id, userID, result)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// 生成期间笔记被删除：迟到的写落在不存在的行上，无害。
		s.logger.Info("note deleted while summarizing", zap.Uint64("note_id", id))
		return nil, ErrNoteNotFound
	}

	note.Summary = result
	return note, nil
}

// Generating 透出单条笔记的生成中状态。
func (s *NoteService) Generating(id uint64) (bool, error) {
	return s.marker.Generating(id)
}
