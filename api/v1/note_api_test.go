package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartnote/model"
	"smartnote/service"
)

// ---- 内存桩：与 service 层测试同构，这里只做 handler 语义验证 ----

type stubStore struct {
	nextID uint64
	notes  map[uint64]*model.Note
}

func newStubStore() *stubStore {
	return &stubStore{nextID: 1, notes: map[uint64]*model.Note{}}
}

func (s *stubStore) CreateNote(note *model.Note) error {
	note.ID = s.nextID
	s.nextID++
	now := time.Now()
	note.CreatedAt = now
	note.UpdatedAt = now
	cp := *note
	s.notes[note.ID] = &cp
	return nil
}

func (s *stubStore) ListByUser(userID uint64) ([]model.Note, error) {
	var out []model.Note
	for _, n := range s.notes {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *stubStore) GetByID(id, userID uint64) (*model.Note, error) {
	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return nil, errors.New("record not found")
	}
	cp := *n
	return &cp, nil
}

func (s *stubStore) UpdateContent(id, userID uint64, title, content string) (int64, error) {
	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return 0, nil
	}
	n.Title = title
	n.Content = content
	n.UpdatedAt = time.Now()
	return 1, nil
}

func (s *stubStore) UpdateSummary(id, userID uint64, summary string) (int64, error) {
	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return 0, nil
	}
	n.Summary = summary
	n.UpdatedAt = time.Now()
	return 1, nil
}

func (s *stubStore) DeleteNote(id, userID uint64) (int64, error) {
	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return 0, nil
	}
	delete(s.notes, id)
	return 1, nil
}

type stubMarker struct {
	held map[uint64]bool
}

func newStubMarker() *stubMarker { return &stubMarker{held: map[uint64]bool{}} }

func (m *stubMarker) Acquire(noteID uint64) (bool, error) {
	if m.held[noteID] {
		return false, nil
	}
	m.held[noteID] = true
	return true, nil
}

func (m *stubMarker) Release(noteID uint64) error {
	delete(m.held, noteID)
	return nil
}

func (m *stubMarker) Generating(noteID uint64) (bool, error) { return m.held[noteID], nil }

type stubSummarizer struct {
	result string
	err    error
	calls  int
}

func (s *stubSummarizer) Summarize(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.result, s.err
}

const stubUserID uint64 = 42

// newNoteRouter 鉴权用桩中间件替代，只注入 user_id。
func newNoteRouter(store *stubStore, marker *stubMarker, sum *stubSummarizer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewNoteService(store, marker, sum, zap.NewNop())
	api := NewNoteAPI(svc)

	r := gin.New()
	g := r.Group("/api/v1", func(c *gin.Context) {
		c.Set("user_id", stubUserID)
		c.Next()
	})
	g.GET("/notes", api.List)
	g.POST("/notes", api.Create)
	g.GET("/notes/stats", api.Stats)
	g.PUT("/notes/:id", api.Update)
	g.DELETE("/notes/:id", api.Delete)
	g.POST("/notes/:id/summarize", api.Summarize)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNoteLifecycleEndToEnd(t *testing.T) {
	store := newStubStore()
	sum := &stubSummarizer{result: "Budget talk planned."}
	r := newNoteRouter(store, newStubMarker(), sum)

	// 创建
	w := doJSON(t, r, http.MethodPost, "/api/v1/notes", gin.H{"title": "Meeting", "content": "Discuss budget"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created struct {
		Note model.Note `json:"note"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Meeting", created.Note.Title)
	require.NotZero(t, created.Note.ID)

	// 列表里应恰好有这一条
	w = doJSON(t, r, http.MethodGet, "/api/v1/notes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Notes []model.Note `json:"notes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Notes, 1)
	assert.Equal(t, "Meeting", listed.Notes[0].Title)
	assert.Empty(t, listed.Notes[0].Summary)

	// 生成摘要
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/notes/%d/summarize", created.Note.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summarized struct {
		Note model.Note `json:"note"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summarized))
	assert.Equal(t, "Budget talk planned.", summarized.Note.Summary)
	assert.Equal(t, 1, sum.calls)

	// 删除后列表为空
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/notes/%d", created.Note.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/v1/notes", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Empty(t, listed.Notes)
}

func TestCreateNoteEmptyRejected(t *testing.T) {
	store := newStubStore()
	r := newNoteRouter(store, newStubMarker(), &stubSummarizer{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/notes", gin.H{"title": "  ", "content": " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.notes)
}

func TestSearchNarrowsList(t *testing.T) {
	store := newStubStore()
	r := newNoteRouter(store, newStubMarker(), &stubSummarizer{})

	doJSON(t, r, http.MethodPost, "/api/v1/notes", gin.H{"title": "Budget Q3", "content": "spend"})
	doJSON(t, r, http.MethodPost, "/api/v1/notes", gin.H{"title": "Trip", "content": "pack bags"})

	w := doJSON(t, r, http.MethodGet, "/api/v1/notes?q=BUDGET", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Notes []model.Note `json:"notes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Notes, 1)
	assert.Equal(t, "Budget Q3", listed.Notes[0].Title)
}

func TestUpdateMissingNote(t *testing.T) {
	r := newNoteRouter(newStubStore(), newStubMarker(), &stubSummarizer{})

	w := doJSON(t, r, http.MethodPut, "/api/v1/notes/123", gin.H{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSummarizeConflictWhileGenerating(t *testing.T) {
	store := newStubStore()
	marker := newStubMarker()
	r := newNoteRouter(store, marker, &stubSummarizer{result: "x"})

	w := doJSON(t, r, http.MethodPost, "/api/v1/notes", gin.H{"title": "t", "content": "c"})
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		Note model.Note `json:"note"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	marker.held[created.Note.ID] = true
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/notes/%d/summarize", created.Note.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSummarizeEmptyContentBadRequest(t *testing.T) {
	store := newStubStore()
	sum := &stubSummarizer{result: "never"}
	r := newNoteRouter(store, newStubMarker(), sum)

	w := doJSON(t, r, http.MethodPost, "/api/v1/notes", gin.H{"title": "only title", "content": ""})
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		Note model.Note `json:"note"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/notes/%d/summarize", created.Note.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, sum.calls)
}

func TestStatsEndpoint(t *testing.T) {
	store := newStubStore()
	r := newNoteRouter(store, newStubMarker(), &stubSummarizer{})

	doJSON(t, r, http.MethodPost, "/api/v1/notes", gin.H{"title": "a", "content": "one two"})
	doJSON(t, r, http.MethodPost, "/api/v1/notes", gin.H{"title": "b", "content": ""})
	for _, n := range store.notes {
		if n.Title == "a" {
			n.Summary = "recap"
		}
	}

	w := doJSON(t, r, http.MethodGet, "/api/v1/notes/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats service.NoteStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.WithSummary)
	assert.Equal(t, 2, stats.WordCount)
}
