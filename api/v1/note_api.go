package v1

import (
	"errors"
	"net/http"
	"strconv"

	"smartnote/api/v1/request"
	"smartnote/internal/metrics"
	"smartnote/service"

	"github.com/gin-gonic/gin"
)

// NoteAPI 笔记相关的 HTTP Handler：CRUD / 检索 / 统计 / 摘要。
type NoteAPI struct {
	service *service.NoteService
}

// NewNoteAPI wires the note service into the HTTP handlers.
func NewNoteAPI(s *service.NoteService) *NoteAPI {
	return &NoteAPI{service: s}
}

func currentUserID(c *gin.Context) uint64 {
	return c.GetUint64("user_id")
}

func noteIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid note id"})
		return 0, false
	}
	return id, true
}

// List 返回当前用户全部笔记，支持 ?q= 检索（标题/正文/摘要子串匹配）。
func (n *NoteAPI) List(c *gin.Context) {
	notes, err := n.service.ListNotes(currentUserID(c), c.Query("q"))
	if err != nil {
		metrics.IncNoteOp("list", "internal_error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch notes failed"})
		return
	}
	metrics.IncNoteOp("list", "success")
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

// Create persists a new note for the current user.
func (n *NoteAPI) Create(c *gin.Context) {
	var req request.SaveNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncNoteOp("create", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	note, err := n.service.CreateNote(currentUserID(c), req.Title, req.Content)
	if err != nil {
		if errors.Is(err, service.ErrEmptyNote) {
			metrics.IncNoteOp("create", "bad_request")
			c.JSON(http.StatusBadRequest, gin.H{"error": "note is empty"})
			return
		}
		metrics.IncNoteOp("create", "internal_error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save note failed"})
		return
	}
	metrics.IncNoteOp("create", "success")
	c.JSON(http.StatusOK, gin.H{"note": note})
}

// Update 更新标题与正文；summary 永远不在本路径被修改。
func (n *NoteAPI) Update(c *gin.Context) {
	id, ok := noteIDParam(c)
	if !ok {
		metrics.IncNoteOp("update", "bad_request")
		return
	}
	var req request.SaveNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncNoteOp("update", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	note, err := n.service.UpdateNote(currentUserID(c), id, req.Title, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyNote):
			metrics.IncNoteOp("update", "bad_request")
			c.JSON(http.StatusBadRequest, gin.H{"error": "note is empty"})
		case errors.Is(err, service.ErrNoteNotFound):
			metrics.IncNoteOp("update", "not_found")
			c.JSON(http.StatusNotFound, gin.H{"error": "note not found"})
		default:
			metrics.IncNoteOp("update", "internal_error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save note failed"})
		}
		return
	}
	metrics.IncNoteOp("update", "success")
	c.JSON(http.StatusOK, gin.H{"note": note})
}

// Delete 立即删除，无确认、无撤销。
func (n *NoteAPI) Delete(c *gin.Context) {
	id, ok := noteIDParam(c)
	if !ok {
		metrics.IncNoteOp("delete", "bad_request")
		return
	}
	if err := n.service.DeleteNote(currentUserID(c), id); err != nil {
		if errors.Is(err, service.ErrNoteNotFound) {
			metrics.IncNoteOp("delete", "not_found")
			c.JSON(http.StatusNotFound, gin.H{"error": "note not found"})
			return
		}
		metrics.IncNoteOp("delete", "internal_error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete note failed"})
		return
	}
	metrics.IncNoteOp("delete", "success")
	c.JSON(http.StatusOK, gin.H{"message": "note deleted"})
}

// Stats 返回笔记总数、有摘要数和正文总词数。
func (n *NoteAPI) Stats(c *gin.Context) {
	stats, err := n.service.Stats(currentUserID(c))
	if err != nil {
		metrics.IncNoteOp("stats", "internal_error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load stats failed"})
		return
	}
	metrics.IncNoteOp("stats", "success")
	c.JSON(http.StatusOK, stats)
}

// Summarize 为单条笔记生成摘要并持久化到该行。
// 空正文 400；同一笔记已有在途请求 409；上游失败 500，原状态不变。
func (n *NoteAPI) Summarize(c *gin.Context) {
	id, ok := noteIDParam(c)
	if !ok {
		metrics.IncSummary("bad_request")
		return
	}
	note, err := n.service.SummarizeNote(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoteNotFound):
			metrics.IncSummary("not_found")
			c.JSON(http.StatusNotFound, gin.H{"error": "note not found"})
		case errors.Is(err, service.ErrEmptyContent):
			metrics.IncSummary("bad_request")
			c.JSON(http.StatusBadRequest, gin.H{"error": "note has no content to summarize"})
		case errors.Is(err, service.ErrSummaryInFlight):
			metrics.IncSummary("conflict")
			c.JSON(http.StatusConflict, gin.H{"error": "summary generation already in progress"})
		default:
			metrics.IncSummary("upstream_error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "generate summary failed"})
		}
		return
	}
	metrics.IncSummary("success")
	c.JSON(http.StatusOK, gin.H{"note": note})
}
