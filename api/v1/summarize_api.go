package v1

import (
	"net/http"
	"strings"

	"smartnote/api/v1/request"
	"smartnote/internal/metrics"
	"smartnote/internal/summarizer"

	"github.com/gin-gonic/gin"
)

// SummarizeAPI 无状态摘要代理：{title?, content} -> {summary}，
// 不读写任何笔记，供浏览器端直接调用（CORS 由全局中间件放行）。
type SummarizeAPI struct {
	sum summarizer.Summarizer
}

// NewSummarizeAPI wires the summarizer client into the proxy handler.
func NewSummarizeAPI(sum summarizer.Summarizer) *SummarizeAPI {
	return &SummarizeAPI{sum: sum}
}

// Summarize 正文缺失或全空白 400；上游失败或空补全 500；成功 200。
func (s *SummarizeAPI) Summarize(c *gin.Context) {
	var req request.SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncSummary("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		metrics.IncSummary("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	result, err := s.sum.Summarize(c.Request.Context(), req.Title, req.Content)
	if err != nil {
		metrics.IncSummary("upstream_error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generate summary failed"})
		return
	}
	metrics.IncSummary("success")
	c.JSON(http.StatusOK, gin.H{"summary": result})
}
