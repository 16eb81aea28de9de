package request

// SaveNoteRequest 创建 / 更新共用。两个字段都允许为空，
// "全空拒绝保存、空标题回退占位"在 service 层处理。
type SaveNoteRequest struct {
	Title   string `json:"title" binding:"max=200"`
	Content string `json:"content" binding:"max=65535"`
}

// SummarizeRequest 无状态摘要代理的入参，content 必填。
type SummarizeRequest struct {
	Title   string `json:"title"`
	Content string `json:"content" binding:"required"`
}
