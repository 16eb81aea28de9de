package dao

import (
	"smartnote/model"

	"gorm.io/gorm"
)

// NoteDAO 所有查询都带 user_id 条件：行级归属在数据访问层强制，
// 写操作返回影响行数，越权访问由上层按"不存在"处理，而不是静默过滤。
type NoteDAO struct {
	db *gorm.DB
}

// NewNoteDAO 创建一个新的 NoteDAO 实例
func NewNoteDAO(db *gorm.DB) *NoteDAO {
	return &NoteDAO{db: db}
}

// CreateNote 创建新笔记
func (dao *NoteDAO) CreateNote(note *model.Note) error {
	return dao.db.Create(note).Error
}

// ListByUser 返回用户全部笔记，按 updated_at 倒序
func (dao *NoteDAO) ListByUser(userID uint64) ([]model.Note, error) {
	var notes []model.Note
	err := dao.db.Where("user_id = ?", userID).Order("updated_at DESC").Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// GetByID 按 id + user_id 获取单条笔记
func (dao *NoteDAO) GetByID(id, userID uint64) (*model.Note, error) {
	var note model.Note
	err := dao.db.Where("id = ? AND user_id = ?", id, userID).First(&note).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// UpdateContent 更新标题与正文，不触碰 summary；返回影响行数。
func (dao *NoteDAO) UpdateContent(id, userID uint64, title, content string) (int64, error) {
	res := dao.db.Model(&model.Note{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"title": title, "content": content})
	return res.RowsAffected, res.Error
}

// UpdateSummary 只更新 summary 列；摘要持久化与编辑保存互不覆盖。
func (dao *NoteDAO) UpdateSummary(id, userID uint64, summary string) (int64, error) {
	res := dao.db.Model(&model.Note{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("summary", summary)
	return res.RowsAffected, res.Error
}

// DeleteNote 硬删除；返回影响行数
func (dao *NoteDAO) DeleteNote(id, userID uint64) (int64, error) {
	res := dao.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Note{})
	return res.RowsAffected, res.Error
}
