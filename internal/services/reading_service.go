// internal/services/reading_service.go
package services

import (
	"fmt"
	"time"

	"github.com/dlmmedia/powerwrite/internal/errors"
	"github.com/dlmmedia/powerwrite/internal/models"
	"github.com/dlmmedia/powerwrite/internal/storage"
)

// ReadingService 持久化每本书的阅读进度与偏好
// 状态按 bookID 为键保存为JSON，写入时与已有状态合并（部分更新）
type ReadingService struct {
	Storage *storage.FileStorage
}

// NewReadingService 创建阅读状态服务
func NewReadingService(basePath string) *ReadingService {
	if basePath == "" {
		basePath = "data/books"
	}

	fileStorage, err := storage.NewFileStorage(basePath)
	if err != nil {
		fmt.Printf("警告: 创建文件存储失败: %v\n", err)
		fileStorage = nil
	}

	return &ReadingService{Storage: fileStorage}
}

// GetState 读取阅读状态，不存在时返回默认值
func (s *ReadingService) GetState(bookID string) (*models.ReadingState, error) {
	if !s.Storage.DirExists(bookID) {
		return nil, errors.NewNotFoundError(fmt.Sprintf("书籍不存在: %s", bookID), nil)
	}

	state := defaultReadingState(bookID)
	if s.Storage.FileExists(bookID, "reading_state.json") {
		if err := s.Storage.LoadJSONFile(bookID, "reading_state.json", state); err != nil {
			// 状态文件损坏视为从头开始阅读，不作为错误上抛
			state = defaultReadingState(bookID)
		}
	}

	return state, nil
}

// UpdateState 合并写入阅读状态
// 只更新补丁中出现的字段，其余保持原值
func (s *ReadingService) UpdateState(bookID string, patch models.ReadingStatePatch) (*models.ReadingState, error) {
	state, err := s.GetState(bookID)
	if err != nil {
		return nil, err
	}

	if patch.ChapterIndex != nil {
		state.ChapterIndex = *patch.ChapterIndex
	}
	if patch.CurrentPage != nil {
		page := *patch.CurrentPage
		// 左页索引必须是偶数（双页展开）
		if page < 0 {
			page = 0
		}
		state.CurrentPage = page - page%2
	}
	if patch.FontSize != nil {
		state.FontSize = *patch.FontSize
	}
	if patch.Theme != nil {
		state.Theme = *patch.Theme
	}
	if patch.AmbientSound != nil {
		state.AmbientSound = *patch.AmbientSound
	}
	if patch.SoundVolume != nil {
		volume := *patch.SoundVolume
		if volume < 0 {
			volume = 0
		}
		if volume > 1 {
			volume = 1
		}
		state.SoundVolume = volume
	}
	state.UpdatedAt = time.Now()

	if err := s.Storage.SaveJSONFile(bookID, "reading_state.json", state); err != nil {
		return nil, errors.NewProcessingError("保存阅读状态失败", err)
	}

	return state, nil
}

// defaultReadingState 新读者的初始状态
func defaultReadingState(bookID string) *models.ReadingState {
	return &models.ReadingState{
		BookID:       bookID,
		ChapterIndex: 0,
		CurrentPage:  0,
		FontSize:     "base",
		Theme:        "light",
		AmbientSound: "none",
		SoundVolume:  0.5,
	}
}
