// internal/services/reading_service_test.go
package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dlmmedia/powerwrite/internal/errors"
	"github.com/dlmmedia/powerwrite/internal/models"
)

// newTestReadingService 创建阅读状态服务并建好书籍目录
func newTestReadingService(t *testing.T, bookID string) *ReadingService {
	t.Helper()

	basePath := t.TempDir()
	if err := os.MkdirAll(filepath.Join(basePath, bookID), 0755); err != nil {
		t.Fatalf("创建书籍目录失败: %v", err)
	}

	return NewReadingService(basePath)
}

func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }
func floatPtr(v float64) *float64 { return &v }

// TestGetStateDefaults 测试新读者拿到默认状态
func TestGetStateDefaults(t *testing.T) {
	svc := newTestReadingService(t, "book-1")

	state, err := svc.GetState("book-1")
	if err != nil {
		t.Fatalf("读取阅读状态失败: %v", err)
	}

	if state.ChapterIndex != 0 || state.CurrentPage != 0 {
		t.Errorf("默认进度应该从头开始: %+v", state)
	}
	if state.FontSize != "base" {
		t.Errorf("默认字号应该是base，实际: %s", state.FontSize)
	}
	if state.Theme != "light" {
		t.Errorf("默认主题应该是light，实际: %s", state.Theme)
	}
	if state.AmbientSound != "none" {
		t.Errorf("默认环境音应该是none，实际: %s", state.AmbientSound)
	}
	if state.SoundVolume != 0.5 {
		t.Errorf("默认音量应该是0.5，实际: %f", state.SoundVolume)
	}
}

// TestGetStateMissingBook 测试不存在的书籍
func TestGetStateMissingBook(t *testing.T) {
	svc := NewReadingService(t.TempDir())

	if _, err := svc.GetState("ghost-book"); !errors.IsNotFoundError(err) {
		t.Errorf("不存在的书籍应该返回NotFound，实际: %v", err)
	}
}

// TestUpdateStateMerge 测试补丁只更新出现的字段
func TestUpdateStateMerge(t *testing.T) {
	svc := newTestReadingService(t, "book-1")

	if _, err := svc.UpdateState("book-1", models.ReadingStatePatch{
		ChapterIndex: intPtr(3),
		Theme:        strPtr("sepia"),
	}); err != nil {
		t.Fatalf("更新阅读状态失败: %v", err)
	}

	state, err := svc.UpdateState("book-1", models.ReadingStatePatch{
		FontSize: strPtr("large"),
	})
	if err != nil {
		t.Fatalf("更新阅读状态失败: %v", err)
	}

	if state.ChapterIndex != 3 {
		t.Errorf("未出现在补丁中的章节索引应该保持原值，实际: %d", state.ChapterIndex)
	}
	if state.Theme != "sepia" {
		t.Errorf("未出现在补丁中的主题应该保持原值，实际: %s", state.Theme)
	}
	if state.FontSize != "large" {
		t.Errorf("字号应该被更新，实际: %s", state.FontSize)
	}
}

// TestUpdateStateEvenPage 测试左页索引收敛为偶数
func TestUpdateStateEvenPage(t *testing.T) {
	svc := newTestReadingService(t, "book-1")

	cases := []struct {
		in   int
		want int
	}{
		{0, 0},
		{1, 0},
		{2, 2},
		{7, 6},
		{-4, 0},
	}

	for _, tc := range cases {
		state, err := svc.UpdateState("book-1", models.ReadingStatePatch{
			CurrentPage: intPtr(tc.in),
		})
		if err != nil {
			t.Fatalf("更新阅读状态失败: %v", err)
		}
		if state.CurrentPage != tc.want {
			t.Errorf("页码%d应该收敛为%d，实际: %d", tc.in, tc.want, state.CurrentPage)
		}
	}
}

// TestUpdateStateVolumeClamp 测试音量收敛到[0,1]
func TestUpdateStateVolumeClamp(t *testing.T) {
	svc := newTestReadingService(t, "book-1")

	state, err := svc.UpdateState("book-1", models.ReadingStatePatch{
		SoundVolume: floatPtr(1.8),
	})
	if err != nil {
		t.Fatalf("更新阅读状态失败: %v", err)
	}
	if state.SoundVolume != 1 {
		t.Errorf("超出上限的音量应该收敛为1，实际: %f", state.SoundVolume)
	}

	state, _ = svc.UpdateState("book-1", models.ReadingStatePatch{
		SoundVolume: floatPtr(-0.3),
	})
	if state.SoundVolume != 0 {
		t.Errorf("低于下限的音量应该收敛为0，实际: %f", state.SoundVolume)
	}
}

// TestUpdateStatePersisted 测试状态写盘后能重新读出
func TestUpdateStatePersisted(t *testing.T) {
	svc := newTestReadingService(t, "book-1")

	if _, err := svc.UpdateState("book-1", models.ReadingStatePatch{
		ChapterIndex: intPtr(2),
		CurrentPage:  intPtr(4),
		AmbientSound: strPtr("rain"),
	}); err != nil {
		t.Fatalf("更新阅读状态失败: %v", err)
	}

	state, err := svc.GetState("book-1")
	if err != nil {
		t.Fatalf("读取阅读状态失败: %v", err)
	}
	if state.ChapterIndex != 2 || state.CurrentPage != 4 || state.AmbientSound != "rain" {
		t.Errorf("持久化的状态不一致: %+v", state)
	}
	if state.UpdatedAt.IsZero() {
		t.Error("更新时间应该被记录")
	}
}
