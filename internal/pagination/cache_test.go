// internal/pagination/cache_test.go
package pagination

import (
	"testing"
)

// TestCacheMemoization 测试相同输入命中缓存
func TestCacheMemoization(t *testing.T) {
	cache := NewCache(0)
	chapters := makeChapters("First chapter.", "Second chapter.")

	first := cache.Paginate("book-1", chapters, FontBase, DefaultPageOptions)
	if cache.Size() != 1 {
		t.Fatalf("首次分页后缓存应该有1条，实际: %d", cache.Size())
	}

	second := cache.Paginate("book-1", chapters, FontBase, DefaultPageOptions)
	if cache.Size() != 1 {
		t.Fatalf("命中缓存不应新增条目，实际: %d", cache.Size())
	}

	if first.TotalBookPages != second.TotalBookPages {
		t.Error("缓存结果与计算结果应该一致")
	}
}

// TestCacheKeyChangesWithContent 测试内容或字号变化产生新键
func TestCacheKeyChangesWithContent(t *testing.T) {
	chapters := makeChapters("Original content.")
	modified := makeChapters("Modified content.")

	baseKey := CacheKey(chapters, FontBase, DefaultPageOptions)

	if CacheKey(modified, FontBase, DefaultPageOptions) == baseKey {
		t.Error("内容变化后缓存键应该不同")
	}
	if CacheKey(chapters, FontLarge, DefaultPageOptions) == baseKey {
		t.Error("字号变化后缓存键应该不同")
	}
	if CacheKey(chapters, FontBase, PageOptions{Width: 300, Height: 400}) == baseKey {
		t.Error("页面尺寸变化后缓存键应该不同")
	}
	if CacheKey(chapters, FontBase, DefaultPageOptions) != baseKey {
		t.Error("相同输入的缓存键应该稳定")
	}
}

// TestCacheKeyChapterBoundary 测试章节边界不产生拼接歧义
func TestCacheKeyChapterBoundary(t *testing.T) {
	a := makeChapters("ab", "c")
	b := makeChapters("a", "bc")

	if CacheKey(a, FontBase, DefaultPageOptions) == CacheKey(b, FontBase, DefaultPageOptions) {
		t.Error("不同章节划分不应产生相同缓存键")
	}
}

// TestCacheInvalidateBook 测试按书失效清掉该书全部字号档位
func TestCacheInvalidateBook(t *testing.T) {
	cache := NewCache(0)
	chapters := makeChapters("Chapter content.")
	other := makeChapters("Other book content.")

	cache.Paginate("book-1", chapters, FontBase, DefaultPageOptions)
	cache.Paginate("book-1", chapters, FontLarge, DefaultPageOptions)
	cache.Paginate("book-2", other, FontBase, DefaultPageOptions)

	if cache.Size() != 3 {
		t.Fatalf("应该有3条缓存，实际: %d", cache.Size())
	}

	cache.InvalidateBook("book-1")

	if cache.Size() != 1 {
		t.Fatalf("按书失效后应该剩1条，实际: %d", cache.Size())
	}

	// 剩下的是另一本书的条目
	if _, ok := cache.Get(CacheKey(other, FontBase, DefaultPageOptions)); !ok {
		t.Error("其他书籍的缓存不应被失效")
	}
}

// TestCacheInvalidateAll 测试全量清空
func TestCacheInvalidateAll(t *testing.T) {
	cache := NewCache(0)
	cache.Paginate("book-1", makeChapters("One."), FontBase, DefaultPageOptions)
	cache.Paginate("book-2", makeChapters("Two."), FontBase, DefaultPageOptions)

	cache.InvalidateAll()

	if cache.Size() != 0 {
		t.Errorf("清空后缓存应该为空，实际: %d", cache.Size())
	}
}

// TestCacheEviction 测试超出容量时淘汰最久未读取的条目
func TestCacheEviction(t *testing.T) {
	cache := NewCache(2)

	first := makeChapters("Entry one.")
	cache.Paginate("book-1", first, FontBase, DefaultPageOptions)
	cache.Paginate("book-2", makeChapters("Entry two."), FontBase, DefaultPageOptions)

	// 刷新第一条的读取时间，让第二条成为最旧
	cache.Get(CacheKey(first, FontBase, DefaultPageOptions))

	cache.Paginate("book-3", makeChapters("Entry three."), FontBase, DefaultPageOptions)

	if cache.Size() != 2 {
		t.Fatalf("缓存容量应该保持2条，实际: %d", cache.Size())
	}
	if _, ok := cache.Get(CacheKey(first, FontBase, DefaultPageOptions)); !ok {
		t.Error("最近读取过的条目不应被淘汰")
	}
}

// TestCacheInvalidateSingleKey 测试单键失效
func TestCacheInvalidateSingleKey(t *testing.T) {
	cache := NewCache(0)
	chapters := makeChapters("Keyed content.")

	cache.Paginate("book-1", chapters, FontBase, DefaultPageOptions)
	key := CacheKey(chapters, FontBase, DefaultPageOptions)

	cache.Invalidate(key)

	if _, ok := cache.Get(key); ok {
		t.Error("失效后的键不应再命中")
	}
}
