// internal/pagination/cache.go
package pagination

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/dlmmedia/powerwrite/internal/models"
)

// Cache 全书分页结果的显式记忆化缓存
// 键由章节内容哈希与字号、页面尺寸构成；章节内容或字号变化自然产生新键，
// 旧条目通过 Invalidate/InvalidateBook 显式失效或按容量淘汰
type Cache struct {
	entries map[string]*cacheEntry
	mutex   sync.RWMutex
	maxSize int
}

// cacheEntry 缓存条目
type cacheEntry struct {
	value    BookPagination
	bookKey  string // 所属书籍，用于按书失效
	lastRead time.Time
}

// NewCache 创建分页缓存
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 64 // 默认缓存64份分页结果
	}

	return &Cache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
	}
}

// CacheKey 计算缓存键：FNV-1a 哈希所有章节正文 + 字号 + 页面尺寸
func CacheKey(chapters []models.Chapter, fontSize FontSize, opts PageOptions) string {
	h := fnv.New64a()
	for _, chapter := range chapters {
		h.Write([]byte(chapter.Content))
		h.Write([]byte{0}) // 章节边界，防止拼接歧义
	}
	return fmt.Sprintf("%x:%s:%.0fx%.0f", h.Sum64(), fontSize, opts.Width, opts.Height)
}

// Get 查询缓存
func (c *Cache) Get(key string) (BookPagination, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return BookPagination{}, false
	}

	entry.lastRead = time.Now()
	return entry.value, true
}

// Paginate 带记忆化的全书分页
// 未命中时同步计算并写入缓存；bookID 用于后续按书失效
func (c *Cache) Paginate(bookID string, chapters []models.Chapter, fontSize FontSize, opts PageOptions) BookPagination {
	key := CacheKey(chapters, fontSize, opts)

	if cached, ok := c.Get(key); ok {
		return cached
	}

	result := PaginateBook(chapters, fontSize, opts)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = &cacheEntry{
		value:    result,
		bookKey:  bookID,
		lastRead: time.Now(),
	}
	c.evictOldest()

	return result
}

// Invalidate 显式移除一个缓存键
func (c *Cache) Invalidate(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.entries, key)
}

// InvalidateBook 移除某本书的全部分页缓存
// 章节内容更新后调用，确保所有字号档位的旧结果一并失效
func (c *Cache) InvalidateBook(bookID string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key, entry := range c.entries {
		if entry.bookKey == bookID {
			delete(c.entries, key)
		}
	}
}

// InvalidateAll 清空缓存
func (c *Cache) InvalidateAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]*cacheEntry)
}

// Size 当前缓存条目数
func (c *Cache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.entries)
}

// evictOldest 超出容量时移除最久未读取的条目
// 调用方必须持有写锁
func (c *Cache) evictOldest() {
	for len(c.entries) > c.maxSize {
		var oldestKey string
		var oldestTime time.Time

		for key, entry := range c.entries {
			if oldestKey == "" || entry.lastRead.Before(oldestTime) {
				oldestKey = key
				oldestTime = entry.lastRead
			}
		}

		if oldestKey == "" {
			return
		}
		delete(c.entries, oldestKey)
	}
}
