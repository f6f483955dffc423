// internal/services/book_service.go
package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dlmmedia/powerwrite/internal/errors"
	"github.com/dlmmedia/powerwrite/internal/models"
	"github.com/dlmmedia/powerwrite/internal/pagination"
	"github.com/dlmmedia/powerwrite/internal/storage"
	"github.com/dlmmedia/powerwrite/internal/utils"
	"github.com/google/uuid"
)

// BookData 包含一本书及其全部关联数据
type BookData struct {
	Book     models.Book           `json:"book"`
	Chapters []models.Chapter      `json:"chapters"`
	Images   []models.ChapterImage `json:"images"`
}

// BookService 处理书籍与章节相关的业务逻辑
type BookService struct {
	BasePath  string
	Storage   *storage.FileStorage
	PageCache *pagination.Cache // 章节内容变化时显式失效

	// 并发控制
	bookLocks   sync.Map // bookID -> *sync.RWMutex
	listCache   *cachedBookList
	cacheMutex  sync.RWMutex
	cacheExpiry time.Duration
}

// cachedBookList 缓存的书架列表
type cachedBookList struct {
	Books     []models.BookMetadata
	Timestamp time.Time
}

// NewBookService 创建书籍服务
func NewBookService(basePath string) *BookService {
	if basePath == "" {
		basePath = "data/books"
	}

	fileStorage, err := storage.NewFileStorage(basePath)
	if err != nil {
		fmt.Printf("警告: 创建文件存储失败: %v\n", err)
		fileStorage = nil
	}

	return &BookService{
		BasePath:    basePath,
		Storage:     fileStorage,
		PageCache:   pagination.NewCache(0),
		cacheExpiry: 5 * time.Minute,
	}
}

// 获取书籍锁
func (s *BookService) getBookLock(bookID string) *sync.RWMutex {
	value, _ := s.bookLocks.LoadOrStore(bookID, &sync.RWMutex{})
	return value.(*sync.RWMutex)
}

// generateID 生成时间有序的唯一ID
func generateID() string {
	if u, err := uuid.NewV7(); err == nil {
		return u.String()
	}
	// V7失败时退回V4（仅在系统时钟异常时发生）
	return uuid.NewString()
}

// CreateBook 创建一本新书
func (s *BookService) CreateBook(title, author, description, genre string) (*models.Book, error) {
	if strings.TrimSpace(title) == "" {
		return nil, errors.NewValidationError("书名不能为空", nil)
	}

	book := &models.Book{
		ID:          generateID(),
		Title:       strings.TrimSpace(title),
		Author:      strings.TrimSpace(author),
		Description: description,
		Genre:       genre,
		Status:      "draft",
		CreatedAt:   time.Now(),
		LastUpdated: time.Now(),
	}

	lock := s.getBookLock(book.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.Storage.SaveJSONFile(book.ID, "book.json", book); err != nil {
		return nil, errors.NewProcessingError("保存书籍数据失败", err)
	}
	if err := s.Storage.SaveJSONFile(book.ID, "chapters.json", []models.Chapter{}); err != nil {
		return nil, errors.NewProcessingError("初始化章节列表失败", err)
	}

	s.invalidateListCache()

	return book, nil
}

// GetBook 获取书籍
func (s *BookService) GetBook(bookID string) (*models.Book, error) {
	lock := s.getBookLock(bookID)
	lock.RLock()
	defer lock.RUnlock()

	return s.loadBook(bookID)
}

// loadBook 读取书籍元数据，调用方负责加锁
func (s *BookService) loadBook(bookID string) (*models.Book, error) {
	if !s.Storage.DirExists(bookID) {
		return nil, errors.NewNotFoundError(fmt.Sprintf("书籍不存在: %s", bookID), nil)
	}

	var book models.Book
	if err := s.Storage.LoadJSONFile(bookID, "book.json", &book); err != nil {
		return nil, errors.NewProcessingError("读取书籍数据失败", err)
	}

	return &book, nil
}

// ListBooks 列出所有书籍（书架视图）
func (s *BookService) ListBooks() ([]models.BookMetadata, error) {
	// 检查列表缓存
	s.cacheMutex.RLock()
	if s.listCache != nil && time.Since(s.listCache.Timestamp) < s.cacheExpiry {
		books := s.listCache.Books
		s.cacheMutex.RUnlock()
		return books, nil
	}
	s.cacheMutex.RUnlock()

	dirs, err := s.Storage.ListDirs("")
	if err != nil {
		return nil, errors.NewProcessingError("读取书籍目录失败", err)
	}

	books := make([]models.BookMetadata, 0, len(dirs))
	for _, dir := range dirs {
		var book models.Book
		if err := s.Storage.LoadJSONFile(dir, "book.json", &book); err != nil {
			// 跳过损坏的条目，不中断整个列表
			continue
		}

		books = append(books, models.BookMetadata{
			ID:           book.ID,
			Title:        book.Title,
			Author:       book.Author,
			CoverURL:     book.CoverURL,
			Status:       book.Status,
			CreatedAt:    book.CreatedAt,
			LastUpdated:  book.LastUpdated,
			ChapterCount: book.ChapterCount,
			WordCount:    book.WordCount,
		})
	}

	// 最近更新的排在前面
	sort.Slice(books, func(i, j int) bool {
		return books[i].LastUpdated.After(books[j].LastUpdated)
	})

	s.cacheMutex.Lock()
	s.listCache = &cachedBookList{Books: books, Timestamp: time.Now()}
	s.cacheMutex.Unlock()

	return books, nil
}

// UpdateBook 更新书籍元数据，空字段保持原值
func (s *BookService) UpdateBook(bookID, title, author, description, genre, status, coverURL string) (*models.Book, error) {
	lock := s.getBookLock(bookID)
	lock.Lock()
	defer lock.Unlock()

	book, err := s.loadBook(bookID)
	if err != nil {
		return nil, err
	}

	if title != "" {
		book.Title = strings.TrimSpace(title)
	}
	if author != "" {
		book.Author = strings.TrimSpace(author)
	}
	if description != "" {
		book.Description = description
	}
	if genre != "" {
		book.Genre = genre
	}
	if status != "" {
		book.Status = status
	}
	if coverURL != "" {
		book.CoverURL = coverURL
	}
	book.LastUpdated = time.Now()

	if err := s.Storage.SaveJSONFile(bookID, "book.json", book); err != nil {
		return nil, errors.NewProcessingError("保存书籍数据失败", err)
	}

	s.invalidateListCache()

	return book, nil
}

// DeleteBook 删除书籍及其全部章节、插图与缓存
func (s *BookService) DeleteBook(bookID string) error {
	lock := s.getBookLock(bookID)
	lock.Lock()
	defer lock.Unlock()

	if !s.Storage.DirExists(bookID) {
		return errors.NewNotFoundError(fmt.Sprintf("书籍不存在: %s", bookID), nil)
	}

	if err := s.Storage.DeleteDir(bookID); err != nil {
		return errors.NewProcessingError("删除书籍失败", err)
	}

	s.PageCache.InvalidateBook(bookID)
	s.invalidateListCache()
	s.bookLocks.Delete(bookID)

	return nil
}

// ------------------------------------------------
// 章节管理
// ------------------------------------------------

// loadChapters 读取章节列表，调用方负责加锁
func (s *BookService) loadChapters(bookID string) ([]models.Chapter, error) {
	if !s.Storage.DirExists(bookID) {
		return nil, errors.NewNotFoundError(fmt.Sprintf("书籍不存在: %s", bookID), nil)
	}

	var chapters []models.Chapter
	if err := s.Storage.LoadJSONFile(bookID, "chapters.json", &chapters); err != nil {
		return nil, errors.NewProcessingError("读取章节列表失败", err)
	}

	return chapters, nil
}

// saveChapters 写回章节列表并同步书籍统计，调用方负责加锁
func (s *BookService) saveChapters(bookID string, chapters []models.Chapter) error {
	if err := s.Storage.SaveJSONFile(bookID, "chapters.json", chapters); err != nil {
		return errors.NewProcessingError("保存章节列表失败", err)
	}

	// 同步书籍元数据中的章节数与总词数
	book, err := s.loadBook(bookID)
	if err != nil {
		return err
	}

	totalWords := 0
	for _, chapter := range chapters {
		totalWords += chapter.WordCount
	}
	book.ChapterCount = len(chapters)
	book.WordCount = totalWords
	book.LastUpdated = time.Now()

	if err := s.Storage.SaveJSONFile(bookID, "book.json", book); err != nil {
		return errors.NewProcessingError("保存书籍数据失败", err)
	}

	// 章节内容变化后，该书所有字号档位的分页缓存都作废
	s.PageCache.InvalidateBook(bookID)
	s.invalidateListCache()

	return nil
}

// ListChapters 获取章节目录（不含正文）
func (s *BookService) ListChapters(bookID string) ([]models.ChapterMetadata, error) {
	lock := s.getBookLock(bookID)
	lock.RLock()
	defer lock.RUnlock()

	chapters, err := s.loadChapters(bookID)
	if err != nil {
		return nil, err
	}

	metadata := make([]models.ChapterMetadata, 0, len(chapters))
	for i := range chapters {
		metadata = append(metadata, chapters[i].Metadata())
	}

	return metadata, nil
}

// GetChapters 获取全部章节（含正文），供分页与导出使用
func (s *BookService) GetChapters(bookID string) ([]models.Chapter, error) {
	lock := s.getBookLock(bookID)
	lock.RLock()
	defer lock.RUnlock()

	return s.loadChapters(bookID)
}

// GetChapter 获取单个章节
func (s *BookService) GetChapter(bookID, chapterID string) (*models.Chapter, error) {
	lock := s.getBookLock(bookID)
	lock.RLock()
	defer lock.RUnlock()

	chapters, err := s.loadChapters(bookID)
	if err != nil {
		return nil, err
	}

	for i := range chapters {
		if chapters[i].ID == chapterID {
			return &chapters[i], nil
		}
	}

	return nil, errors.NewNotFoundError(fmt.Sprintf("章节不存在: %s", chapterID), nil)
}

// CreateChapter 在书末追加一个新章节
func (s *BookService) CreateChapter(bookID, title, content string) (*models.Chapter, error) {
	if strings.TrimSpace(title) == "" {
		return nil, errors.NewValidationError("章节标题不能为空", nil)
	}

	lock := s.getBookLock(bookID)
	lock.Lock()
	defer lock.Unlock()

	chapters, err := s.loadChapters(bookID)
	if err != nil {
		return nil, err
	}

	chapter := models.Chapter{
		ID:          generateID(),
		BookID:      bookID,
		Number:      len(chapters) + 1,
		Title:       strings.TrimSpace(title),
		Content:     content,
		WordCount:   utils.CountWords(content),
		Status:      "draft",
		CreatedAt:   time.Now(),
		LastUpdated: time.Now(),
	}

	chapters = append(chapters, chapter)
	if err := s.saveChapters(bookID, chapters); err != nil {
		return nil, err
	}

	return &chapter, nil
}

// UpdateChapter 更新章节标题/正文/状态，空字段保持原值
// 正文更新会清空已有的音频对齐数据（对齐与旧文本绑定）
func (s *BookService) UpdateChapter(bookID, chapterID, title, content, status string) (*models.Chapter, error) {
	lock := s.getBookLock(bookID)
	lock.Lock()
	defer lock.Unlock()

	chapters, err := s.loadChapters(bookID)
	if err != nil {
		return nil, err
	}

	for i := range chapters {
		if chapters[i].ID != chapterID {
			continue
		}

		if title != "" {
			chapters[i].Title = strings.TrimSpace(title)
		}
		if content != "" && content != chapters[i].Content {
			chapters[i].Content = content
			chapters[i].WordCount = utils.CountWords(content)
			// 旧音频与对齐数据对新文本无效
			chapters[i].AudioURL = ""
			chapters[i].AudioDuration = 0
			chapters[i].AudioTimestamps = nil
		}
		if status != "" {
			chapters[i].Status = status
		}
		chapters[i].LastUpdated = time.Now()

		if err := s.saveChapters(bookID, chapters); err != nil {
			return nil, err
		}
		return &chapters[i], nil
	}

	return nil, errors.NewNotFoundError(fmt.Sprintf("章节不存在: %s", chapterID), nil)
}

// DeleteChapter 删除章节并为后续章节重新编号
func (s *BookService) DeleteChapter(bookID, chapterID string) error {
	lock := s.getBookLock(bookID)
	lock.Lock()
	defer lock.Unlock()

	chapters, err := s.loadChapters(bookID)
	if err != nil {
		return err
	}

	found := false
	remaining := make([]models.Chapter, 0, len(chapters))
	for _, chapter := range chapters {
		if chapter.ID == chapterID {
			found = true
			continue
		}
		remaining = append(remaining, chapter)
	}

	if !found {
		return errors.NewNotFoundError(fmt.Sprintf("章节不存在: %s", chapterID), nil)
	}

	// 重新编号
	for i := range remaining {
		remaining[i].Number = i + 1
	}

	return s.saveChapters(bookID, remaining)
}

// ReorderChapter 将章节移动到指定序号（1起始），其余章节顺延
func (s *BookService) ReorderChapter(bookID, chapterID string, newNumber int) error {
	lock := s.getBookLock(bookID)
	lock.Lock()
	defer lock.Unlock()

	chapters, err := s.loadChapters(bookID)
	if err != nil {
		return err
	}

	fromIndex := -1
	for i := range chapters {
		if chapters[i].ID == chapterID {
			fromIndex = i
			break
		}
	}
	if fromIndex < 0 {
		return errors.NewNotFoundError(fmt.Sprintf("章节不存在: %s", chapterID), nil)
	}

	toIndex := newNumber - 1
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex >= len(chapters) {
		toIndex = len(chapters) - 1
	}

	moved := chapters[fromIndex]
	chapters = append(chapters[:fromIndex], chapters[fromIndex+1:]...)
	chapters = append(chapters[:toIndex], append([]models.Chapter{moved}, chapters[toIndex:]...)...)

	for i := range chapters {
		chapters[i].Number = i + 1
	}

	return s.saveChapters(bookID, chapters)
}

// SetChapterAudio 记录章节的朗读音频地址与时长
func (s *BookService) SetChapterAudio(bookID, chapterID, audioURL string, duration float64) error {
	lock := s.getBookLock(bookID)
	lock.Lock()
	defer lock.Unlock()

	chapters, err := s.loadChapters(bookID)
	if err != nil {
		return err
	}

	for i := range chapters {
		if chapters[i].ID == chapterID {
			chapters[i].AudioURL = audioURL
			chapters[i].AudioDuration = duration
			// 旧的对齐数据对新音频无效
			chapters[i].AudioTimestamps = nil
			chapters[i].LastUpdated = time.Now()
			return s.saveChapters(bookID, chapters)
		}
	}

	return errors.NewNotFoundError(fmt.Sprintf("章节不存在: %s", chapterID), nil)
}

// SetChapterTimestamps 记录章节的单词级对齐时间戳
func (s *BookService) SetChapterTimestamps(bookID, chapterID string, timestamps []models.AudioTimestamp) error {
	lock := s.getBookLock(bookID)
	lock.Lock()
	defer lock.Unlock()

	chapters, err := s.loadChapters(bookID)
	if err != nil {
		return err
	}

	for i := range chapters {
		if chapters[i].ID == chapterID {
			chapters[i].AudioTimestamps = timestamps
			chapters[i].LastUpdated = time.Now()
			return s.saveChapters(bookID, chapters)
		}
	}

	return errors.NewNotFoundError(fmt.Sprintf("章节不存在: %s", chapterID), nil)
}

// ------------------------------------------------
// 章节插图
// ------------------------------------------------

// AddImage 为章节登记一张插图
func (s *BookService) AddImage(bookID, chapterID, url, caption string, position, width int) (*models.ChapterImage, error) {
	if url == "" {
		return nil, errors.NewValidationError("插图地址不能为空", nil)
	}

	lock := s.getBookLock(bookID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.loadBook(bookID); err != nil {
		return nil, err
	}

	images := s.loadImages(bookID)

	image := models.ChapterImage{
		ID:        generateID(),
		ChapterID: chapterID,
		URL:       url,
		Caption:   caption,
		Position:  position,
		Width:     width,
		CreatedAt: time.Now(),
	}
	images = append(images, image)

	if err := s.Storage.SaveJSONFile(bookID, "images.json", images); err != nil {
		return nil, errors.NewProcessingError("保存插图列表失败", err)
	}

	return &image, nil
}

// ListImages 列出章节的全部插图（按段落位置排序）
func (s *BookService) ListImages(bookID, chapterID string) []models.ChapterImage {
	lock := s.getBookLock(bookID)
	lock.RLock()
	defer lock.RUnlock()

	var result []models.ChapterImage
	for _, image := range s.loadImages(bookID) {
		if chapterID == "" || image.ChapterID == chapterID {
			result = append(result, image)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})

	return result
}

// DeleteImage 移除插图登记
func (s *BookService) DeleteImage(bookID, imageID string) error {
	lock := s.getBookLock(bookID)
	lock.Lock()
	defer lock.Unlock()

	images := s.loadImages(bookID)
	remaining := make([]models.ChapterImage, 0, len(images))
	found := false
	for _, image := range images {
		if image.ID == imageID {
			found = true
			continue
		}
		remaining = append(remaining, image)
	}

	if !found {
		return errors.NewNotFoundError(fmt.Sprintf("插图不存在: %s", imageID), nil)
	}

	if err := s.Storage.SaveJSONFile(bookID, "images.json", remaining); err != nil {
		return errors.NewProcessingError("保存插图列表失败", err)
	}

	return nil
}

// loadImages 读取插图列表，文件不存在时返回空列表
func (s *BookService) loadImages(bookID string) []models.ChapterImage {
	var images []models.ChapterImage
	if s.Storage.FileExists(bookID, "images.json") {
		if err := s.Storage.LoadJSONFile(bookID, "images.json", &images); err != nil {
			return nil
		}
	}
	return images
}

// invalidateListCache 清除书架列表缓存
func (s *BookService) invalidateListCache() {
	s.cacheMutex.Lock()
	s.listCache = nil
	s.cacheMutex.Unlock()
}
