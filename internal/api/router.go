// internal/api/router.go
package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dlmmedia/powerwrite/internal/config"
	"github.com/dlmmedia/powerwrite/internal/di"
	"github.com/dlmmedia/powerwrite/internal/services"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置HTTP路由
func SetupRouter() (*gin.Engine, error) {
	// 获取配置
	cfg := config.GetCurrentConfig()

	// 确保上传目录存在
	os.MkdirAll(cfg.UploadsDir, 0755)

	// 获取依赖注入容器
	container := di.GetContainer()

	// ✅ 只从容器获取服务，不再创建新实例
	bookService, ok := container.Get("book").(*services.BookService)
	if !ok {
		return nil, fmt.Errorf("书籍服务未正确初始化")
	}

	citationService, ok := container.Get("citation").(*services.CitationService)
	if !ok {
		return nil, fmt.Errorf("参考文献服务未正确初始化")
	}

	audioService, ok := container.Get("audio").(*services.AudioService)
	if !ok {
		return nil, fmt.Errorf("音频服务未正确初始化")
	}

	exportService, ok := container.Get("export").(*services.ExportService)
	if !ok {
		return nil, fmt.Errorf("导出服务未正确初始化")
	}

	importService, ok := container.Get("import").(*services.ImportService)
	if !ok {
		return nil, fmt.Errorf("导入服务未正确初始化")
	}

	readingService, ok := container.Get("reading").(*services.ReadingService)
	if !ok {
		return nil, fmt.Errorf("阅读进度服务未正确初始化")
	}

	readerService, ok := container.Get("reader").(*services.ReaderService)
	if !ok {
		return nil, fmt.Errorf("阅读器服务未正确初始化")
	}

	statsService, ok := container.Get("stats").(*services.StatsService)
	if !ok {
		return nil, fmt.Errorf("统计服务未正确初始化")
	}

	// ✅ 创建API处理器 - 只传递从容器获取的服务
	handler := NewHandler(
		bookService,
		citationService,
		audioService,
		exportService,
		importService,
		readingService,
		readerService,
		statsService,
	)

	// 创建路由
	r := gin.Default()

	// 启用CORS
	r.Use(corsMiddleware())

	// HTTPS重定向（生产环境）
	if !cfg.DebugMode {
		r.Use(func(c *gin.Context) {
			if c.Request.Header.Get("X-Forwarded-Proto") != "https" {
				c.Redirect(http.StatusPermanentRedirect,
					"https://"+c.Request.Host+c.Request.URL.Path)
				return
			}
			c.Next()
		})
	}

	// 静态文件服务
	r.Static("/static", cfg.StaticDir)
	r.Static("/uploads", cfg.UploadsDir)

	// 单页应用入口
	r.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(cfg.StaticDir, "index.html"))
	})

	// WebSocket 支持
	r.GET("/ws/books/:id", handler.BookWebSocket)

	// ===============================
	// API路由组
	// ===============================
	api := r.Group("/api")
	api.Use(DefaultRateLimit())
	{
		// ===============================
		// 书籍相关路由
		// ===============================
		booksGroup := api.Group("/books")
		{
			booksGroup.GET("", handler.GetBooks)
			booksGroup.POST("", handler.CreateBook)
			booksGroup.GET("/:id", handler.GetBook)
			booksGroup.PUT("/:id", handler.UpdateBook)
			booksGroup.DELETE("/:id", handler.DeleteBook)
			booksGroup.GET("/:id/stats", handler.GetBookStats)

			// 章节相关路由
			chaptersGroup := booksGroup.Group("/:id/chapters")
			{
				chaptersGroup.GET("", handler.GetChapters)
				chaptersGroup.POST("", handler.CreateChapter)
				chaptersGroup.POST("/import", ImportRateLimit(), handler.ImportChapters)
				chaptersGroup.GET("/:chapter_id", handler.GetChapter)
				chaptersGroup.PUT("/:chapter_id", handler.UpdateChapter)
				chaptersGroup.DELETE("/:chapter_id", handler.DeleteChapter)
				chaptersGroup.PUT("/:chapter_id/reorder", handler.ReorderChapter)

				// 章节插图
				chaptersGroup.GET("/:chapter_id/images", handler.GetChapterImages)
				chaptersGroup.POST("/:chapter_id/images", handler.AddChapterImage)
			}
			booksGroup.DELETE("/:id/images/:image_id", handler.DeleteChapterImage)

			// 参考文献相关路由
			citationsGroup := booksGroup.Group("/:id/citations")
			{
				citationsGroup.GET("", handler.GetCitations)
				citationsGroup.POST("", handler.AddCitation)
				citationsGroup.DELETE("/:citation_id", handler.DeleteCitation)
				citationsGroup.GET("/bibliography", handler.GetBibliography)
			}

			// 阅读器相关路由
			booksGroup.GET("/:id/pagination", handler.GetBookPagination)
			booksGroup.GET("/:id/spread", handler.GetSpread)
			booksGroup.GET("/:id/highlight", handler.GetHighlight)

			// 阅读进度
			booksGroup.GET("/:id/reading-state", handler.GetReadingState)
			booksGroup.PUT("/:id/reading-state", handler.UpdateReadingState)

			// 导出
			booksGroup.GET("/:id/export/:format", handler.ExportBook)
		}

		// ===============================
		// 朗读音频相关路由
		// ===============================
		generateGroup := api.Group("/generate")
		generateGroup.Use(NarrationRateLimit())
		{
			generateGroup.POST("/audio", handler.GenerateAudio)
			generateGroup.POST("/audio/alignment", handler.GenerateAlignment)
		}

		// ===============================
		// 文件上传
		// ===============================
		api.POST("/upload", handler.UploadFile)

		// WebSocket 管理路由
		wsGroup := api.Group("/ws")
		{
			wsGroup.GET("/status", handler.GetWebSocketStatus)
			wsGroup.POST("/cleanup", handler.CleanupWebSocketConnections)
		}
	}

	return r, nil
}

// corsMiddleware 实现跨域资源共享
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
