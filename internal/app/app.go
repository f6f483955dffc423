// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dlmmedia/powerwrite/internal/api"
	"github.com/dlmmedia/powerwrite/internal/config"
	"github.com/dlmmedia/powerwrite/internal/di"
	"github.com/dlmmedia/powerwrite/internal/services"
	"github.com/dlmmedia/powerwrite/internal/utils"
)

// Server 抽象HTTP服务器，便于测试替换
type Server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App 应用程序实例
type App struct {
	config   *config.AppConfig
	router   http.Handler
	server   Server
	stopChan chan struct{}
}

// 全局应用实例
var instance *App

// GetApp 获取应用单例
func GetApp() *App {
	if instance == nil {
		instance = &App{
			stopChan: make(chan struct{}),
		}
	}
	return instance
}

// Initialize 初始化应用：配置、日志、服务与路由
func Initialize() error {
	baseConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	// 创建数据目录
	for _, dir := range []string{
		baseConfig.DataDir,
		filepath.Join(baseConfig.DataDir, "books"),
		filepath.Join(baseConfig.DataDir, "exports"),
		baseConfig.UploadsDir,
		baseConfig.LogDir,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败 %s: %w", dir, err)
		}
	}

	// 初始化配置系统
	if err := config.InitConfig(baseConfig.DataDir); err != nil {
		return fmt.Errorf("初始化配置系统失败: %w", err)
	}

	app := GetApp()
	app.config = config.GetCurrentConfig()

	// 初始化日志系统
	if err := initLogger(app.config.LogDir); err != nil {
		return fmt.Errorf("初始化日志系统失败: %w", err)
	}

	// 初始化服务
	if err := InitServices(); err != nil {
		return fmt.Errorf("初始化服务失败: %w", err)
	}

	// 设置路由
	router, err := api.SetupRouter()
	if err != nil {
		return fmt.Errorf("设置路由失败: %w", err)
	}
	app.router = router

	return nil
}

// initLogger 初始化结构化日志，输出到按天滚动的日志文件
func initLogger(logDir string) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	logFile := filepath.Join(logDir, "powerwrite-"+time.Now().Format("20060102")+".log")
	return utils.InitLogger(logFile)
}

// InitServices 按依赖顺序初始化所有服务并注册到容器
func InitServices() error {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()

	booksPath := filepath.Join(cfg.DataDir, "books")

	// 基础服务：无内部依赖
	bookService := services.NewBookService(booksPath)
	container.Register("book", bookService)

	citationService := services.NewCitationService(booksPath)
	container.Register("citation", citationService)

	readingService := services.NewReadingService(booksPath)
	container.Register("reading", readingService)

	// 组合服务：依赖书籍服务
	container.Register("audio", services.NewAudioService(bookService))
	container.Register("import", services.NewImportService(bookService))
	container.Register("reader", services.NewReaderService(bookService))

	// 组合服务：依赖书籍与文献服务
	container.Register("export", services.NewExportService(bookService, citationService))
	container.Register("stats", services.NewStatsService(bookService, citationService))

	return nil
}

// Run 启动HTTP服务器并阻塞直到 Stop 被调用
func (a *App) Run() error {
	if a.router == nil {
		return fmt.Errorf("应用未初始化，路由为空")
	}

	if a.server == nil {
		a.server = &http.Server{
			Addr:    ":" + a.config.Port,
			Handler: a.router,
		}
	}

	errChan := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	utils.GetLogger().Infof("服务器已启动，端口 %s", a.config.Port)

	select {
	case err := <-errChan:
		return err
	case <-a.stopChan:
		return a.shutdown()
	}
}

// Stop 触发优雅关闭
func (a *App) Stop() {
	select {
	case <-a.stopChan:
		// 已经关闭
	default:
		close(a.stopChan)
	}
}

// shutdown 在限定时间内关闭服务器
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("关闭服务器失败: %w", err)
	}

	utils.GetLogger().Info("服务器已优雅关闭", nil)
	return nil
}

// Cleanup 释放应用资源
func (a *App) Cleanup() {
	container := di.GetContainer()
	container.Clear()
	instance = nil
}

// GetConfig 返回当前应用配置
func (a *App) GetConfig() *config.AppConfig {
	return a.config
}

// GetDIContainer 返回依赖注入容器
func (a *App) GetDIContainer() *di.Container {
	return di.GetContainer()
}

// IsDebugMode 返回是否处于调试模式
func (a *App) IsDebugMode() bool {
	if a.config == nil {
		return false
	}
	return a.config.DebugMode
}
