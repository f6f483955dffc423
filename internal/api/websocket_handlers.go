// internal/api/websocket_handlers.go
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dlmmedia/powerwrite/internal/di"
	"github.com/dlmmedia/powerwrite/internal/models"
	"github.com/dlmmedia/powerwrite/internal/pagination"
	"github.com/dlmmedia/powerwrite/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocketHandler 处理阅读会话 WebSocket 相关的 HTTP 请求
type WebSocketHandler struct {
	bookService    *services.BookService
	readerService  *services.ReaderService
	readingService *services.ReadingService
}

// NewWebSocketHandler 创建 WebSocket 处理器
func NewWebSocketHandler() *WebSocketHandler {
	container := di.GetContainer()

	return &WebSocketHandler{
		bookService:    container.Get("book").(*services.BookService),
		readerService:  container.Get("reader").(*services.ReaderService),
		readingService: container.Get("reading").(*services.ReadingService),
	}
}

// BookWebSocket 处理书籍阅读会话的 WebSocket 连接
// 同一本书的多个阅读端共享翻页与播放进度
func (wh *WebSocketHandler) BookWebSocket(c *gin.Context) {
	bookID := c.Param("id")
	if bookID == "" {
		log.Printf("❌ WebSocket 连接失败：书籍ID缺失")
		http.Error(c.Writer, "书籍ID缺失", http.StatusBadRequest)
		return
	}

	if _, err := wh.bookService.GetBook(bookID); err != nil {
		log.Printf("❌ WebSocket 连接失败：书籍 %s 不存在", bookID)
		http.Error(c.Writer, "书籍不存在", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ 书籍 WebSocket 升级失败: %v", err)
		return
	}
	defer conn.Close()

	// 获取参数
	readerID := c.DefaultQuery("reader_id", "anonymous")

	// 创建客户端
	client := &WebSocketClient{
		conn:      &WebSocketConnWrapper{conn},
		bookID:    bookID,
		readerID:  readerID,
		send:      make(chan []byte, 256),
		closed:    0,
		lastPing:  time.Now(),
		createdAt: time.Now(),
	}

	// 注册客户端
	select {
	case wsManager.register <- client:
		// Success
	default:
		log.Printf("❌ 无法注册 WebSocket 客户端，注册通道已满")
		return
	}

	defer func() {
		// Unregister with timeout to prevent blocking
		done := make(chan bool, 1)
		go func() {
			wsManager.unregister <- client
			done <- true
		}()

		select {
		case <-done:
			// Successfully unregistered
		case <-time.After(5 * time.Second):
			// Timeout - client might not be properly unregistered
			log.Printf("⚠️ WebSocket 客户端注销超时")
		}
	}()

	// 启动读写协程
	go wh.handleWebSocketWrites(client)
	go wh.handleWebSocketReads(client)

	// 发送连接确认消息
	wh.sendWelcomeMessage(client, bookID, readerID)

	// 等待连接关闭
	<-c.Request.Context().Done()
	log.Printf("📱 书籍 %s 的 WebSocket 连接已关闭 (读者: %s)", bookID, readerID)
}

// handleWebSocketReads 处理 WebSocket 读取
func (wh *WebSocketHandler) handleWebSocketReads(client *WebSocketClient) {
	defer func() {
		if !client.IsClosed() {
			select {
			case wsManager.unregister <- client:
			case <-time.After(1 * time.Second):
				log.Printf("⚠️ 读取协程关闭时注销超时")
			}
		}
	}()

	// 设置读取超时和ping处理
	client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.conn.SetPongHandler(func(string) error {
		client.UpdatePing()
		client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if client.IsClosed() {
			break
		}

		// 设置当前读取超时
		client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		_, messageBytes, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ WebSocket 读取错误: %v", err)
			}
			break
		}

		// 解析JSON消息
		var message map[string]interface{}
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			log.Printf("⚠️ JSON解析失败: %v", err)
			continue
		}

		// 更新活跃时间
		client.UpdatePing()

		// 处理收到的消息
		wh.handleMessage(client, message)
	}
}

// handleWebSocketWrites 处理 WebSocket 写入
func (wh *WebSocketHandler) handleWebSocketWrites(client *WebSocketClient) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		// Close send channel gracefully if not already closed
		// Check if client is already marked as closed using atomic operation
		if atomic.CompareAndSwapInt32(&client.closed, 0, 1) {
			// Close send channel safely with panic recovery
			func() {
				defer func() {
					if recover() != nil {
						// Channel was already closed, which is fine
					}
				}()
				close(client.send)
			}()
			// Close the connection after closing the channel
			client.conn.Close()
		} else {
			// Channel might already be marked as closed, but try to close it safely anyway
			// This handles edge cases where multiple goroutines might try to close
			func() {
				defer func() {
					if recover() != nil {
						// Channel was already closed, which is fine
					}
				}()
				close(client.send)
			}()
			// Close the connection
			client.conn.Close()
		}
	}()

	for {
		select {
		case message, ok := <-client.send:
			if client.IsClosed() {
				return
			}

			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed, send close message
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("❌ WebSocket 写入失败: %v", err)
				return
			}

		case <-ticker.C:
			if client.IsClosed() {
				return
			}

			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("❌ WebSocket ping 失败: %v", err)
				return
			}
			client.UpdatePing()

		case <-time.After(60 * time.Second):
			// Emergency timeout check - if nothing received in 60 seconds, close connection
			if client.IsClosed() {
				return
			}
		}
	}
}

// handleMessage 处理收到的 WebSocket 消息
func (wh *WebSocketHandler) handleMessage(client *WebSocketClient, message map[string]interface{}) {
	msgType, ok := message["type"].(string)
	if !ok {
		log.Printf("⚠️ 收到无效的消息类型")
		return
	}

	switch msgType {
	case "reading_position":
		wh.handleReadingPosition(client, message)
	case "playback_position":
		wh.handlePlaybackPosition(client, message)
	case "ping":
		wh.handlePing(client)
	default:
		log.Printf("⚠️ 未知的消息类型: %s", msgType)
	}
}

// handleReadingPosition 处理翻页消息
// 持久化阅读进度并广播给同一本书的其他阅读端
func (wh *WebSocketHandler) handleReadingPosition(client *WebSocketClient, message map[string]interface{}) {
	patch := models.ReadingStatePatch{}

	if chapterIndex, ok := message["chapter_index"].(float64); ok {
		idx := int(chapterIndex)
		patch.ChapterIndex = &idx
	}
	if page, ok := message["page"].(float64); ok {
		p := int(page)
		patch.CurrentPage = &p
	}
	if fontSize, ok := message["font_size"].(string); ok {
		patch.FontSize = &fontSize
	}

	if patch.ChapterIndex == nil && patch.CurrentPage == nil && patch.FontSize == nil {
		wh.sendError(client, "缺少阅读位置信息")
		return
	}

	// nil检查
	if wh.readingService == nil {
		wh.sendError(client, "阅读进度服务不可用")
		return
	}

	state, err := wh.readingService.UpdateState(client.bookID, patch)
	if err != nil {
		wh.sendError(client, "保存阅读进度失败: "+err.Error())
		return
	}

	// 广播新位置
	positionMsg := map[string]interface{}{
		"type":          "reading:position",
		"book_id":       client.bookID,
		"reader_id":     client.readerID,
		"chapter_index": state.ChapterIndex,
		"current_page":  state.CurrentPage,
		"font_size":     state.FontSize,
		"timestamp":     time.Now().Format(time.RFC3339),
	}

	wsManager.BroadcastToBook(client.bookID, positionMsg)
}

// handlePlaybackPosition 处理播放进度消息
// 根据当前播放时间计算高亮状态并回发给发起客户端
func (wh *WebSocketHandler) handlePlaybackPosition(client *WebSocketClient, message map[string]interface{}) {
	chapterID, ok := message["chapter_id"].(string)
	if !ok {
		wh.sendError(client, "缺少章节ID")
		return
	}

	seconds, ok := message["seconds"].(float64)
	if !ok {
		wh.sendError(client, "缺少播放时间")
		return
	}

	chapterIndex := 0
	if idx, ok := message["chapter_index"].(float64); ok {
		chapterIndex = int(idx)
	}

	pageIndex := 0
	if page, ok := message["page"].(float64); ok {
		pageIndex = int(page)
	}

	fontSize := pagination.FontBase
	if fs, ok := message["font_size"].(string); ok {
		fontSize = pagination.FontSize(fs)
	}

	// nil检查
	if wh.readerService == nil {
		wh.sendError(client, "阅读器服务不可用")
		return
	}

	view, err := wh.readerService.GetHighlight(client.bookID, chapterID, chapterIndex, pageIndex, fontSize, seconds)
	if err != nil {
		wh.sendError(client, "计算高亮失败: "+err.Error())
		return
	}

	// 高亮结果只回发给发起客户端，不广播
	highlightMsg := map[string]interface{}{
		"type": "highlight:update",
		"data": map[string]interface{}{
			"chapter_id":        chapterID,
			"page":              pageIndex,
			"current_word":      view.CurrentWordIndex,
			"highlight":         view.Highlight,
			"playback_position": seconds,
		},
	}
	client.SendMessage(highlightMsg)
}

// handlePing 处理ping消息
func (wh *WebSocketHandler) handlePing(client *WebSocketClient) {
	pong := map[string]interface{}{
		"type":      "pong",
		"timestamp": time.Now().Unix(),
	}

	client.SendMessage(pong)
}

// sendWelcomeMessage 发送欢迎消息
func (wh *WebSocketHandler) sendWelcomeMessage(client *WebSocketClient, bookID, readerID string) {
	welcomeMsg := map[string]interface{}{
		"type":      "connected",
		"book_id":   bookID,
		"reader_id": readerID,
		"timestamp": time.Now().Format(time.RFC3339),
		"message":   "WebSocket 连接已建立",
	}

	client.SendMessage(welcomeMsg)
}

// sendError 发送错误消息
func (wh *WebSocketHandler) sendError(client *WebSocketClient, errorMsg string) {
	errorResponse := map[string]interface{}{
		"type":      "error",
		"error":     errorMsg,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	if msgBytes, err := json.Marshal(errorResponse); err == nil {
		select {
		case client.send <- msgBytes:
		default:
			log.Printf("⚠️ 无法发送错误消息到客户端，队列已满")
		}
	}
}
