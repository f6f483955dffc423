// internal/services/audio_service.go
package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dlmmedia/powerwrite/internal/audiosync"
	"github.com/dlmmedia/powerwrite/internal/config"
	"github.com/dlmmedia/powerwrite/internal/errors"
	"github.com/dlmmedia/powerwrite/internal/models"
	"github.com/go-resty/resty/v2"
)

// AudioService 对接外部朗读服务：TTS合成与单词级对齐
// 本服务只做薄封装，音频本体由外部服务存储，这里只持久化地址与时间戳
type AudioService struct {
	BookService *BookService
	client      *resty.Client
}

// synthesizeRequest TTS合成请求
type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// synthesizeResponse TTS合成响应
type synthesizeResponse struct {
	AudioURL string  `json:"audio_url"`
	Duration float64 `json:"duration"`
}

// alignRequest 单词级对齐请求
type alignRequest struct {
	AudioURL string `json:"audio_url"`
	Text     string `json:"text"`
}

// alignResponse 单词级对齐响应
type alignResponse struct {
	Timestamps []models.AudioTimestamp `json:"timestamps"`
}

// NewAudioService 创建朗读音频服务
func NewAudioService(bookService *BookService) *AudioService {
	client := resty.New().
		SetTimeout(120 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(3 * time.Second).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			// 尊重限流方给出的 Retry-After
			if resp.StatusCode() == http.StatusTooManyRequests {
				if retryAfter := resp.Header().Get("Retry-After"); retryAfter != "" {
					if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
						return seconds, nil
					}
				}
				return 3 * time.Second, nil
			}
			return 0, nil
		}).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests
		})

	return &AudioService{
		BookService: bookService,
		client:      client,
	}
}

// IsConfigured 朗读服务是否已配置
func (s *AudioService) IsConfigured() bool {
	return config.GetCurrentConfig().AudioServiceURL != ""
}

// GenerateNarration 为章节生成朗读音频
// 成功后将音频地址与时长写回章节；旧的对齐数据随之失效
func (s *AudioService) GenerateNarration(ctx context.Context, bookID, chapterID string) (*models.Chapter, error) {
	cfg := config.GetCurrentConfig()
	if cfg.AudioServiceURL == "" {
		return nil, errors.NewValidationError("未配置朗读音频服务", nil)
	}

	chapter, err := s.BookService.GetChapter(bookID, chapterID)
	if err != nil {
		return nil, err
	}
	if chapter.Content == "" {
		return nil, errors.NewValidationError("章节正文为空，无法生成朗读", nil)
	}

	var result synthesizeResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(cfg.AudioServiceKey).
		SetBody(synthesizeRequest{Text: chapter.Content, Voice: cfg.AudioVoice}).
		SetResult(&result).
		Post(cfg.AudioServiceURL + "/v1/synthesize")
	if err != nil {
		return nil, errors.NewUpstreamError("调用朗读合成服务失败", err)
	}
	if resp.IsError() {
		return nil, errors.NewUpstreamError(
			fmt.Sprintf("朗读合成服务返回错误: %d", resp.StatusCode()), nil)
	}
	if result.AudioURL == "" {
		return nil, errors.NewUpstreamError("朗读合成服务未返回音频地址", nil)
	}

	if err := s.BookService.SetChapterAudio(bookID, chapterID, result.AudioURL, result.Duration); err != nil {
		return nil, err
	}

	return s.BookService.GetChapter(bookID, chapterID)
}

// AlignChapter 为已有朗读音频的章节补齐单词级时间戳
// 对应 POST /api/generate/audio/alignment
func (s *AudioService) AlignChapter(ctx context.Context, bookID, chapterID string) ([]models.AudioTimestamp, error) {
	cfg := config.GetCurrentConfig()
	if cfg.AudioServiceURL == "" {
		return nil, errors.NewValidationError("未配置朗读音频服务", nil)
	}

	chapter, err := s.BookService.GetChapter(bookID, chapterID)
	if err != nil {
		return nil, err
	}
	if chapter.AudioURL == "" {
		return nil, errors.NewValidationError("章节尚未生成朗读音频，无法对齐", nil)
	}

	var result alignResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(cfg.AudioServiceKey).
		SetBody(alignRequest{AudioURL: chapter.AudioURL, Text: chapter.Content}).
		SetResult(&result).
		Post(cfg.AudioServiceURL + "/v1/align")
	if err != nil {
		return nil, errors.NewUpstreamError("调用对齐服务失败", err)
	}
	if resp.IsError() {
		return nil, errors.NewUpstreamError(
			fmt.Sprintf("对齐服务返回错误: %d", resp.StatusCode()), nil)
	}

	// 校验时间戳有序性，坏数据拒绝落盘
	if bad := audiosync.ValidateTimestamps(result.Timestamps); bad >= 0 {
		return nil, errors.NewUpstreamError(
			fmt.Sprintf("对齐服务返回的时间戳无效（第 %d 条）", bad), nil)
	}

	if err := s.BookService.SetChapterTimestamps(bookID, chapterID, result.Timestamps); err != nil {
		return nil, err
	}

	return result.Timestamps, nil
}
