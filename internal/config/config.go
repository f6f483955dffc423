// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

// 当前配置的单例实例
var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
	configFile    string
)

// AppConfig 包含应用程序的所有配置
type AppConfig struct {
	// 基础配置
	Port       string `json:"port"`
	DataDir    string `json:"data_dir"`
	StaticDir  string `json:"static_dir"`
	UploadsDir string `json:"uploads_dir"`
	LogDir     string `json:"log_dir"`
	DebugMode  bool   `json:"debug_mode"`

	// 朗读音频服务配置（TTS 合成与单词级对齐）
	AudioServiceURL string `json:"audio_service_url"`
	AudioServiceKey string `json:"audio_service_key,omitempty"`
	AudioVoice      string `json:"audio_voice"` // 默认朗读音色
}

// Config 存储从环境变量加载的基础配置
type Config struct {
	Port            string
	DataDir         string
	StaticDir       string
	UploadsDir      string
	LogDir          string
	DebugMode       bool
	AudioServiceURL string
	AudioServiceKey string
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 尝试加载.env文件（可选）
	godotenv.Load()

	config := &Config{
		Port:            getEnv("PORT", "8080"),
		DataDir:         getEnvPath("DATA_DIR", "data"),
		StaticDir:       getEnvPath("STATIC_DIR", "static"),
		UploadsDir:      getEnvPath("UPLOADS_DIR", "static/uploads"),
		LogDir:          getEnvPath("LOG_DIR", "logs"),
		DebugMode:       getEnvBool("DEBUG_MODE", true),
		AudioServiceURL: getEnv("AUDIO_SERVICE_URL", ""),
		AudioServiceKey: getEnv("AUDIO_SERVICE_KEY", ""),
	}

	if config.AudioServiceURL == "" {
		// 只记录警告，不返回错误：朗读功能在设置服务地址前不可用
		log.Println("警告: 未设置 AUDIO_SERVICE_URL，朗读音频与对齐功能将不可用")
	}

	return config, nil
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath 获取环境变量表示的路径，如果不存在则返回默认值
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)

	// 确保目录存在
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			fmt.Printf("警告: 创建目录失败 %s: %v\n", path, err)
		}
	}

	return path
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

// InitConfig 初始化配置管理器
func InitConfig(dataDir string) error {
	configFile = filepath.Join(dataDir, "config.json")

	baseConfig, err := Load()
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	currentConfig = &AppConfig{
		Port:            baseConfig.Port,
		DataDir:         baseConfig.DataDir,
		StaticDir:       baseConfig.StaticDir,
		UploadsDir:      baseConfig.UploadsDir,
		LogDir:          baseConfig.LogDir,
		DebugMode:       baseConfig.DebugMode,
		AudioServiceURL: baseConfig.AudioServiceURL,
		AudioServiceKey: baseConfig.AudioServiceKey,
		AudioVoice:      "narrator-f1",
	}

	// 尝试从文件加载已保存的配置
	if _, err := os.Stat(configFile); !os.IsNotExist(err) {
		data, err := os.ReadFile(configFile)
		if err == nil {
			var savedConfig AppConfig
			if json.Unmarshal(data, &savedConfig) == nil {
				// 合并配置：保留文件中的音频服务设置，但路径类配置始终以环境为准
				savedConfig.Port = baseConfig.Port
				savedConfig.DataDir = baseConfig.DataDir
				savedConfig.StaticDir = baseConfig.StaticDir
				savedConfig.UploadsDir = baseConfig.UploadsDir
				savedConfig.LogDir = baseConfig.LogDir
				savedConfig.DebugMode = baseConfig.DebugMode

				// 如果文件中没有服务密钥，使用环境变量的密钥
				if savedConfig.AudioServiceKey == "" {
					savedConfig.AudioServiceKey = baseConfig.AudioServiceKey
				}
				if savedConfig.AudioVoice == "" {
					savedConfig.AudioVoice = "narrator-f1"
				}

				currentConfig = &savedConfig
			}
		}
	}

	// 保存初始配置到文件
	return SaveConfig()
}

// GetCurrentConfig 返回当前配置的副本
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		// 紧急情况，返回一个基本配置
		baseConfig, _ := Load()
		return &AppConfig{
			Port:            baseConfig.Port,
			DataDir:         baseConfig.DataDir,
			StaticDir:       baseConfig.StaticDir,
			UploadsDir:      baseConfig.UploadsDir,
			LogDir:          baseConfig.LogDir,
			DebugMode:       baseConfig.DebugMode,
			AudioServiceURL: baseConfig.AudioServiceURL,
			AudioServiceKey: baseConfig.AudioServiceKey,
			AudioVoice:      "narrator-f1",
		}
	}

	configCopy := *currentConfig
	return &configCopy
}

// UpdateAudioConfig 更新朗读音频服务配置
func UpdateAudioConfig(serviceURL, serviceKey, voice string) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	if currentConfig == nil {
		return fmt.Errorf("配置系统未初始化")
	}

	currentConfig.AudioServiceURL = serviceURL
	currentConfig.AudioServiceKey = serviceKey
	if voice != "" {
		currentConfig.AudioVoice = voice
	}

	return SaveConfig()
}

// SaveConfig 保存当前配置到文件
func SaveConfig() error {
	if currentConfig == nil {
		return fmt.Errorf("没有配置可保存")
	}

	// 确保目录存在
	dir := filepath.Dir(configFile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}

	data, err := json.MarshalIndent(currentConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	return os.WriteFile(configFile, data, 0644)
}
