package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	domainerror "http-sniffer/domain/error"
)

// 支持的 trace 输出方式
const (
	SinkConsole = "console"
	SinkLogger  = "logger"
	SinkFile    = "file"
	SinkNone    = "none"
)

type Sniffer struct {
	IgnoredDomains     []string `yaml:"ignored_domains"`
	MaxBodyBytes       int      `yaml:"max_body_bytes"` // 0 表示不限制
	Sink               string   `yaml:"sink"`
	SinkFile           string   `yaml:"sink_file,omitempty"`
	Colorize           *bool    `yaml:"colorize,omitempty"`
	RateLimitPerSecond float64  `yaml:"rate_limit_per_second,omitempty"` // 0 表示不限流
	Burst              int      `yaml:"burst,omitempty"`
	ResolveCacheSize   int      `yaml:"resolve_cache_size,omitempty"`
}

func (s *Sniffer) GetSink() string {
	if s.Sink == "" {
		return SinkConsole
	}
	return s.Sink
}

func (s *Sniffer) GetSinkFile() string {
	if s.SinkFile == "" {
		return "./logs/traffic.log"
	}
	return s.SinkFile
}

func (s *Sniffer) GetColorize() bool {
	return s.Colorize == nil || *s.Colorize
}

func (s *Sniffer) GetMaxBodyBytes() int {
	if s.MaxBodyBytes < 0 {
		return 0
	}
	return s.MaxBodyBytes
}

func (s *Sniffer) IsRateLimited() bool {
	return s.RateLimitPerSecond > 0
}

func (s *Sniffer) GetBurst() int {
	if s.Burst <= 0 {
		if s.RateLimitPerSecond >= 1 {
			return int(s.RateLimitPerSecond)
		}
		return 1
	}
	return s.Burst
}

func (s *Sniffer) GetResolveCacheSize() int {
	if s.ResolveCacheSize <= 0 {
		return 256
	}
	return s.ResolveCacheSize
}

type Transport struct {
	ConnectTimeout        time.Duration `yaml:"connect_timeout"`
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout"`
	TotalTimeout          time.Duration `yaml:"total_timeout"`
	KeepAlive             time.Duration `yaml:"keep_alive"`
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout"`
	MaxIdleConns          int           `yaml:"max_idle_conns"`
	MaxConnsPerHost       int           `yaml:"max_conns_per_host"`
	InsecureSkipVerify    bool          `yaml:"insecure_skip_verify,omitempty"`
}

func (t *Transport) GetConnectTimeout() time.Duration {
	if t.ConnectTimeout <= 0 {
		return 10 * time.Second
	}
	return t.ConnectTimeout
}

func (t *Transport) GetResponseHeaderTimeout() time.Duration {
	if t.ResponseHeaderTimeout <= 0 {
		return 60 * time.Second
	}
	return t.ResponseHeaderTimeout
}

// GetTotalTimeout 返回 0 表示由调用方的 context 控制
func (t *Transport) GetTotalTimeout() time.Duration {
	if t.TotalTimeout < 0 {
		return 0
	}
	return t.TotalTimeout
}

func (t *Transport) GetKeepAlive() time.Duration {
	if t.KeepAlive <= 0 {
		return 30 * time.Second
	}
	return t.KeepAlive
}

func (t *Transport) GetIdleConnTimeout() time.Duration {
	if t.IdleConnTimeout <= 0 {
		return 90 * time.Second
	}
	return t.IdleConnTimeout
}

func (t *Transport) GetMaxIdleConns() int {
	if t.MaxIdleConns <= 0 {
		return 100
	}
	return t.MaxIdleConns
}

func (t *Transport) GetMaxConnsPerHost() int {
	if t.MaxConnsPerHost <= 0 {
		return 20
	}
	return t.MaxConnsPerHost
}

type Logging struct {
	Level         string `yaml:"level"`
	ConsoleLevel  string `yaml:"console_level"`
	BaseDir       string `yaml:"base_dir"`
	MaskSensitive *bool  `yaml:"mask_sensitive,omitempty"`
	MaxFileSizeMB int    `yaml:"max_file_size_mb"`
	MaxAgeDays    int    `yaml:"max_age_days,omitempty"`
	MaxBackups    int    `yaml:"max_backups,omitempty"`
	Compress      bool   `yaml:"compress,omitempty"`
	Colorize      *bool  `yaml:"colorize,omitempty"`
	DebugMode     bool   `yaml:"debug_mode,omitempty"`
	Async         bool   `yaml:"async"`
	BufferSize    int    `yaml:"buffer_size"`
	DropOnFull    bool   `yaml:"drop_on_full"`
	FileEnabled   *bool  `yaml:"file_enabled,omitempty"`
}

func (l *Logging) ShouldMaskSensitive() bool {
	return l.MaskSensitive == nil || *l.MaskSensitive
}

func (l *Logging) GetBufferSize() int {
	if l.BufferSize <= 0 {
		return 10000
	}
	return l.BufferSize
}

func (l *Logging) GetMaxFileSizeMB() int {
	if l.MaxFileSizeMB <= 0 {
		return 100
	}
	return l.MaxFileSizeMB
}

func (l *Logging) GetMaxAgeDays() int {
	if l.MaxAgeDays <= 0 {
		return 7
	}
	return l.MaxAgeDays
}

func (l *Logging) GetMaxBackups() int {
	if l.MaxBackups <= 0 {
		return 10
	}
	return l.MaxBackups
}

func (l *Logging) GetBaseDir() string {
	if l.BaseDir == "" {
		return "./logs"
	}
	return l.BaseDir
}

func (l *Logging) GetLevel() string {
	if l.DebugMode {
		return "debug"
	}
	if l.Level == "" {
		return "info"
	}
	return l.Level
}

func (l *Logging) GetConsoleLevel() string {
	if l.ConsoleLevel == "" {
		return l.GetLevel()
	}
	return l.ConsoleLevel
}

func (l *Logging) GetColorize() bool {
	return l.Colorize == nil || *l.Colorize
}

func (l *Logging) IsFileEnabled() bool {
	return l.FileEnabled == nil || *l.FileEnabled
}

type Proxy struct {
	Listen  string `yaml:"listen"`
	Verbose bool   `yaml:"verbose,omitempty"`
}

func (p *Proxy) GetListen() string {
	if p.Listen == "" {
		return ":8080"
	}
	return p.Listen
}

type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

func (m *Metrics) GetPath() string {
	if m.Path == "" {
		return "/metrics"
	}
	return m.Path
}

type Config struct {
	Sniffer   Sniffer   `yaml:"sniffer"`
	Transport Transport `yaml:"transport"`
	Logging   Logging   `yaml:"logging"`
	Proxy     Proxy     `yaml:"proxy"`
	Metrics   Metrics   `yaml:"metrics"`
}

// LoggingConfigChangedFunc is a callback for logging config changes
var LoggingConfigChangedFunc func(*Config) error

type Manager struct {
	config     *Config
	configPath string
	lastMod    time.Time
	mu         sync.RWMutex
	notifyChan chan struct{}
	stopChan   chan struct{}
}

func (cm *Manager) SetConfigForTest(cfg *Config) {
	cm.mu.Lock()
	cm.config = cfg
	cm.mu.Unlock()
}

func NewManager(path string) (*Manager, error) {
	cm := &Manager{configPath: path}
	if err := cm.load(); err != nil {
		return nil, err
	}
	return cm, nil
}

// NewStaticManager 返回不关联文件的 Manager，Watch 不会触发重载
func NewStaticManager(cfg *Config) *Manager {
	if cfg == nil {
		cfg = Default()
	}
	return &Manager{config: cfg}
}

func (cm *Manager) load() error {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return domainerror.NewConfigError("读取配置文件失败", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domainerror.NewConfigError("解析配置文件失败", err)
	}
	if errs := Validate(&cfg); len(errs) > 0 {
		return domainerror.Wrap(errs[0], domainerror.ErrorTypeConfig, domainerror.CodeConfigValidation,
			fmt.Sprintf("配置校验失败 (%d 个错误)", len(errs)))
	}
	stat, err := os.Stat(cm.configPath)
	if err != nil {
		return domainerror.NewConfigError("读取配置文件信息失败", err)
	}
	cm.config = &cfg
	cm.lastMod = stat.ModTime()
	return nil
}

func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	cfg := cm.config
	cm.mu.RUnlock()

	if cm.configPath == "" {
		return cfg
	}
	stat, err := os.Stat(cm.configPath)
	if err != nil {
		return cfg
	}
	// 使用 After 而不是 Equal，兼容不同文件系统的时间精度
	if !stat.ModTime().After(cm.lastMod) {
		return cfg
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()
	if stat, err = os.Stat(cm.configPath); err != nil {
		return cm.config
	}
	if !stat.ModTime().After(cm.lastMod) {
		return cm.config
	}
	cm.tryReloadLocked()
	return cm.config
}

func (cm *Manager) tryReloadLocked() {
	if cm.configPath == "" {
		return
	}
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return
	}
	// 无效配置不替换当前配置
	if errs := Validate(&cfg); len(errs) > 0 {
		return
	}
	stat, err := os.Stat(cm.configPath)
	if err != nil {
		return
	}
	if !stat.ModTime().After(cm.lastMod) {
		return
	}

	oldCfg := cm.config
	loggingChanged := oldCfg == nil || loggingConfigChanged(&oldCfg.Logging, &cfg.Logging)

	cm.config = &cfg
	cm.lastMod = stat.ModTime()

	// 通知配置已变更
	if cm.notifyChan != nil {
		select {
		case cm.notifyChan <- struct{}{}:
		default:
			// 通道已满，跳过
		}
	}

	if loggingChanged && LoggingConfigChangedFunc != nil {
		LoggingConfigChangedFunc(&cfg)
	}
}

// Watch 启动配置文件的监控 goroutine。
// 返回一个通道,当配置文件发生变更时会发送信号。
// 调用 StopWatch() 来停止监控。
func (cm *Manager) Watch() <-chan struct{} {
	return cm.WatchEvery(2 * time.Second)
}

// WatchEvery 与 Watch 相同，但可指定轮询间隔
func (cm *Manager) WatchEvery(interval time.Duration) <-chan struct{} {
	cm.mu.Lock()
	cm.notifyChan = make(chan struct{}, 1)
	cm.stopChan = make(chan struct{}, 1)
	notify, stop := cm.notifyChan, cm.stopChan
	cm.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				cm.mu.Lock()
				cm.tryReloadLocked()
				cm.mu.Unlock()
			}
		}
	}()

	return notify
}

// StopWatch 停止配置文件的监控。
func (cm *Manager) StopWatch() {
	cm.mu.RLock()
	stop := cm.stopChan
	cm.mu.RUnlock()

	if stop != nil {
		select {
		case stop <- struct{}{}:
		default:
		}
	}
}

func loggingConfigChanged(old, new *Logging) bool {
	if old.GetLevel() != new.GetLevel() || old.GetConsoleLevel() != new.GetConsoleLevel() {
		return true
	}
	if old.GetColorize() != new.GetColorize() || old.BaseDir != new.BaseDir {
		return true
	}
	if old.ShouldMaskSensitive() != new.ShouldMaskSensitive() {
		return true
	}
	if old.MaxFileSizeMB != new.MaxFileSizeMB || old.MaxAgeDays != new.MaxAgeDays {
		return true
	}
	if old.MaxBackups != new.MaxBackups || old.Compress != new.Compress {
		return true
	}
	return false
}

var validLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

func Validate(cfg *Config) []error {
	var errors []error

	switch cfg.Sniffer.GetSink() {
	case SinkConsole, SinkLogger, SinkFile, SinkNone:
	default:
		errors = append(errors, fmt.Errorf("不支持的 sink: %s", cfg.Sniffer.Sink))
	}

	if cfg.Sniffer.MaxBodyBytes < 0 {
		errors = append(errors, fmt.Errorf("max_body_bytes 不能为负数: %d", cfg.Sniffer.MaxBodyBytes))
	}
	if cfg.Sniffer.RateLimitPerSecond < 0 {
		errors = append(errors, fmt.Errorf("rate_limit_per_second 不能为负数: %v", cfg.Sniffer.RateLimitPerSecond))
	}
	if cfg.Sniffer.Burst < 0 {
		errors = append(errors, fmt.Errorf("burst 不能为负数: %d", cfg.Sniffer.Burst))
	}

	for i, d := range cfg.Sniffer.IgnoredDomains {
		if d == "" {
			errors = append(errors, fmt.Errorf("ignored_domains #%d 为空", i+1))
		}
	}

	if !validLevels[cfg.Logging.GetLevel()] {
		errors = append(errors, fmt.Errorf("无效的日志级别: %s", cfg.Logging.Level))
	}
	if !validLevels[cfg.Logging.GetConsoleLevel()] {
		errors = append(errors, fmt.Errorf("无效的控制台日志级别: %s", cfg.Logging.ConsoleLevel))
	}

	return errors
}
