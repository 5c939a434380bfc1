package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"http-sniffer/infrastructure/config"
)

// 日志分类
const (
	CategoryGeneral = "general"
	CategorySystem  = "system"
	CategoryTraffic = "traffic"
)

// 全局日志变量
var (
	GeneralLogger *zap.Logger
	GeneralSugar  *zap.SugaredLogger
	SystemLogger  *zap.Logger
	SystemSugar   *zap.SugaredLogger
	TrafficLogger *zap.Logger
	TrafficSugar  *zap.SugaredLogger

	loggingCfg   *config.Logging
	asyncWriters []*asyncWriter
	fileWriters  []*rotatingWriter
)

var (
	initMu   sync.Mutex
	testMode = false
)

func SetTestMode(enabled bool) {
	testMode = enabled
}

func InitTestLoggers() {
	GeneralLogger, GeneralSugar = createNoOpLogger()
	SystemLogger, SystemSugar = createNoOpLogger()
	TrafficLogger, TrafficSugar = createNoOpLogger()
}

// Init 初始化日志系统
func Init(cfg *config.Config) error {
	initMu.Lock()
	defer initMu.Unlock()
	return initLocked(cfg)
}

func initLocked(cfg *config.Config) error {
	if testMode {
		InitTestLoggers()
		return nil
	}

	baseDir := cfg.Logging.GetBaseDir()
	if cfg.Logging.IsFileEnabled() {
		if err := os.MkdirAll(baseDir, 0755); err != nil {
			return fmt.Errorf("创建日志根目录失败 %s: %w", baseDir, err)
		}
	}

	loggingCfg = &cfg.Logging

	for _, cat := range []string{CategoryGeneral, CategorySystem, CategoryTraffic} {
		logger, err := createCategoryLogger(&cfg.Logging, cat, filepath.Join(baseDir, cat+".log"))
		if err != nil {
			return fmt.Errorf("初始化 %s 日志失败: %w", cat, err)
		}
		switch cat {
		case CategoryGeneral:
			GeneralLogger, GeneralSugar = logger, logger.Sugar()
		case CategorySystem:
			SystemLogger, SystemSugar = logger, logger.Sugar()
		case CategoryTraffic:
			TrafficLogger, TrafficSugar = logger, logger.Sugar()
		}
	}

	return nil
}

// Reload 按新配置重建日志，挂到 config.LoggingConfigChangedFunc 上使用
func Reload(cfg *config.Config) error {
	initMu.Lock()
	defer initMu.Unlock()

	shutdownLocked()
	return initLocked(cfg)
}

func createCategoryLogger(cfg *config.Logging, category, filePath string) (*zap.Logger, error) {
	// 文件编码器配置
	fileEncoderCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var cores []zapcore.Core

	// 文件输出
	if cfg.IsFileEnabled() {
		rw := newRotatingWriter(filePath, cfg)
		fileWriters = append(fileWriters, rw)

		var writer zapcore.WriteSyncer = rw
		if cfg.Async {
			aw := newAsyncWriter(writer, cfg.GetBufferSize(), cfg.DropOnFull)
			asyncWriters = append(asyncWriters, aw)
			writer = aw
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderCfg), writer, parseLevel(cfg.GetLevel())))
	}

	// 控制台输出，trace 本身由 sink 负责打印，traffic 分类不再重复输出到控制台
	if category != CategoryTraffic {
		consoleEncoder := newConsoleEncoder(fileEncoderCfg, cfg.GetColorize())
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), parseLevel(cfg.GetConsoleLevel())))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	core := zapcore.NewTee(cores...)

	// 脱敏处理
	if cfg.ShouldMaskSensitive() {
		core = &maskingCore{Core: core, masker: NewSensitiveDataMasker()}
	}

	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
		zap.Fields(zap.String("category", category)),
	), nil
}

func createNoOpLogger() (*zap.Logger, *zap.SugaredLogger) {
	logger := zap.New(zapcore.NewNopCore())
	return logger, logger.Sugar()
}

func parseLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "dpanic":
		return zapcore.DPanicLevel
	case "panic":
		return zapcore.PanicLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func encodeLevelColor(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch l {
	case zapcore.DebugLevel:
		enc.AppendString("\033[35mDEBUG\033[0m")
	case zapcore.InfoLevel:
		enc.AppendString("\033[32mINFO\033[0m")
	case zapcore.WarnLevel:
		enc.AppendString("\033[33mWARN\033[0m")
	case zapcore.ErrorLevel:
		enc.AppendString("\033[31mERROR\033[0m")
	default:
		enc.AppendString(l.CapitalString())
	}
}

// Shutdown 刷新并关闭所有日志输出
func Shutdown() error {
	initMu.Lock()
	defer initMu.Unlock()
	return shutdownLocked()
}

func shutdownLocked() error {
	var firstErr error
	for _, logger := range []*zap.Logger{GeneralLogger, SystemLogger, TrafficLogger} {
		if logger == nil {
			continue
		}
		if err := logger.Sync(); err != nil && firstErr == nil && !isIgnorableSyncError(err) {
			firstErr = err
		}
	}

	for _, aw := range asyncWriters {
		aw.Stop()
	}
	for _, fw := range fileWriters {
		_ = fw.Close()
	}
	asyncWriters, fileWriters = nil, nil

	return firstErr
}

func isIgnorableSyncError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "sync /dev/stdout") ||
		strings.Contains(errStr, "sync /dev/stderr") ||
		strings.Contains(errStr, "invalid argument") ||
		strings.Contains(errStr, "inappropriate ioctl")
}

func GetLoggingConfig() *config.Logging {
	return loggingCfg
}
