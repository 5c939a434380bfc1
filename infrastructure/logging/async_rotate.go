package logging

import (
	"io"
	"sync"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"http-sniffer/infrastructure/config"
)

// asyncWriter 异步日志写入器
type asyncWriter struct {
	buffer     chan []byte
	dropOnFull bool
	wg         sync.WaitGroup
	stopCh     chan struct{}
	stopOnce   sync.Once
	writer     zapcore.WriteSyncer
}

// newAsyncWriter 创建异步写入器
func newAsyncWriter(writer zapcore.WriteSyncer, bufferSize int, dropOnFull bool) *asyncWriter {
	if bufferSize <= 0 {
		bufferSize = 10000
	}

	aw := &asyncWriter{
		buffer:     make(chan []byte, bufferSize),
		dropOnFull: dropOnFull,
		stopCh:     make(chan struct{}),
		writer:     writer,
	}

	aw.wg.Add(1)
	go aw.run()

	return aw
}

func (aw *asyncWriter) run() {
	defer aw.wg.Done()

	for {
		select {
		case data := <-aw.buffer:
			_, _ = aw.writer.Write(data)
		case <-aw.stopCh:
			// 刷新剩余数据
			aw.flush()
			return
		}
	}
}

func (aw *asyncWriter) flush() {
	for {
		select {
		case data := <-aw.buffer:
			_, _ = aw.writer.Write(data)
		default:
			return
		}
	}
}

func (aw *asyncWriter) Write(p []byte) (int, error) {
	data := append([]byte(nil), p...)

	select {
	case aw.buffer <- data:
		return len(p), nil
	default:
		if aw.dropOnFull {
			return len(p), nil
		}
		// 阻塞等待
		select {
		case aw.buffer <- data:
		case <-aw.stopCh:
		}
		return len(p), nil
	}
}

func (aw *asyncWriter) Sync() error {
	aw.flush()
	return aw.writer.Sync()
}

func (aw *asyncWriter) Stop() {
	aw.stopOnce.Do(func() {
		close(aw.stopCh)
	})
	aw.wg.Wait()
}

// rotatingWriter 按大小轮转的文件写入器
type rotatingWriter struct {
	*lumberjack.Logger
}

func newRotatingWriter(filename string, cfg *config.Logging) *rotatingWriter {
	return &rotatingWriter{
		Logger: &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    cfg.GetMaxFileSizeMB(), // MB
			MaxAge:     cfg.GetMaxAgeDays(),    // days
			MaxBackups: cfg.GetMaxBackups(),
			Compress:   cfg.Compress,
		},
	}
}

// lumberjack 不需要显式 fsync
func (rw *rotatingWriter) Sync() error {
	return nil
}

// NewRotatingWriter 创建按日志配置轮转的文件写入器，供文件 sink 使用
func NewRotatingWriter(filename string, cfg config.Logging) io.WriteCloser {
	return newRotatingWriter(filename, &cfg)
}
