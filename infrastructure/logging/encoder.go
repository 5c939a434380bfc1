package logging

import (
	"fmt"
	"regexp"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"http-sniffer/domain/port"
)

// maskingCore 脱敏核心
type maskingCore struct {
	zapcore.Core
	masker *SensitiveDataMasker
}

func (c *maskingCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	entry.Message = c.masker.Mask(entry.Message)
	masked := make([]zapcore.Field, len(fields))
	copy(masked, fields)
	for i := range masked {
		if masked[i].Type == zapcore.StringType {
			masked[i].String = c.masker.Mask(masked[i].String)
		}
	}
	return c.Core.Write(entry, masked)
}

func (c *maskingCore) With(fields []zapcore.Field) zapcore.Core {
	return &maskingCore{Core: c.Core.With(fields), masker: c.masker}
}

func (c *maskingCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

// SensitiveDataMasker 敏感数据脱敏器
type SensitiveDataMasker struct{}

func NewSensitiveDataMasker() *SensitiveDataMasker {
	return &SensitiveDataMasker{}
}

var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)([a-zA-Z0-9\-_.=]{16,})`),
	regexp.MustCompile(`(?i)(basic\s+)([a-zA-Z0-9+/=]{12,})`),
	regexp.MustCompile(`(?i)(api[_-]?key["\s:=]+)([a-zA-Z0-9\-_]{16,})`),
	regexp.MustCompile(`(?i)(password["\s:=]+)([^\s&"]{8,})`),
	regexp.MustCompile(`(?i)(token["\s:=]+)([a-zA-Z0-9\-_.]{16,})`),
	regexp.MustCompile(`(?i)(secret["\s:=]+)([a-zA-Z0-9\-_]{16,})`),
}

func (m *SensitiveDataMasker) Mask(data string) string {
	result := data
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			if len(match) > 8 {
				return match[:4] + "****" + match[len(match)-4:]
			}
			return "****"
		})
	}
	return result
}

// MaskSensitiveData 使用默认脱敏器处理字符串
func MaskSensitiveData(data string) string {
	return NewSensitiveDataMasker().Mask(data)
}

var exchangePalette = []string{
	"\033[96m", "\033[93m", "\033[92m", "\033[95m",
	"\033[94m", "\033[91m", "\033[36m", "\033[33m",
}

// exchangeColors 为最近的 exchange 分配稳定的颜色
type exchangeColors struct {
	recent *lru.Cache[string, string]
	next   atomic.Uint64
}

func newExchangeColors(size int) *exchangeColors {
	cache, _ := lru.New[string, string](size)
	return &exchangeColors{recent: cache}
}

func (c *exchangeColors) colorFor(id string) string {
	if id == "" {
		return ""
	}
	if color, ok := c.recent.Get(id); ok {
		return color
	}
	color := exchangePalette[(c.next.Add(1)-1)%uint64(len(exchangePalette))]
	c.recent.Add(id, color)
	return color
}

// consoleEncoder 单行控制台编码器: 时间 | 级别 | exchange | 消息 [字段]
type consoleEncoder struct {
	zapcore.Encoder
	colored bool
	colors  *exchangeColors
}

func newConsoleEncoder(cfg zapcore.EncoderConfig, colored bool) zapcore.Encoder {
	cfg.EncodeLevel = encodeLevelColor
	return &consoleEncoder{
		Encoder: zapcore.NewConsoleEncoder(cfg),
		colored: colored,
		colors:  newExchangeColors(32),
	}
}

func (enc *consoleEncoder) Clone() zapcore.Encoder {
	return &consoleEncoder{
		Encoder: enc.Encoder.Clone(),
		colored: enc.colored,
		colors:  enc.colors,
	}
}

func (enc *consoleEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := buffer.NewPool().Get()

	enc.writeColored(line, "\033[90m", entry.Time.Format("15:04:05"))
	line.AppendString(" | ")
	enc.writeColored(line, levelColor(entry.Level), fmt.Sprintf("%5s", entry.Level.CapitalString()))
	line.AppendString(" | ")

	var exchangeID string
	rest := make([]zapcore.Field, 0, len(fields))
	for _, field := range fields {
		switch field.Key {
		case port.FieldExchangeID:
			exchangeID = field.String
		case "category":
		default:
			rest = append(rest, field)
		}
	}

	if exchangeID != "" {
		short := exchangeID
		if len(short) > 8 {
			short = short[:8]
		}
		enc.writeColored(line, enc.colors.colorFor(exchangeID), short)
		line.AppendString(" | ")
	}

	line.AppendString(entry.Message)

	if len(rest) > 0 {
		line.AppendString(" [")
		for i, field := range rest {
			if i > 0 {
				line.AppendString(", ")
			}
			enc.writeColored(line, "\033[90m", field.Key)
			line.AppendByte('=')
			enc.writeColored(line, "\033[33m", fieldValueString(field))
		}
		line.AppendByte(']')
	}

	line.AppendString(zapcore.DefaultLineEnding)
	return line, nil
}

func (enc *consoleEncoder) writeColored(line *buffer.Buffer, color, s string) {
	if enc.colored && color != "" {
		line.AppendString(color)
		line.AppendString(s)
		line.AppendString("\033[0m")
		return
	}
	line.AppendString(s)
}

func levelColor(l zapcore.Level) string {
	switch l {
	case zapcore.DebugLevel:
		return "\033[35m"
	case zapcore.InfoLevel:
		return "\033[32m"
	case zapcore.WarnLevel:
		return "\033[33m"
	default:
		return "\033[31m"
	}
}

func fieldValueString(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", field.Integer)
	case zapcore.BoolType:
		if field.Integer == 1 {
			return "true"
		}
		return "false"
	case zapcore.DurationType:
		return time.Duration(field.Integer).String()
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok {
			return err.Error()
		}
		return ""
	default:
		if field.Interface != nil {
			return fmt.Sprint(field.Interface)
		}
		return field.String
	}
}
