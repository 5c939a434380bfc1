package domainerror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

type detailedErr struct{}

func (detailedErr) Error() string      { return "quota exceeded" }
func (detailedErr) ErrorCode() int     { return 42 }
func (detailedErr) Reason() string     { return "too many calls" }
func (detailedErr) Suggestion() string { return "slow down" }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestDescribe(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantCode       int
		wantReason     string
		wantSuggestion bool
	}{
		{
			name:     "plain error",
			err:      errors.New("boom"),
			wantCode: CodeUnknown,
		},
		{
			name:       "cancelled",
			err:        &url.Error{Op: "Get", URL: "http://a", Err: context.Canceled},
			wantCode:   CodeCancelled,
			wantReason: "context canceled",
		},
		{
			name:       "bare cancellation",
			err:        context.Canceled,
			wantCode:   CodeCancelled,
			wantReason: "the request was cancelled before it completed",
		},
		{
			name:           "deadline",
			err:            &url.Error{Op: "Get", URL: "http://a", Err: context.DeadlineExceeded},
			wantCode:       CodeTimedOut,
			wantReason:     context.DeadlineExceeded.Error(),
			wantSuggestion: true,
		},
		{
			name:           "net timeout",
			err:            &url.Error{Op: "Get", URL: "http://a", Err: timeoutErr{}},
			wantCode:       CodeTimedOut,
			wantReason:     "i/o timeout",
			wantSuggestion: true,
		},
		{
			name:           "dns",
			err:            &url.Error{Op: "Get", URL: "http://nope", Err: &net.OpError{Op: "dial", Err: &net.DNSError{Err: "no such host", Name: "nope"}}},
			wantCode:       CodeCannotFindHost,
			wantReason:     "no such host",
			wantSuggestion: true,
		},
		{
			name:           "refused",
			err:            fmt.Errorf("dial: %w", syscall.ECONNREFUSED),
			wantCode:       CodeCannotConnectToHost,
			wantSuggestion: true,
		},
		{
			name:           "detailed",
			err:            fmt.Errorf("wrapped: %w", detailedErr{}),
			wantCode:       42,
			wantReason:     "too many calls",
			wantSuggestion: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Describe(tt.err)
			assert.Equal(t, tt.wantCode, d.Code)
			assert.Equal(t, tt.err.Error(), d.Description)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, d.Reason)
			}
			assert.Equal(t, tt.wantSuggestion, d.Suggestion != "")
		})
	}
}

func TestDescribe_Nil(t *testing.T) {
	assert.Equal(t, Description{}, Describe(nil))
}

func TestSnifferError(t *testing.T) {
	t.Run("Error returns message without cause", func(t *testing.T) {
		err := New(ErrorTypeExchange, CodeStopped, "stopped")
		assert.Equal(t, "[exchange:INTERCEPTION_STOPPED] stopped", err.Error())
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("disk full")
		err := NewConfigError("load", cause)
		assert.Same(t, cause, errors.Unwrap(err))
	})

	t.Run("Is matches by code", func(t *testing.T) {
		err := NewInvalidTransition("completed", "data")
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.NotErrorIs(t, err, ErrStopped)
		assert.True(t, IsType(err, ErrorTypeExchange))
		assert.True(t, IsCode(fmt.Errorf("ctx: %w", err), CodeInvalidTransition))
	})
}
