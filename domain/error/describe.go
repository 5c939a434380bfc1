package domainerror

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/url"
	"syscall"
)

// Transport error codes rendered in the "Code :" line of a failed exchange.
const (
	CodeUnknown             = -1
	CodeCancelled           = -999
	CodeTimedOut            = -1001
	CodeCannotFindHost      = -1003
	CodeCannotConnectToHost = -1004
	CodeConnectionLost      = -1005
	CodeSecureConnection    = -1200
)

// Detailed can be implemented by errors that carry their own rendering details.
type Detailed interface {
	error
	ErrorCode() int
	Reason() string
	Suggestion() string
}

// Description is the human readable breakdown of an exchange error.
type Description struct {
	Code        int
	Description string
	Reason      string
	Suggestion  string
}

// Describe breaks err down into the fields rendered for a failed exchange.
// It never returns an empty Description for a non-nil error.
func Describe(err error) Description {
	if err == nil {
		return Description{}
	}

	d := Description{Code: CodeUnknown, Description: err.Error()}

	var detailed Detailed
	if errors.As(err, &detailed) {
		d.Code = detailed.ErrorCode()
		d.Reason = detailed.Reason()
		d.Suggestion = detailed.Suggestion()
		return d
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		d.Reason = urlErr.Err.Error()
	}

	var (
		dnsErr      *net.DNSError
		netErr      net.Error
		certErr     *tls.CertificateVerificationError
		authErr     x509.UnknownAuthorityError
		hostErr     x509.HostnameError
		recordErr   tls.RecordHeaderError
		invalidCert x509.CertificateInvalidError
	)

	switch {
	case errors.Is(err, context.Canceled):
		d.Code = CodeCancelled
		if d.Reason == "" {
			d.Reason = "the request was cancelled before it completed"
		}
	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()):
		d.Code = CodeTimedOut
		d.Suggestion = "check the network connection or raise the transport timeouts"
	case errors.As(err, &dnsErr):
		d.Code = CodeCannotFindHost
		d.Reason = dnsErr.Err
		d.Suggestion = "check that the host name is spelled correctly"
	case errors.Is(err, syscall.ECONNREFUSED):
		d.Code = CodeCannotConnectToHost
		d.Suggestion = "check that the server is running and reachable"
	case errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE):
		d.Code = CodeConnectionLost
	case errors.As(err, &certErr), errors.As(err, &authErr), errors.As(err, &hostErr),
		errors.As(err, &recordErr), errors.As(err, &invalidCert):
		d.Code = CodeSecureConnection
		d.Suggestion = "verify the server certificate and TLS configuration"
	}

	return d
}
