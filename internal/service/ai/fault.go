package ai

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/v3"

	"github.com/zhouzirui/maxai/internal/provider/gemini"
)

// FaultKind groups outbound failures by what the user can do about them.
type FaultKind int

const (
	FaultUnknown FaultKind = iota
	FaultInvalidCredential
	FaultNetwork
)

func (k FaultKind) String() string {
	switch k {
	case FaultInvalidCredential:
		return "invalid_credential"
	case FaultNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Fault is a classified outbound failure.
type Fault struct {
	Kind FaultKind
	Err  error
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return f.Kind.String()
	}
	return f.Err.Error()
}

func (f *Fault) Unwrap() error { return f.Err }

// Classify wraps err in a Fault. Structured signals (typed provider errors, status codes,
// net errors) win; the substring patterns only catch errors that arrive as plain text.
func Classify(err error) *Fault {
	if err == nil {
		return nil
	}

	var fault *Fault
	if errors.As(err, &fault) {
		return fault
	}

	return &Fault{Kind: classifyKind(err), Err: err}
}

func classifyKind(err error) FaultKind {
	var geminiErr *gemini.APIError
	if errors.As(err, &geminiErr) {
		if geminiErr.InvalidCredential() {
			return FaultInvalidCredential
		}
		return matchText(err.Error())
	}

	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		if authStatus(openaiErr.StatusCode) {
			return FaultInvalidCredential
		}
		return matchText(err.Error())
	}

	var anthropicErr *anthropicsdk.Error
	if errors.As(err, &anthropicErr) {
		if authStatus(anthropicErr.StatusCode) {
			return FaultInvalidCredential
		}
		return matchText(err.Error())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FaultNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return FaultNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return FaultNetwork
	}

	return matchText(err.Error())
}

func authStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

var (
	credentialPatterns = []string{"API key not valid", "API_KEY_INVALID"}
	networkPatterns    = []string{"fetch", "Network"}
)

// matchText checks credential patterns before network patterns.
func matchText(msg string) FaultKind {
	for _, p := range credentialPatterns {
		if strings.Contains(msg, p) {
			return FaultInvalidCredential
		}
	}
	for _, p := range networkPatterns {
		if strings.Contains(msg, p) {
			return FaultNetwork
		}
	}
	return FaultUnknown
}
