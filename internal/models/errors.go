package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/aws/smithy-go"
)

// ConnectivityError is raised by the startup probe. It is fatal to process startup.
type ConnectivityError struct {
	Provider string
	Err      error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s connection failed: %v", e.Provider, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// ServiceError is a rejection or failure reported by the remote API.
type ServiceError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s API error (%s)", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s API error (%s): %s", e.Provider, e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// TransportError is a network or client-library fault before or during streaming.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Classify converts SDK errors into ServiceError or TransportError.
// Retries have already been absorbed by the client before this point.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}

	var svc *ServiceError
	var tr *TransportError
	var conn *ConnectivityError
	if errors.As(err, &svc) || errors.As(err, &tr) || errors.As(err, &conn) {
		return err
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &ServiceError{Provider: provider, Code: apiErr.ErrorCode(), Message: apiErr.ErrorMessage(), Err: err}
	}

	var antErr *anthropic.Error
	if errors.As(err, &antErr) {
		return &ServiceError{Provider: provider, Code: fmt.Sprintf("%d", antErr.StatusCode), Message: antErr.Error(), Err: err}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Provider: provider, Err: err}
	}

	errStr := strings.ToLower(err.Error())

	if containsAny(errStr, "401", "403", "unauthorized", "invalid api key", "api key", "forbidden") {
		return &ServiceError{Provider: provider, Code: "auth", Message: "authentication failed", Err: err}
	}

	if containsAny(errStr, "429", "rate limit", "quota", "too many requests", "throttl") {
		return &ServiceError{Provider: provider, Code: "throttled", Message: "rate limited", Err: err}
	}

	if containsAny(errStr, "context length", "too many tokens", "max tokens", "token limit") {
		return &ServiceError{Provider: provider, Code: "context_length", Message: "context too long", Err: err}
	}

	if containsAny(errStr, "model not found", "404", "not found") {
		return &ServiceError{Provider: provider, Code: "not_found", Message: "model not found", Err: err}
	}

	return &TransportError{Provider: provider, Err: err}
}

// probeError wraps a classified probe failure as a ConnectivityError.
func probeError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ConnectivityError{Provider: provider, Err: Classify(provider, err)}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
