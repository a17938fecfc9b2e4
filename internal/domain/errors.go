package domain

import (
	"errors"
	"fmt"
)

var (
	ErrArticleNotFound     = errors.New("article not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("username already taken")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrSourceNotRegistered = errors.New("news source is not registered")
)

// NetworkError wraps a failed outbound call (listing, article page or model endpoint).
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError reports a response whose structure does not match what the parser expects.
type ParseError struct {
	URL     string
	Element string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s (%s): %v", e.URL, e.Element, e.Err)
	}
	return fmt.Sprintf("parse %s: missing %s", e.URL, e.Element)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DomainMismatchError rejects an article URL outside the source site's domains.
type DomainMismatchError struct {
	URL  string
	Host string
	Site string
}

func (e *DomainMismatchError) Error() string {
	return fmt.Sprintf("url %s (host %q) does not belong to site %s", e.URL, e.Host, e.Site)
}

// ClassifierFault is returned when the model answers outside the label set.
type ClassifierFault struct {
	Response string
}

func (e *ClassifierFault) Error() string {
	return fmt.Sprintf("classifier returned unexpected label %q", e.Response)
}

// SummaryFormatError is returned when the summary response is not the expected JSON object.
type SummaryFormatError struct {
	Response string
	Err      error
}

func (e *SummaryFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed summary %q: %v", truncate(e.Response, 120), e.Err)
	}
	return fmt.Sprintf("malformed summary %q", truncate(e.Response, 120))
}

func (e *SummaryFormatError) Unwrap() error { return e.Err }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
