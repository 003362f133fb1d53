package domain

import (
	"errors"
	"strings"
)

var (
	// ErrNoCredential is returned when an operation needs a stored token.
	ErrNoCredential = errors.New("no access token configured")
	// ErrUnknownScope is returned when a scope is neither "all" nor a loaded account.
	ErrUnknownScope = errors.New("unknown ad account scope")
)

// graphOAuthCode is the Graph API error code for invalid or expired tokens.
const graphOAuthCode = 190

// RemoteDataError is any failure reported by the ad metrics provider.
// Error returns the provider message unchanged.
type RemoteDataError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    int    `json:"code,omitempty"`
	TraceID string `json:"fbtrace_id,omitempty"`
}

func NewRemoteDataError(message string) *RemoteDataError {
	return &RemoteDataError{Message: message}
}

func (e *RemoteDataError) Error() string { return e.Message }

type ErrorKind int

const (
	KindTransient ErrorKind = iota
	KindAuth
)

func (k ErrorKind) String() string {
	if k == KindAuth {
		return "auth"
	}
	return "transient"
}

var authPhrases = []string{
	"error validating access token",
	"invalid access token",
	"invalid oauth access token",
	"session has been invalidated",
	"session invalidated",
	"session has expired",
	"session expired",
}

// Classify splits provider failures into credential failures and everything else.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindTransient
	}
	var rde *RemoteDataError
	if errors.As(err, &rde) && rde.Code == graphOAuthCode {
		return KindAuth
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range authPhrases {
		if strings.Contains(msg, phrase) {
			return KindAuth
		}
	}
	return KindTransient
}

func IsAuthError(err error) bool {
	return err != nil && Classify(err) == KindAuth
}
