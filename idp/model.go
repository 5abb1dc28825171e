package idp

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	GrantTypePassword     = "password"
	GrantTypeRefreshToken = "refresh_token"
)

var (
	ErrInvalidGrant = errors.New("invalid grant")
)

type Token struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
}

type ErrorResponse struct {
	Code        string `json:"code"`
	Status      int    `json:"status"`
	Message     string `json:"message"`
	UserMessage string `json:"userMessage"`
	MoreInfo    string `json:"moreInfo"`
}

// Error is a non 200 answer of the token endpoint.
type Error struct {
	StatusCode int
	Rsp        *ErrorResponse
}

func (e *Error) Error() string {
	if e.Rsp == nil || len(e.Rsp.Message) == 0 {
		return fmt.Sprintf("idp status code not ok, code:%d", e.StatusCode)
	}
	return fmt.Sprintf("idp status code not ok, code:%d, biz:%s, msg:%s", e.StatusCode, e.Rsp.Code, e.Rsp.Message)
}

func (e *Error) Unwrap() error {
	if e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnauthorized {
		return ErrInvalidGrant
	}
	return nil
}
