package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"os"
)

var (
	ErrNotFound     = fmt.Errorf("item not found:%w", os.ErrNotExist)
	ErrUnauthorized = errors.New("backing api rejected token")
	ErrForbidden    = errors.New("backing api denied permission")
)

type ErrorResponse struct {
	Code        string `json:"code"`
	Status      int    `json:"status"`
	Message     string `json:"message"`
	UserMessage string `json:"userMessage"`
	MoreInfo    string `json:"moreInfo"`
}

// APIError is a non 2xx answer of the backing api.
type APIError struct {
	StatusCode int
	Rsp        *ErrorResponse
}

func (e *APIError) Error() string {
	if e.Rsp == nil || len(e.Rsp.Message) == 0 {
		return fmt.Sprintf("api status code not ok, code:%d", e.StatusCode)
	}
	return fmt.Sprintf("api status code not ok, code:%d, biz:%s, msg:%s", e.StatusCode, e.Rsp.Code, e.Rsp.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	}
	return nil
}
