package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrNotFound сопоставляется с ответом 404 через errors.Is.
	ErrNotFound = errors.New("not found")
	// ErrUnexpectedResponse возвращается, если тело ответа не соответствует схеме эндпоинта.
	ErrUnexpectedResponse = errors.New("unexpected gateway response")
)

// Error описывает ответ шлюза с кодом вне диапазона 2xx. Message передаётся вызывающему без изменений.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// Is позволяет сравнивать ошибку 404 с ErrNotFound.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body errorBody
	msg := ""
	if err := json.Unmarshal(raw, &body); err == nil {
		msg = body.Message
		if msg == "" {
			msg = body.Error
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = fmt.Sprintf("gateway: status %d", resp.StatusCode)
	}

	return &Error{StatusCode: resp.StatusCode, Message: msg}
}

func envelopeError(path, field string) error {
	return fmt.Errorf("%w: %s: missing %s", ErrUnexpectedResponse, path, field)
}
