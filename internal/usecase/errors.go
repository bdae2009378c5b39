package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"marketplace/internal/domain/orderflow"
	repo "marketplace/internal/repository"
)

var ErrPaymentVerificationFailed = errors.New("payment verification failed")

type HTTPError struct {
	Status  int
	Message string
	//元のエラー（errors.Isで辿れる）
	Err error
	//未認証ユーザーへの403で立てる
	RequiresVerification bool
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func wrapHTTPError(status int, message string, err error) error {
	return &HTTPError{
		Status:  status,
		Message: message,
		Err:     err,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func dbError(err error) error {
	return wrapHTTPError(http.StatusInternalServerError, "db error", err)
}

func verificationRequired() error {
	return &HTTPError{
		Status:               http.StatusForbidden,
		Message:              "account verification required",
		RequiresVerification: true,
	}
}

// repositoryのエラーをHTTPErrorへ
func repoError(err error) error {
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return wrapHTTPError(http.StatusNotFound, "not found", err)
	case errors.Is(err, repo.ErrConflict):
		return wrapHTTPError(http.StatusConflict, "conflict", err)
	case errors.Is(err, orderflow.ErrInvalidTransition):
		return wrapHTTPError(http.StatusBadRequest, "invalid transition", err)
	}
	return dbError(err)
}
