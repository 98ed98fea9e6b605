package handler

import (
	"errors"

	"github.com/forgo/gather/internal/model"
)

// MapDomainError converts a domain error to a ProblemDetails response for
// the HTTP endpoints. WebSocket requests carry their errors in the response
// Result instead.
func MapDomainError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	switch {
	// ===== Not Found Errors → 404 =====
	case errors.Is(err, model.ErrGroupNotFound):
		return model.NewNotFoundError("group")
	case errors.Is(err, model.ErrEventNotFound):
		return model.NewNotFoundError("event")
	case errors.Is(err, model.ErrUserNotFound):
		return model.NewNotFoundError("user")

	// ===== Validation Errors → 400 =====
	case isValidation(err):
		return model.NewBadRequestError(err.Error())
	}

	return model.NewInternalError("")
}

func isValidation(err error) bool {
	var v *model.ValidationError
	return errors.As(err, &v)
}
