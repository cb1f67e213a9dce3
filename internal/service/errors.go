package service

import (
	"errors"

	"github.com/prperemyshlev/statboard/internal/apperror"
	"github.com/prperemyshlev/statboard/internal/repository"
)

// ErrInvalidSession is returned when a refresh token cannot be rotated
var ErrInvalidSession = errors.New("invalid session")

// translate maps repository errors onto the API taxonomy for resource
func translate(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperror.Wrap(err, apperror.CodeNotFound, resource+" "+apperror.MsgNotFound)
	case errors.Is(err, repository.ErrDuplicate):
		return apperror.Wrap(err, apperror.CodeConflict, resource+" "+apperror.MsgConflict)
	case errors.Is(err, repository.ErrInvalidInput):
		return apperror.Wrap(err, apperror.CodeValidation, apperror.MsgIncorrectID)
	default:
		return apperror.Internal(err)
	}
}
