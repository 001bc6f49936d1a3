package auth

import (
	"errors"

	"github.com/christianlm/todolist/internal/models"
)

var ErrForbidden = errors.New("not enough permissions")

// Authorize allows a mutation only when the acting account owns the target
// resource. Todo handlers never call this: they narrow the query by owner id
// instead, so a foreign todo looks absent rather than forbidden.
func Authorize(actor *models.User, ownerID uint) error {
	if actor == nil || actor.ID != ownerID {
		return ErrForbidden
	}
	return nil
}
