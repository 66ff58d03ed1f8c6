package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/vnkhanh/cogload-backend/apperr"
	"github.com/vnkhanh/cogload-backend/models"
)

// AuthorizeAdmin is the first call of every admin operation.
func AuthorizeAdmin(actor *models.User) error {
	if actor == nil {
		return apperr.Unauthorized("authentication required")
	}
	if !actor.IsAdmin {
		return apperr.Forbidden("admin access required")
	}
	return nil
}

func requireUser(user *models.User) error {
	if user == nil {
		return apperr.Unauthorized("authentication required")
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
