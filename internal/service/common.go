// Package service holds the application's business logic between the HTTP
// handlers and the repositories.
package service

import (
	"vividplate/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// Actor is the authenticated caller of an owner-scoped operation.
type Actor struct {
	UserID  uint
	IsAdmin bool
}

// CanManage reports whether the actor may mutate a restaurant.
func (a Actor) CanManage(r *models.Restaurant) bool {
	return a.IsAdmin || (a.UserID != 0 && r.UserID == a.UserID)
}

func requireManage(a Actor, r *models.Restaurant) error {
	if !a.CanManage(r) {
		return models.NewForbiddenError("You do not manage this restaurant")
	}
	return nil
}

// bcryptCost is lowered by tests.
var bcryptCost = bcrypt.DefaultCost

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hashed), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
