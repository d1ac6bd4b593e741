// crguide/controllers/user.go
package controllers

import (
	"context"
	"time"

	"crguide/crguide/services/auth"
	"crguide/crguide/sources/psql/dao"
	"crguide/crguide/sources/psql/models"
)

type UserController struct {
	dao *dao.UserDAO
}

func NewUserController(dao *dao.UserDAO) *UserController {
	return &UserController{dao: dao}
}

// RecordLogin is the gate's login hook: it keeps the profile directory current.
func (c *UserController) RecordLogin(ctx context.Context, p auth.Profile) error {
	subject := p.Subject()
	if subject == "" {
		subject = p.Email()
	}
	_, err := c.dao.RecordLogin(ctx, subject, p.Email(), optional(p.Name()), optional(p.Picture()), time.Now())
	return err
}

func (c *UserController) GetAllUsers(ctx context.Context) ([]models.User, error) {
	return c.dao.GetAllUsers(ctx)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
