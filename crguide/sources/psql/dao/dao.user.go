package dao

import (
	"context"
	"errors"
	"time"

	"crguide/crguide/sources/psql/models"

	"gorm.io/gorm"
)

type UserDAO struct {
	DB *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{DB: db}
}

func (dao *UserDAO) GetUserBySubject(ctx context.Context, subject string) (*models.User, error) {
	var user models.User
	err := dao.DB.WithContext(ctx).Where("subject = ?", subject).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// RecordLogin creates the user on first sign-in and refreshes name, picture and login stats after that.
func (dao *UserDAO) RecordLogin(ctx context.Context, subject, email string, fullName, imageURL *string, at time.Time) (*models.User, error) {
	var out *models.User
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Where("subject = ?", subject).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{Subject: subject}
		case err != nil:
			return err
		}
		user.Email = email
		user.FullName = fullName
		user.ImageURL = imageURL
		user.LoginCount++
		user.LastLoginAt = at
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		out = &user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (dao *UserDAO) GetAllUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := dao.DB.WithContext(ctx).Order("last_login_at desc").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
