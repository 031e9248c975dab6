package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/pkg/tokens"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return translate(r.DB.WithContext(ctx).Create(u).Error)
}

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UpdateUser applies column updates and returns the stored row.
func (r *GormRepo) UpdateUser(ctx context.Context, id uint, fields map[string]any) (*models.User, error) {
	if len(fields) > 0 {
		res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.FindUserByID(ctx, id)
}

func (r *GormRepo) SetResetToken(ctx context.Context, id uint, tokenHash string, expiry time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
		"reset_password_token":  tokenHash,
		"reset_password_expire": expiry,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) ClearResetToken(ctx context.Context, id uint) error {
	return translate(r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
		"reset_password_token":  nil,
		"reset_password_expire": nil,
	}).Error)
}

// ConsumeResetToken clears a pending, unexpired reset token and returns its
// owner. The clear is conditional on the token still being stored, so of two
// concurrent consumers only one gets the user back.
func (r *GormRepo) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Where("reset_password_token = ? AND reset_password_expire > ?", tokenHash, now).
		Take(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	if user.ResetTokenHash == nil || !tokens.ResetHashEqual(*user.ResetTokenHash, tokenHash) {
		return nil, ErrNotFound
	}

	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND reset_password_token = ?", user.ID, tokenHash).
		Updates(map[string]any{
			"reset_password_token":  nil,
			"reset_password_expire": nil,
		})
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	user.ResetTokenHash = nil
	user.ResetTokenExpiry = nil
	return &user, nil
}

// DeleteUser removes the user; carts and their orders go with it.
func (r *GormRepo) DeleteUser(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
