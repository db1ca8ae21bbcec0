package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RevokedTokenRepository remembers signed-out access tokens until they expire.
type RevokedTokenRepository struct {
	db *gorm.DB
}

func NewRevokedTokenRepository(db *gorm.DB) *RevokedTokenRepository {
	return &RevokedTokenRepository{db: db}
}

type revokedTokenModel struct {
	JTI       string    `gorm:"column:jti;primaryKey;size:64"`
	UserID    string    `gorm:"column:user_id;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;index"`
	RevokedAt time.Time `gorm:"column:revoked_at"`
}

func (revokedTokenModel) TableName() string { return "revoked_tokens" }

func (r *RevokedTokenRepository) Revoke(ctx context.Context, jti, userID string, expiresAt, now time.Time) error {
	m := revokedTokenModel{JTI: jti, UserID: userID, ExpiresAt: expiresAt, RevokedAt: now}
	return conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error
}

func (r *RevokedTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&revokedTokenModel{}).Where("jti = ?", jti).Count(&count).Error
	return count > 0, err
}

// DeleteExpired drops entries whose token could no longer validate anyway.
func (r *RevokedTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := conn(ctx, r.db).Where("expires_at < ?", now).Delete(&revokedTokenModel{})
	return res.RowsAffected, res.Error
}
