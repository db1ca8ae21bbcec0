package user

import (
	"conveycrm/internal/domain"
	"conveycrm/internal/pkg/pagination"
)

type CreateRequest struct {
	Name     string `json:"name" validate:"required" example:"Alice Agent"`
	Email    string `json:"email" validate:"required,email" example:"alice@example.com"`
	Password string `json:"password" validate:"required,min=8" example:"s3cretpass"`
	Role     string `json:"role" validate:"required" example:"Agent"`
	Status   string `json:"status" example:"Active"`
}

// UpdateRequest changes only the fields that are present.
type UpdateRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email" validate:"omitempty,email"`
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

type ChangePasswordRequest struct {
	NewPassword string `json:"newPassword" example:"an0ther-pass"`
}

type ListParams struct {
	Search string
	Role   domain.UserRole
	Status domain.UserStatus
	Page   pagination.Params
}

type ListResult struct {
	Users      []domain.User   `json:"users"`
	Pagination pagination.Meta `json:"pagination"`
}

type Stats struct {
	TotalUsers    int                     `json:"totalUsers"`
	ActiveUsers   int                     `json:"activeUsers"`
	InactiveUsers int                     `json:"inactiveUsers"`
	UsersByRole   map[domain.UserRole]int `json:"usersByRole"`
}
