package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/GazzaBombata/tablebooks/internal/dto"
	"github.com/GazzaBombata/tablebooks/internal/repository"
)

// ── 用户模块业务错误 ──

var ErrUserNotFound = errors.New("用户不存在")

// UserService 用户查询接口
// 用户由外部身份系统写入，本服务只读
type UserService interface {
	GetByID(ctx context.Context, userID string) (*dto.UserBrief, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) GetByID(ctx context.Context, userID string) (*dto.UserBrief, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	return &dto.UserBrief{ID: user.UserID, Name: user.Name, Email: user.Email}, nil
}
