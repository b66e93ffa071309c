package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/sales-api/config"
	"github.com/d60-Lab/sales-api/internal/model"
	"github.com/d60-Lab/sales-api/internal/repository"
)

var (
	// ErrUserExists 用户名或邮箱已注册
	ErrUserExists = errors.New("username or email already taken")
	// ErrBadCredentials 用户名或密码错误
	ErrBadCredentials = errors.New("invalid username or password")
)

// UserService 注册登录（为订单/支付接口提供用户身份）
type UserService interface {
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type userService struct {
	userRepo repository.UserRepository
	jwtCfg   config.JWTConfig
}

// NewUserService 创建用户服务
func NewUserService(userRepo repository.UserRepository, jwtCfg config.JWTConfig) UserService {
	return &userService{userRepo: userRepo, jwtCfg: jwtCfg}
}

func (s *userService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		Role:     model.RoleCustomer,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrBadCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrBadCredentials
	}

	now := time.Now()
	ttl := time.Duration(s.jwtCfg.TTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(user.UserID, 10),
		"role": user.Role,
		"iss":  s.jwtCfg.Issuer,
		"aud":  s.jwtCfg.Audience,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtCfg.Key))
}
