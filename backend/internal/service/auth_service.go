package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/hanzel-sc/iwp-placement-portal/backend/config"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/dto"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/repository"
	pkgerrors "github.com/hanzel-sc/iwp-placement-portal/backend/pkg/errors"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/jwt"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials = pkgerrors.New(pkgerrors.KindAuthentication, 11001, "邮箱或密码错误")
	ErrEmailExists        = pkgerrors.New(pkgerrors.KindConflict, 11002, "该邮箱已注册")
	ErrAccountDisabled    = pkgerrors.New(pkgerrors.KindAuthorization, 11003, "账号已停用或未通过审核")
	ErrInvalidSignupCode  = pkgerrors.New(pkgerrors.KindAuthorization, 11004, "教师注册邀请码无效")
	ErrInvalidRole        = pkgerrors.New(pkgerrors.KindValidation, 11005, "未知的角色")
	ErrPasswordTooLong    = pkgerrors.New(pkgerrors.KindValidation, 11006, "密码过长")
	ErrActorNotFound      = pkgerrors.New(pkgerrors.KindAuthentication, 10007, "账号不存在或已被删除")
)

// PasswordHasher 密码摘要
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher 创建 bcrypt 摘要器，cost 非法时使用默认值
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}
	return string(b), nil
}

func (h *bcryptHasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// TokenBlacklist 注销 Token 的黑名单存储
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthService 认证业务接口
type AuthService interface {
	Register(ctx context.Context, role model.Role, req interface{}) (*dto.RegisterResponse, error)
	Login(ctx context.Context, role model.Role, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	Me(actor model.Actor) *dto.ActorResponse
	// ResolveActor 按 (role, id) 查询实时账号，供鉴权中间件使用
	ResolveActor(ctx context.Context, role model.Role, id string) (model.Actor, error)
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	hasher    PasswordHasher
	blacklist TokenBlacklist
	clock     Clock
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例，blacklist 可为 nil
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	hasher PasswordHasher,
	blacklist TokenBlacklist,
	clock Clock,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		hasher:    hasher,
		blacklist: blacklist,
		clock:     clock,
		logger:    logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ────── Register ──────

func (s *authService) Register(ctx context.Context, role model.Role, req interface{}) (*dto.RegisterResponse, error) {
	actor, password, err := s.buildActor(role, req)
	if err != nil {
		return nil, err
	}

	// 1. 同角色内邮箱唯一
	if _, err := s.repo.Actor.FindByEmail(ctx, role, actor.GetEmail()); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询邮箱失败", zap.String("role", string(role)), zap.Error(err))
		return nil, err
	}

	// 2. 密码摘要
	digest, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			return nil, err
		}
		s.logger.Error("密码摘要失败", zap.Error(err))
		return nil, err
	}
	setPasswordHash(actor, digest)

	// 3. 写入，并发注册由唯一索引兜底
	if err := s.repo.Actor.Create(ctx, actor); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		s.logger.Error("创建账号失败", zap.String("role", string(role)), zap.Error(err))
		return nil, err
	}

	s.logger.Info("账号注册成功",
		zap.String("role", string(role)),
		zap.String("actor_id", actor.GetID()),
	)

	return &dto.RegisterResponse{
		ID:     actor.GetID(),
		Role:   string(role),
		Name:   actor.DisplayName(),
		Email:  actor.GetEmail(),
		Status: actor.GetStatus(),
	}, nil
}

// buildActor 将注册请求转换为模型，返回明文密码
func (s *authService) buildActor(role model.Role, req interface{}) (model.Actor, string, error) {
	switch role {
	case model.RoleCompany:
		r, ok := req.(*dto.CompanyRegisterRequest)
		if !ok {
			return nil, "", ErrInvalidRole
		}
		return &model.Company{
			Name:         strings.TrimSpace(r.Name),
			Email:        normalizeEmail(r.Email),
			Industry:     r.Industry,
			Website:      r.Website,
			ContactPhone: r.ContactPhone,
			Description:  r.Description,
			Status:       model.CompanyStatusPending,
		}, r.Password, nil

	case model.RoleStudent:
		r, ok := req.(*dto.StudentRegisterRequest)
		if !ok {
			return nil, "", ErrInvalidRole
		}
		skills := make([]string, 0, len(r.Skills))
		for _, sk := range r.Skills {
			if sk = strings.TrimSpace(sk); sk != "" {
				skills = append(skills, sk)
			}
		}
		return &model.Student{
			Name:       strings.TrimSpace(r.Name),
			Email:      normalizeEmail(r.Email),
			RollNumber: r.RollNumber,
			Course:     strings.TrimSpace(r.Course),
			Year:       r.Year,
			CGPA:       r.CGPA,
			Phone:      r.Phone,
			Skills:     skills,
			Status:     model.StudentStatusActive,
		}, r.Password, nil

	case model.RoleFaculty:
		r, ok := req.(*dto.FacultyRegisterRequest)
		if !ok {
			return nil, "", ErrInvalidRole
		}
		if code := s.cfg.Auth.FacultySignupCode; code != "" &&
			subtle.ConstantTimeCompare([]byte(code), []byte(r.SignupCode)) != 1 {
			return nil, "", ErrInvalidSignupCode
		}
		return &model.Faculty{
			Name:        strings.TrimSpace(r.Name),
			Email:       normalizeEmail(r.Email),
			Department:  r.Department,
			Designation: r.Designation,
			Status:      model.FacultyStatusActive,
		}, r.Password, nil
	}
	return nil, "", ErrInvalidRole
}

func setPasswordHash(actor model.Actor, digest string) {
	switch a := actor.(type) {
	case *model.Company:
		a.PasswordHash = digest
	case *model.Student:
		a.PasswordHash = digest
	case *model.Faculty:
		a.PasswordHash = digest
	}
}

// ────── Login ──────

func (s *authService) Login(ctx context.Context, role model.Role, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	// 1. 查询账号（不存在与密码错误返回同一错误）
	actor, err := s.repo.Actor.FindByEmail(ctx, role, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询账号失败", zap.String("role", string(role)), zap.Error(err))
		return nil, err
	}

	// 2. 校验密码
	if !s.hasher.Verify(req.Password, actor.GetPasswordHash()) {
		return nil, ErrInvalidCredentials
	}

	// 3. 账号状态
	if !actor.CanLogin() {
		return nil, ErrAccountDisabled
	}

	// 4. 签发 Token
	token, err := s.jwtMgr.GenerateAccessToken(actor.GetID(), string(role))
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	// 5. 记录登录时间（失败不影响登录）
	now := s.clock.Now()
	if err := s.repo.Actor.TouchLastLogin(ctx, role, actor.GetID(), now); err != nil {
		s.logger.Warn("更新最近登录时间失败", zap.String("actor_id", actor.GetID()), zap.Error(err))
	}

	resp := s.Me(actor)
	resp.LastLoginAt = &now

	return &dto.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int(s.jwtMgr.AccessTokenTTL().Seconds()),
		Actor:       *resp,
	}, nil
}

// ────── Logout ──────

// Logout 将 Token 加入黑名单直至过期；未配置 Redis 时仅依赖客户端丢弃 Token
func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	ttl := expiresAt.Sub(s.clock.Now())
	if err := s.blacklist.BlacklistToken(ctx, jti, ttl); err != nil {
		s.logger.Warn("Token 加入黑名单失败", zap.String("jti", jti), zap.Error(err))
	}
	return nil
}

// ────── Me / ResolveActor ──────

func (s *authService) Me(actor model.Actor) *dto.ActorResponse {
	resp := &dto.ActorResponse{
		ID:      actor.GetID(),
		Role:    string(actor.GetRole()),
		Name:    actor.DisplayName(),
		Email:   actor.GetEmail(),
		Status:  actor.GetStatus(),
		Profile: actor,
	}
	switch a := actor.(type) {
	case *model.Company:
		resp.LastLoginAt = a.LastLoginAt
	case *model.Student:
		resp.LastLoginAt = a.LastLoginAt
	case *model.Faculty:
		resp.LastLoginAt = a.LastLoginAt
	}
	return resp
}

func (s *authService) ResolveActor(ctx context.Context, role model.Role, id string) (model.Actor, error) {
	if !role.Valid() {
		return nil, ErrActorNotFound
	}
	actor, err := s.repo.Actor.FindByID(ctx, role, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActorNotFound
		}
		s.logger.Error("解析账号失败", zap.String("role", string(role)), zap.String("actor_id", id), zap.Error(err))
		return nil, err
	}
	return actor, nil
}
