package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/repository"
	pkgerrors "github.com/hanzel-sc/iwp-placement-portal/backend/pkg/errors"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/storage"
)

// ── 简历模块业务错误 ──

var (
	ErrResumeInvalidType = pkgerrors.New(pkgerrors.KindValidation, 16001, "简历仅支持 PDF / DOC / DOCX")
	ErrResumeTooLarge    = pkgerrors.New(pkgerrors.KindValidation, 16002, "简历文件过大")
	ErrStorageDisabled   = pkgerrors.New(pkgerrors.KindDependency, 16003, "文件存储未启用")
)

// 允许的简历扩展名 → Content-Type
var resumeTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ResumeUpload 简历上传参数
type ResumeUpload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// StudentService 学生资料业务接口
type StudentService interface {
	UploadResume(ctx context.Context, studentID string, maxBytes int64, in ResumeUpload) (string, error)
}

type studentService struct {
	repo    *repository.Repository
	storage storage.Storage
	clock   Clock
	logger  *zap.Logger
}

// NewStudentService 创建 StudentService 实例，store 为 nil 时上传不可用
func NewStudentService(repo *repository.Repository, store storage.Storage, clock Clock, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, storage: store, clock: clock, logger: logger}
}

// ResumeContentType 按扩展名返回简历的 Content-Type，不支持时返回空串
func ResumeContentType(filename string) string {
	return resumeTypes[strings.ToLower(filepath.Ext(filename))]
}

func (s *studentService) UploadResume(ctx context.Context, studentID string, maxBytes int64, in ResumeUpload) (string, error) {
	if s.storage == nil {
		return "", ErrStorageDisabled
	}
	contentType := ResumeContentType(in.Filename)
	if contentType == "" {
		return "", ErrResumeInvalidType
	}
	if maxBytes > 0 && in.Size > maxBytes {
		return "", ErrResumeTooLarge
	}

	stu, err := s.repo.Actor.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrStudentNotFound
		}
		return "", err
	}
	previous := stu.ResumeURL

	// resumes/{student_id}/{yyyymmdd}-{uuid}.ext
	key := fmt.Sprintf("resumes/%s/%s-%s%s",
		studentID,
		s.clock.Now().Format("20060102"),
		uuid.NewString(),
		strings.ToLower(filepath.Ext(in.Filename)),
	)
	if err := s.storage.Save(ctx, key, in.Body, contentType); err != nil {
		s.logger.Error("保存简历失败", zap.String("student_id", studentID), zap.Error(err))
		return "", err
	}

	url := s.storage.URL(key)
	if err := s.repo.Actor.UpdateResumeURL(ctx, studentID, url); err != nil {
		// 记录未更新时回收已上传文件
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Warn("回收简历文件失败", zap.String("key", key), zap.Error(delErr))
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrStudentNotFound
		}
		s.logger.Error("更新简历地址失败", zap.String("student_id", studentID), zap.Error(err))
		return "", err
	}

	// 旧文件删除失败只记录，不影响本次上传
	if oldKey, ok := storage.KeyOf(s.storage, previous); ok && oldKey != key {
		if err := s.storage.Delete(ctx, oldKey); err != nil {
			s.logger.Warn("删除旧简历失败", zap.String("key", oldKey), zap.Error(err))
		}
	}

	s.logger.Info("简历已上传", zap.String("student_id", studentID), zap.String("key", key))
	return url, nil
}
