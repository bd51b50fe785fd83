package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/dto"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/repository"
	pkgerrors "github.com/hanzel-sc/iwp-placement-portal/backend/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportTooLarge     = pkgerrors.New(pkgerrors.KindValidation, 16004, "导出记录过多，请缩小筛选范围")
	ErrExportGenerateFail = pkgerrors.New(pkgerrors.KindDependency, 16005, "生成 Excel 文件失败")
)

// exportMaxRows 单次导出上限
const exportMaxRows = 20000

var applicationStatusText = map[string]string{
	model.ApplicationStatusPending:  "待处理",
	model.ApplicationStatusHired:    "已录用",
	model.ApplicationStatusRejected: "未通过",
}

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportApplications 按筛选条件导出申请记录为 Excel
	ExportApplications(ctx context.Context, req *dto.FacultyApplicationListRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportApplications 导出申请记录
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "申请记录"，首行为标题，第二行为表头
//   - 每条申请一行：学生、专业、年级、绩点、企业、岗位、状态、时间

func (s *exportService) ExportApplications(ctx context.Context, req *dto.FacultyApplicationListRequest) (*bytes.Buffer, string, error) {
	filter := facultyApplicationFilter(req)

	total, err := s.repo.Application.Count(ctx, filter)
	if err != nil {
		s.logger.Error("统计导出记录失败", zap.Error(err))
		return nil, "", err
	}
	if total > exportMaxRows {
		return nil, "", ErrExportTooLarge
	}

	rows, _, err := s.repo.Application.List(ctx, filter, 0, 0)
	if err != nil {
		s.logger.Error("查询导出记录失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "申请记录"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"学生姓名", "邮箱", "专业", "年级", "绩点", "简历", "企业", "岗位", "岗位类型", "工作地点", "申请状态", "申请时间", "处理时间"}
	widths := []float64{12, 26, 16, 8, 8, 30, 22, 24, 12, 16, 10, 18, 18}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheet, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheet, "A1", fmt.Sprintf("申请记录（共 %d 条）", len(rows)))
	f.MergeCell(sheet, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	// 表头
	for i, h := range headers {
		f.SetCellValue(sheet, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheet, "A2", cell(colName(len(headers)-1), 2), headerStyle)

	// 数据行
	for i, r := range rows {
		row := i + 3
		status := applicationStatusText[r.Status]
		if status == "" {
			status = r.Status
		}
		decided := "-"
		if r.DecidedAt != nil {
			decided = formatExportTime(*r.DecidedAt)
		}
		values := []interface{}{
			r.StudentName, r.StudentEmail, r.StudentCourse, r.StudentYear, r.StudentCGPA, r.ResumeURL,
			r.CompanyName, r.JobTitle, r.JobType, r.JobLocation, status,
			formatExportTime(r.AppliedAt), decided,
		}
		for j, v := range values {
			f.SetCellValue(sheet, cell(colName(j), row), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("申请记录_%s.xlsx", time.Now().Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func formatExportTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
