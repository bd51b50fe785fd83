package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/dto"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
	pkgerrors "github.com/hanzel-sc/iwp-placement-portal/backend/pkg/errors"
)

func strPtr(s string) *string { return &s }

// ── Create 测试 ──

func TestJobCreate_StartsPendingAndNotifiesFaculty(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)

	job, err := env.jobs.Create(context.Background(), c.ID, newJobRequest("后端工程师", futureDate))
	if err != nil {
		t.Fatalf("创建应成功: %v", err)
	}
	if job.Status != model.JobStatusPending {
		t.Errorf("新岗位应为 pending，实际 %s", job.Status)
	}
	if len(job.Skills) != 2 || job.Skills[1] != "SQL" {
		t.Errorf("技能应去空格并过滤空值，实际 %v", job.Skills)
	}

	ns := env.notificationsOf(model.NotificationNewJob)
	if len(ns) != 1 {
		t.Fatalf("应向教师广播 1 条通知，实际 %d", len(ns))
	}
	if ns[0].TargetRole != model.RoleFaculty || ns[0].TargetActorID != nil {
		t.Errorf("应为教师角色广播: %+v", ns[0])
	}
	if ns[0].JobID == nil || *ns[0].JobID != job.ID {
		t.Error("通知应关联岗位")
	}
}

func TestJobCreate_DeadlineValidation(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	ctx := context.Background()

	cases := []struct {
		name     string
		deadline string
		wantErr  error
	}{
		{"昨天", yesterdayDate, ErrJobDeadlineInvalid},
		{"格式错误", "2025/03/20", ErrJobDeadlineInvalid},
		{"今天", todayDate, nil},
		{"未来", futureDate, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.jobs.Create(ctx, c.ID, newJobRequest("岗位", tc.deadline))
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("期望 %v，实际 %v", tc.wantErr, err)
			}
		})
	}
}

// ── 公开可见性测试 ──

func TestJobListPublic_OnlyActiveAndOpen(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	f := env.addFaculty(t, "prof")
	ctx := context.Background()

	pending := env.createJob(t, c.ID, "待审核岗位", false, "")
	active := env.createJob(t, c.ID, "已上线岗位", true, f.ID)
	expired := env.createJob(t, c.ID, "已截止岗位", true, f.ID)
	// 截止日期改为昨天
	env.db.jobs[expired.ID].ApplicationDeadline = mustDate(t, yesterdayDate)

	page, err := env.jobs.ListPublic(ctx, &dto.PublicJobListRequest{})
	if err != nil {
		t.Fatalf("ListPublic 失败: %v", err)
	}
	if page.Total != 1 || len(page.List) != 1 || page.List[0].ID != active.ID {
		t.Fatalf("只应返回已上线且未截止的岗位，实际 %+v", page.List)
	}
	if page.List[0].CompanyName != "acme" {
		t.Errorf("应带企业名称，实际 %q", page.List[0].CompanyName)
	}

	if _, err := env.jobs.GetPublic(ctx, pending.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("待审核岗位不应公开，实际: %v", err)
	}
	if _, err := env.jobs.GetPublic(ctx, expired.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("已截止岗位不应公开，实际: %v", err)
	}
	if _, err := env.jobs.GetPublic(ctx, active.ID); err != nil {
		t.Errorf("已上线岗位应可查看: %v", err)
	}
}

func TestJobListPublic_DeadlineTodayStillOpen(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	f := env.addFaculty(t, "prof")
	ctx := context.Background()

	job, err := env.jobs.Create(ctx, c.ID, newJobRequest("今日截止", todayDate))
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if _, err := env.jobs.Moderate(ctx, job.ID, f.ID, ModerationApprove, ""); err != nil {
		t.Fatalf("审核失败: %v", err)
	}

	page, err := env.jobs.ListPublic(ctx, &dto.PublicJobListRequest{})
	if err != nil {
		t.Fatalf("ListPublic 失败: %v", err)
	}
	if page.Total != 1 {
		t.Errorf("截止日为今天的岗位仍应可见，实际 total=%d", page.Total)
	}
}

func TestJobListPublic_Pagination(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	f := env.addFaculty(t, "prof")
	for i := 0; i < 5; i++ {
		env.createJob(t, c.ID, "岗位", true, f.ID)
	}

	req := &dto.PublicJobListRequest{PaginationRequest: dto.PaginationRequest{Page: 2, PageSize: 2}}
	page, err := env.jobs.ListPublic(context.Background(), req)
	if err != nil {
		t.Fatalf("ListPublic 失败: %v", err)
	}
	if page.Total != 5 || len(page.List) != 2 || page.Page != 2 {
		t.Errorf("分页结果不正确: total=%d len=%d page=%d", page.Total, len(page.List), page.Page)
	}
}

// ── 所有权测试 ──

func TestJobUpdate_NonOwnerSameAsMissing(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addCompany(t, "acme", model.CompanyStatusApproved)
	other := env.addCompany(t, "rival", model.CompanyStatusApproved)
	job := env.createJob(t, owner.ID, "岗位", false, "")
	ctx := context.Background()

	req := &dto.UpdateJobRequest{Version: job.Version, Title: strPtr("新标题")}
	_, errForeign := env.jobs.Update(ctx, job.ID, other.ID, req)
	_, errMissing := env.jobs.Update(ctx, "job-missing", other.ID, req)

	if !errors.Is(errForeign, ErrJobNotFound) || !errors.Is(errMissing, ErrJobNotFound) {
		t.Fatalf("非本企业与不存在应返回同一错误: %v / %v", errForeign, errMissing)
	}
	if env.db.jobs[job.ID].Title != "岗位" {
		t.Error("非本企业不应修改岗位")
	}
}

func TestJobUpdate_PartialAndVersion(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	job := env.createJob(t, c.ID, "岗位", false, "")
	ctx := context.Background()

	updated, err := env.jobs.Update(ctx, job.ID, c.ID, &dto.UpdateJobRequest{
		Version:     job.Version,
		SalaryRange: strPtr("20k-30k"),
	})
	if err != nil {
		t.Fatalf("更新应成功: %v", err)
	}
	if updated.SalaryRange != "20k-30k" || updated.Title != "岗位" {
		t.Errorf("应只修改传入字段: %+v", updated)
	}
	if updated.Version != job.Version+1 {
		t.Errorf("版本号应递增，实际 %d", updated.Version)
	}

	// 旧版本号再次提交
	_, err = env.jobs.Update(ctx, job.ID, c.ID, &dto.UpdateJobRequest{Version: job.Version, Title: strPtr("x")})
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}

func TestJobUpdate_DeletedRejected(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	job := env.createJob(t, c.ID, "岗位", false, "")
	ctx := context.Background()

	if err := env.jobs.SoftDelete(ctx, job.ID, c.ID); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	cur := env.db.jobs[job.ID]
	_, err := env.jobs.Update(ctx, job.ID, c.ID, &dto.UpdateJobRequest{Version: cur.Version, Title: strPtr("x")})
	if !errors.Is(err, ErrJobInvalidTransition) {
		t.Errorf("已删除岗位不可修改，实际: %v", err)
	}
}

// ── Moderate 测试 ──

func TestJobModerate_ApproveNotifiesOwner(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	f := env.addFaculty(t, "prof")
	job := env.createJob(t, c.ID, "岗位", false, "")

	got, err := env.jobs.Moderate(context.Background(), job.ID, f.ID, ModerationApprove, "")
	if err != nil {
		t.Fatalf("审核应成功: %v", err)
	}
	if got.Status != model.JobStatusActive {
		t.Errorf("期望 active，实际 %s", got.Status)
	}
	if got.ModeratedBy == nil || *got.ModeratedBy != f.ID {
		t.Error("应记录审核人")
	}

	ns := env.notificationsOf(model.NotificationJobApproved)
	if len(ns) != 1 || ns[0].TargetActorID == nil || *ns[0].TargetActorID != c.ID {
		t.Fatalf("应定向通知岗位所属企业: %+v", ns)
	}
	if len(env.mailer.msgs) != 1 || env.mailer.msgs[0].To != "acme@corp.test" {
		t.Errorf("定向通知应投递邮件: %+v", env.mailer.msgs)
	}
}

func TestJobModerate_RejectWithReason(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	f := env.addFaculty(t, "prof")
	job := env.createJob(t, c.ID, "岗位", false, "")

	got, err := env.jobs.Moderate(context.Background(), job.ID, f.ID, ModerationReject, "薪资信息不完整")
	if err != nil {
		t.Fatalf("驳回应成功: %v", err)
	}
	if got.Status != model.JobStatusRejected || got.RejectReason != "薪资信息不完整" {
		t.Errorf("驳回结果不正确: %+v", got)
	}

	ns := env.notificationsOf(model.NotificationJobRejected)
	if len(ns) != 1 {
		t.Fatalf("应有 1 条驳回通知，实际 %d", len(ns))
	}
	if ns[0].TargetActorID == nil || *ns[0].TargetActorID != c.ID {
		t.Error("驳回通知应定向给岗位所属企业")
	}
	if !strings.Contains(ns[0].Message, "薪资信息不完整") {
		t.Errorf("通知应包含驳回原因: %s", ns[0].Message)
	}
}

func TestJobModerate_RejectWithoutReasonNoNotification(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	f := env.addFaculty(t, "prof")
	job := env.createJob(t, c.ID, "岗位", false, "")

	if _, err := env.jobs.Moderate(context.Background(), job.ID, f.ID, ModerationReject, "  "); err != nil {
		t.Fatalf("驳回应成功: %v", err)
	}
	if n := len(env.notificationsOf(model.NotificationJobRejected)); n != 0 {
		t.Errorf("无原因时不发送驳回通知，实际 %d 条", n)
	}
}

func TestJobModerate_RejectActiveTakesDown(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	f := env.addFaculty(t, "prof")
	job := env.createJob(t, c.ID, "岗位", true, f.ID)

	got, err := env.jobs.Moderate(context.Background(), job.ID, f.ID, ModerationReject, "")
	if err != nil {
		t.Fatalf("下架应成功: %v", err)
	}
	if got.Status != model.JobStatusInactive {
		t.Errorf("已上线岗位被驳回应为 inactive，实际 %s", got.Status)
	}
}

func TestJobModerate_InvalidTransitions(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	f := env.addFaculty(t, "prof")
	ctx := context.Background()

	active := env.createJob(t, c.ID, "岗位", true, f.ID)
	if _, err := env.jobs.Moderate(ctx, active.ID, f.ID, ModerationApprove, ""); !errors.Is(err, ErrJobInvalidTransition) {
		t.Errorf("重复通过应返回 ErrJobInvalidTransition，实际: %v", err)
	}

	deleted := env.createJob(t, c.ID, "岗位", false, "")
	if err := env.jobs.SoftDelete(ctx, deleted.ID, c.ID); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if _, err := env.jobs.Moderate(ctx, deleted.ID, f.ID, ModerationApprove, ""); !errors.Is(err, ErrJobInvalidTransition) {
		t.Errorf("已删除岗位不可审核，实际: %v", err)
	}

	if _, err := env.jobs.Moderate(ctx, active.ID, f.ID, "publish", ""); !errors.Is(err, ErrJobInvalidModeration) {
		t.Errorf("未知动作应返回 ErrJobInvalidModeration，实际: %v", err)
	}
	if _, err := env.jobs.Moderate(ctx, "job-missing", f.ID, ModerationApprove, ""); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("不存在的岗位应返回 ErrJobNotFound，实际: %v", err)
	}
}

func TestJobModerate_ConcurrentLoserConflicts(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	f := env.addFaculty(t, "prof")
	job := env.createJob(t, c.ID, "岗位", false, "")

	// 模拟两位教师读取到同一版本后先后提交
	stale := *env.db.jobs[job.ID]
	if _, err := env.jobs.Moderate(context.Background(), job.ID, f.ID, ModerationApprove, ""); err != nil {
		t.Fatalf("首次审核应成功: %v", err)
	}
	stale.Status = model.JobStatusRejected
	err := env.repo.Job.Update(context.Background(), &stale)
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("后提交的一方应冲突，实际: %v", err)
	}
	if env.db.jobs[job.ID].Status != model.JobStatusActive {
		t.Error("先提交的结果应保留")
	}
}

// ── 删除测试 ──

func TestJobSoftDelete_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	job := env.createJob(t, c.ID, "岗位", false, "")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := env.jobs.SoftDelete(ctx, job.ID, c.ID); err != nil {
			t.Fatalf("第 %d 次删除应成功: %v", i+1, err)
		}
	}
	if env.db.jobs[job.ID].Status != model.JobStatusDeleted {
		t.Error("岗位应标记为 deleted")
	}

	page, err := env.jobs.ListForCompany(ctx, c.ID, &dto.CompanyJobListRequest{})
	if err != nil {
		t.Fatalf("ListForCompany 失败: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("默认列表不含已删除岗位，实际 %d", page.Total)
	}
}

func TestJobSoftDelete_WithApplicationsKeepsThem(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	f := env.addFaculty(t, "prof")
	s := env.addStudent(t, "alice", 4, "CS")
	job := env.createJob(t, c.ID, "后端实习", true, f.ID)
	ctx := context.Background()

	app, err := env.apps.Apply(ctx, s.ID, job.ID)
	if err != nil {
		t.Fatalf("申请失败: %v", err)
	}
	if page, _ := env.jobs.ListPublic(ctx, &dto.PublicJobListRequest{}); page.Total != 1 {
		t.Fatalf("删除前应公开可见，实际 %d", page.Total)
	}

	if err := env.jobs.SoftDelete(ctx, job.ID, c.ID); err != nil {
		t.Fatalf("有申请的岗位也应可软删除: %v", err)
	}

	page, err := env.jobs.ListPublic(ctx, &dto.PublicJobListRequest{})
	if err != nil {
		t.Fatalf("ListPublic 失败: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("软删除后不应出现在公开列表，实际 %d", page.Total)
	}
	if _, err := env.jobs.GetPublic(ctx, job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("软删除后详情应返回 ErrJobNotFound，实际: %v", err)
	}

	apps, err := env.apps.ListForStudent(ctx, s.ID, &dto.ApplicationListRequest{})
	if err != nil {
		t.Fatalf("ListForStudent 失败: %v", err)
	}
	if apps.Total != 1 || apps.List[0].ID != app.ID {
		t.Fatalf("申请记录应保留且可查询: %+v", apps.List)
	}
	if apps.List[0].Status != model.ApplicationStatusPending || apps.List[0].JobStatus != string(model.JobStatusDeleted) {
		t.Errorf("申请状态不变、岗位状态为 deleted，实际 %s / %s", apps.List[0].Status, apps.List[0].JobStatus)
	}
}

func TestJobHardDelete_WithApplicationsRefused(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	f := env.addFaculty(t, "prof")
	s := env.addStudent(t, "alice", 4, "CS")
	job := env.createJob(t, c.ID, "岗位", true, f.ID)
	ctx := context.Background()

	if _, err := env.apps.Apply(ctx, s.ID, job.ID); err != nil {
		t.Fatalf("申请失败: %v", err)
	}

	if err := env.jobs.HardDelete(ctx, job.ID, c.ID); !errors.Is(err, ErrJobHasApplications) {
		t.Fatalf("期望 ErrJobHasApplications，实际: %v", err)
	}
	if _, ok := env.db.jobs[job.ID]; !ok {
		t.Error("岗位不应被删除")
	}
	if len(env.db.apps) != 1 {
		t.Error("申请记录应保留")
	}
}

func TestJobHardDelete_NoApplications(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	other := env.addCompany(t, "rival", model.CompanyStatusApproved)
	job := env.createJob(t, c.ID, "岗位", false, "")
	ctx := context.Background()

	if err := env.jobs.HardDelete(ctx, job.ID, other.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("非本企业应返回 ErrJobNotFound，实际: %v", err)
	}
	if err := env.jobs.HardDelete(ctx, job.ID, c.ID); err != nil {
		t.Fatalf("永久删除应成功: %v", err)
	}
	if _, ok := env.db.jobs[job.ID]; ok {
		t.Error("岗位应已移除")
	}
}

// ── 教师列表 / 日历 ──

func TestJobListForFaculty_FilterByStatus(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	f := env.addFaculty(t, "prof")
	env.createJob(t, c.ID, "待审核", false, "")
	env.createJob(t, c.ID, "已上线", true, f.ID)

	page, err := env.jobs.ListForFaculty(context.Background(), &dto.FacultyJobListRequest{Status: "pending"})
	if err != nil {
		t.Fatalf("ListForFaculty 失败: %v", err)
	}
	if page.Total != 1 || page.List[0].Title != "待审核" {
		t.Errorf("应只返回待审核岗位: %+v", page.List)
	}
}

func TestJobCalendar(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCompany(t, "acme", model.CompanyStatusApproved)
	f := env.addFaculty(t, "prof")
	job := env.createJob(t, c.ID, "后端工程师", true, f.ID)
	env.createJob(t, c.ID, "未审核", false, "")

	out, err := env.jobs.Calendar(context.Background(), "https://jobs.example.edu/")
	if err != nil {
		t.Fatalf("Calendar 失败: %v", err)
	}
	if !strings.Contains(out, "BEGIN:VCALENDAR") || strings.Count(out, "BEGIN:VEVENT") != 1 {
		t.Fatalf("应只包含 1 个公开岗位事件:\n%s", out)
	}
	if !strings.Contains(out, job.ID+"@placement-portal") {
		t.Error("事件 UID 应包含岗位 id")
	}
	if !strings.Contains(out, "20250320") {
		t.Error("事件日期应为截止日")
	}
}
