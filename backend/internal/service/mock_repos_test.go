package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/model"
	"github.com/hanzel-sc/iwp-placement-portal/backend/internal/repository"
	pkgerrors "github.com/hanzel-sc/iwp-placement-portal/backend/pkg/errors"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/mail"
	"github.com/hanzel-sc/iwp-placement-portal/backend/pkg/storage"
)

// ── 内存数据集 ──
// 各 mock Repository 共享同一份数据，便于模拟联表查询

type mockDB struct {
	mu            sync.Mutex
	seq           int
	base          time.Time
	companies     map[string]*model.Company
	students      map[string]*model.Student
	faculty       map[string]*model.Faculty
	jobs          map[string]*model.JobPosting
	apps          map[string]*model.Application
	notifications []*model.Notification
	// receipts 广播通知已读回执：notification id -> actor id
	receipts map[string]map[string]bool
}

func newMockDB() *mockDB {
	return &mockDB{
		base:      time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		companies: make(map[string]*model.Company),
		students:  make(map[string]*model.Student),
		faculty:   make(map[string]*model.Faculty),
		jobs:      make(map[string]*model.JobPosting),
		apps:      make(map[string]*model.Application),
		receipts:  make(map[string]map[string]bool),
	}
}

// next 生成 id 与单调递增的创建时间
func (d *mockDB) next(prefix string) (string, time.Time) {
	d.seq++
	return fmt.Sprintf("%s-%d", prefix, d.seq), d.base.Add(time.Duration(d.seq) * time.Minute)
}

func newTestRepo() (*repository.Repository, *mockDB) {
	db := newMockDB()
	return &repository.Repository{
		Actor:        &mockActorRepo{db: db},
		Job:          &mockJobRepo{db: db},
		Application:  &mockApplicationRepo{db: db},
		Notification: &mockNotificationRepo{db: db},
	}, db
}

// ── Mock ActorRepository ──

type mockActorRepo struct {
	db *mockDB
}

func (m *mockActorRepo) FindByID(_ context.Context, role model.Role, id string) (model.Actor, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	switch role {
	case model.RoleCompany:
		if c, ok := m.db.companies[id]; ok {
			cp := *c
			return &cp, nil
		}
	case model.RoleStudent:
		if s, ok := m.db.students[id]; ok {
			cp := *s
			return &cp, nil
		}
	case model.RoleFaculty:
		if f, ok := m.db.faculty[id]; ok {
			cp := *f
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockActorRepo) FindByEmail(_ context.Context, role model.Role, email string) (model.Actor, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	email = strings.ToLower(email)
	switch role {
	case model.RoleCompany:
		for _, c := range m.db.companies {
			if strings.ToLower(c.Email) == email {
				cp := *c
				return &cp, nil
			}
		}
	case model.RoleStudent:
		for _, s := range m.db.students {
			if strings.ToLower(s.Email) == email {
				cp := *s
				return &cp, nil
			}
		}
	case model.RoleFaculty:
		for _, f := range m.db.faculty {
			if strings.ToLower(f.Email) == email {
				cp := *f
				return &cp, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockActorRepo) Create(_ context.Context, actor model.Actor) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	switch a := actor.(type) {
	case *model.Company:
		a.ID, a.CreatedAt = m.db.next("company")
		cp := *a
		m.db.companies[a.ID] = &cp
	case *model.Student:
		a.ID, a.CreatedAt = m.db.next("student")
		cp := *a
		m.db.students[a.ID] = &cp
	case *model.Faculty:
		a.ID, a.CreatedAt = m.db.next("faculty")
		cp := *a
		m.db.faculty[a.ID] = &cp
	default:
		return errors.New("unknown actor")
	}
	return nil
}

func (m *mockActorRepo) UpdateStatus(_ context.Context, role model.Role, id, status string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	switch role {
	case model.RoleCompany:
		if c, ok := m.db.companies[id]; ok {
			c.Status = status
			return nil
		}
	case model.RoleStudent:
		if s, ok := m.db.students[id]; ok {
			s.Status = status
			return nil
		}
	case model.RoleFaculty:
		if f, ok := m.db.faculty[id]; ok {
			f.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockActorRepo) TouchLastLogin(_ context.Context, role model.Role, id string, at time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	switch role {
	case model.RoleCompany:
		if c, ok := m.db.companies[id]; ok {
			c.LastLoginAt = &at
		}
	case model.RoleStudent:
		if s, ok := m.db.students[id]; ok {
			s.LastLoginAt = &at
		}
	case model.RoleFaculty:
		if f, ok := m.db.faculty[id]; ok {
			f.LastLoginAt = &at
		}
	}
	return nil
}

func (m *mockActorRepo) UpdateResumeURL(_ context.Context, studentID, url string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	s, ok := m.db.students[studentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.ResumeURL = url
	return nil
}

func (m *mockActorRepo) GetStudent(_ context.Context, id string) (*model.Student, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if s, ok := m.db.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockActorRepo) ListStudentIDsByCohort(_ context.Context, year int, courses []string) ([]string, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	want := make(map[string]bool, len(courses))
	for _, c := range courses {
		want[c] = true
	}
	var ids []string
	for _, s := range m.db.students {
		if s.Year == year && want[s.Course] && s.Status == model.StudentStatusActive {
			ids = append(ids, s.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockActorRepo) ListCompanies(_ context.Context, f repository.CompanyFilter, offset, limit int) ([]model.Company, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var list []model.Company
	for _, c := range m.db.companies {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Keyword != "" && !containsFold(c.Name, f.Keyword) {
			continue
		}
		list = append(list, *c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, offset, limit), int64(len(list)), nil
}

func (m *mockActorRepo) ListStudents(_ context.Context, f repository.StudentFilter, offset, limit int) ([]repository.StudentSummary, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var list []repository.StudentSummary
	for _, s := range m.db.students {
		if f.Year > 0 && s.Year != f.Year {
			continue
		}
		if f.Course != "" && s.Course != f.Course {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.Keyword != "" && !containsFold(s.Name, f.Keyword) {
			continue
		}
		sum := repository.StudentSummary{Student: *s}
		for _, a := range m.db.apps {
			if a.StudentID == s.ID {
				sum.TotalApplications++
				if a.Status == model.ApplicationStatusHired {
					sum.Offers++
				}
			}
		}
		list = append(list, sum)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return paginate(list, offset, limit), int64(len(list)), nil
}

func (m *mockActorRepo) CountCompanies(_ context.Context, status string) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for _, c := range m.db.companies {
		if status == "" || c.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockActorRepo) CountStudents(_ context.Context, status string) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for _, s := range m.db.students {
		if status == "" || s.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockActorRepo) EmailsByIDs(_ context.Context, role model.Role, ids []string) (map[string]string, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		switch role {
		case model.RoleCompany:
			if c, ok := m.db.companies[id]; ok {
				out[id] = c.Email
			}
		case model.RoleStudent:
			if s, ok := m.db.students[id]; ok {
				out[id] = s.Email
			}
		case model.RoleFaculty:
			if f, ok := m.db.faculty[id]; ok {
				out[id] = f.Email
			}
		}
	}
	return out, nil
}

// ── Mock JobRepository ──

type mockJobRepo struct {
	db *mockDB
}

func (m *mockJobRepo) Create(_ context.Context, job *model.JobPosting) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.companies[job.CompanyID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	job.ID, job.CreatedAt = m.db.next("job")
	job.UpdatedAt = job.CreatedAt
	job.Version = 1
	cp := *job
	m.db.jobs[job.ID] = &cp
	return nil
}

func (m *mockJobRepo) GetByID(_ context.Context, id string) (*model.JobPosting, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if j, ok := m.db.jobs[id]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockJobRepo) GetOwned(_ context.Context, id, companyID string) (*model.JobPosting, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if j, ok := m.db.jobs[id]; ok && j.CompanyID == companyID {
		cp := *j
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockJobRepo) match(j *model.JobPosting, f repository.JobFilter) bool {
	company := m.db.companies[j.CompanyID]
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if j.Status == s {
				ok = true
			}
		}
		if !ok {
			return false
		}
	}
	if f.ExcludeStatus != "" && j.Status == f.ExcludeStatus {
		return false
	}
	if f.CompanyID != "" && j.CompanyID != f.CompanyID {
		return false
	}
	if f.CompanyStatus != "" && (company == nil || company.Status != f.CompanyStatus) {
		return false
	}
	if f.JobType != "" && j.JobType != f.JobType {
		return false
	}
	if f.Location != "" && !containsFold(j.Location, f.Location) {
		return false
	}
	if f.Keyword != "" {
		name := ""
		if company != nil {
			name = company.Name
		}
		if !containsFold(j.Title, f.Keyword) && !containsFold(j.Description, f.Keyword) && !containsFold(name, f.Keyword) {
			return false
		}
	}
	if f.OpenOn != nil && j.Deadline().Before(model.DateOnly(*f.OpenOn)) {
		return false
	}
	return true
}

func (m *mockJobRepo) item(j *model.JobPosting) repository.JobListItem {
	it := repository.JobListItem{JobPosting: *j}
	if c, ok := m.db.companies[j.CompanyID]; ok {
		it.CompanyName = c.Name
	}
	for _, a := range m.db.apps {
		if a.JobID == j.ID {
			it.ApplicationCount++
		}
	}
	return it
}

func (m *mockJobRepo) GetItem(_ context.Context, id string, f repository.JobFilter) (*repository.JobListItem, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	j, ok := m.db.jobs[id]
	if !ok || !m.match(j, f) {
		return nil, gorm.ErrRecordNotFound
	}
	it := m.item(j)
	return &it, nil
}

func (m *mockJobRepo) List(_ context.Context, f repository.JobFilter, offset, limit int) ([]repository.JobListItem, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var list []repository.JobListItem
	for _, j := range m.db.jobs {
		if m.match(j, f) {
			list = append(list, m.item(j))
		}
	}
	sort.Slice(list, func(i, k int) bool { return list[i].CreatedAt.After(list[k].CreatedAt) })
	return paginate(list, offset, limit), int64(len(list)), nil
}

func (m *mockJobRepo) Update(_ context.Context, job *model.JobPosting) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	cur, ok := m.db.jobs[job.ID]
	if !ok || cur.Version != job.Version {
		return pkgerrors.ErrOptimisticLock
	}
	job.Version++
	cp := *job
	cp.CompanyID = cur.CompanyID
	m.db.jobs[job.ID] = &cp
	return nil
}

func (m *mockJobRepo) Delete(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.jobs[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, a := range m.db.apps {
		if a.JobID == id {
			return gorm.ErrForeignKeyViolated
		}
	}
	delete(m.db.jobs, id)
	return nil
}

func (m *mockJobRepo) Count(ctx context.Context, f repository.JobFilter) (int64, error) {
	_, n, err := m.List(ctx, f, 0, 0)
	return n, err
}

// ── Mock ApplicationRepository ──

type mockApplicationRepo struct {
	db *mockDB
}

func (m *mockApplicationRepo) Create(_ context.Context, app *model.Application) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, a := range m.db.apps {
		if a.StudentID == app.StudentID && a.JobID == app.JobID {
			return gorm.ErrDuplicatedKey
		}
	}
	if _, ok := m.db.jobs[app.JobID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	app.ID, app.CreatedAt = m.db.next("app")
	cp := *app
	m.db.apps[app.ID] = &cp
	return nil
}

func (m *mockApplicationRepo) GetByID(_ context.Context, id string) (*model.Application, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if a, ok := m.db.apps[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) GetForCompany(_ context.Context, id, companyID string) (*model.Application, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	a, ok := m.db.apps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	j, ok := m.db.jobs[a.JobID]
	if !ok || j.CompanyID != companyID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	job := *j
	cp.Job = &job
	return &cp, nil
}

func (m *mockApplicationRepo) Exists(_ context.Context, studentID, jobID string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, a := range m.db.apps {
		if a.StudentID == studentID && a.JobID == jobID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockApplicationRepo) CountByJob(_ context.Context, jobID string) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for _, a := range m.db.apps {
		if a.JobID == jobID {
			n++
		}
	}
	return n, nil
}

func (m *mockApplicationRepo) Decide(_ context.Context, id, status, decidedBy string, at time.Time) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	a, ok := m.db.apps[id]
	if !ok || a.Status != model.ApplicationStatusPending {
		return false, nil
	}
	a.Status = status
	a.DecidedAt = &at
	a.DecidedBy = &decidedBy
	return true, nil
}

func (m *mockApplicationRepo) views(f repository.ApplicationFilter) []repository.ApplicationView {
	var rows []repository.ApplicationView
	for _, a := range m.db.apps {
		s := m.db.students[a.StudentID]
		j := m.db.jobs[a.JobID]
		if s == nil || j == nil {
			continue
		}
		c := m.db.companies[j.CompanyID]
		if c == nil {
			continue
		}
		if f.StudentID != "" && a.StudentID != f.StudentID {
			continue
		}
		if f.CompanyID != "" && j.CompanyID != f.CompanyID {
			continue
		}
		if f.JobID != "" && a.JobID != f.JobID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Course != "" && s.Course != f.Course {
			continue
		}
		if f.Year > 0 && s.Year != f.Year {
			continue
		}
		if f.Keyword != "" && !containsFold(s.Name, f.Keyword) && !containsFold(j.Title, f.Keyword) && !containsFold(c.Name, f.Keyword) {
			continue
		}
		rows = append(rows, repository.ApplicationView{
			ID:            a.ID,
			Status:        a.Status,
			AppliedAt:     a.AppliedAt,
			DecidedAt:     a.DecidedAt,
			StudentID:     s.ID,
			StudentName:   s.Name,
			StudentEmail:  s.Email,
			StudentCourse: s.Course,
			StudentYear:   s.Year,
			StudentCGPA:   s.CGPA,
			ResumeURL:     s.ResumeURL,
			JobID:         j.ID,
			JobTitle:      j.Title,
			JobType:       j.JobType,
			JobLocation:   j.Location,
			JobStatus:     string(j.Status),
			CompanyID:     c.ID,
			CompanyName:   c.Name,
		})
	}
	sort.Slice(rows, func(i, k int) bool { return rows[i].AppliedAt.After(rows[k].AppliedAt) })
	return rows
}

func (m *mockApplicationRepo) List(_ context.Context, f repository.ApplicationFilter, offset, limit int) ([]repository.ApplicationView, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	rows := m.views(f)
	return paginate(rows, offset, limit), int64(len(rows)), nil
}

func (m *mockApplicationRepo) Count(_ context.Context, f repository.ApplicationFilter) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return int64(len(m.views(f))), nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	db      *mockDB
	failErr error // 非空时写入返回该错误
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	n.ID, n.CreatedAt = m.db.next("notif")
	cp := *n
	m.db.notifications = append(m.db.notifications, &cp)
	return nil
}

func (m *mockNotificationRepo) BatchCreate(ctx context.Context, ns []model.Notification) error {
	if m.failErr != nil {
		return m.failErr
	}
	for i := range ns {
		if err := m.Create(ctx, &ns[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockNotificationRepo) visible(n *model.Notification, role model.Role, actorID string) bool {
	return n.TargetRole == role && (n.TargetActorID == nil || *n.TargetActorID == actorID)
}

// readBy 定向通知看 IsRead，广播看回执
func (m *mockNotificationRepo) readBy(n *model.Notification, actorID string) bool {
	if n.IsBroadcast() {
		return m.db.receipts[n.ID][actorID]
	}
	return n.IsRead
}

func (m *mockNotificationRepo) markBy(n *model.Notification, actorID string) bool {
	if m.readBy(n, actorID) {
		return false
	}
	if !n.IsBroadcast() {
		n.IsRead = true
		return true
	}
	if m.db.receipts[n.ID] == nil {
		m.db.receipts[n.ID] = make(map[string]bool)
	}
	m.db.receipts[n.ID][actorID] = true
	return true
}

func (m *mockNotificationRepo) ListForRecipient(_ context.Context, role model.Role, actorID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var list []model.Notification
	for i := len(m.db.notifications) - 1; i >= 0; i-- {
		n := m.db.notifications[i]
		if !m.visible(n, role, actorID) {
			continue
		}
		read := m.readBy(n, actorID)
		if unreadOnly && read {
			continue
		}
		cp := *n
		cp.IsRead = read
		list = append(list, cp)
	}
	return paginate(list, offset, limit), int64(len(list)), nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, role model.Role, actorID string) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var c int64
	for _, n := range m.db.notifications {
		if m.visible(n, role, actorID) && !m.readBy(n, actorID) {
			c++
		}
	}
	return c, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id string, role model.Role, actorID string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, n := range m.db.notifications {
		if n.ID == id && m.visible(n, role, actorID) {
			m.markBy(n, actorID)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, role model.Role, actorID string) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var c int64
	for _, n := range m.db.notifications {
		if m.visible(n, role, actorID) && m.markBy(n, actorID) {
			c++
		}
	}
	return c, nil
}

// ── 其他协作者 ──

type recordingMailer struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (r *recordingMailer) Enqueue(msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

type mockBlacklist struct {
	tokens map[string]time.Duration
	err    error
}

func (b *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if b.err != nil {
		return b.err
	}
	b.tokens[jti] = ttl
	return nil
}

type memStorage struct {
	objects   map[string][]byte
	failErr   error
	deleteErr error
}

var _ storage.Storage = (*memStorage)(nil)

func (s *memStorage) Save(_ context.Context, key string, r io.Reader, _ string) error {
	if s.failErr != nil {
		return s.failErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	s.objects[key] = buf.Bytes()
	return nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *memStorage) URL(key string) string { return "mem://" + key }

// ── 辅助函数 ──

func paginate[T any](list []T, offset, limit int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
