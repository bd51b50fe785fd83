package dto

// ── 教师模块 DTO ──

// CompanyListRequest 企业列表查询参数
type CompanyListRequest struct {
	PaginationRequest
	Status  string `form:"status"  binding:"omitempty,oneof=pending approved rejected suspended"`
	Keyword string `form:"keyword" binding:"omitempty,max=100"`
}

// UpdateCompanyStatusRequest 修改企业状态请求
type UpdateCompanyStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending approved rejected suspended"`
}

// StudentListRequest 学生列表查询参数
type StudentListRequest struct {
	PaginationRequest
	Year    int    `form:"year"    binding:"omitempty,min=1,max=6"`
	Course  string `form:"course"  binding:"omitempty,max=100"`
	Status  string `form:"status"  binding:"omitempty,oneof=active inactive"`
	Keyword string `form:"keyword" binding:"omitempty,max=100"`
}

// NotifyStudentsRequest 向指定届别学生推送岗位通知
type NotifyStudentsRequest struct {
	JobID   string   `json:"job_id"  binding:"required,uuid"`
	Year    int      `json:"year"    binding:"required,min=1,max=6"`
	Courses []string `json:"courses" binding:"required,min=1,max=50,dive,notblank,max=100"`
	Message string   `json:"message" binding:"omitempty,max=2000"`
}

// NotifyStudentsResponse 推送结果
type NotifyStudentsResponse struct {
	Notified int `json:"notified"`
}

// StudentDetailResponse 学生详情（含申请记录）
type StudentDetailResponse struct {
	Student      interface{} `json:"student"`
	Applications interface{} `json:"applications"`
}

// ── 看板统计 ──

// FacultyStats 教师看板
type FacultyStats struct {
	ActiveStudents    int64 `json:"active_students"`
	ApprovedCompanies int64 `json:"approved_companies"`
	PendingCompanies  int64 `json:"pending_companies"`
	PendingJobs       int64 `json:"pending_jobs"`
	ActiveJobs        int64 `json:"active_jobs"`
	TotalApplications int64 `json:"total_applications"`
	Hires             int64 `json:"hires"`
}

// CompanyStats 企业看板
type CompanyStats struct {
	ActiveJobs          int64 `json:"active_jobs"`
	PendingJobs         int64 `json:"pending_jobs"`
	TotalApplications   int64 `json:"total_applications"`
	PendingApplications int64 `json:"pending_applications"`
	Hires               int64 `json:"hires"`
}

// StudentStats 学生看板
type StudentStats struct {
	TotalApplications int64 `json:"total_applications"`
	Pending           int64 `json:"pending"`
	Hired             int64 `json:"hired"`
	Rejected          int64 `json:"rejected"`
	OpenJobs          int64 `json:"open_jobs"`
}
