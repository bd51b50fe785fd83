package dto

// ── 岗位模块 DTO ──

// CreateJobRequest 发布岗位请求
type CreateJobRequest struct {
	Title               string   `json:"title"                binding:"required,notblank,max=200"`
	Department          string   `json:"department"           binding:"required,notblank,max=100"`
	JobType             string   `json:"job_type"             binding:"required,oneof=full-time part-time internship contract"`
	Location            string   `json:"location"             binding:"required,notblank,max=200"`
	Description         string   `json:"description"          binding:"required,notblank,max=10000"`
	Experience          string   `json:"experience"           binding:"omitempty,max=100"`
	SalaryRange         string   `json:"salary_range"         binding:"omitempty,max=100"`
	Skills              []string `json:"skills"               binding:"omitempty,max=50,dive,notblank,max=50"`
	Eligibility         string   `json:"eligibility"          binding:"omitempty,max=5000"`
	ApplicationDeadline string   `json:"application_deadline" binding:"required,date_ymd"`
}

// UpdateJobRequest 修改岗位请求（部分更新，version 用于乐观锁）
type UpdateJobRequest struct {
	Version             int      `json:"version"              binding:"required,min=1"`
	Title               *string  `json:"title"                binding:"omitempty,notblank,max=200"`
	Department          *string  `json:"department"           binding:"omitempty,notblank,max=100"`
	JobType             *string  `json:"job_type"             binding:"omitempty,oneof=full-time part-time internship contract"`
	Location            *string  `json:"location"             binding:"omitempty,notblank,max=200"`
	Description         *string  `json:"description"          binding:"omitempty,notblank,max=10000"`
	Experience          *string  `json:"experience"           binding:"omitempty,max=100"`
	SalaryRange         *string  `json:"salary_range"         binding:"omitempty,max=100"`
	Skills              []string `json:"skills"               binding:"omitempty,max=50,dive,notblank,max=50"`
	Eligibility         *string  `json:"eligibility"          binding:"omitempty,max=5000"`
	ApplicationDeadline *string  `json:"application_deadline" binding:"omitempty,date_ymd"`
}

// PublicJobListRequest 公开岗位列表查询参数
type PublicJobListRequest struct {
	PaginationRequest
	Keyword  string `form:"keyword"  binding:"omitempty,max=100"`
	JobType  string `form:"job_type" binding:"omitempty,oneof=full-time part-time internship contract"`
	Location string `form:"location" binding:"omitempty,max=100"`
}

// CompanyJobListRequest 企业岗位列表查询参数
type CompanyJobListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=pending active rejected inactive deleted"`
}

// FacultyJobListRequest 教师审核岗位列表查询参数
type FacultyJobListRequest struct {
	PaginationRequest
	Status        string `form:"status"         binding:"omitempty,oneof=pending active rejected inactive deleted"`
	CompanyID     string `form:"company_id"     binding:"omitempty,uuid"`
	CompanyStatus string `form:"company_status" binding:"omitempty,oneof=pending approved rejected suspended"`
	Keyword       string `form:"keyword"        binding:"omitempty,max=100"`
}

// ModerateJobRequest 审核岗位请求（驳回时可附原因）
type ModerateJobRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=1000"`
}
