package dto

// ── 申请模块 DTO ──

// DecideApplicationRequest 企业处理申请请求
type DecideApplicationRequest struct {
	Status string `json:"status" binding:"required"`
}

// ApplicationListRequest 申请列表查询参数
type ApplicationListRequest struct {
	PaginationRequest
	Status  string `form:"status"  binding:"omitempty,oneof=pending hired rejected"`
	JobID   string `form:"job_id"  binding:"omitempty,uuid"`
	Keyword string `form:"keyword" binding:"omitempty,max=100"`
}

// FacultyApplicationListRequest 教师查看全部申请的查询参数
type FacultyApplicationListRequest struct {
	ApplicationListRequest
	CompanyID string `form:"company_id" binding:"omitempty,uuid"`
	Course    string `form:"course"     binding:"omitempty,max=100"`
	Year      int    `form:"year"       binding:"omitempty,min=1,max=6"`
}
