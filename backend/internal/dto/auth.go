package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求（三种角色共用）
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CompanyRegisterRequest 企业注册请求
type CompanyRegisterRequest struct {
	Name         string `json:"name"          binding:"required,notblank,max=200"`
	Email        string `json:"email"         binding:"required,email"`
	Password     string `json:"password"      binding:"required,min=8,max=72"`
	Industry     string `json:"industry"      binding:"omitempty,max=100"`
	Website      string `json:"website"       binding:"omitempty,url"`
	ContactPhone string `json:"contact_phone" binding:"omitempty,max=30"`
	Description  string `json:"description"   binding:"omitempty,max=5000"`
}

// StudentRegisterRequest 学生注册请求
type StudentRegisterRequest struct {
	Name       string   `json:"name"        binding:"required,notblank,max=100"`
	Email      string   `json:"email"       binding:"required,email"`
	Password   string   `json:"password"    binding:"required,min=8,max=72"`
	RollNumber string   `json:"roll_number" binding:"omitempty,max=50"`
	Course     string   `json:"course"      binding:"required,notblank,max=100"`
	Year       int      `json:"year"        binding:"required,min=1,max=6"`
	CGPA       float64  `json:"cgpa"        binding:"omitempty,min=0,max=10"`
	Phone      string   `json:"phone"       binding:"omitempty,max=30"`
	Skills     []string `json:"skills"      binding:"omitempty,max=50,dive,max=50"`
}

// FacultyRegisterRequest 教师注册请求
type FacultyRegisterRequest struct {
	Name        string `json:"name"        binding:"required,notblank,max=100"`
	Email       string `json:"email"       binding:"required,email"`
	Password    string `json:"password"    binding:"required,min=8,max=72"`
	Department  string `json:"department"  binding:"omitempty,max=100"`
	Designation string `json:"designation" binding:"omitempty,max=100"`
	SignupCode  string `json:"signup_code"`
}
