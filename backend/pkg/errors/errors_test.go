package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"pgx", &pgconn.PgError{Code: "23505"}, true},
		{"pgx 包装", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"lib/pq", &pq.Error{Code: "23505"}, true},
		{"gorm 翻译", gorm.ErrDuplicatedKey, true},
		{"外键", &pgconn.PgError{Code: "23503"}, false},
		{"普通错误", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err); got != tc.want {
				t.Errorf("IsUniqueViolation()=%v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	if !IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("23503 应识别为外键冲突")
	}
	if !IsForeignKeyViolation(gorm.ErrForeignKeyViolated) {
		t.Error("gorm.ErrForeignKeyViolated 应识别为外键冲突")
	}
	if IsForeignKeyViolation(&pq.Error{Code: "23505"}) {
		t.Error("23505 不应识别为外键冲突")
	}
}

func TestBizError_KindOf(t *testing.T) {
	e := New(KindConflict, 13003, "重复申请")
	wrapped := fmt.Errorf("apply: %w", e)

	if KindOf(wrapped) != KindConflict {
		t.Errorf("期望 conflict，实际=%s", KindOf(wrapped))
	}
	be, ok := As(wrapped)
	if !ok || be.Code != 13003 {
		t.Fatalf("应能提取 BizError，实际 ok=%v be=%v", ok, be)
	}
	if KindOf(errors.New("x")) != "" {
		t.Error("普通错误的类别应为空")
	}
	if !errors.Is(wrapped, e) {
		t.Error("errors.Is 应能匹配哨兵错误")
	}
}
