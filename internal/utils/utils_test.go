package utils_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mautops/appraisal-gin/internal/apperr"
	"github.com/mautops/appraisal-gin/internal/utils"
)

// TestValidateAcademicYear 测试学年格式
func TestValidateAcademicYear(t *testing.T) {
	assert.NoError(t, utils.ValidateAcademicYear("2024-2025"))
	for _, bad := range []string{"", "2024", "2024-2026", "2025-2024", "24-25", "2024/2025"} {
		err := utils.ValidateAcademicYear(bad)
		assert.True(t, errors.Is(err, apperr.ErrValidation), bad)
	}
}

// TestValidateID 测试 ID 格式
func TestValidateID(t *testing.T) {
	assert.NoError(t, utils.ValidateID("5f0c6a1e-2b7d-4c4e-9a51-0d9e1c3f8b21"))
	assert.Error(t, utils.ValidateID(""))
	assert.Error(t, utils.ValidateID("1; DROP TABLE"))
	assert.Error(t, utils.ValidateID(string(make([]byte, 65))))
}

// TestValidateName 测试名称校验
func TestValidateName(t *testing.T) {
	assert.NoError(t, utils.ValidateName("full_name", "Dr. Asha Rao"))
	assert.Error(t, utils.ValidateName("full_name", "  "))
	assert.Error(t, utils.ValidateName("full_name", "<script>alert(1)</script>"))
	assert.Error(t, utils.ValidateName("full_name", "x'; DROP TABLE profiles"))
}

// TestTrimAndValidate 测试文本清理
func TestTrimAndValidate(t *testing.T) {
	got, err := utils.TrimAndValidate("observations", "  <b>good</b>\x00 ", 100)
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;good&lt;/b&gt;", got)

	_, err = utils.TrimAndValidate("observations", "abcdef", 3)
	assert.Error(t, err)
}

// TestSortSafety 测试排序字段校验
func TestSortSafety(t *testing.T) {
	assert.NoError(t, utils.ValidateSortField("created_at"))
	assert.Error(t, utils.ValidateSortField("created_at; DROP"))
	assert.Error(t, utils.ValidateSortField("1 OR 1"))
	assert.Equal(t, "ASC", utils.SanitizeSortOrder(" asc "))
	assert.Equal(t, "DESC", utils.SanitizeSortOrder("sideways"))
	assert.Error(t, utils.ValidateSortField("total_score or 1"))
}

// TestValidateStruct 测试结构体校验及字段路径
func TestValidateStruct(t *testing.T) {
	type row struct {
		StudentsPassed int `validate:"gte=0"`
	}
	type form struct {
		FullName string `validate:"required"`
		Rows     []row  `validate:"dive"`
	}

	err := utils.ValidateStruct("INVALID_FORM", "invalid form", form{Rows: []row{{StudentsPassed: -1}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_FORM", appErr.Code)
	assert.ElementsMatch(t, []string{"full_name", "rows[0].students_passed"}, appErr.Fields)

	assert.NoError(t, utils.ValidateStruct("INVALID_FORM", "invalid form", form{FullName: "Asha"}))
}
