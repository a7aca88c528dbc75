package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mautops/appraisal-gin/internal/apperr"
)

// translate 将 gorm 错误转换为业务错误
func translate(err error, resource, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(resource, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict("DUPLICATE_"+strings.ToUpper(resource), resource+" already exists")
	}
	return err
}

// Page 分页参数
type Page struct {
	Page     int
	PageSize int
}

// normalize 补齐默认分页参数
func (p Page) normalize() (offset, limit int) {
	page := p.Page
	if page <= 0 {
		page = 1
	}
	size := p.PageSize
	if size <= 0 {
		size = 20
	}
	if size > 200 {
		size = 200
	}
	return (page - 1) * size, size
}

// conditionalUpdate 按版本号条件更新整行,成功后版本号加一
// 版本号不匹配时返回 ConcurrencyError,记录不存在时返回 NotFoundError
func conditionalUpdate(db *gorm.DB, value interface{}, table, resource, id string, revision *int64, expected int64) error {
	prev := *revision
	*revision = expected + 1
	res := db.Model(value).
		Where("revision = ?", expected).
		Select("*").
		Omit("id", "created_at").
		Updates(value)
	if res.Error != nil {
		*revision = prev
		return translate(res.Error, resource, id)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	*revision = prev
	var current int64
	err := db.Table(table).Select("revision").Where("id = ?", id).Row().Scan(&current)
	if err != nil {
		return apperr.NotFound(resource, id)
	}
	return apperr.Concurrency(resource, expected, current)
}
