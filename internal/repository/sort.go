package repository

import (
	"fmt"
	"strings"

	"github.com/mautops/appraisal-gin/internal/utils"
)

// sortable 允许排序的字段
var sortable = map[string]bool{
	"created_at":           true,
	"updated_at":           true,
	"submitted_at":         true,
	"academic_year":        true,
	"total_score":          true,
	"normalized_score":     true,
	"final_weighted_score": true,
}

// orderClause 构建排序子句,非法字段回退为 created_at DESC
func orderClause(sortBy, order string) string {
	if sortBy == "" || utils.ValidateSortField(sortBy) != nil || !sortable[sortBy] {
		sortBy = "created_at"
	}
	return fmt.Sprintf("%s %s", sortBy, strings.ToUpper(utils.SanitizeSortOrder(order)))
}
