package scoring

import (
	"github.com/mautops/appraisal-gin/internal/apperr"
	"github.com/mautops/appraisal-gin/internal/utils"
)

// PerformanceCategory 绩效等级
type PerformanceCategory string

const (
	CategoryExcellent    PerformanceCategory = "excellent"
	CategoryVeryGood     PerformanceCategory = "very_good"
	CategoryGood         PerformanceCategory = "good"
	CategoryAverage      PerformanceCategory = "average"
	CategoryBelowAverage PerformanceCategory = "below_average"
)

// Classify 按标准化分数分级,阈值为闭区间下界
func Classify(normalized float64) PerformanceCategory {
	switch {
	case normalized >= 90:
		return CategoryExcellent
	case normalized >= 80:
		return CategoryVeryGood
	case normalized >= 70:
		return CategoryGood
	case normalized >= 60:
		return CategoryAverage
	default:
		return CategoryBelowAverage
	}
}

// Ratings 主管十项评分,每项 0-10
type Ratings struct {
	DomainKnowledge          *int `json:"domain_knowledge" validate:"omitempty,gte=0,lte=10"`
	ClassControlInnovation   *int `json:"class_control_innovation" validate:"omitempty,gte=0,lte=10"`
	StudentMentoring         *int `json:"student_mentoring" validate:"omitempty,gte=0,lte=10"`
	InitiativeDrive          *int `json:"initiative_drive" validate:"omitempty,gte=0,lte=10"`
	TaskCompletion           *int `json:"task_completion" validate:"omitempty,gte=0,lte=10"`
	PolicyCompliance         *int `json:"policy_compliance" validate:"omitempty,gte=0,lte=10"`
	AttirePunctuality        *int `json:"attire_punctuality" validate:"omitempty,gte=0,lte=10"`
	LeavePermissions         *int `json:"leave_permissions" validate:"omitempty,gte=0,lte=10"`
	CollegialityTeamwork     *int `json:"collegiality_teamwork" validate:"omitempty,gte=0,lte=10"`
	AdministrativeEfficiency *int `json:"administrative_efficiency" validate:"omitempty,gte=0,lte=10"`
}

// named 评分项及其所属类别
type named struct {
	field string
	value *int
}

func (r Ratings) teaching() []named {
	return []named{
		{"domain_knowledge", r.DomainKnowledge},
		{"class_control_innovation", r.ClassControlInnovation},
		{"student_mentoring", r.StudentMentoring},
	}
}

func (r Ratings) research() []named {
	return []named{
		{"initiative_drive", r.InitiativeDrive},
		{"task_completion", r.TaskCompletion},
	}
}

func (r Ratings) professional() []named {
	return []named{
		{"attire_punctuality", r.AttirePunctuality},
		{"collegiality_teamwork", r.CollegialityTeamwork},
		{"policy_compliance", r.PolicyCompliance},
	}
}

func (r Ratings) admin() []named {
	return []named{
		{"administrative_efficiency", r.AdministrativeEfficiency},
		{"leave_permissions", r.LeavePermissions},
	}
}

func (r Ratings) all() []named {
	out := append(r.teaching(), r.research()...)
	out = append(out, r.professional()...)
	return append(out, r.admin()...)
}

// Validate 校验已填写评分的范围
func (r Ratings) Validate() error {
	return utils.ValidateStruct("INVALID_RATING", "ratings must be within 0-10", r)
}

// Missing 返回未填写的评分项
func (r Ratings) Missing() []string {
	var out []string
	for _, n := range r.all() {
		if n.value == nil {
			out = append(out, n.field)
		}
	}
	return out
}

// Merge 用 patch 中已填写的评分覆盖当前评分
func (r Ratings) Merge(patch Ratings) Ratings {
	pick := func(cur, next *int) *int {
		if next != nil {
			v := *next
			return &v
		}
		return cur
	}
	return Ratings{
		DomainKnowledge:          pick(r.DomainKnowledge, patch.DomainKnowledge),
		ClassControlInnovation:   pick(r.ClassControlInnovation, patch.ClassControlInnovation),
		StudentMentoring:         pick(r.StudentMentoring, patch.StudentMentoring),
		InitiativeDrive:          pick(r.InitiativeDrive, patch.InitiativeDrive),
		TaskCompletion:           pick(r.TaskCompletion, patch.TaskCompletion),
		PolicyCompliance:         pick(r.PolicyCompliance, patch.PolicyCompliance),
		AttirePunctuality:        pick(r.AttirePunctuality, patch.AttirePunctuality),
		LeavePermissions:         pick(r.LeavePermissions, patch.LeavePermissions),
		CollegialityTeamwork:     pick(r.CollegialityTeamwork, patch.CollegialityTeamwork),
		AdministrativeEfficiency: pick(r.AdministrativeEfficiency, patch.AdministrativeEfficiency),
	}
}

func mean(items []named) float64 {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, n := range items {
		if n.value != nil {
			sum += clip(float64(*n.value), RatingMax)
		}
	}
	return sum / float64(len(items))
}

// EvaluationScores 主管评价计算结果
type EvaluationScores struct {
	HODAssessment   float64             `json:"hod_assessment_score"`
	Teaching        float64             `json:"teaching_weighted_score"`
	Research        float64             `json:"research_weighted_score"`
	ProfessionalDev float64             `json:"professional_dev_weighted_score"`
	Admin           float64             `json:"admin_weighted_score"`
	Final           float64             `json:"final_weighted_score"`
	Normalized      float64             `json:"normalized_score"`
	Category        PerformanceCategory `json:"performance_category"`
}

// ScoreEvaluation 融合自评分和主管评分
// 每类加权分 = 自评占比 × 自评分 + (1 - 自评占比) × 评分均值 / 10 × 类别上限
func ScoreEvaluation(self Subscores, r Ratings, b BlendWeights) (EvaluationScores, error) {
	if missing := r.Missing(); len(missing) > 0 {
		return EvaluationScores{}, apperr.Validation("INCOMPLETE_RATINGS", "all ratings are required", missing...)
	}
	if err := r.Validate(); err != nil {
		return EvaluationScores{}, err
	}

	blend := func(share, subscore float64, items []named, upper float64) float64 {
		v := share*clip(subscore, upper) + (1-share)*mean(items)/RatingMax*upper
		return Round2(clip(v, upper))
	}

	s := EvaluationScores{
		HODAssessment:   Round2(mean(r.all()) * 10),
		Teaching:        blend(b.Teaching, self.Teaching, r.teaching(), TeachingMax),
		Research:        blend(b.Research, self.Research, r.research(), ResearchMax),
		ProfessionalDev: blend(b.ProfessionalDev, self.ProfessionalDev, r.professional(), ProfessionalDevMax),
		Admin:           blend(b.Admin, self.Admin, r.admin(), AdminMax),
	}
	s.Final = Round2(s.Teaching + s.Research + s.ProfessionalDev + s.Admin)
	s.Normalized = Round2(s.Final / TotalMax * 100)
	s.Category = Classify(s.Normalized)
	return s, nil
}
