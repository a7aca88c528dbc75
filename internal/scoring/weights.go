package scoring

import (
	"fmt"
	"sync/atomic"
)

// 各类别分数上限,合计 375
const (
	TeachingMax        = 100.0
	ResearchMax        = 125.0
	ProfessionalDevMax = 75.0
	AdminMax           = 75.0
	TotalMax           = TeachingMax + ResearchMax + ProfessionalDevMax + AdminMax

	RatingMax = 10
)

// MetricWeight 单项指标权重: 每单位得分及该项上限
type MetricWeight struct {
	PerUnit float64 `mapstructure:"per_unit" json:"per_unit"`
	Max     float64 `mapstructure:"max" json:"max"`
}

// points 计算单项得分,负数按 0 处理,超过上限截断
func (w MetricWeight) points(units float64) float64 {
	return clip(units*w.PerUnit, w.Max)
}

// TeachingWeights 教学类权重
type TeachingWeights struct {
	PassRate         MetricWeight `mapstructure:"pass_rate" json:"pass_rate"`               // 按参考人数加权的通过率(0-1)
	TeachingLoad     MetricWeight `mapstructure:"teaching_load" json:"teaching_load"`       // 学时 × 课程通过率
	CourseAssessment MetricWeight `mapstructure:"course_assessment" json:"course_assessment"` // 课程评估分均值(0-40)
	StudentFeedback  MetricWeight `mapstructure:"student_feedback" json:"student_feedback"`   // 学生评教(0-10)
	MajorProjects    MetricWeight `mapstructure:"major_projects" json:"major_projects"`
	MiniProjects     MetricWeight `mapstructure:"mini_projects" json:"mini_projects"`
	CourseMaterials  MetricWeight `mapstructure:"course_materials" json:"course_materials"` // 课程档案、实验手册、试卷
}

// ResearchWeights 科研类权重
type ResearchWeights struct {
	Papers              MetricWeight `mapstructure:"papers" json:"papers"`
	Books               MetricWeight `mapstructure:"books" json:"books"`
	Patents             MetricWeight `mapstructure:"patents" json:"patents"`
	ResearchProjects    MetricWeight `mapstructure:"research_projects" json:"research_projects"`
	ConsultancyProjects MetricWeight `mapstructure:"consultancy_projects" json:"consultancy_projects"`
	PhdGuidance         MetricWeight `mapstructure:"phd_guidance" json:"phd_guidance"`
}

// ProfessionalWeights 专业发展类权重
type ProfessionalWeights struct {
	Conferences    MetricWeight `mapstructure:"conferences" json:"conferences"`
	Workshops      MetricWeight `mapstructure:"workshops" json:"workshops"`
	Seminars       MetricWeight `mapstructure:"seminars" json:"seminars"`
	OnlineCourses  MetricWeight `mapstructure:"online_courses" json:"online_courses"`
	Certifications MetricWeight `mapstructure:"certifications" json:"certifications"`
}

// AdminWeights 行政类权重
type AdminWeights struct {
	AdministrativeRoles     MetricWeight `mapstructure:"administrative_roles" json:"administrative_roles"`
	CommitteeMemberships    MetricWeight `mapstructure:"committee_memberships" json:"committee_memberships"`
	InstitutionalActivities MetricWeight `mapstructure:"institutional_activities" json:"institutional_activities"`
}

// BlendWeights 自评分在加权分中的占比,其余部分来自主管评分
type BlendWeights struct {
	Teaching        float64 `mapstructure:"teaching" json:"teaching"`
	Research        float64 `mapstructure:"research" json:"research"`
	ProfessionalDev float64 `mapstructure:"professional_dev" json:"professional_dev"`
	Admin           float64 `mapstructure:"admin" json:"admin"`
}

// WeightTable 机构可调的评分权重表
type WeightTable struct {
	Teaching     TeachingWeights     `mapstructure:"teaching" json:"teaching"`
	Research     ResearchWeights     `mapstructure:"research" json:"research"`
	Professional ProfessionalWeights `mapstructure:"professional" json:"professional"`
	Admin        AdminWeights        `mapstructure:"admin" json:"admin"`
	Blend        BlendWeights        `mapstructure:"blend" json:"blend"`
}

// DefaultWeightTable 默认权重表
func DefaultWeightTable() WeightTable {
	return WeightTable{
		Teaching: TeachingWeights{
			PassRate:         MetricWeight{PerUnit: 30, Max: 30},
			TeachingLoad:     MetricWeight{PerUnit: 0.1, Max: 10},
			CourseAssessment: MetricWeight{PerUnit: 0.5, Max: 20},
			StudentFeedback:  MetricWeight{PerUnit: 2, Max: 20},
			MajorProjects:    MetricWeight{PerUnit: 4, Max: 12},
			MiniProjects:     MetricWeight{PerUnit: 2, Max: 6},
			CourseMaterials:  MetricWeight{PerUnit: 1, Max: 10},
		},
		Research: ResearchWeights{
			Papers:              MetricWeight{PerUnit: 10, Max: 50},
			Books:               MetricWeight{PerUnit: 10, Max: 20},
			Patents:             MetricWeight{PerUnit: 15, Max: 30},
			ResearchProjects:    MetricWeight{PerUnit: 10, Max: 20},
			ConsultancyProjects: MetricWeight{PerUnit: 5, Max: 15},
			PhdGuidance:         MetricWeight{PerUnit: 5, Max: 20},
		},
		Professional: ProfessionalWeights{
			Conferences:    MetricWeight{PerUnit: 5, Max: 20},
			Workshops:      MetricWeight{PerUnit: 3, Max: 15},
			Seminars:       MetricWeight{PerUnit: 5, Max: 15},
			OnlineCourses:  MetricWeight{PerUnit: 4, Max: 16},
			Certifications: MetricWeight{PerUnit: 3, Max: 12},
		},
		Admin: AdminWeights{
			AdministrativeRoles:     MetricWeight{PerUnit: 10, Max: 30},
			CommitteeMemberships:    MetricWeight{PerUnit: 5, Max: 25},
			InstitutionalActivities: MetricWeight{PerUnit: 5, Max: 25},
		},
		Blend: BlendWeights{
			Teaching:        0.6,
			Research:        0.7,
			ProfessionalDev: 0.5,
			Admin:           0.5,
		},
	}
}

// Validate 校验权重表
func (t WeightTable) Validate() error {
	metrics := map[string]MetricWeight{
		"teaching.pass_rate":             t.Teaching.PassRate,
		"teaching.teaching_load":         t.Teaching.TeachingLoad,
		"teaching.course_assessment":     t.Teaching.CourseAssessment,
		"teaching.student_feedback":      t.Teaching.StudentFeedback,
		"teaching.major_projects":        t.Teaching.MajorProjects,
		"teaching.mini_projects":         t.Teaching.MiniProjects,
		"teaching.course_materials":      t.Teaching.CourseMaterials,
		"research.papers":                t.Research.Papers,
		"research.books":                 t.Research.Books,
		"research.patents":               t.Research.Patents,
		"research.research_projects":     t.Research.ResearchProjects,
		"research.consultancy_projects":  t.Research.ConsultancyProjects,
		"research.phd_guidance":          t.Research.PhdGuidance,
		"professional.conferences":       t.Professional.Conferences,
		"professional.workshops":         t.Professional.Workshops,
		"professional.seminars":          t.Professional.Seminars,
		"professional.online_courses":    t.Professional.OnlineCourses,
		"professional.certifications":    t.Professional.Certifications,
		"admin.administrative_roles":     t.Admin.AdministrativeRoles,
		"admin.committee_memberships":    t.Admin.CommitteeMemberships,
		"admin.institutional_activities": t.Admin.InstitutionalActivities,
	}
	for name, w := range metrics {
		if w.PerUnit < 0 || w.Max < 0 {
			return fmt.Errorf("scoring.%s: per_unit and max must be non-negative", name)
		}
	}

	shares := map[string]float64{
		"teaching":         t.Blend.Teaching,
		"research":         t.Blend.Research,
		"professional_dev": t.Blend.ProfessionalDev,
		"admin":            t.Blend.Admin,
	}
	for name, s := range shares {
		if s < 0 || s > 1 {
			return fmt.Errorf("scoring.blend.%s: self share must be within [0, 1]", name)
		}
	}
	return nil
}

// Provider 当前生效的权重表,配置热更新时整体替换
type Provider struct {
	table atomic.Pointer[WeightTable]
}

// NewProvider 创建权重表提供者
func NewProvider(t WeightTable) (*Provider, error) {
	p := &Provider{}
	if err := p.Set(t); err != nil {
		return nil, err
	}
	return p, nil
}

// Get 返回权重表快照
func (p *Provider) Get() WeightTable {
	if t := p.table.Load(); t != nil {
		return *t
	}
	return DefaultWeightTable()
}

// Set 替换权重表
func (p *Provider) Set(t WeightTable) error {
	if err := t.Validate(); err != nil {
		return err
	}
	p.table.Store(&t)
	return nil
}
