package scoring

import (
	"gorm.io/datatypes"

	"github.com/mautops/appraisal-gin/internal/utils"
)

// ProjectType 项目规模
type ProjectType string

const (
	ProjectMini  ProjectType = "mini"
	ProjectMajor ProjectType = "major"
)

// CourseEntry 授课记录
type CourseEntry struct {
	Semester         string  `json:"semester" validate:"required"`
	CourseName       string  `json:"course_name" validate:"required"`
	PeriodsTaught    int     `json:"periods_taught" validate:"gte=0"`
	StudentsAppeared int     `json:"students_appeared" validate:"gt=0"`
	StudentsPassed   int     `json:"students_passed" validate:"gte=0,ltefield=StudentsAppeared"`
	TimesTaught      int     `json:"times_taught" validate:"gte=0"`
	AssessmentScore  float64 `json:"assessment_score" validate:"gte=0,lte=40"`
	PassPercentage   float64 `json:"pass_percentage"`
}

// ProjectEntry 指导的学生项目
type ProjectEntry struct {
	Program         string      `json:"program" validate:"required"`
	RollNumbers     string      `json:"roll_numbers"`
	StudentNames    string      `json:"student_names" validate:"required"`
	ProjectType     ProjectType `json:"project_type" validate:"required,oneof=mini major"`
	Title           string      `json:"title" validate:"required"`
	Type            string      `json:"type" validate:"required,oneof=inhouse external"`
	AssessmentScore float64     `json:"assessment_score" validate:"gte=0,lte=10"`
}

// Metrics 自评指标
// 计数类指标为空表示未填写,提交时必须全部填写且非负
type Metrics struct {
	Courses                   datatypes.JSONSlice[CourseEntry]  `json:"courses" validate:"required,min=1,dive"`
	Projects                  datatypes.JSONSlice[ProjectEntry] `json:"projects" validate:"dive"`
	TeachingLoadHours         *int                              `json:"teaching_load_hours" validate:"required,gte=0"`
	TotalClassesTaken         *int                              `json:"total_classes_taken" validate:"required,gte=0"`
	StudentFeedbackScore      *float64                          `json:"student_feedback_score" validate:"required,gte=0,lte=10"`
	CourseFilesPrepared       *int                              `json:"course_files_prepared" validate:"required,gte=0"`
	LabManualsPrepared        *int                              `json:"lab_manuals_prepared" validate:"required,gte=0"`
	QuestionPapersSet         *int                              `json:"question_papers_set" validate:"required,gte=0"`
	InnovativeTeachingMethods string                            `json:"innovative_teaching_methods" gorm:"type:text"`

	ResearchPapersPublished *int   `json:"research_papers_published" validate:"required,gte=0"`
	BooksAuthored           *int   `json:"books_authored" validate:"required,gte=0"`
	PatentsFiled            *int   `json:"patents_filed" validate:"required,gte=0"`
	ResearchProjects        *int   `json:"research_projects" validate:"required,gte=0"`
	ConsultancyProjects     *int   `json:"consultancy_projects" validate:"required,gte=0"`
	PhdGuidance             *int   `json:"phd_guidance" validate:"required,gte=0"`
	AwardsReceived          string `json:"awards_received" gorm:"type:text"`

	ConferencesAttended     *int   `json:"conferences_attended" validate:"required,gte=0"`
	WorkshopsAttended       *int   `json:"workshops_attended" validate:"required,gte=0"`
	SeminarsConducted       *int   `json:"seminars_conducted" validate:"required,gte=0"`
	OnlineCoursesCompleted  *int   `json:"online_courses_completed" validate:"required,gte=0"`
	CertificationsObtained  *int   `json:"certifications_obtained" validate:"required,gte=0"`
	ProfessionalMemberships string `json:"professional_memberships" gorm:"type:text"`

	AdministrativeRoles            *int   `json:"administrative_roles" validate:"required,gte=0"`
	CommitteeMemberships           *int   `json:"committee_memberships" validate:"required,gte=0"`
	InstitutionalActivities        *int   `json:"institutional_activities" validate:"required,gte=0"`
	AdministrativeResponsibilities string `json:"administrative_responsibilities" gorm:"type:text"`
}

// ValidateMetrics 提交前的完整性校验
// 返回 ValidationError,Fields 为出错字段路径,如 courses[0].students_passed
func ValidateMetrics(m Metrics) error {
	return utils.ValidateStruct("INVALID_METRICS", "self-appraisal metrics are incomplete or out of range", m)
}
