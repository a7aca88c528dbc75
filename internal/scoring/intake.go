package scoring

import "math"

// Subscores 自评四项分数
type Subscores struct {
	Teaching        float64 `json:"teaching_score"`
	Research        float64 `json:"research_score"`
	ProfessionalDev float64 `json:"professional_dev_score"`
	Admin           float64 `json:"admin_score"`
	Total           float64 `json:"total_score"`
}

// PassPercentage 课程通过率,保留一位小数
func PassPercentage(appeared, passed int) float64 {
	if appeared <= 0 {
		return 0
	}
	if passed > appeared {
		passed = appeared
	}
	if passed < 0 {
		passed = 0
	}
	return Round1(float64(passed) / float64(appeared) * 100)
}

// NormalizeCourses 重新计算每门课程的通过率,忽略调用方传入的值
func NormalizeCourses(courses []CourseEntry) {
	for i := range courses {
		courses[i].PassPercentage = PassPercentage(courses[i].StudentsAppeared, courses[i].StudentsPassed)
	}
}

// ScoreAppraisal 按权重表计算自评分数
// 纯函数: 相同指标和权重表总是得到相同结果,未填写的指标按 0 计
func ScoreAppraisal(m Metrics, t WeightTable) Subscores {
	s := Subscores{
		Teaching:        Round2(clip(teachingPoints(m, t.Teaching), TeachingMax)),
		Research:        Round2(clip(researchPoints(m, t.Research), ResearchMax)),
		ProfessionalDev: Round2(clip(professionalPoints(m, t.Professional), ProfessionalDevMax)),
		Admin:           Round2(clip(adminPoints(m, t.Admin), AdminMax)),
	}
	s.Total = Round2(s.Teaching + s.Research + s.ProfessionalDev + s.Admin)
	return s
}

func teachingPoints(m Metrics, w TeachingWeights) float64 {
	var appeared, passed int
	var load, assessment float64
	for _, c := range m.Courses {
		if c.StudentsAppeared <= 0 {
			continue
		}
		p := c.StudentsPassed
		if p > c.StudentsAppeared {
			p = c.StudentsAppeared
		}
		appeared += c.StudentsAppeared
		passed += max(p, 0)
		load += float64(max(c.PeriodsTaught, 0)) * float64(max(p, 0)) / float64(c.StudentsAppeared)
	}
	for _, c := range m.Courses {
		assessment += clip(c.AssessmentScore, 40)
	}

	var points float64
	if appeared > 0 {
		points += w.PassRate.points(float64(passed) / float64(appeared))
	}
	points += w.TeachingLoad.points(load)
	if len(m.Courses) > 0 {
		points += w.CourseAssessment.points(assessment / float64(len(m.Courses)))
	}
	if m.StudentFeedbackScore != nil {
		points += w.StudentFeedback.points(clip(*m.StudentFeedbackScore, RatingMax))
	}

	var major, mini int
	for _, p := range m.Projects {
		switch p.ProjectType {
		case ProjectMajor:
			major++
		case ProjectMini:
			mini++
		}
	}
	points += w.MajorProjects.points(float64(major))
	points += w.MiniProjects.points(float64(mini))
	points += w.CourseMaterials.points(float64(count(m.CourseFilesPrepared) +
		count(m.LabManualsPrepared) + count(m.QuestionPapersSet)))
	return points
}

func researchPoints(m Metrics, w ResearchWeights) float64 {
	return w.Papers.points(float64(count(m.ResearchPapersPublished))) +
		w.Books.points(float64(count(m.BooksAuthored))) +
		w.Patents.points(float64(count(m.PatentsFiled))) +
		w.ResearchProjects.points(float64(count(m.ResearchProjects))) +
		w.ConsultancyProjects.points(float64(count(m.ConsultancyProjects))) +
		w.PhdGuidance.points(float64(count(m.PhdGuidance)))
}

func professionalPoints(m Metrics, w ProfessionalWeights) float64 {
	return w.Conferences.points(float64(count(m.ConferencesAttended))) +
		w.Workshops.points(float64(count(m.WorkshopsAttended))) +
		w.Seminars.points(float64(count(m.SeminarsConducted))) +
		w.OnlineCourses.points(float64(count(m.OnlineCoursesCompleted))) +
		w.Certifications.points(float64(count(m.CertificationsObtained)))
}

func adminPoints(m Metrics, w AdminWeights) float64 {
	return w.AdministrativeRoles.points(float64(count(m.AdministrativeRoles))) +
		w.CommitteeMemberships.points(float64(count(m.CommitteeMemberships))) +
		w.InstitutionalActivities.points(float64(count(m.InstitutionalActivities)))
}

func count(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

// clip 截断到 [0, upper]
func clip(v, upper float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > upper {
		return upper
	}
	return v
}

// Round1 保留一位小数
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round2 保留两位小数
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
