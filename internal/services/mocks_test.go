package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
)

// mockRepository is an in-memory Repository. WithTransaction serializes
// callers behind one mutex, which mirrors how calendar row locks serialize
// scheduling writes in Postgres.
type mockRepository struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users         map[string]*models.User
	schools       map[string]*models.DrivingSchool
	teachers      map[string]*models.Teacher
	reviews       map[string]*models.Review
	enrollments   map[string]*models.Enrollment
	courses       map[string]*models.CourseProgress
	sessions      map[string]*models.Session
	exams         map[string]*models.Exam
	experts       map[string]*models.ExternalExpert
	calendars     map[string]*models.ResourceCalendar
	quizzes       map[string]*models.Quiz
	attempts      map[string]*models.QuizAttempt
	certificates  map[string]*models.Certificate
	notifications map[string]*models.Notification
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:         make(map[string]*models.User),
		schools:       make(map[string]*models.DrivingSchool),
		teachers:      make(map[string]*models.Teacher),
		reviews:       make(map[string]*models.Review),
		enrollments:   make(map[string]*models.Enrollment),
		courses:       make(map[string]*models.CourseProgress),
		sessions:      make(map[string]*models.Session),
		exams:         make(map[string]*models.Exam),
		experts:       make(map[string]*models.ExternalExpert),
		calendars:     make(map[string]*models.ResourceCalendar),
		quizzes:       make(map[string]*models.Quiz),
		attempts:      make(map[string]*models.QuizAttempt),
		certificates:  make(map[string]*models.Certificate),
		notifications: make(map[string]*models.Notification),
	}
}

func (m *mockRepository) User() repositories.UserRepository                 { return (*mockUserRepo)(m) }
func (m *mockRepository) School() repositories.SchoolRepository             { return (*mockSchoolRepo)(m) }
func (m *mockRepository) Teacher() repositories.TeacherRepository           { return (*mockTeacherRepo)(m) }
func (m *mockRepository) Review() repositories.ReviewRepository             { return (*mockReviewRepo)(m) }
func (m *mockRepository) Enrollment() repositories.EnrollmentRepository     { return (*mockEnrollmentRepo)(m) }
func (m *mockRepository) CourseProgress() repositories.CourseProgressRepository {
	return (*mockCourseRepo)(m)
}
func (m *mockRepository) Session() repositories.SessionRepository       { return (*mockSessionRepo)(m) }
func (m *mockRepository) Exam() repositories.ExamRepository             { return (*mockExamRepo)(m) }
func (m *mockRepository) Expert() repositories.ExternalExpertRepository { return (*mockExpertRepo)(m) }
func (m *mockRepository) Calendar() repositories.CalendarRepository     { return (*mockCalendarRepo)(m) }
func (m *mockRepository) Quiz() repositories.QuizRepository             { return (*mockQuizRepo)(m) }
func (m *mockRepository) QuizAttempt() repositories.QuizAttemptRepository {
	return (*mockAttemptRepo)(m)
}
func (m *mockRepository) Certificate() repositories.CertificateRepository {
	return (*mockCertificateRepo)(m)
}
func (m *mockRepository) Notification() repositories.NotificationRepository {
	return (*mockNotificationRepo)(m)
}

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// ===== USERS =====

type mockUserRepo mockRepository

func (m *mockUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&user.ID)
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepo) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, tx *gorm.DB, userID string, role models.UserRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Role = role
	return nil
}

func (m *mockUserRepo) Deactivate(ctx context.Context, tx *gorm.DB, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.IsActive = false
	return nil
}

// ===== SCHOOLS =====

type mockSchoolRepo mockRepository

func (m *mockSchoolRepo) Create(ctx context.Context, tx *gorm.DB, school *models.DrivingSchool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&school.ID)
	m.schools[school.ID] = school
	return nil
}

func (m *mockSchoolRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.DrivingSchool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if school, ok := m.schools[id]; ok {
		return school, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockSchoolRepo) GetByManager(ctx context.Context, tx *gorm.DB, managerID string) (*models.DrivingSchool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, school := range m.schools {
		if school.ManagerID == managerID {
			return school, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockSchoolRepo) Update(ctx context.Context, tx *gorm.DB, school *models.DrivingSchool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schools[school.ID] = school
	return nil
}

func (m *mockSchoolRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.SchoolFilters) ([]*models.DrivingSchool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var schools []*models.DrivingSchool
	for _, school := range m.schools {
		if filters.State != nil && school.State != *filters.State {
			continue
		}
		if filters.MinPrice != nil && school.Price < *filters.MinPrice {
			continue
		}
		if filters.MaxPrice != nil && school.Price > *filters.MaxPrice {
			continue
		}
		if filters.MinRating != nil && school.Rating < *filters.MinRating {
			continue
		}
		schools = append(schools, school)
	}
	sort.Slice(schools, func(i, j int) bool { return schools[i].ID < schools[j].ID })
	return schools, int64(len(schools)), nil
}

func (m *mockSchoolRepo) UpdateRating(ctx context.Context, tx *gorm.DB, schoolID string, rating float64, totalReviews int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	school, ok := m.schools[schoolID]
	if !ok {
		return repositories.ErrNotFound
	}
	school.Rating = rating
	school.TotalReviews = totalReviews
	return nil
}

// ===== TEACHERS =====

type mockTeacherRepo mockRepository

func (m *mockTeacherRepo) Create(ctx context.Context, tx *gorm.DB, teacher *models.Teacher) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&teacher.ID)
	m.teachers[teacher.ID] = teacher
	return nil
}

func (m *mockTeacherRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if teacher, ok := m.teachers[id]; ok {
		return teacher, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockTeacherRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, teacher := range m.teachers {
		if teacher.UserID == userID {
			return teacher, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockTeacherRepo) GetBySchool(ctx context.Context, tx *gorm.DB, schoolID string) ([]*models.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var teachers []*models.Teacher
	for _, teacher := range m.teachers {
		if teacher.SchoolID == schoolID && teacher.IsActive {
			teachers = append(teachers, teacher)
		}
	}
	return teachers, nil
}

func (m *mockTeacherRepo) Update(ctx context.Context, tx *gorm.DB, teacher *models.Teacher) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teachers[teacher.ID] = teacher
	return nil
}

// ===== REVIEWS =====

type mockReviewRepo mockRepository

func (m *mockReviewRepo) Create(ctx context.Context, tx *gorm.DB, review *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&review.ID)
	m.reviews[review.ID] = review
	return nil
}

func (m *mockReviewRepo) GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID string) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, review := range m.reviews {
		if review.EnrollmentID == enrollmentID {
			return review, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockReviewRepo) GetBySchool(ctx context.Context, tx *gorm.DB, schoolID string, limit, offset int) ([]*models.Review, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var reviews []*models.Review
	for _, review := range m.reviews {
		if review.SchoolID == schoolID {
			reviews = append(reviews, review)
		}
	}
	return reviews, int64(len(reviews)), nil
}

func (m *mockReviewRepo) AggregateForSchool(ctx context.Context, tx *gorm.DB, schoolID string) (float64, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	var count int
	for _, review := range m.reviews {
		if review.SchoolID == schoolID {
			sum += float64(review.Rating)
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return sum / float64(count), count, nil
}

// ===== ENROLLMENTS =====

type mockEnrollmentRepo mockRepository

func (m *mockEnrollmentRepo) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// One open enrollment per student and school, like the partial unique
	// index on the real table.
	for _, existing := range m.enrollments {
		if existing.StudentID == enrollment.StudentID && existing.SchoolID == enrollment.SchoolID &&
			(existing.Status == models.EnrollmentPendingPayment || existing.Status == models.EnrollmentActive) {
			return gorm.ErrDuplicatedKey
		}
	}
	ensureID(&enrollment.ID)
	m.enrollments[enrollment.ID] = enrollment
	return nil
}

func (m *mockEnrollmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if enrollment, ok := m.enrollments[id]; ok {
		return enrollment, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockEnrollmentRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Enrollment, error) {
	return m.GetByID(ctx, tx, id)
}

func (m *mockEnrollmentRepo) GetByIDWithCourses(ctx context.Context, tx *gorm.DB, id string) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	enrollment, ok := m.enrollments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	loaded := *enrollment
	loaded.Courses = nil
	for _, course := range m.courses {
		if course.EnrollmentID == id {
			loaded.Courses = append(loaded.Courses, *course)
		}
	}
	return &loaded, nil
}

func (m *mockEnrollmentRepo) GetActiveByStudentAndSchool(ctx context.Context, tx *gorm.DB, studentID, schoolID string) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, enrollment := range m.enrollments {
		if enrollment.StudentID != studentID || enrollment.SchoolID != schoolID {
			continue
		}
		if enrollment.Status == models.EnrollmentPendingPayment || enrollment.Status == models.EnrollmentActive {
			return enrollment, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockEnrollmentRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var enrollments []*models.Enrollment
	for _, enrollment := range m.enrollments {
		if enrollment.StudentID == studentID {
			enrollments = append(enrollments, enrollment)
		}
	}
	return enrollments, nil
}

func (m *mockEnrollmentRepo) Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollments[enrollment.ID] = enrollment
	return nil
}

func (m *mockEnrollmentRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var enrollments []*models.Enrollment
	for _, enrollment := range m.enrollments {
		if filters.Status != nil && enrollment.Status != *filters.Status {
			continue
		}
		if filters.StudentID != nil && enrollment.StudentID != *filters.StudentID {
			continue
		}
		if filters.SchoolID != nil && enrollment.SchoolID != *filters.SchoolID {
			continue
		}
		enrollments = append(enrollments, enrollment)
	}
	return enrollments, int64(len(enrollments)), nil
}

// ===== COURSE PROGRESS =====

type mockCourseRepo mockRepository

func (m *mockCourseRepo) CreateBatch(ctx context.Context, tx *gorm.DB, courses []*models.CourseProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, course := range courses {
		ensureID(&course.ID)
		m.courses[course.ID] = course
	}
	return nil
}

func (m *mockCourseRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.CourseProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if course, ok := m.courses[id]; ok {
		return course, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockCourseRepo) GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID string) ([]*models.CourseProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var courses []*models.CourseProgress
	for _, course := range m.courses {
		if course.EnrollmentID == enrollmentID {
			courses = append(courses, course)
		}
	}
	return courses, nil
}

func (m *mockCourseRepo) GetByEnrollmentAndType(ctx context.Context, tx *gorm.DB, enrollmentID string, courseType models.CourseType) (*models.CourseProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, course := range m.courses {
		if course.EnrollmentID == enrollmentID && course.CourseType == courseType {
			return course, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockCourseRepo) Update(ctx context.Context, tx *gorm.DB, course *models.CourseProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[course.ID] = course
	return nil
}

// ===== SESSIONS =====

type mockSessionRepo mockRepository

func (m *mockSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&session.ID)
	m.sessions[session.ID] = session
	return nil
}

func (m *mockSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[id]; ok {
		return session, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockSessionRepo) Update(ctx context.Context, tx *gorm.DB, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

func (m *mockSessionRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.SessionFilters) ([]*models.Session, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sessions []*models.Session
	for _, session := range m.sessions {
		if filters.Status != nil && session.Status != *filters.Status {
			continue
		}
		if filters.StudentID != nil && session.StudentID != *filters.StudentID {
			continue
		}
		if filters.TeacherID != nil && session.TeacherID != *filters.TeacherID {
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, int64(len(sessions)), nil
}

func (m *mockSessionRepo) ListOverlapping(ctx context.Context, tx *gorm.DB, teacherID string, start, end time.Time) ([]*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sessions []*models.Session
	for _, session := range m.sessions {
		if session.TeacherID != teacherID || session.Status != models.SessionScheduled {
			continue
		}
		if session.ScheduledAt.Before(end) && session.EndsAt().After(start) {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

func (m *mockSessionRepo) ListStartedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) ([]*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sessions []*models.Session
	for _, session := range m.sessions {
		if session.Status == models.SessionScheduled && session.ScheduledAt.Before(cutoff) {
			sessions = append(sessions, session)
			if limit > 0 && len(sessions) >= limit {
				break
			}
		}
	}
	return sessions, nil
}

// ===== EXAMS =====

type mockExamRepo mockRepository

func (m *mockExamRepo) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&exam.ID)
	m.exams[exam.ID] = exam
	return nil
}

func (m *mockExamRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if exam, ok := m.exams[id]; ok {
		return exam, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockExamRepo) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exams[exam.ID] = exam
	return nil
}

func (m *mockExamRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var exams []*models.Exam
	for _, exam := range m.exams {
		if filters.Status != nil && exam.Status != *filters.Status {
			continue
		}
		if filters.StudentID != nil && exam.StudentID != *filters.StudentID {
			continue
		}
		if filters.ExaminerID != nil && exam.ExaminerID != *filters.ExaminerID {
			continue
		}
		exams = append(exams, exam)
	}
	return exams, int64(len(exams)), nil
}

func (m *mockExamRepo) ListOverlapping(ctx context.Context, tx *gorm.DB, examinerID string, start, end time.Time) ([]*models.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var exams []*models.Exam
	for _, exam := range m.exams {
		if exam.ExaminerID != examinerID || exam.ScheduledAt == nil {
			continue
		}
		if exam.Status != models.ExamRequested && exam.Status != models.ExamScheduled {
			continue
		}
		if exam.ScheduledAt.Before(end) && exam.EndsAt().After(start) {
			exams = append(exams, exam)
		}
	}
	return exams, nil
}

func (m *mockExamRepo) CountScheduled(ctx context.Context, tx *gorm.DB, examinerID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, exam := range m.exams {
		if exam.ExaminerID != examinerID {
			continue
		}
		if exam.Status == models.ExamRequested || exam.Status == models.ExamScheduled {
			count++
		}
	}
	return count, nil
}

// ===== EXPERTS =====

type mockExpertRepo mockRepository

func (m *mockExpertRepo) Create(ctx context.Context, tx *gorm.DB, expert *models.ExternalExpert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&expert.ID)
	m.experts[expert.ID] = expert
	return nil
}

func (m *mockExpertRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.ExternalExpert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if expert, ok := m.experts[id]; ok {
		return expert, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockExpertRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.ExternalExpert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, expert := range m.experts {
		if expert.UserID == userID {
			return expert, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockExpertRepo) Update(ctx context.Context, tx *gorm.DB, expert *models.ExternalExpert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.experts[expert.ID] = expert
	return nil
}

func (m *mockExpertRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ExpertFilters) ([]*models.ExternalExpert, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var experts []*models.ExternalExpert
	for _, expert := range m.experts {
		if filters.ApprovedOnly && !expert.Approved {
			continue
		}
		if filters.Specialization != nil {
			specs, _ := expert.GetSpecializations()
			if !containsCourseType(specs, *filters.Specialization) {
				continue
			}
		}
		if filters.State != nil {
			states, _ := expert.GetCoverageStates()
			if !containsString(states, *filters.State) {
				continue
			}
		}
		experts = append(experts, expert)
	}
	sort.Slice(experts, func(i, j int) bool { return experts[i].ID < experts[j].ID })
	return experts, int64(len(experts)), nil
}

func containsCourseType(list []models.CourseType, want models.CourseType) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}

func containsString(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}

// ===== CALENDAR =====

type mockCalendarRepo mockRepository

func (m *mockCalendarRepo) Lock(ctx context.Context, tx *gorm.DB, resourceID string) (*models.ResourceCalendar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if calendar, ok := m.calendars[resourceID]; ok {
		return calendar, nil
	}
	calendar := &models.ResourceCalendar{ResourceID: resourceID}
	m.calendars[resourceID] = calendar
	return calendar, nil
}

func (m *mockCalendarRepo) Touch(ctx context.Context, tx *gorm.DB, resourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if calendar, ok := m.calendars[resourceID]; ok {
		calendar.Version++
	}
	return nil
}

// ===== QUIZZES =====

type mockQuizRepo mockRepository

func (m *mockQuizRepo) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&quiz.ID)
	m.quizzes[quiz.ID] = quiz
	return nil
}

func (m *mockQuizRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if quiz, ok := m.quizzes[id]; ok {
		return quiz, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockQuizRepo) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[quiz.ID] = quiz
	return nil
}

func (m *mockQuizRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var quizzes []*models.Quiz
	for _, quiz := range m.quizzes {
		if !quizMatches(quiz, filters) {
			continue
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, int64(len(quizzes)), nil
}

func (m *mockQuizRepo) GetBySchool(ctx context.Context, tx *gorm.DB, schoolID string, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var quizzes []*models.Quiz
	for _, quiz := range m.quizzes {
		if quiz.SchoolID != schoolID || !quizMatches(quiz, filters) {
			continue
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, int64(len(quizzes)), nil
}

func quizMatches(quiz *models.Quiz, filters repositories.QuizFilters) bool {
	if filters.ActiveOnly && !quiz.IsActive {
		return false
	}
	if filters.CourseType != nil && quiz.CourseType != *filters.CourseType {
		return false
	}
	if filters.Difficulty != nil && quiz.Difficulty != *filters.Difficulty {
		return false
	}
	if filters.SchoolID != nil && quiz.SchoolID != *filters.SchoolID {
		return false
	}
	return true
}

// ===== QUIZ ATTEMPTS =====

type mockAttemptRepo mockRepository

func (m *mockAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&attempt.ID)
	m.attempts[attempt.ID] = attempt
	return nil
}

func (m *mockAttemptRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if attempt, ok := m.attempts[id]; ok {
		return attempt, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockAttemptRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, limit, offset int) ([]*models.QuizAttempt, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var attempts []*models.QuizAttempt
	for _, attempt := range m.attempts {
		if attempt.StudentID == studentID {
			attempts = append(attempts, attempt)
		}
	}
	return attempts, int64(len(attempts)), nil
}

func (m *mockAttemptRepo) GetByQuizAndStudent(ctx context.Context, tx *gorm.DB, quizID, studentID string) ([]*models.QuizAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var attempts []*models.QuizAttempt
	for _, attempt := range m.attempts {
		if attempt.QuizID == quizID && attempt.StudentID == studentID {
			attempts = append(attempts, attempt)
		}
	}
	return attempts, nil
}

// ===== CERTIFICATES =====

type mockCertificateRepo mockRepository

func (m *mockCertificateRepo) Create(ctx context.Context, tx *gorm.DB, cert *models.Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.certificates {
		if existing.EnrollmentID == cert.EnrollmentID {
			return gorm.ErrDuplicatedKey
		}
	}
	ensureID(&cert.ID)
	if cert.VerificationCode == "" {
		cert.VerificationCode = uuid.NewString()
	}
	m.certificates[cert.ID] = cert
	return nil
}

func (m *mockCertificateRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cert, ok := m.certificates[id]; ok {
		return cert, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockCertificateRepo) GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID string) (*models.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cert := range m.certificates {
		if cert.EnrollmentID == enrollmentID {
			return cert, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockCertificateRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var certs []*models.Certificate
	for _, cert := range m.certificates {
		if cert.StudentID == studentID {
			certs = append(certs, cert)
		}
	}
	return certs, nil
}

func (m *mockCertificateRepo) GetByVerificationCode(ctx context.Context, tx *gorm.DB, code string) (*models.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cert := range m.certificates {
		if cert.VerificationCode == code {
			return cert, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// ===== NOTIFICATIONS =====

type mockNotificationRepo mockRepository

func (m *mockNotificationRepo) Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&notification.ID)
	m.notifications[notification.ID] = notification
	return nil
}

func (m *mockNotificationRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var notifications []*models.Notification
	for _, notification := range m.notifications {
		if notification.UserID != userID {
			continue
		}
		if filters.UnreadOnly && notification.IsRead {
			continue
		}
		notifications = append(notifications, notification)
	}
	return notifications, int64(len(notifications)), nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, tx *gorm.DB, notificationID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	notification, ok := m.notifications[notificationID]
	if !ok || notification.UserID != userID {
		return repositories.ErrNotFound
	}
	notification.IsRead = true
	return nil
}
