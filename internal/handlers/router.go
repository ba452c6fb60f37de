package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"github.com/permis-dz/lifecycle-service/internal/services"
)

type HandlerManager struct {
	identityHandler     *IdentityHandler
	catalogHandler      *CatalogHandler
	enrollmentHandler   *EnrollmentHandler
	schedulingHandler   *SchedulingHandler
	assessmentHandler   *AssessmentHandler
	certificateHandler  *CertificateHandler
	notificationHandler *NotificationHandler
	authMiddleware      *JWTAuthMiddleware
	serviceManager      services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger *slog.Logger,
	jwtSecret string,
	tokenTTL time.Duration,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewJWTAuthMiddleware(jwtSecret, tokenTTL, userRepo)

	return &HandlerManager{
		identityHandler:     NewIdentityHandler(serviceManager.Identity(), authMiddleware, logger),
		catalogHandler:      NewCatalogHandler(serviceManager.Catalog(), logger),
		enrollmentHandler:   NewEnrollmentHandler(serviceManager.Enrollment(), logger),
		schedulingHandler:   NewSchedulingHandler(serviceManager.Scheduling(), logger),
		assessmentHandler:   NewAssessmentHandler(serviceManager.Assessment(), logger),
		certificateHandler:  NewCertificateHandler(serviceManager.Certificate(), logger),
		notificationHandler: NewNotificationHandler(serviceManager.Notification(), logger),
		authMiddleware:      authMiddleware,
		serviceManager:      serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	v1 := router.Group("/api/v1")

	// Public routes: registration, login, school browsing and certificate
	// verification require no token.
	v1.POST("/auth/register", hm.identityHandler.Register)
	v1.POST("/auth/login", hm.identityHandler.Login)
	v1.GET("/states", hm.identityHandler.ListStates)
	v1.GET("/schools", hm.catalogHandler.ListSchools)
	v1.GET("/schools/:id", hm.catalogHandler.GetSchool)
	v1.GET("/schools/:id/reviews", hm.catalogHandler.ListReviews)
	v1.GET("/certificates/:code/verify", hm.certificateHandler.Verify)

	authed := v1.Group("")
	authed.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Profile routes
		profile := authed.Group("/profile")
		{
			profile.GET("", hm.identityHandler.GetProfile)
			profile.PUT("", hm.identityHandler.UpdateProfile)
		}
		authed.DELETE("/users/:id", hm.identityHandler.Deactivate)

		// External expert routes
		experts := authed.Group("/experts")
		{
			experts.POST("", hm.identityHandler.RegisterExpert)
			experts.GET("", hm.identityHandler.ListExperts)
			experts.POST("/:id/approve", hm.authMiddleware.RequireRoleMiddleware(models.RoleManager), hm.identityHandler.ApproveExpert)
		}

		// School management routes - managers only
		schools := authed.Group("/schools")
		{
			schools.POST("", hm.catalogHandler.CreateSchool)
			schools.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleManager), hm.catalogHandler.UpdateSchool)
			schools.POST("/:id/teachers", hm.authMiddleware.RequireRoleMiddleware(models.RoleManager), hm.catalogHandler.AddTeacher)
			schools.GET("/:id/teachers", hm.catalogHandler.ListTeachers)
			schools.GET("/:id/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleManager), hm.catalogHandler.GetSchoolStats)
		}
		authed.POST("/reviews", hm.catalogHandler.SubmitReview)

		// Enrollment routes
		enrollments := authed.Group("/enrollments")
		{
			enrollments.POST("", hm.enrollmentHandler.Enroll)
			enrollments.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleManager), hm.enrollmentHandler.ListEnrollments)
			enrollments.GET("/:id", hm.enrollmentHandler.GetEnrollment)
			enrollments.POST("/:id/pay", hm.enrollmentHandler.CompletePayment)
			enrollments.POST("/:id/withdraw", hm.enrollmentHandler.Withdraw)
		}

		// Current-user views
		me := authed.Group("/me")
		{
			me.GET("/enrollments", hm.enrollmentHandler.ListMyEnrollments)
			me.GET("/attempts", hm.assessmentHandler.ListMyAttempts)
			me.GET("/certificates", hm.certificateHandler.ListMyCertificates)
		}

		// Session routes
		sessions := authed.Group("/sessions")
		{
			sessions.POST("", hm.schedulingHandler.ScheduleSession)
			sessions.GET("", hm.schedulingHandler.ListSessions)
			sessions.POST("/:id/complete", hm.schedulingHandler.CompleteSession)
			sessions.POST("/:id/cancel", hm.schedulingHandler.CancelSession)
		}

		// Exam routes
		exams := authed.Group("/exams")
		{
			exams.POST("", hm.schedulingHandler.ScheduleExam)
			exams.GET("", hm.schedulingHandler.ListExams)
			exams.POST("/:id/confirm", hm.schedulingHandler.ConfirmExam)
			exams.POST("/:id/complete", hm.schedulingHandler.CompleteExam)
			exams.POST("/:id/cancel", hm.schedulingHandler.CancelExam)
		}

		// Quiz routes
		quizzes := authed.Group("/quizzes")
		{
			quizzes.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleManager), hm.assessmentHandler.CreateQuiz)
			quizzes.GET("", hm.assessmentHandler.ListQuizzes)
			quizzes.GET("/:id", hm.assessmentHandler.GetQuiz)
			quizzes.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleManager), hm.assessmentHandler.UpdateQuiz)
			quizzes.POST("/:id/attempts", hm.assessmentHandler.SubmitAttempt)
			quizzes.POST("/:id/questions/import", hm.authMiddleware.RequireRoleMiddleware(models.RoleManager), hm.assessmentHandler.ImportQuestions)
			quizzes.GET("/:id/questions/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleManager), hm.assessmentHandler.ExportQuestions)
		}
		// Notification routes
		notifications := authed.Group("/notifications")
		{
			notifications.GET("", hm.notificationHandler.ListNotifications)
			notifications.POST("/:id/read", hm.notificationHandler.MarkRead)
		}
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "lifecycle-service",
	})
}
