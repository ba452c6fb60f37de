package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/permis-dz/lifecycle-service/internal/events"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"github.com/permis-dz/lifecycle-service/internal/validator"
	"gorm.io/gorm"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	EnableDebugLogging bool
	LogLevel           slog.Level

	// Service-specific configurations
	Enrollment EnrollmentConfig
	Scheduling SchedulingConfig

	// Global settings
	DefaultTimeout time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db             *gorm.DB
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	config         ServiceManagerConfig

	// Service instances
	identityService     IdentityService
	catalogService      CatalogService
	enrollmentService   EnrollmentService
	schedulingService   SchedulingService
	assessmentService   AssessmentService
	certificateService  CertificateService
	notificationService NotificationService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:             db,
		repo:           repo,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
		config:         config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher) ServiceManager {
	config := ServiceManagerConfig{
		EnableDebugLogging: false,
		LogLevel:           slog.LevelInfo,

		Enrollment: DefaultEnrollmentConfig(),
		Scheduling: DefaultSchedulingConfig(),

		DefaultTimeout: 30 * time.Second,
	}

	return NewServiceManager(db, repo, logger, validator, eventPublisher, config)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.initializeServices(ctx)

	if err := sm.validateServicesHealth(ctx); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

// initializeServices builds the graph bottom-up: notification and certificate
// first, since enrollment triggers certificate issuance and scheduling records
// outcomes through enrollment.
func (sm *serviceManager) initializeServices(ctx context.Context) {
	sm.identityService = NewIdentityService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.logger.Info("Identity service initialized")

	sm.catalogService = NewCatalogService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.logger.Info("Catalog service initialized")

	sm.notificationService = NewNotificationService(sm.repo, sm.db, sm.logger)
	sm.logger.Info("Notification service initialized")

	sm.certificateService = NewCertificateService(sm.repo, sm.db, sm.logger, sm.eventPublisher, sm.notificationService)
	sm.logger.Info("Certificate service initialized")

	sm.enrollmentService = NewEnrollmentService(sm.repo, sm.db, sm.logger, sm.validator, sm.eventPublisher, sm.certificateService, sm.config.Enrollment)
	sm.logger.Info("Enrollment service initialized")

	sm.schedulingService = NewSchedulingService(sm.repo, sm.db, sm.logger, sm.validator, sm.eventPublisher, sm.enrollmentService, sm.config.Scheduling)
	sm.logger.Info("Scheduling service initialized")

	sm.assessmentService = NewAssessmentService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.logger.Info("Assessment service initialized")
}

func (sm *serviceManager) validateServicesHealth(ctx context.Context) error {
	if repoManager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := repoManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("repository health check failed: %w", err)
		}
	}
	return nil
}

// Service getters
func (sm *serviceManager) Identity() IdentityService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.identityService != nil {
		return sm.identityService
	}

	panic("identity service not initialized")
}

func (sm *serviceManager) Catalog() CatalogService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.catalogService != nil {
		return sm.catalogService
	}

	panic("catalog service not initialized")
}

func (sm *serviceManager) Enrollment() EnrollmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.enrollmentService != nil {
		return sm.enrollmentService
	}

	panic("enrollment service not initialized")
}

func (sm *serviceManager) Scheduling() SchedulingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.schedulingService != nil {
		return sm.schedulingService
	}

	panic("scheduling service not initialized")
}

func (sm *serviceManager) Assessment() AssessmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.assessmentService != nil {
		return sm.assessmentService
	}

	panic("assessment service not initialized")
}

func (sm *serviceManager) Certificate() CertificateService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.certificateService != nil {
		return sm.certificateService
	}

	panic("certificate service not initialized")
}

func (sm *serviceManager) Notification() NotificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.notificationService != nil {
		return sm.notificationService
	}

	panic("notification service not initialized")
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if repoManager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := repoManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("repository health check failed: %w", err)
		}
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.eventPublisher != nil {
		if err := sm.eventPublisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if repoManager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := repoManager.Shutdown(ctx); err != nil {
			sm.logger.Error("Failed to shutdown repository manager", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// GetConfig returns the service manager configuration
func (sm *serviceManager) GetConfig() ServiceManagerConfig {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.config
}

// IsInitialized returns whether the service manager has been initialized
func (sm *serviceManager) IsInitialized() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.initialized
}

// IsShutdown returns whether the service manager has been shut down
func (sm *serviceManager) IsShutdown() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.shutdown
}
