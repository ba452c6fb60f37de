package models

// Action identifies an operation gated by the role policy table. Handlers and
// services consult HasCapability instead of comparing roles inline.
type Action string

const (
	ActionManageSchool     Action = "school.manage"
	ActionInviteTeacher    Action = "teacher.invite"
	ActionAuthorQuiz       Action = "quiz.author"
	ActionTakeQuiz         Action = "quiz.take"
	ActionEnroll           Action = "enrollment.create"
	ActionPay              Action = "enrollment.pay"
	ActionScheduleSession  Action = "session.schedule"
	ActionCompleteSession  Action = "session.complete"
	ActionScheduleExam     Action = "exam.schedule"
	ActionConfirmExam      Action = "exam.confirm"
	ActionCompleteExam     Action = "exam.complete"
	ActionRegisterExpert   Action = "expert.register"
	ActionApproveExpert    Action = "expert.approve"
	ActionReviewSchool     Action = "review.create"
	ActionViewAnalytics    Action = "analytics.view"
	ActionManageEnrollment Action = "enrollment.manage"
)

// rolePolicy is the closed capability table. A missing entry means the role
// cannot perform the action.
var rolePolicy = map[UserRole]map[Action]bool{
	RoleGuest: {
		ActionEnroll:         true,
		ActionRegisterExpert: true,
	},
	RoleStudent: {
		ActionEnroll:          true,
		ActionPay:             true,
		ActionTakeQuiz:        true,
		ActionScheduleSession: true,
		ActionScheduleExam:    true,
		ActionReviewSchool:    true,
	},
	RoleTeacher: {
		ActionCompleteSession: true,
	},
	RoleManager: {
		ActionManageSchool:     true,
		ActionInviteTeacher:    true,
		ActionAuthorQuiz:       true,
		ActionConfirmExam:      true,
		ActionCompleteSession:  true,
		ActionApproveExpert:    true,
		ActionViewAnalytics:    true,
		ActionManageEnrollment: true,
	},
	RoleExternalExpert: {
		ActionConfirmExam:  true,
		ActionCompleteExam: true,
	},
}

// HasCapability reports whether role may perform action.
func HasCapability(role UserRole, action Action) bool {
	actions, ok := rolePolicy[role]
	if !ok {
		return false
	}
	return actions[action]
}
