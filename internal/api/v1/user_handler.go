package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/isd-sgcu/cucm25-backend/internal/api/middleware"
	"github.com/isd-sgcu/cucm25-backend/internal/api/response"
	inputsanitize "github.com/isd-sgcu/cucm25-backend/internal/api/sanitize"
	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/service"
)

type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

type registerRequest struct {
	StudentID      *string `json:"student_id"`
	Nickname       string  `json:"nickname" binding:"required"`
	Firstname      string  `json:"firstname" binding:"required"`
	Lastname       string  `json:"lastname" binding:"required"`
	School         *string `json:"school"`
	EducationLevel *string `json:"education_level"`
}

type onboardingRequest struct {
	Answers []onboardingAnswer `json:"answers" binding:"required"`
}

type onboardingAnswer struct {
	QuestionID int    `json:"question_id" binding:"required"`
	Answer     string `json:"answer" binding:"required"`
}

func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{userService: userService, logger: logger}
}

func RegisterUserRoutes(group *gin.RouterGroup, handler *UserHandler) {
	users := group.Group("/users")
	users.Use(middleware.JWTAuth())

	// Registration and onboarding stay outside the availability gate so a
	// first-time visitor can complete them even while their role's login
	// window is closed.
	users.POST("/register", handler.Register)
	users.POST("/onboarding", handler.Onboard)
	users.GET("/me", handler.GetMe)
}

// Register creates the local account for an identity-provider principal on
// first visit. Username and role come from the verified token, never the
// request body.
func (h *UserHandler) Register(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest, "invalid request")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), service.RegisterInput{
		UserID:         principal.ID,
		StudentID:      inputsanitize.TextPtr(req.StudentID),
		Username:       principal.Username,
		Nickname:       inputsanitize.Text(req.Nickname),
		Firstname:      inputsanitize.Text(req.Firstname),
		Lastname:       inputsanitize.Text(req.Lastname),
		Role:           principal.Role,
		School:         inputsanitize.TextPtr(req.School),
		EducationLevel: inputsanitize.TextPtr(req.EducationLevel),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, user)
}

func (h *UserHandler) Onboard(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req onboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest, "invalid request")
		return
	}

	answers := make([]model.OnboardingAnswer, 0, len(req.Answers))
	for _, answer := range req.Answers {
		cleaned := inputsanitize.Text(answer.Answer)
		if cleaned == "" {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest, "empty answer")
			return
		}
		answers = append(answers, model.OnboardingAnswer{
			QuestionID: answer.QuestionID,
			Answer:     cleaned,
		})
	}

	if err := h.userService.Onboard(c.Request.Context(), principal, answers); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, gin.H{"onboarded": true})
}

func (h *UserHandler) GetMe(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	user, err := h.userService.GetMe(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, user)
}

func (h *UserHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrUserNotFound, "user not found")
	case errors.Is(err, service.ErrUsernameTaken):
		response.Fail(c, http.StatusConflict, response.ErrUsernameTaken, "account already exists")
	case errors.Is(err, service.ErrAlreadyOnboarded):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyOnboarded, "already onboarded")
	case errors.Is(err, service.ErrNoAnswers), errors.Is(err, service.ErrInvalidInput):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest, "invalid request")
	case errors.Is(err, service.ErrSettingsUnavailable):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrSystemUnavailable, "system unavailable")
	default:
		h.logger.Error("user request failed", zap.Error(err))
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}
