package response

import "github.com/gin-gonic/gin"

const (
	CodeSuccess = 0
)

const (
	ErrUnauthorized = 10001
	ErrTokenExpired = 10002
	ErrForbidden    = 10003
)

const (
	ErrUserNotFound      = 20001
	ErrUsernameTaken     = 20002
	ErrAlreadyOnboarded  = 20003
	ErrRecipientNotFound = 20004
)

const (
	ErrWalletNotFound    = 30001
	ErrInsufficientFunds = 30002
	ErrInvalidAmount     = 30003
)

const (
	ErrGiftSelf          = 40001
	ErrGiftQuotaExceeded = 40002
	ErrGiftVerification  = 40003
)

const (
	ErrCodeNotFound       = 50001
	ErrCodeExpired        = 50002
	ErrCodeAlreadyUsed    = 50003
	ErrCodeRoleMismatch   = 50004
	ErrCodeSpaceExhausted = 50005
)

const (
	ErrInvalidQuantity = 60001
	ErrInvalidFilter   = 60002
)

const (
	ErrInvalidSetting    = 70001
	ErrSystemUnavailable = 90001
	ErrLoginDisabled     = 90002
	ErrInvalidRequest    = 99400
	ErrInternal          = 99999
)

type Response struct {
	Code       int         `json:"code"`
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

func Success(c *gin.Context, data any) {
	c.JSON(200, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Paginated(c *gin.Context, data any, page, pageSize int, total int64) {
	c.JSON(200, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
		Pagination: &Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	})
}

func Fail(c *gin.Context, httpStatus, appCode int, message string) {
	c.JSON(httpStatus, Response{
		Code:    appCode,
		Message: message,
	})
}
