package accounts

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/oriem-gate/internal/auth"
)

// CreateHandler は POST /api/accounts のハンドラーを返します。
func CreateHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := auth.CurrentSession(c)
		if !ok || sess.Identity == nil {
			renderUnauthorized(c)
			return
		}

		var input CreateInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "accountType と initialDepositCents を JSON で送ってください",
			})
			return
		}

		account, err := svc.Create(c.Request.Context(), sess.Identity.UserID, input)
		if err != nil {
			renderAccountError(c, err)
			return
		}
		c.JSON(http.StatusCreated, account)
	}
}

// ListHandler は GET /api/accounts のハンドラーを返します。
func ListHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := auth.CurrentSession(c)
		if !ok || sess.Identity == nil {
			renderUnauthorized(c)
			return
		}

		accounts, err := svc.List(c.Request.Context(), sess.Identity.UserID)
		if err != nil {
			renderAccountError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"accounts": accounts})
	}
}

// GetHandler は GET /api/accounts/:accountId のハンドラーを返します。
func GetHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := auth.CurrentSession(c)
		if !ok || sess.Identity == nil {
			renderUnauthorized(c)
			return
		}

		account, err := svc.Get(c.Request.Context(), sess.Identity.UserID, c.Param("accountId"))
		if err != nil {
			renderAccountError(c, err)
			return
		}
		c.JSON(http.StatusOK, account)
	}
}

// UpdateHandler は PUT /api/accounts/:accountId のハンドラーを返します。
func UpdateHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := auth.CurrentSession(c)
		if !ok || sess.Identity == nil {
			renderUnauthorized(c)
			return
		}

		var input UpdateInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "更新内容を JSON で送ってください",
			})
			return
		}

		account, err := svc.Update(c.Request.Context(), sess.Identity.UserID, c.Param("accountId"), input)
		if err != nil {
			renderAccountError(c, err)
			return
		}
		c.JSON(http.StatusOK, account)
	}
}

// CloseHandler は DELETE /api/accounts/:accountId のハンドラーを返します。
func CloseHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := auth.CurrentSession(c)
		if !ok || sess.Identity == nil {
			renderUnauthorized(c)
			return
		}

		if err := svc.Close(c.Request.Context(), sess.Identity.UserID, c.Param("accountId")); err != nil {
			renderAccountError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func renderUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"code":    "UNAUTHORIZED",
		"message": "ログインが必要です",
	})
}

func renderAccountError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "ACCOUNT_NOT_FOUND",
			"message": "口座が見つかりません",
		})
	case errors.Is(err, ErrInvalidAccountType):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_ACCOUNT_TYPE",
			"message": "口座種別は checking または savings を指定してください",
		})
	case errors.Is(err, ErrMinimumDeposit):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "MINIMUM_DEPOSIT_NOT_MET",
			"message": "最低預入額に満たない金額です",
		})
	case errors.Is(err, ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_STATUS",
			"message": "口座状態は active / frozen / closed のいずれかを指定してください",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "ACCOUNT_STORE_ERROR",
			"message": "口座情報の処理に失敗しました",
		})
	}
}
