package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-account-adaptor/internal/dto/response"
	"github.com/jrjohn/arcana-account-adaptor/internal/middleware"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/document"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/options"
	apperrors "github.com/jrjohn/arcana-account-adaptor/pkg/errors"
	"github.com/jrjohn/arcana-account-adaptor/pkg/logger"
)

// OperationRecorder counts account operations.
type OperationRecorder interface {
	RecordAccountOperation(ctx context.Context, operation string, success bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordAccountOperation(context.Context, string, bool) {}

// AccountController exposes the account facade over HTTP
type AccountController struct {
	accounts *adaptor.Adaptor
	recorder OperationRecorder
	logger   *zap.Logger
}

// NewAccountController creates a new AccountController instance
func NewAccountController(accounts *adaptor.Adaptor, recorder OperationRecorder, l *zap.Logger) *AccountController {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &AccountController{
		accounts: accounts,
		recorder: recorder,
		logger:   logger.ForComponent(l, "accounts"),
	}
}

// RegisterRoutes registers the account routes
func (c *AccountController) RegisterRoutes(router *gin.RouterGroup) {
	accounts := router.Group("/accounts")
	{
		accounts.POST("", c.Create)
		accounts.GET("/:id", c.GetByID)
		accounts.PATCH("/:id", c.Update)
		accounts.GET("/:id/profile", c.GetProfile)
		accounts.PATCH("/:id/profile", c.EditProfile)
		accounts.GET("/username/:username", c.GetByUsername)
		accounts.GET("/email/:email", c.GetByEmail)
	}
}

// Create persists a new account from a JSON object of properties
// @Summary Create account
// @Tags Accounts
// @Accept json
// @Produce json
// @Success 201 {object} response.ApiResponse[response.Account]
// @Router /api/v1/accounts [post]
func (c *AccountController) Create(ctx *gin.Context) {
	props, err := bindObject(ctx)
	if err != nil {
		c.fail(ctx, "create", apperrors.ErrBadRequest.WithDetail("%v", err))
		return
	}

	acc, err := c.accounts.Create(ctx.Request.Context(), props)
	if err != nil {
		c.fail(ctx, "create", err)
		return
	}

	c.recorder.RecordAccountOperation(ctx.Request.Context(), "create", true)
	ctx.JSON(http.StatusCreated, response.NewSuccess(c.accounts.Serialize(acc), "account created").
		WithRequestID(middleware.GetRequestID(ctx)))
}

// GetByID returns the serialized account
// @Summary Get account by ID
// @Tags Accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} response.ApiResponse[response.Account]
// @Router /api/v1/accounts/{id} [get]
func (c *AccountController) GetByID(ctx *gin.Context) {
	acc, ok := c.load(ctx, "find_by_id")
	if !ok {
		return
	}
	c.ok(ctx, "find_by_id", c.accounts.Serialize(acc))
}

// GetByUsername returns the serialized account with the given username
// @Summary Get account by username
// @Tags Accounts
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} response.ApiResponse[response.Account]
// @Router /api/v1/accounts/username/{username} [get]
func (c *AccountController) GetByUsername(ctx *gin.Context) {
	acc, err := c.accounts.FindByUsername(ctx.Request.Context(), ctx.Param("username"))
	c.respondFound(ctx, "find_by_username", acc, err)
}

// GetByEmail returns the serialized account with the given email
// @Summary Get account by email
// @Tags Accounts
// @Produce json
// @Param email path string true "Email"
// @Success 200 {object} response.ApiResponse[response.Account]
// @Router /api/v1/accounts/email/{email} [get]
func (c *AccountController) GetByEmail(ctx *gin.Context) {
	acc, err := c.accounts.FindByEmail(ctx.Request.Context(), ctx.Param("email"))
	c.respondFound(ctx, "find_by_email", acc, err)
}

// Update applies changes keyed by logical field name, e.g. {"loginAttempts": 2}
// @Summary Update account fields
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} response.ApiResponse[response.Account]
// @Router /api/v1/accounts/{id} [patch]
func (c *AccountController) Update(ctx *gin.Context) {
	body, err := bindObject(ctx)
	if err != nil {
		c.fail(ctx, "update", apperrors.ErrBadRequest.WithDetail("%v", err))
		return
	}

	changes := make(map[options.Field]any, len(body))
	for key, v := range body {
		f, ok := options.ParseField(key)
		if !ok {
			c.fail(ctx, "update", apperrors.ErrUnknownField.WithDetail("%s", key))
			return
		}
		changes[f] = v
	}

	acc, ok := c.load(ctx, "update")
	if !ok {
		return
	}
	if acc, err = c.accounts.Update(ctx.Request.Context(), acc, changes); err != nil {
		c.fail(ctx, "update", err)
		return
	}
	c.ok(ctx, "update", c.accounts.Serialize(acc))
}

// GetProfile returns the filtered profile sub-document
// @Summary Get account profile
// @Tags Accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} response.ApiResponse[map[string]any]
// @Router /api/v1/accounts/{id}/profile [get]
func (c *AccountController) GetProfile(ctx *gin.Context) {
	acc, ok := c.load(ctx, "get_profile")
	if !ok {
		return
	}
	c.ok(ctx, "get_profile", c.accounts.GetProfile(acc))
}

// EditProfile sets declared profile fields
// @Summary Edit account profile
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} response.ApiResponse[map[string]any]
// @Router /api/v1/accounts/{id}/profile [patch]
func (c *AccountController) EditProfile(ctx *gin.Context) {
	changes, err := bindObject(ctx)
	if err != nil {
		c.fail(ctx, "edit_profile", apperrors.ErrBadRequest.WithDetail("%v", err))
		return
	}

	acc, ok := c.load(ctx, "edit_profile")
	if !ok {
		return
	}
	if acc, err = c.accounts.EditProfile(ctx.Request.Context(), acc, changes); err != nil {
		c.fail(ctx, "edit_profile", err)
		return
	}
	c.ok(ctx, "edit_profile", c.accounts.GetProfile(acc))
}

// load resolves the :id parameter, writing the error response when it fails.
func (c *AccountController) load(ctx *gin.Context, op string) (*document.Document, bool) {
	acc, err := c.accounts.FindByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		c.fail(ctx, op, err)
		return nil, false
	}
	if acc == nil {
		c.fail(ctx, op, apperrors.ErrNotFound)
		return nil, false
	}
	return acc, true
}

func (c *AccountController) respondFound(ctx *gin.Context, op string, acc *document.Document, err error) {
	switch {
	case err != nil:
		c.fail(ctx, op, err)
	case acc == nil:
		c.fail(ctx, op, apperrors.ErrNotFound)
	default:
		c.ok(ctx, op, c.accounts.Serialize(acc))
	}
}

func (c *AccountController) ok(ctx *gin.Context, op string, data map[string]any) {
	c.recorder.RecordAccountOperation(ctx.Request.Context(), op, true)
	ctx.JSON(http.StatusOK, response.NewSuccessWithData(data).WithRequestID(middleware.GetRequestID(ctx)))
}

// fail maps err to a status and error body. Duplicate keys become conflicts;
// anything that is not an AppError is logged and reported as internal.
func (c *AccountController) fail(ctx *gin.Context, op string, err error) {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		c.logger.Error("Account operation failed",
			zap.String("operation", op),
			zap.String("request_id", middleware.GetRequestID(ctx)),
			zap.Error(err),
		)
	}
	if appErr.Status != http.StatusNotFound {
		c.recorder.RecordAccountOperation(ctx.Request.Context(), op, false)
	}
	_ = ctx.Error(err)
	ctx.JSON(appErr.Status, response.NewAppError[any](appErr).WithRequestID(middleware.GetRequestID(ctx)))
}

func toAppError(err error) *apperrors.AppError {
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.ErrConflict
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.ErrInternalError
}
