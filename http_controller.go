package accounts

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// Response messages match the wire contract of the accounts API.
const (
	MsgRegistered      = "User registered successfully"
	MsgLoggedIn        = "User login successfully"
	MsgPasswordChanged = "Password changed successfully"
	MsgLoggedOut       = "Logout successful"
	MsgInvalidToken    = "Invalid token"
)

type AccountControllerRoutes struct {
	Register string
	Login    string
	Profile  string
	Password string
	Logout   string
	Refresh  string
}

type AccountController struct {
	Debug        bool
	Logger       Logger
	Service      *AccountService
	Tokens       TokenIssuer
	Routes       *AccountControllerRoutes
	ContextKey   string
	Protect      router.MiddlewareFunc
	ErrorHandler router.ErrorHandler
}

type AccountControllerOption func(*AccountController) *AccountController

func WithControllerService(svc *AccountService) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Service = svc
		return c
	}
}

func WithControllerTokens(tokens TokenIssuer) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Tokens = tokens
		return c
	}
}

func WithControllerProtect(protect router.MiddlewareFunc) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Protect = protect
		return c
	}
}

func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Logger = logger
		return c
	}
}

func WithControllerContextKey(key string) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.ContextKey = key
		return c
	}
}

func NewAccountController(opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger:     defLogger{},
		ContextKey: "user",
		Routes: &AccountControllerRoutes{
			Register: "/register",
			Login:    "/login",
			Profile:  "/profile",
			Password: "/password",
			Logout:   "/logout",
			Refresh:  "/refresh",
		},
	}

	c.ErrorHandler = c.handleError

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Service == nil {
		panic("Missing AccountService in account controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenIssuer in account controller...")
	}

	return c
}

func RegisterAccountRoutes[T any](app router.Router[T], opts ...AccountControllerOption) {

	controller := NewAccountController(opts...)

	protected := func(h router.HandlerFunc) router.HandlerFunc {
		if controller.Protect == nil {
			return h
		}
		return controller.Protect(h)
	}

	app.Post(controller.Routes.Register, controller.RegisterPost).
		SetName("accounts.register")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("accounts.login")

	app.Get(controller.Routes.Profile, protected(controller.ProfileShow)).
		SetName("accounts.profile.get")
	app.Put(controller.Routes.Profile, protected(controller.ProfileUpdate)).
		SetName("accounts.profile.put")
	app.Patch(controller.Routes.Profile, protected(controller.ProfileUpdate)).
		SetName("accounts.profile.patch")

	app.Put(controller.Routes.Password, protected(controller.PasswordPut)).
		SetName("accounts.password.put")

	app.Post(controller.Routes.Logout, protected(controller.LogoutPost)).
		SetName("accounts.logout")

	app.Post(controller.Routes.Refresh, controller.TokenRefreshPost).
		SetName("accounts.refresh")
}

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	PasswordConfirm string `form:"password_confirm" json:"password_confirm"`
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 150)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required),
		validation.Field(
			&r.PasswordConfirm,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
		validation.Field(&r.FirstName, validation.Length(1, 30)),
		validation.Field(&r.LastName, validation.Length(1, 30)),
	)
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// ProfileUpdateRequest carries the writable profile fields. Only supplied
// fields are changed; anything else in the body is ignored.
type ProfileUpdateRequest struct {
	FirstName *string `form:"first_name" json:"first_name"`
	LastName  *string `form:"last_name" json:"last_name"`
	Bio       *string `form:"bio" json:"bio"`
	Avatar    *string `form:"avatar" json:"avatar"`
}

// Validate will run validation rules
func (r ProfileUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(1, 30)),
		validation.Field(&r.LastName, validation.Length(1, 30)),
		validation.Field(&r.Bio, validation.Length(1, 500)),
		validation.Field(&r.Avatar, validation.Length(1, 255)),
	)
}

// ChangePasswordRequest is the password change payload
type ChangePasswordRequest struct {
	OldPassword        string `form:"old_password" json:"old_password"`
	NewPassword        string `form:"new_password" json:"new_password"`
	NewPasswordConfirm string `form:"new_password_confirm" json:"new_password_confirm"`
}

// Validate will run validation rules
func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
		validation.Field(
			&r.NewPasswordConfirm,
			validation.Required,
			validation.By(ValidateStringEquals(r.NewPassword)),
		),
	)
}

// LogoutRequest is the logout payload; the token is optional
type LogoutRequest struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}

// TokenRefreshRequest is the refresh payload
type TokenRefreshRequest struct {
	Refresh string `form:"refresh" json:"refresh"`
}

// Validate will run validation rules
func (r TokenRefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Refresh, validation.Required),
	)
}

// AuthResponse is the envelope returned by register, login and refresh.
type AuthResponse struct {
	User    *Profile `json:"user"`
	Access  string   `json:"access"`
	Refresh string   `json:"refresh"`
	Message string   `json:"message"`
}

func (a *AccountController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register account parse payload: ", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register account validate payload: ", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= ACCOUNTS REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("================================")
	}

	account, err := a.Service.Register(ctx.Context(), RegisterAccountMessage{
		Username:        payload.Username,
		Email:           payload.Email,
		Password:        payload.Password,
		PasswordConfirm: payload.PasswordConfirm,
		FirstName:       payload.FirstName,
		LastName:        payload.LastName,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	pair, err := a.Tokens.IssuePair(ctx.Context(), account.Identity())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, AuthResponse{
		User:    a.Service.ProjectProfile(ctx.Context(), account),
		Access:  pair.Access,
		Refresh: pair.Refresh,
		Message: MsgRegistered,
	})
}

func (a *AccountController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": FormatValidationErrorToMap(err),
		})
	}

	account, err := a.Service.Authenticate(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("login authenticate: ", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": authErrorMessage(err),
		})
	}

	pair, err := a.Tokens.IssuePair(ctx.Context(), account.Identity())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, AuthResponse{
		User:    a.Service.ProjectProfile(ctx.Context(), account),
		Access:  pair.Access,
		Refresh: pair.Refresh,
		Message: MsgLoggedIn,
	})
}

func (a *AccountController) ProfileShow(ctx router.Context) error {
	callerID, ok := CallerID(ctx, a.ContextKey)
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	profile, err := a.Service.Profile(ctx.Context(), callerID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, profile)
}

func (a *AccountController) ProfileUpdate(ctx router.Context) error {
	callerID, ok := CallerID(ctx, a.ContextKey)
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	payload := new(ProfileUpdateRequest)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("profile update parse payload: ", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": FormatValidationErrorToMap(err),
		})
	}

	account, err := a.Service.UpdateProfile(ctx.Context(), callerID, ProfileUpdateMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Bio:       payload.Bio,
		Avatar:    payload.Avatar,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, a.Service.ProjectProfile(ctx.Context(), account))
}

func (a *AccountController) PasswordPut(ctx router.Context) error {
	callerID, ok := CallerID(ctx, a.ContextKey)
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	payload := new(ChangePasswordRequest)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password change parse payload: ", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": FormatValidationErrorToMap(err),
		})
	}

	err := a.Service.ChangePassword(ctx.Context(), callerID, ChangePasswordMessage{
		OldPassword:        payload.OldPassword,
		NewPassword:        payload.NewPassword,
		NewPasswordConfirm: payload.NewPasswordConfirm,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": MsgPasswordChanged,
	})
}

// LogoutPost blacklists the submitted refresh token. A missing token is a
// successful no-op so logout stays idempotent.
func (a *AccountController) LogoutPost(ctx router.Context) error {
	payload := new(LogoutRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("logout parse payload: ", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": MsgInvalidToken,
		})
	}

	if payload.RefreshToken == "" {
		return ctx.JSON(router.StatusOK, map[string]string{
			"message": MsgLoggedOut,
		})
	}

	if err := a.Tokens.Revoke(ctx.Context(), payload.RefreshToken); err != nil {
		a.Logger.Error("logout revoke: ", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": MsgInvalidToken,
		})
	}

	var accountID string
	if callerID, ok := CallerID(ctx, a.ContextKey); ok {
		accountID = callerID.String()
	}
	a.Service.RecordLogout(ctx.Context(), accountID)

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": MsgLoggedOut,
	})
}

func (a *AccountController) TokenRefreshPost(ctx router.Context) error {
	payload := new(TokenRefreshRequest)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": FormatValidationErrorToMap(err),
		})
	}

	pair, err := a.Tokens.Refresh(ctx.Context(), payload.Refresh)
	if err != nil {
		a.Logger.Error("token refresh: ", "error", err)
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": MsgInvalidToken,
		})
	}

	return ctx.JSON(router.StatusOK, pair)
}

func (a *AccountController) handleError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		a.Logger.Error("unexpected error: ", "error", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput, goerrors.CategoryConflict:
		field := ValidationField(richErr)
		if field == "" {
			return ctx.JSON(router.StatusBadRequest, map[string]string{
				"error": richErr.Message,
			})
		}
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": map[string]string{field: richErr.Message},
		})
	case goerrors.CategoryAuth:
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": richErr.Message,
		})
	case goerrors.CategoryNotFound:
		return ctx.JSON(router.StatusNotFound, map[string]string{
			"error": richErr.Message,
		})
	default:
		a.Logger.Error("internal error: ", "error", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}
}

// authErrorMessage keeps login failures generic; only the disabled-account
// state is surfaced distinctly.
func authErrorMessage(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeAccountDisabled {
		return ErrAccountDisabled.Message
	}
	return ErrMismatchedHashAndPassword.Message
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field, fieldErr := range fieldErrs {
			if fieldErr != nil {
				out[field] = fieldErr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}
