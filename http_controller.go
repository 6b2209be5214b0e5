package auth

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"

	"github.com/nanopulse/go-auth/middleware/jwtware"
)

// AuthControllerRoutes holds the route paths registered by the controller.
type AuthControllerRoutes struct {
	Register string
	Login    string
	Logout   string
}

// AuthController exposes the engine as a JSON HTTP surface.
type AuthController struct {
	Debug        bool
	Logger       Logger
	Auther       Authenticator
	Config       Config
	Routes       *AuthControllerRoutes
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

// WithControllerAuthenticator sets the engine behind the controller.
func WithControllerAuthenticator(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

// WithControllerConfig sets the configuration used for token extraction.
func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

// WithControllerLogger sets the controller logger.
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerDebug enables request payload dumps.
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// NewAuthController builds the controller. The engine is mandatory.
func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: RenderAuthError,
		Routes: &AuthControllerRoutes{
			Register: "/auth/register",
			Login:    "/auth/login",
			Logout:   "/auth/logout",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Config == nil {
		c.Config = &SimpleConfig{}
	}

	return c
}

// RegisterAuthRoutes mounts the register, login, and logout endpoints.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost).
		SetName("auth.register.post")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login.post")

	app.Post(controller.Routes.Logout, controller.LogoutPost).
		SetName("auth.logout.post")
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	FirstName string `form:"first_name" json:"firstName"`
	LastName  string `form:"last_name" json:"lastName"`
	Email     string `form:"email" json:"email"`
	Password  string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
	)
}

// RegisterPost creates the account and returns the issued token pair.
func (a *AuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, RouterErrorResponse{
			Status:  router.StatusBadRequest,
			Error:   "Bad Request",
			Message: "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, RouterErrorResponse{
			Status:  router.StatusBadRequest,
			Error:   "Bad Request",
			Message: err.Error(),
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	msg := RegisterUserMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Password:  payload.Password,
	}

	result, err := a.Auther.Register(a.requestContext(ctx), msg)
	if err != nil {
		a.Logger.Error("register user error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, result)
}

// LoginPost verifies credentials and returns the fresh token pair.
func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, RouterErrorResponse{
			Status:  router.StatusBadRequest,
			Error:   "Bad Request",
			Message: "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, RouterErrorResponse{
			Status:  router.StatusBadRequest,
			Error:   "Bad Request",
			Message: err.Error(),
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	result, err := a.Auther.Login(a.requestContext(ctx), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("login error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, result)
}

// LogoutPost revokes the presented bearer token. Requests without a token
// still get a success response, logout is idempotent.
func (a *AuthController) LogoutPost(ctx router.Context) error {
	raw, _ := jwtware.ExtractRawTokenFromContext(
		ctx,
		jwtware.GetExtractors(a.Config.GetTokenLookup(), a.Config.GetAuthScheme()),
	)

	if err := a.Auther.Logout(a.requestContext(ctx), raw); err != nil {
		a.Logger.Error("logout error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "Logged out",
	})
}

// requestContext attaches transport metadata so issued ledger records and
// activity events capture where the request came from.
func (a *AuthController) requestContext(ctx router.Context) context.Context {
	return WithRequestMeta(ctx.Context(), RequestMeta{
		UserAgent: ctx.GetString("User-Agent", ""),
		IPAddress: ctx.IP(),
	})
}
