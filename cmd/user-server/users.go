package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/sqlobjects/pkg/sqlobjects"
)

// User is one row of the "user" table.
type User struct {
	Name      string
	Email     string
	Age       *int64
	Score     float64
	Active    bool
	CreatedAt time.Time
}

var userSchema = sqlobjects.Schema[User]{
	Table: "user",
	Fields: []sqlobjects.Field[User]{
		sqlobjects.String("name", func(u *User) *string { return &u.Name }),
		sqlobjects.String("email", func(u *User) *string { return &u.Email }),
		sqlobjects.NullInt("age", func(u *User) **int64 { return &u.Age }),
		sqlobjects.Float("score", func(u *User) *float64 { return &u.Score }).ServerDefault(),
		sqlobjects.Bool("active", func(u *User) *bool { return &u.Active }).ServerDefault(),
		sqlobjects.Time("created_at", func(u *User) *time.Time { return &u.CreatedAt }).ServerDefault(),
	},
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       *int64    `json:"age"`
	Score     float64   `json:"score"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(rec *sqlobjects.Record[User]) userResponse {
	return userResponse{
		ID:        rec.Key(),
		Name:      rec.Data.Name,
		Email:     rec.Data.Email,
		Age:       rec.Data.Age,
		Score:     rec.Data.Score,
		Active:    rec.Data.Active,
		CreatedAt: rec.Data.CreatedAt,
	}
}

type createUserRequest struct {
	Name   string   `json:"name" validate:"required,max=200"`
	Email  string   `json:"email" validate:"required,email"`
	Age    *int64   `json:"age" validate:"omitempty,gte=0,lte=200"`
	Score  *float64 `json:"score"`
	Active *bool    `json:"active"`
}

func (r *createUserRequest) row() map[string]any {
	row := map[string]any{
		"name":   r.Name,
		"email":  r.Email,
		"active": true,
	}
	if r.Age != nil {
		row["age"] = *r.Age
	}
	if r.Score != nil {
		row["score"] = *r.Score
	}
	if r.Active != nil {
		row["active"] = *r.Active
	}
	return row
}

// userHandler serves the user routes on top of one table handler.
type userHandler struct {
	users    *sqlobjects.Table[User]
	validate *validator.Validate
}

func newUserHandler(users *sqlobjects.Table[User]) *userHandler {
	return &userHandler{users: users, validate: validator.New()}
}

func (h *userHandler) register(e *echo.Echo) {
	e.GET("/users", h.list)
	e.POST("/users", h.create)
	e.GET("/users/:id", h.get)
	e.PATCH("/users/:id", h.update)
	e.DELETE("/users/:id", h.delete)
	e.POST("/users/:id/duplicate", h.duplicate)
}

// userID returns the :id route parameter in canonical form. Malformed ids
// cannot name a row and are reported as not found.
func userID(c echo.Context) (string, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", &sqlobjects.NotFoundError{Table: userSchema.Table, ID: c.Param("id")}
	}
	return id.String(), nil
}

var patchable = map[string]bool{"name": true, "email": true, "age": true, "score": true, "active": true}

func (h *userHandler) list(c echo.Context) error {
	records, err := h.users.LoadAll(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]userResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toResponse(rec))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *userHandler) create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := h.validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rec, err := h.users.Create(c.Request().Context(), req.row())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toResponse(rec))
}

func (h *userHandler) get(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	rec, err := h.users.Load(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toResponse(rec))
}

func (h *userHandler) update(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	partial := make(map[string]any)
	if err := (&echo.DefaultBinder{}).BindBody(c, &partial); err != nil {
		return err
	}
	for column := range partial {
		if !patchable[column] {
			return echo.NewHTTPError(http.StatusBadRequest, "column cannot be updated: "+column)
		}
	}
	if email, ok := partial["email"]; ok {
		if err := h.validate.Var(email, "required,email"); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "email: "+err.Error())
		}
	}

	rec, err := h.users.Update(c.Request().Context(), id, partial)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toResponse(rec))
}

func (h *userHandler) delete(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := h.users.Load(ctx, id); err != nil {
		return err
	}
	if err := h.users.Delete(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *userHandler) duplicate(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	rec, err := h.users.Load(ctx, id)
	if err != nil {
		return err
	}

	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return err
	}
	if err := h.validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	dup := rec.Duplicate()
	dup.Data.Email = req.Email
	dup.Data.CreatedAt = time.Time{}
	if err := dup.Save(ctx); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toResponse(dup))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler maps handler errors to JSON responses. Server faults are
// logged with the underlying error.
func errorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := classify(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error().Err(err).Msg("failed to write error response")
		}
	}
}

func classify(err error) (int, errorResponse) {
	var (
		notFound *sqlobjects.NotFoundError
		missing  *sqlobjects.MissingFieldError
		qerr     *sqlobjects.QueryError
		httpErr  *echo.HTTPError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, errorResponse{"NOT_FOUND", notFound.Error()}
	case errors.As(err, &missing):
		return http.StatusBadRequest, errorResponse{"MISSING_FIELD", missing.Error()}
	case errors.As(err, &qerr):
		switch qerr.Code {
		case sqlobjects.UniqueViolation:
			return http.StatusConflict, errorResponse{string(qerr.Code), qerr.Message}
		case sqlobjects.ForeignKeyViolation, sqlobjects.NotNullViolation, sqlobjects.CheckViolation:
			return http.StatusBadRequest, errorResponse{string(qerr.Code), qerr.Message}
		}
	case errors.As(err, &httpErr):
		msg := http.StatusText(httpErr.Code)
		if s, ok := httpErr.Message.(string); ok {
			msg = s
		}
		code := strings.ToUpper(strings.ReplaceAll(http.StatusText(httpErr.Code), " ", "_"))
		return httpErr.Code, errorResponse{code, msg}
	case errors.Is(err, sqlobjects.ErrUnsupportedValueType):
		return http.StatusBadRequest, errorResponse{"UNSUPPORTED_VALUE", err.Error()}
	}
	return http.StatusInternalServerError, errorResponse{"INTERNAL_SERVER_ERROR", "Internal server error"}
}
