package transport

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func usernameRules() []validation.Rule {
	return []validation.Rule{validation.Length(2, 20), validation.Match(usernamePattern)}
}

// validated tags ozzo errors as a Validation failure so the error handler can render them.
func validated(err error) error {
	if err == nil {
		return nil
	}
	return apperr.Wrap(apperr.KindValidation, "Validation error", err)
}

type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (r LoginRequest) Validate() error {
	return validated(validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	))
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type DetailResponse struct {
	Detail string `json:"detail"`
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r CreateUserRequest) Validate() error {
	return validated(validation.ValidateStruct(&r,
		validation.Field(&r.Username, append([]validation.Rule{validation.Required}, usernameRules()...)...),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 32)),
	))
}

type PatchUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func (r PatchUserRequest) Empty() bool {
	return r.Username == nil && r.Password == nil
}

func (r PatchUserRequest) Validate() error {
	return validated(validation.ValidateStruct(&r,
		validation.Field(&r.Username, append([]validation.Rule{validation.NilOrNotEmpty}, usernameRules()...)...),
		validation.Field(&r.Password, validation.NilOrNotEmpty, validation.Length(8, 32)),
	))
}

// UserUpdateResponse carries a fresh access token when the username, and so the token subject, changed.
type UserUpdateResponse struct {
	User        any    `json:"user"`
	AccessToken string `json:"access_token,omitempty"`
}

type RoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r RoleRequest) Validate() error {
	return validated(validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 20)),
		validation.Field(&r.Description, validation.Length(2, 100)),
	))
}

type PatchRoleRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (r PatchRoleRequest) Empty() bool {
	return r.Name == nil && r.Description == nil
}

func (r PatchRoleRequest) Validate() error {
	return validated(validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(2, 20)),
		validation.Field(&r.Description, validation.Length(2, 100)),
	))
}

type SetRoleRequest struct {
	Role string `json:"role"`
}

func (r SetRoleRequest) Validate() error {
	return validated(validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required, validation.Length(2, 20)),
	))
}

type PostRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

func (r PostRequest) Validate() error {
	return validated(validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Text, validation.Required, validation.Length(15, 1000)),
	))
}

type PatchPostRequest struct {
	Title *string `json:"title"`
	Text  *string `json:"text"`
}

func (r PatchPostRequest) Empty() bool {
	return r.Title == nil && r.Text == nil
}

func (r PatchPostRequest) Validate() error {
	return validated(validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(3, 50)),
		validation.Field(&r.Text, validation.NilOrNotEmpty, validation.Length(15, 1000)),
	))
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

func NewPage[T any](items []T, page, offset, limit int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Data: items,
		Meta: PageMeta{
			Page:       page,
			Size:       limit,
			Total:      total,
			TotalPages: (total + int64(limit) - 1) / int64(limit),
			HasPrev:    page > 1,
			HasNext:    int64(offset+limit) < total,
		},
	}
}
