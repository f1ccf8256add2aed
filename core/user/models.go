package user

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/fypcompass/compass/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleAdvisor = "advisor"
	RoleStudent = "student"
)

var (
	errBlankName = errors.New("name cannot be blank")

	AllRoles    = []string{RoleAdmin, RoleAdvisor, RoleStudent}
	MemberRoles = []string{RoleAdvisor, RoleStudent} // roles that can sign up or be created by an admin
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u User) IsAdvisor() bool { return u.Role == RoleAdvisor }
func (u User) IsStudent() bool { return u.Role == RoleStudent }

// Summary is the public projection of a User embedded in other resources.
func (u User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// WithProjects is a User along with the names of the projects they belong to.
type WithProjects struct {
	User
	Projects []string `json:"projects"`
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,userrole"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	return validate.Struct(nu)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name     *string `json:"name"`
	Role     *string `json:"role" validate:"omitempty,anyrole"`
	IsActive *bool   `json:"is_active"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate) error {
	if uu.Name != nil {
		name := core.CleanString(*uu.Name)
		if name == "" {
			return core.NewValidationError(errBlankName, core.FieldError{Field: "name", Error: errBlankName.Error()})
		}
		uu.Name = &name
	}
	if uu.Role != nil {
		role := core.CleanString(*uu.Role, true /* lower */)
		if role == "" {
			uu.Role = nil
		} else {
			uu.Role = &role
		}
	}
	return validate.Struct(uu)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp *ResetUserPassword) Validate(validate *validator.Validate) error {
	rp.Token = core.CleanString(rp.Token)
	rp.UID = core.CleanString(rp.UID)
	return validate.Struct(rp)
}

type QueryFilter struct {
	Search string   `query:"search"`
	Roles  []string `query:"role"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	roles := make([]string, 0, len(qf.Roles))
	for _, r := range qf.Roles {
		if r = core.CleanString(r, true /* lower */); r != "" {
			roles = append(roles, r)
		}
	}
	qf.Roles = roles
}

// GetFilter selects a single User, by ID or by Email (first non-empty wins).
type GetFilter struct {
	ID    string
	Email string
}
