package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medlink-api/internal/errs"
	"github.com/harentsoaR/medlink-api/internal/models"
	"github.com/harentsoaR/medlink-api/internal/utils"
)

const (
	minPasswordLength = 8
	// bcrypt refuses longer input.
	maxPasswordBytes = 72
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Origin   string `json:"origin"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func checkPassword(p string) error {
	if len(p) < minPasswordLength {
		return errs.Validation("password must be at least %d characters", minPasswordLength)
	}
	if len(p) > maxPasswordBytes {
		return errs.Validation("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

// RegisterUser creates a plain User account. Elevated roles are granted
// out of band, never through registration.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.Validation("Invalid request body"))
		return
	}

	now := h.now()
	user := &models.User{
		Name:       strings.TrimSpace(req.Name),
		Email:      models.NormalizeEmail(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
		Origin:     strings.TrimSpace(req.Origin),
		Password:   req.Password,
		Roles:      []models.Role{models.RoleUser},
		PushTokens: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := user.Validate(); err != nil {
		fail(c, err)
		return
	}
	if err := checkPassword(req.Password); err != nil {
		fail(c, err)
		return
	}

	if err := h.Users.Create(c.Request.Context(), user); err != nil {
		fail(c, err)
		return
	}
	log.Printf("RegisterUser: created user %s", user.ID.Hex())

	token, err := h.issueToken(user)
	if err != nil {
		fail(c, err)
		return
	}
	user.Password = ""
	respond(c, http.StatusCreated, "Account created successfully", authResponse{Token: token, User: user})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.Validation("Invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		fail(c, errs.Validation("email and password are required"))
		return
	}

	user, err := h.Users.FindByEmail(c.Request.Context(), req.Email)
	if errs.Is(err, errs.KindNotFound) {
		fail(c, errs.Auth("Invalid credentials"))
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	if !utils.CheckPasswordHash(req.Password, user.Password) {
		fail(c, errs.Auth("Invalid credentials"))
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		fail(c, err)
		return
	}
	user.Password = ""
	respond(c, http.StatusOK, "Login successful", authResponse{Token: token, User: user})
}

func (h *Handler) issueToken(u *models.User) (string, error) {
	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = string(r)
	}
	token, err := utils.GenerateJWT(u.ID.Hex(), roles, h.JWTSecret, h.JWTTTL)
	if err != nil {
		return "", errs.Wrap(err, "Could not generate token")
	}
	return token, nil
}
