package controllers

import (
	"errors"
	"log"
	"net/http"
	"os"

	"civicplus-be/middlewares"
	"civicplus-be/models"
	"civicplus-be/store"
	authUtils "civicplus-be/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	store store.Store
}

func NewAuthController(s store.Store) *AuthController {
	return &AuthController{store: s}
}

// Register handles user registration
func (a *AuthController) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Role     string `json:"role"`
		Ward     string `json:"ward"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     models.UserRole(input.Role),
		Ward:     input.Ward,
	}
	if err := user.HashPassword(); err != nil {
		log.Println("Error hashing password:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	created, err := a.store.CreateUser(c.Request.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
		case errors.Is(err, store.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Println("Error inserting user:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": created})
}

// authenticate checks the supplied credentials. Every failure mode collapses
// into ErrAuth so the caller cannot tell a missing account from a wrong
// password or role; a storage failure passes through unchanged.
func (a *AuthController) authenticate(c *gin.Context, email, password, role string) (*models.User, error) {
	user, err := a.store.FindUserByEmail(c.Request.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, store.ErrAuth
	}
	if err != nil {
		return nil, err
	}
	if !user.ComparePassword(password) {
		return nil, store.ErrAuth
	}
	if role != "" && models.UserRole(role) != user.Role {
		return nil, store.ErrAuth
	}
	return user, nil
}

// Login handles user login. Every failure mode answers with the same
// generic message so callers cannot probe which check failed.
func (a *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := a.authenticate(c, input.Email, input.Password, input.Role)
	if err != nil {
		if errors.Is(err, store.ErrAuth) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		log.Println("Error authenticating user:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	token, err := authUtils.GenerateToken(user.Email)
	if err != nil {
		log.Println("Error generating token:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	environment := os.Getenv("GO_ENV")
	domain := os.Getenv("DOMAIN")
	if environment == "production" {
		domain = ""
	}

	cookie := &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		MaxAge:   3600,
		Path:     "/",
		Domain:   domain,
		Secure:   environment == "production",
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	}
	http.SetCookie(c.Writer, cookie)

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetMe retrieves the authenticated user's information
func (a *AuthController) GetMe(c *gin.Context) {
	emailVal, exists := c.Get(middlewares.UserEmailKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := a.store.FindUserByEmail(c.Request.Context(), emailVal.(string))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout clears the auth_token cookie
func (a *AuthController) Logout(c *gin.Context) {
	environment := os.Getenv("GO_ENV")
	domain := os.Getenv("DOMAIN")

	c.SetCookie("auth_token", "", -1, "/", domain, environment == "production", true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
