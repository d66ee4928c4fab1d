package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/server/services"
	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type userStatus struct {
	UserID     int64      `json:"user_id"`
	Username   string     `json:"username"`
	Status     string     `json:"status"`
	LastLogin  *time.Time `json:"last_login"`
	LastLogout *time.Time `json:"last_logout"`
}

func (s *HTTPServer) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Server is running"})
}

func (s *HTTPServer) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := s.users.Signup(c.Request.Context(), req.Username, []byte(req.Password))
	switch {
	case errors.Is(err, services.ErrMissingCredentials):
		abortError(c, http.StatusBadRequest, "Username and password are required")
		return
	case errors.Is(err, common.ErrorAlreadyExists):
		abortError(c, http.StatusBadRequest, "Username already exists")
		return
	case err != nil:
		s.internalError(c, "signup failed", err)
		return
	}

	s.logger.Info(c.Request.Context(), "Registered", "username", user.Username)
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "user_id": user.ID})
}

func (s *HTTPServer) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, token, err := s.users.Login(c.Request.Context(), req.Username, []byte(req.Password))
	switch {
	case errors.Is(err, services.ErrMissingCredentials):
		abortError(c, http.StatusBadRequest, "Username and password are required")
		return
	case errors.Is(err, common.ErrorUnauthorized):
		abortError(c, http.StatusUnauthorized, "Invalid username or password")
		return
	case err != nil:
		s.internalError(c, "login failed", err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.CookieName, token, int(s.users.SessionLifetime().Seconds()), "/", "", s.cfg.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userResponse{ID: user.ID, Username: user.Username},
	})
}

// logout ends the caller's session. The optional :userId must be the caller.
func (s *HTTPServer) logout(c *gin.Context) {
	user := currentUser(c)

	var target int64
	if raw := c.Param("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			abortError(c, http.StatusBadRequest, "Invalid user id")
			return
		}
		target = id
	}

	err := s.users.Logout(c.Request.Context(), user.ID, target)
	if errors.Is(err, common.ErrorForbidden) {
		abortError(c, http.StatusForbidden, "Cannot logout different user")
		return
	}
	if err != nil {
		s.internalError(c, "logout failed", err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.CookieName, "", -1, "/", "", s.cfg.CookieSecure, true)

	msg := "Logged out successfully"
	if target != 0 {
		msg = fmt.Sprintf("User %d logged out successfully", target)
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (s *HTTPServer) currentUser(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": userResponse{ID: user.ID, Username: user.Username}})
}

func (s *HTTPServer) usersStatus(c *gin.Context) {
	users, err := s.users.Statuses(c.Request.Context())
	if err != nil {
		s.internalError(c, "status listing failed", err)
		return
	}

	result := make([]userStatus, 0, len(users))
	for _, u := range users {
		result = append(result, userStatus{
			UserID:     u.ID,
			Username:   u.Username,
			Status:     u.Status(),
			LastLogin:  u.LastLogin,
			LastLogout: u.LastLogout,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": result})
}

func (s *HTTPServer) internalError(c *gin.Context, msg string, err error) {
	s.logger.Error(c.Request.Context(), msg, "request_id", c.GetString(requestIDKey), "error", err)
	abortError(c, http.StatusInternalServerError, "Internal server error")
}
