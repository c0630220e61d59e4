package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orusagri/agrimon/internal/service"
)

type registerRequest struct {
	Username    string  `json:"username"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	CompanyName string  `json:"companyName"`
	Phone       *string `json:"phone"`
	// a role field in the body is deliberately not bound: the default is forced
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, token, err := s.auth.Register(c.Request.Context(), service.RegisterInput{
		Username:    req.Username,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		CompanyName: req.CompanyName,
		Phone:       req.Phone,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, token, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

func (s *Server) handleMe(c *gin.Context) {
	u := currentUser(c)
	fresh, err := s.auth.Me(c.Request.Context(), u.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fresh)
}

// handleLogout is stateless: the client discards the token. There is no
// server-side revocation list.
func (s *Server) handleLogout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out"})
}
