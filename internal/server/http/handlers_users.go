package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orusagri/agrimon/internal/errs"
	"github.com/orusagri/agrimon/internal/model"
	"github.com/orusagri/agrimon/internal/repository"
	"github.com/orusagri/agrimon/internal/service"
)

type updateUserRequest struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	CompanyName *string `json:"companyName"`
	Role        *string `json:"role"`
	IsActive    *bool   `json:"isActive"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) handleListUsers(c *gin.Context) {
	f := repository.UserFilter{
		Page:  queryInt(c, "page", 1),
		Limit: queryInt(c, "limit", 10),
	}
	if v := c.Query("role"); v != "" {
		role, err := model.ParseRole(v)
		if err != nil {
			badRequest(c, "invalid role filter")
			return
		}
		f.Role = &role
	}
	if v := c.Query("isActive"); v != "" {
		active := v == "true"
		f.Active = &active
	}

	users, total, err := s.users.List(c.Request.Context(), currentUser(c), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	listResponse(c, users, total, f.Page, f.Limit)
}

func (s *Server) handleGetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := s.users.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": u})
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	in := service.UserUpdateInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		CompanyName: req.CompanyName,
		Active:      req.IsActive,
	}
	if req.Role != nil {
		role, err := model.ParseRole(*req.Role)
		if err != nil {
			s.fail(c, errs.ErrValidation)
			return
		}
		in.Role = &role
	}

	u, err := s.users.Update(c.Request.Context(), currentUser(c), id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": u})
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.users.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "user deleted"})
}

func (s *Server) handleUpdatePassword(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	err := s.auth.UpdatePassword(c.Request.Context(), currentUser(c).ID, id,
		req.CurrentPassword, req.NewPassword)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "password updated"})
}

// queryInt parses an integer query parameter with a fallback.
func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// listResponse writes the shared paged-list shape.
func listResponse(c *gin.Context, data any, total, page, limit int) {
	if limit <= 0 {
		limit = 10
	}
	pages := (total + limit - 1) / limit
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"total":   total,
		"page":    page,
		"pages":   pages,
		"data":    data,
	})
}
