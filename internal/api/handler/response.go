package handler

import (
	"time"

	"github.com/usermgmt/user-service/internal/core/domain"
	"github.com/usermgmt/user-service/internal/core/ports"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// envelope wraps every /api/users response.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// loginResponse is the body of POST /api/auth/login. Token is null on failure.
type loginResponse struct {
	Status  string  `json:"status"`
	Message *string `json:"message"`
	Token   *string `json:"token"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type paginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type userPageResponse struct {
	Items      []userResponse     `json:"items"`
	Pagination paginationResponse `json:"pagination"`
}

// healthResponse is the liveness body.
type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

func toUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func toUserPageResponse(r *ports.ListUsersResult) userPageResponse {
	return userPageResponse{
		Items: toUserResponses(r.Items),
		Pagination: paginationResponse{
			Page:       r.Page,
			Limit:      r.Limit,
			Total:      r.Total,
			TotalPages: r.TotalPages,
		},
	}
}
