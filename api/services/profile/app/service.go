package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbeaudouin05/admin-checkout/api/services/checkout/backend"
)

var (
	// ErrBadRequest indicates the profile lookup lacked an email.
	ErrBadRequest = errors.New("bad request")
	// ErrBackend indicates the user record could not be loaded.
	ErrBackend = errors.New("backend error")
)

// ProfileView is the admin profile card.
type ProfileView struct {
	Title                  string `json:"title"`
	Name                   string `json:"name"`
	Email                  string `json:"email"`
	DateOfBirth            string `json:"dateOfBirth"`
	Logo                   string `json:"logo"`
	EmployeeLimitTotal     int64  `json:"employeeLimitTotal"`
	EmployeeLimitRemaining int64  `json:"employeeLimitRemaining"`
}

type Service interface {
	GetProfile(ctx context.Context, email string) (ProfileView, error)
}

type serviceImpl struct{ backend backend.Client }

func NewService(b backend.Client) Service { return serviceImpl{backend: b} }

// GetProfile loads the admin's user record and shapes it for display.
func (s serviceImpl) GetProfile(ctx context.Context, email string) (ProfileView, error) {
	if email == "" {
		return ProfileView{}, fmt.Errorf("%w: email is required", ErrBadRequest)
	}
	u, err := s.backend.GetUser(ctx, email)
	if err != nil {
		return ProfileView{}, fmt.Errorf("%w: error retrieving user: %v", ErrBackend, err)
	}
	return ProfileView{
		Title:                  "Profile",
		Name:                   u.Name,
		Email:                  u.Email,
		DateOfBirth:            u.DOB,
		Logo:                   u.Logo,
		EmployeeLimitTotal:     u.EmployeeLimitTotal,
		EmployeeLimitRemaining: u.EmployeeLimitRemaining,
	}, nil
}
