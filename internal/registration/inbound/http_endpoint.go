package inbound

import (
	"github.com/shandysiswandi/mailotp/internal/pkg/router"
	"github.com/shandysiswandi/mailotp/internal/registration/usecase"
)

// HTTPEndpoint exposes the OTP issuance and registration handlers.
type HTTPEndpoint struct {
	uc uc
}

// SendOTP issues a code for the given email and mails it.
func (h *HTTPEndpoint) SendOTP(r *router.Request) (any, error) {
	var req SendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.SendOTP(r.Context(), usecase.SendOTPInput{
		Email: req.Email,
	}); err != nil {
		return nil, err
	}

	return SendOTPResponse{}, nil
}

// VerifyOTP consumes a code and registers the user.
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Name:       req.Name,
		Email:      req.Email,
		OTP:        req.OTP,
		Profession: req.Profession,
	}); err != nil {
		return nil, err
	}

	return VerifyOTPResponse{}, nil
}

func (h *HTTPEndpoint) Health(r *router.Request) (any, error) {
	if err := h.uc.Health(r.Context()); err != nil {
		return nil, err
	}

	return HealthResponse{}, nil
}
