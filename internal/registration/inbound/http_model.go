package inbound

type SendOTPRequest struct {
	Email string `json:"email"`
}

type SendOTPResponse struct{}

func (SendOTPResponse) Message() string {
	return "OTP sent to email"
}

type VerifyOTPRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	OTP        string `json:"otp"`
	Profession string `json:"profession"`
}

type VerifyOTPResponse struct{}

func (VerifyOTPResponse) Message() string {
	return "Verified and registered"
}

type HealthResponse struct{}

func (HealthResponse) Message() string {
	return "OK"
}
