package event

const UserRegisteredDestination string = "registration.user_registered"

type UserRegisteredMessage struct {
	UserID     int64  `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Profession string `json:"profession"`
}
