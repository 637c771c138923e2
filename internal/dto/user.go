package dto

type CreateUserRequest struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

type PreferencesRequest struct {
	Currency *string `json:"currency,omitempty"`
	Theme    *string `json:"theme,omitempty"`
}
