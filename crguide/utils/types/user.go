// crguide/utils/types/user.go
package types

// ProfileView is the subset of the OAuth profile the chat header shows.
type ProfileView struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Email   string `json:"email,omitempty"`
}
