package domain

// DevAccount is a fixed allow-list entry usable only in a trusted local
// sandbox. Its token never expires and never touches the credential store.
type DevAccount struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Token  string `json:"-"`
}
