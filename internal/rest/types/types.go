package types

// AckResponse acknowledges a successful write.
type AckResponse struct {
	OK bool `json:"ok"`
}

// ErrorResponse is the error envelope for every failed request. Details is
// only populated for schema violations and maps each failing field to the
// constraints it violated.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Details map[string][]string `json:"details,omitempty"`
}

// UserResponse describes the signed-in user.
type UserResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"globalName,omitempty"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
}
