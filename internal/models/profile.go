package models

// UserProfile is the read-model slice of a user owned by the profile service.
type UserProfile struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
	IsBanned  bool   `json:"isBanned"`
}

// Attachment is a resolved voice attachment.
type Attachment struct {
	URL      string `json:"url"`
	Duration int    `json:"duration"`
}
