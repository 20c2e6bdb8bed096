package accounts

import "time"

// Profile is the read-only projection of an Account returned by the HTTP
// boundary. It is computed per request and never stored. The counts default
// to zero whenever the related tables cannot be queried.
type Profile struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	FullName      string     `json:"full_name"`
	Avatar        string     `json:"avatar"`
	Bio           string     `json:"bio"`
	CreatedAt     *time.Time `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
	PostsCount    int        `json:"posts_count"`
	CommentsCount int        `json:"comments_count"`
}

// NewProfile projects an account plus its authored content counts.
func NewProfile(account *Account, posts, comments int) *Profile {
	if account == nil {
		return nil
	}

	return &Profile{
		ID:            account.ID.String(),
		Username:      account.Username,
		Email:         account.Email,
		FirstName:     account.FirstName,
		LastName:      account.LastName,
		FullName:      account.FullName(),
		Avatar:        account.Avatar,
		Bio:           account.Bio,
		CreatedAt:     account.CreatedAt,
		UpdatedAt:     account.UpdatedAt,
		PostsCount:    posts,
		CommentsCount: comments,
	}
}
