package model

import "time"

const UserCollection = "users"

type User struct {
	UserID       string    `bson:"user_id" json:"userId"`
	Email        string    `bson:"email" json:"email"`
	FullName     string    `bson:"full_name" json:"fullName"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	AvatarURL    string    `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
}
