// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest password accepted by SetPassword.
	MinPasswordLength = 8
	// MaxPasswordBytes is the bcrypt input limit, in bytes of UTF-8.
	MaxPasswordBytes = 72
)

// User owns items and is shown as the owner in search results.
type User struct {
	Id           ID
	Username     string `validate:"required,alphanum,min=3,max=32"`
	Email        string `validate:"required,email"`
	PasswordHash []byte
	Admin        bool
	InsertedAt   time.Time
}

// UserIDFor derives the user ID from a username. Usernames are case-insensitive.
func UserIDFor(username string) ID {
	return IDFromContent("user:" + strings.ToLower(username))
}

// NewUser builds a user with a content-derived ID and a hashed password.
func NewUser(username, email, password string) (*User, error) {
	u := &User{
		Id:         UserIDFor(username),
		Username:   username,
		Email:      email,
		InsertedAt: time.Now().UTC(),
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword replaces the stored bcrypt hash.
func (u *User) SetPassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword compares password against the stored hash.
func (u *User) CheckPassword(password string) error {
	err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// CanDelete reports whether the user may delete item.
func (u *User) CanDelete(item *Item) bool {
	return u.Admin || item.OwnerID == u.Id
}
