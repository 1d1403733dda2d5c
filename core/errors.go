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

import "errors"

// Domain validation errors
var (
	// ErrInvalidItem indicates an Item failed validation.
	ErrInvalidItem = errors.New("invalid item")

	// ErrInvalidUser indicates a User failed validation.
	ErrInvalidUser = errors.New("invalid user")

	// ErrInvalidReport indicates a Report failed validation.
	ErrInvalidReport = errors.New("invalid report")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrEmptyTitle indicates the item Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrInvalidItemType indicates an ItemType other than lost or found.
	ErrInvalidItemType = errors.New("invalid item type")

	// ErrUnsupportedImage indicates an image MIME type that cannot be stored.
	ErrUnsupportedImage = errors.New("unsupported image type")

	// ErrWeakPassword indicates a password shorter than MinPasswordLength.
	ErrWeakPassword = errors.New("password too short")

	// ErrPasswordTooLong indicates a password over MaxPasswordBytes bytes.
	ErrPasswordTooLong = errors.New("password longer than 72 bytes")

	// ErrPasswordMismatch indicates a password does not match the stored hash.
	ErrPasswordMismatch = errors.New("password mismatch")

	// ErrForbidden indicates the requester may not modify or report the item.
	ErrForbidden = errors.New("forbidden")
)
