package services

import "errors"

// ValidationError is a rejected input. Its message is safe to return to API clients.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

var (
	ErrInvalidPage      = &ValidationError{"Page must be a positive number"}
	ErrInvalidLimit     = &ValidationError{"Limit must be between 1 and 100"}
	ErrInvalidPrice     = &ValidationError{"Price must be a positive number"}
	ErrInvalidStrings   = &ValidationError{"Strings must be a positive number"}
	ErrInvalidCondition = &ValidationError{"Condition must be one of: New, Used, Vintage"}
	ErrBrandRequired    = &ValidationError{"Brand name is required"}
	ErrModelRequired    = &ValidationError{"Model is required"}
	ErrEmptyUpdate      = &ValidationError{"No updates provided"}
	ErrUnsupportedImage = &ValidationError{"Only image uploads are supported"}
	ErrImageTooLarge    = &ValidationError{"Image exceeds the maximum upload size"}
)

var (
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
