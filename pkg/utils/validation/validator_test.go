package validation

import (
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subscribeInput struct {
	Duration string  `json:"duration" validate:"required,oneof=Monthly Quarterly Yearly Free"`
	Email    string  `json:"email" validate:"omitempty,email"`
	Price    float64 `json:"price" validate:"gte=0"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(subscribeInput{Duration: "Monthly"}))

	err := Struct(subscribeInput{Duration: "Weekly", Email: "nope", Price: -1})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Must be one of: Monthly, Quarterly, Yearly, Free", verr.Errors["duration"])
	assert.Equal(t, "Must be a valid email address", verr.Errors["email"])
	assert.Contains(t, verr.Errors, "price")
	assert.Contains(t, err.Error(), "duration: ")
}

func TestValidateImage(t *testing.T) {
	assert.ErrorIs(t, ValidateImage(nil), ErrFileRequired)
	assert.ErrorIs(t, ValidateImage(&multipart.FileHeader{Filename: "a.gif", Size: 10}), ErrFileType)
	assert.ErrorIs(t, ValidateImage(&multipart.FileHeader{Filename: "a.jpg", Size: MaxImageSize + 1}), ErrFileSize)
	assert.NoError(t, ValidateImage(&multipart.FileHeader{Filename: "Photo.JPG", Size: 1024}))
}
