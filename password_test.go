package biocard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPasswordRequirements(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(PasswordRequirements{}, CheckPasswordRequirements(""))
	assert.Equal(PasswordRequirements{Lowercase: true}, CheckPasswordRequirements("abc"))
	assert.Equal(PasswordRequirements{
		Length:    true,
		Lowercase: true,
		Uppercase: true,
		Digit:     true,
		Symbol:    false,
	}, CheckPasswordRequirements("Abcdefg1"))
	assert.True(CheckPasswordRequirements("Abcdef1!").Met())

	assert.ErrorIs(ValidatePassword("Ab1!xyz"), ErrWeakPassword)
	assert.ErrorIs(ValidatePassword("alllowercase1!"), ErrWeakPassword)
	assert.NoError(ValidatePassword("Abcdef1!"))
}

func TestHashPassword(t *testing.T) {
	assert := assert.New(t)

	hash, err := HashPassword("Abcdef1!")
	if !assert.NoError(err) {
		return
	}
	assert.NotEqual("Abcdef1!", hash)
	assert.NoError(ComparePassword(hash, "Abcdef1!"))
	assert.ErrorIs(ComparePassword(hash, "Abcdef1?"), ErrInvalidCredentials)
	assert.ErrorIs(ComparePassword("", "Abcdef1!"), ErrInvalidCredentials)
}
