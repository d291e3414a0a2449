package biocard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUsername(t *testing.T) {
	assert := assert.New(t)

	username, err := NormalizeUsername("Kay_20")
	if assert.NoError(err) {
		assert.Equal("kay_20", username)
	}

	username, err = NormalizeUsername("abc")
	if assert.NoError(err) {
		assert.Equal("abc", username)
	}

	invalid := []string{
		"",
		"ab",
		"has space",
		"dash-name",
		"üser",
		strings.Repeat("a", 21),
	}
	for _, u := range invalid {
		_, err := NormalizeUsername(u)
		assert.ErrorIs(err, ErrInvalidUsername, "username: %q", u)
	}

	_, err = NormalizeUsername(strings.Repeat("a", 20))
	assert.NoError(err)
}

func TestSanitizePronouns(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("she/her", SanitizePronouns("she/her!!"))
	assert.Equal("they/them, xe.", SanitizePronouns("they/them, xe."))
	assert.Equal("hebhim", SanitizePronouns("he<b>him"))
	assert.Equal("", SanitizePronouns("1234!?"))

	long := SanitizePronouns(strings.Repeat("ab/", 20))
	assert.Equal(MaxPronounsLen, len(long))

	inputs := []string{"she/her!!", "x-y,z.  w", strings.Repeat("q?", 40), ""}
	for _, in := range inputs {
		once := SanitizePronouns(in)
		assert.Equal(once, SanitizePronouns(once), "input: %q", in)
	}
}
