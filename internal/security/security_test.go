package security_test

import (
	"testing"

	"github.com/JadeHendricks/mern-devconnector/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := security.HashPassword("s3cret!", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret!", hash)
	assert.NoError(t, security.CheckPassword(hash, "s3cret!"))
	assert.Error(t, security.CheckPassword(hash, "wrong"))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestHashPasswordFallsBackToDefaultCost(t *testing.T) {
	hash, err := security.HashPassword("pw", 0)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, security.DefaultCost, cost)
}

func TestGravatarURL(t *testing.T) {
	// md5("myemailaddress@example.com"), the example from the Gravatar docs
	want := "https://www.gravatar.com/avatar/0bc83cb571cd1c50ba6f3e8a78ef1346?s=200&r=pg&d=mm"

	assert.Equal(t, want, security.GravatarURL("MyEmailAddress@example.com "))
	assert.Equal(t, want, security.GravatarURL("myemailaddress@example.com"))
}
