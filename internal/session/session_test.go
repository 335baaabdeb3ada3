package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager([]byte("test-jwt-secret"), time.Hour)
	require.NoError(t, m.AddAccounts("amina:pass1, karim:pass2"))
	return m
}

func TestUser_PurchaseCount(t *testing.T) {
	t.Parallel()

	u := NewUser("amina")
	assert.Equal(t, 0, u.PurchaseCount())
	u.IncrementPurchaseCount()
	u.IncrementPurchaseCount()
	assert.Equal(t, 2, u.PurchaseCount())
}

func TestLogin_ReusesSession(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	first, err := m.Login(ctx, "amina", "pass1")
	require.NoError(t, err)
	require.NotEmpty(t, first.AccessToken)
	assert.Equal(t, "amina", first.Session.User.Username)

	second, err := m.Login(ctx, "amina", "pass1")
	require.NoError(t, err)
	assert.Equal(t, first.Session.ID, second.Session.ID)
	assert.Same(t, first.Session.Cart, second.Session.Cart)

	sess, err := m.Authenticate(second.AccessToken)
	require.NoError(t, err)
	assert.Same(t, first.Session, sess)
}

func TestLogin_Failures(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{name: "empty username", username: "", password: "x", want: ErrValidation},
		{name: "empty password", username: "amina", password: "", want: ErrValidation},
		{name: "wrong password", username: "amina", password: "nope", want: ErrInvalidCredentials},
		{name: "unknown user", username: "ghost", password: "pass1", want: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := m.Login(ctx, tt.username, tt.password)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	_, err := m.Authenticate("garbage")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	other := NewManager([]byte("other"), time.Hour)
	require.NoError(t, other.AddAccount("amina", "pass1"))
	res, err := other.Login(context.Background(), "amina", "pass1")
	require.NoError(t, err)

	_, err = m.Authenticate(res.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogout(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	res, err := m.Login(context.Background(), "karim", "pass2")
	require.NoError(t, err)
	res.Session.User.IncrementPurchaseCount()

	m.Logout(res.Session.ID)
	_, err = m.Get(res.Session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	again, err := m.Login(context.Background(), "karim", "pass2")
	require.NoError(t, err)
	assert.NotEqual(t, res.Session.ID, again.Session.ID)
	assert.Equal(t, 1, again.Session.User.PurchaseCount())

	m.Logout(uuid.New())
}

func TestParseAccounts(t *testing.T) {
	t.Parallel()

	got, err := ParseAccounts(" a:1 ,b:2,,")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, got)

	_, err = ParseAccounts("broken")
	assert.ErrorIs(t, err, ErrValidation)
}
