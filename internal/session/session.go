package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/Skotchmaster/kolshi/internal/cart"
	"github.com/Skotchmaster/kolshi/pkg/hash"
	"github.com/Skotchmaster/kolshi/pkg/logging"
	"github.com/Skotchmaster/kolshi/pkg/tokens"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrValidation         = errors.New("validation")
)

const DefaultTokenTTL = 12 * time.Hour

// User tracks the number of completed checkouts. The count gates the
// first-purchase discount.
type User struct {
	Username      string
	purchaseCount atomic.Int64
}

func NewUser(username string) *User {
	return &User{Username: username}
}

func (u *User) PurchaseCount() int {
	return int(u.purchaseCount.Load())
}

// IncrementPurchaseCount is called once per completed checkout. Callers guard
// against repeated submissions.
func (u *User) IncrementPurchaseCount() {
	u.purchaseCount.Add(1)
}

// Session owns the cart shared by every view of one logged in user.
type Session struct {
	ID        uuid.UUID
	User      *User
	Cart      *cart.Cart
	StartedAt time.Time
}

func New(user *User) *Session {
	return &Session{
		ID:        uuid.New(),
		User:      user,
		Cart:      cart.New(),
		StartedAt: time.Now().UTC(),
	}
}

type LoginResult struct {
	Session     *Session
	AccessToken string
	ExpiresAt   time.Time
}

// Manager keeps the account table and the active sessions.
type Manager struct {
	mu       sync.RWMutex
	accounts map[string]string
	users    map[string]*User
	sessions map[uuid.UUID]*Session
	byUser   map[string]uuid.UUID

	secret []byte
	ttl    time.Duration
}

func NewManager(secret []byte, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Manager{
		accounts: make(map[string]string),
		users:    make(map[string]*User),
		sessions: make(map[uuid.UUID]*Session),
		byUser:   make(map[string]uuid.UUID),
		secret:   secret,
		ttl:      ttl,
	}
}

func (m *Manager) AddAccount(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return errors.Wrap(ErrValidation, "username and password required")
	}
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[username] = pwHash
	if _, ok := m.users[username]; !ok {
		m.users[username] = NewUser(username)
	}
	return nil
}

// ParseAccounts reads "user:password" pairs separated by commas.
func ParseAccounts(v string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(v, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		user, pass, ok := strings.Cut(pair, ":")
		if !ok || strings.TrimSpace(user) == "" || pass == "" {
			return nil, errors.Wrapf(ErrValidation, "account entry %q", pair)
		}
		out[strings.TrimSpace(user)] = pass
	}
	return out, nil
}

func (m *Manager) AddAccounts(v string) error {
	accounts, err := ParseAccounts(v)
	if err != nil {
		return err
	}
	for user, pass := range accounts {
		if err := m.AddAccount(user, pass); err != nil {
			return err
		}
	}
	return nil
}

// Login checks the credentials and returns the user's active session, creating
// one if needed, along with a signed access token.
func (m *Manager) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "session.login", "username", username)

	if username == "" || password == "" {
		return nil, errors.Wrap(ErrValidation, "username and password required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pwHash, ok := m.accounts[username]
	if !ok || !hash.CheckPassword(pwHash, password) {
		l.Warn("login_failed", "reason", "invalid credentials")
		return nil, ErrInvalidCredentials
	}

	sess, ok := m.sessions[m.byUser[username]]
	if !ok {
		sess = New(m.users[username])
		m.sessions[sess.ID] = sess
		m.byUser[username] = sess.ID
	}

	exp := time.Now().Add(m.ttl)
	token, err := tokens.NewAccessToken(m.secret, sess.ID.String(), username, exp)
	if err != nil {
		l.Error("login_failed", "reason", "cannot sign token", "error", err.Error())
		return nil, errors.Wrap(err, "sign token")
	}

	l.Info("login_success", "session_id", sess.ID)
	return &LoginResult{Session: sess, AccessToken: token, ExpiresAt: exp}, nil
}

// Authenticate resolves an access token to its session.
func (m *Manager) Authenticate(token string) (*Session, error) {
	claims, err := tokens.AccessClaimsFromToken(token, m.secret)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidCredentials, err.Error())
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidCredentials, "bad subject")
	}
	return m.Get(id)
}

func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Logout drops the session; the cart goes with it.
func (m *Manager) Logout(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[id]; ok {
		delete(m.byUser, sess.User.Username)
		delete(m.sessions, id)
	}
}
