package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/oauth2"
	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned when a session token does not resolve to a
// stored session, either because it never existed or because it expired.
var ErrSessionNotFound = errors.New("session not found")

// SessionKeyPrefix namespaces session records in Redis.
const SessionKeyPrefix = "session:"

// Session is a server-side browser session for a signed-in Discord user.
// The opaque token travels in an HttpOnly cookie; everything else stays in
// Redis.
type Session struct {
	Token        string                `json:"-"`
	UserID       snowflake.ID          `json:"userId"`
	Username     string                `json:"username"`
	GlobalName   string                `json:"globalName,omitempty"`
	AvatarURL    string                `json:"avatarUrl,omitempty"`
	AccessToken  string                `json:"accessToken"`
	RefreshToken string                `json:"refreshToken"`
	TokenType    discord.TokenType     `json:"tokenType"`
	Scopes       []discord.OAuth2Scope `json:"scopes"`
	Expiration   time.Time             `json:"expiration"`
	CreatedAt    time.Time             `json:"createdAt"`
}

// OAuth2Session rebuilds the disgo token set for API calls on behalf of the
// user.
func (s *Session) OAuth2Session() oauth2.Session {
	return oauth2.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		Scopes:       s.Scopes,
		TokenType:    s.TokenType,
		Expiration:   s.Expiration,
	}
}

// UpdateTokens replaces the stored token set after a refresh.
func (s *Session) UpdateTokens(session oauth2.Session) {
	s.AccessToken = session.AccessToken
	s.RefreshToken = session.RefreshToken
	s.Scopes = session.Scopes
	s.TokenType = session.TokenType
	s.Expiration = session.Expiration
}

// Store persists sessions in Redis with a fixed TTL.
type Store struct {
	client rueidis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewStore creates a session store on the given Redis client.
func NewStore(client rueidis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
		logger: logger.Named("session_store"),
	}
}

// Create stores a new session under a freshly generated opaque token and
// returns the token for the cookie.
func (s *Store) Create(ctx context.Context, session *Session) (string, error) {
	session.Token = uuid.NewString()
	session.CreatedAt = time.Now()

	if err := s.save(ctx, session); err != nil {
		return "", err
	}

	s.logger.Debug("Created session", zap.Uint64("userID", uint64(session.UserID)))

	return session.Token, nil
}

// Get resolves a session token. Returns ErrSessionNotFound for unknown or
// expired tokens.
func (s *Store) Get(ctx context.Context, token string) (*Session, error) {
	data, err := s.client.Do(ctx,
		s.client.B().Get().Key(SessionKeyPrefix+token).Build(),
	).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrSessionNotFound
		}

		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session Session
	if err := sonic.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	session.Token = token

	return &session, nil
}

// Update rewrites an existing session, keeping its token. Used after token
// refreshes.
func (s *Store) Update(ctx context.Context, session *Session) error {
	return s.save(ctx, session)
}

// Delete removes a session. Deleting an unknown token is not an error.
func (s *Store) Delete(ctx context.Context, token string) error {
	err := s.client.Do(ctx,
		s.client.B().Del().Key(SessionKeyPrefix+token).Build(),
	).Error()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

func (s *Store) save(ctx context.Context, session *Session) error {
	data, err := sonic.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	err = s.client.Do(ctx,
		s.client.B().Set().
			Key(SessionKeyPrefix+session.Token).
			Value(rueidis.BinaryString(data)).
			Ex(s.ttl).
			Build(),
	).Error()
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}
