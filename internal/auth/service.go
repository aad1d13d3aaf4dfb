package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/argon2"

	"github.com/mwhitby/parley/internal/apperror"
)

// sessionKeyPrefix is the Redis key prefix for session data.
const sessionKeyPrefix = "session:"

// sessionTokenBytes is the number of random bytes in a session token.
// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
const sessionTokenBytes = 32

// minPasswordLen is the weak-password threshold. Anything shorter is
// rejected with the weak-password error code.
const minPasswordLen = 6

// argon2id parameters following OWASP recommendations for argon2id:
// memory=64MB, iterations=3, parallelism=4.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // 64 MB in KiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// emailRe is a permissive shape check: something@something.tld. Full RFC 5322
// validation is not the goal; catching obvious typos with a stable error code is.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Mailer sends transactional mail. The password-reset flow is the only
// consumer. The default implementation just logs the link.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}

// LogMailer is a Mailer that logs instead of sending. Used in development
// and as the default when no SMTP relay is configured.
type LogMailer struct{}

// SendPasswordReset logs the reset link at info level.
func (LogMailer) SendPasswordReset(_ context.Context, email, link string) error {
	slog.Info("password reset requested",
		slog.String("email", email),
		slog.String("link", link),
	)
	return nil
}

// AuthService defines the business logic contract for authentication.
// Handlers call these methods -- they never touch the repository directly.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	Login(ctx context.Context, input LoginInput) (token string, session *Session, err error)
	SetDisplayName(ctx context.Context, userID, displayName string) error
	DeleteAccount(ctx context.Context, userID string) error
	InitiatePasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	ValidateSession(ctx context.Context, token string) (*Session, error)
	DestroySession(ctx context.Context, token string) error
}

// authService implements AuthService with argon2id hashing and Redis sessions.
type authService struct {
	repo          UserRepository
	redis         *redis.Client
	mailer        Mailer
	baseURL       string
	sessionTTL    time.Duration
	rememberTTL   time.Duration
	resetTokenTTL time.Duration
}

// NewAuthService creates a new auth service with the given dependencies.
// sessionTTL applies to session-scoped sign-ins, rememberTTL to durable ones.
func NewAuthService(repo UserRepository, rdb *redis.Client, mailer Mailer, baseURL string, sessionTTL, rememberTTL, resetTokenTTL time.Duration) AuthService {
	return &authService{
		repo:          repo,
		redis:         rdb,
		mailer:        mailer,
		baseURL:       baseURL,
		sessionTTL:    sessionTTL,
		rememberTTL:   rememberTTL,
		resetTokenTTL: resetTokenTTL,
	}
}

// Register creates a new user account. It validates the email shape and
// password strength, checks uniqueness, hashes the password with argon2id,
// and persists the user. The display name starts empty; the client sets it
// with a follow-up call as part of its registration sequence.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !emailRe.MatchString(email) {
		return nil, apperror.NewInvalidEmail()
	}
	if len(input.Password) < minPasswordLen {
		return nil, apperror.NewWeakPassword()
	}

	// Check if email is already taken before doing expensive hashing.
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, apperror.NewEmailInUse()
	}

	// Hash the password with argon2id (memory-hard, GPU-resistant).
	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login authenticates a user by email and password. On success it creates a
// new session in Redis and returns the session token. The error codes are
// deliberately specific (user-not-found, wrong-password, user-disabled) so
// the client can map them to its fixed user-facing strings.
func (s *authService) Login(ctx context.Context, input LoginInput) (string, *Session, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if appErr, ok := apperror.As(err); ok && appErr.Type == apperror.TypeUserNotFound {
			return "", nil, appErr
		}
		return "", nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if user.IsDisabled {
		return "", nil, apperror.NewUserDisabled()
	}

	// Verify the password against the stored argon2id hash.
	if !verifyPassword(input.Password, user.PasswordHash) {
		return "", nil, apperror.NewWrongPassword()
	}

	// Create a new session in Redis with the TTL matching the persistence mode.
	token, session, err := s.createSession(ctx, user, input.Remember)
	if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("creating session: %w", err))
	}

	// Update the user's last login timestamp (fire-and-forget, non-critical).
	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("failed to update last login",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
		slog.Bool("remember", input.Remember),
	)

	return token, session, nil
}

// SetDisplayName updates the display name on the account. Called by the
// client right after account creation.
func (s *authService) SetDisplayName(ctx context.Context, userID, displayName string) error {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return apperror.NewValidation("display name is required")
	}
	if err := s.repo.UpdateDisplayName(ctx, userID, name); err != nil {
		if appErr, ok := apperror.As(err); ok {
			return appErr
		}
		return apperror.NewInternal(fmt.Errorf("updating display name: %w", err))
	}
	return nil
}

// DeleteAccount removes the user. This is the compensating action for the
// registration sequence: if a later step fails, the client undoes the
// account creation so no half-registered account is left behind.
func (s *authService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		if appErr, ok := apperror.As(err); ok {
			return appErr
		}
		return apperror.NewInternal(fmt.Errorf("deleting user: %w", err))
	}

	slog.Info("account deleted", slog.String("user_id", userID))
	return nil
}

// InitiatePasswordReset creates a reset token and mails a reset link.
// Returns user-not-found when no account matches, matching the error
// taxonomy the client maps ("No account found with this email").
func (s *authService) InitiatePasswordReset(ctx context.Context, email string) error {
	normalized := strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.FindByEmail(ctx, normalized)
	if err != nil {
		if appErr, ok := apperror.As(err); ok && appErr.Type == apperror.TypeUserNotFound {
			return appErr
		}
		return apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	// Generate a random token; only its SHA-256 is stored.
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return apperror.NewInternal(fmt.Errorf("generating reset token: %w", err))
	}
	plain := hex.EncodeToString(raw)
	digest := sha256.Sum256([]byte(plain))
	tokenHash := hex.EncodeToString(digest[:])

	expiresAt := time.Now().UTC().Add(s.resetTokenTTL)
	if err := s.repo.CreateResetToken(ctx, user.ID, user.Email, tokenHash, expiresAt); err != nil {
		return apperror.NewInternal(fmt.Errorf("storing reset token: %w", err))
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, plain)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		return apperror.NewInternal(fmt.Errorf("sending reset mail: %w", err))
	}

	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *authService) ResetPassword(ctx context.Context, token, password string) error {
	if len(password) < minPasswordLen {
		return apperror.NewWeakPassword()
	}

	digest := sha256.Sum256([]byte(token))
	tokenHash := hex.EncodeToString(digest[:])

	userID, _, expiresAt, usedAt, err := s.repo.FindResetToken(ctx, tokenHash)
	if err != nil {
		if appErr, ok := apperror.As(err); ok {
			return appErr
		}
		return apperror.NewInternal(fmt.Errorf("finding reset token: %w", err))
	}
	if usedAt != nil || time.Now().UTC().After(expiresAt) {
		return apperror.NewNotFound("invalid or expired reset token")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return apperror.NewInternal(fmt.Errorf("updating password: %w", err))
	}
	if err := s.repo.MarkResetTokenUsed(ctx, tokenHash); err != nil {
		slog.Warn("failed to mark reset token used", slog.Any("error", err))
	}

	return nil
}

// ValidateSession looks up a session token in Redis and returns the session
// data if it exists and hasn't expired.
func (s *authService) ValidateSession(ctx context.Context, token string) (*Session, error) {
	key := sessionKeyPrefix + token

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reading session from Redis: %w", err))
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("unmarshaling session: %w", err))
	}

	return &session, nil
}

// DestroySession removes a session from Redis, effectively logging the user out.
func (s *authService) DestroySession(ctx context.Context, token string) error {
	key := sessionKeyPrefix + token

	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting session from Redis: %w", err))
	}

	return nil
}

// createSession generates a random session token, stores the session data in
// Redis with the TTL matching the persistence mode, and returns the token.
func (s *authService) createSession(ctx context.Context, user *User, remember bool) (string, *Session, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", nil, fmt.Errorf("generating session token: %w", err)
	}

	session := Session{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.DisplayName,
		Remember:  remember,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return "", nil, fmt.Errorf("marshaling session: %w", err)
	}

	ttl := s.sessionTTL
	if remember {
		ttl = s.rememberTTL
	}

	key := sessionKeyPrefix + token
	if err := s.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		return "", nil, fmt.Errorf("storing session in Redis: %w", err)
	}

	return token, &session, nil
}

// --- Password Hashing (argon2id) ---

// hashPassword creates an argon2id hash of the given password. The output
// format is: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
// This format is compatible with most argon2 libraries and allows self-
// contained verification without separate salt storage.
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	// Encode to the standard PHC string format.
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads, b64Salt, b64Hash)

	return encoded, nil
}

// verifyPassword checks a plaintext password against an argon2id hash string.
// Returns true if the password matches.
func verifyPassword(password, encodedHash string) bool {
	// Parse the encoded hash to extract parameters, salt, and hash.
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	// Compute the hash of the provided password with the same parameters.
	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Constant-time comparison to prevent timing attacks.
	return subtle.ConstantTimeCompare(expectedHash, computedHash) == 1
}

// generateSessionToken creates a cryptographically random hex-encoded token.
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
