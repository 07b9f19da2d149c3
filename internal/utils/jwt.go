package utils // package utils provides helper functions for token creation and hashing

import (
    "errors" // error wrapping and sentinel comparisons
    "time"   // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
    "github.com/google/uuid"       // unique jti claim per issued token
)

// TokenKind discriminates the three token flavors this service issues.  The
// kind is embedded in the token itself as the "scope" claim so that a token
// of one kind can never be accepted where another kind is expected.
type TokenKind string

const (
    KindAccess  TokenKind = "access_token"  // short-lived, sent as the bearer credential
    KindRefresh TokenKind = "refresh_token" // long-lived, exchanged for a new pair
    KindConfirm TokenKind = "email_token"   // single-purpose email confirmation
)

// Decode failures.  All three surface to clients uniformly as "unauthorized";
// the distinction exists for logging and tests only.
var (
    ErrInvalidToken   = errors.New("invalid token")
    ErrExpiredToken   = errors.New("token expired")
    ErrWrongTokenKind = errors.New("wrong token kind")
)

// IssueToken builds and signs an HS256 JWT of the given kind.  The subject is
// the user's email address.  The claims carry the kind marker (scope), the
// expiration (exp = now + ttl), the issued-at time (iat) and a random jti so
// that two tokens minted for the same subject within the same second are
// still distinct strings.
func IssueToken(secret string, kind TokenKind, subject string, ttl time.Duration) (string, error) {
    now := time.Now().UTC()
    claims := jwt.MapClaims{
        "sub":   subject,
        "scope": string(kind),
        "exp":   now.Add(ttl).Unix(),
        "iat":   now.Unix(),
        "jti":   uuid.NewString(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return t.SignedString([]byte(secret))
}

// DecodeToken verifies the signature, expiry and kind of a token and returns
// its subject.  Failures are reported as ErrInvalidToken (bad signature or
// malformed token), ErrExpiredToken (past exp) or ErrWrongTokenKind (the
// scope claim does not match the expected kind).
func DecodeToken(secret, token string, kind TokenKind) (string, error) {
    tok, err := jwt.Parse(token, keyFunc(secret))
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return "", ErrExpiredToken
        }
        return "", ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok || !tok.Valid {
        return "", ErrInvalidToken
    }
    if scope, _ := claims["scope"].(string); scope != string(kind) {
        return "", ErrWrongTokenKind
    }
    sub, _ := claims["sub"].(string)
    if sub == "" {
        return "", ErrInvalidToken
    }
    return sub, nil
}

// TokenExpiry extracts the exp claim of a token without enforcing it.  The
// signature is still verified.  The expiry sweeper uses this to decide
// whether a revoked token has aged out; a token that cannot be decoded at
// all is already unusable, so callers treat an error here as "expired".
func TokenExpiry(secret, token string) (time.Time, error) {
    parser := jwt.NewParser(jwt.WithoutClaimsValidation())
    tok, err := parser.Parse(token, keyFunc(secret))
    if err != nil {
        return time.Time{}, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return time.Time{}, ErrInvalidToken
    }
    exp, err := claims.GetExpirationTime()
    if err != nil || exp == nil {
        return time.Time{}, ErrInvalidToken
    }
    return exp.Time, nil
}

// keyFunc returns the HMAC verification callback shared by all decode paths.
// Tokens signed with any other method are rejected.
func keyFunc(secret string) jwt.Keyfunc {
    return func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    }
}
