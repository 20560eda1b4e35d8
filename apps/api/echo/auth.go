package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/classdrive/core"
	"github.com/trezcool/classdrive/core/teacher"
)

const (
	tokenContextKey   = "teacherToken"
	teacherContextKey = "teacher"

	tokenAudience      = "teachers"
	loginStateAudience = "teacher-login"
	loginStateLifetime = 10 * time.Minute
	loginStateCookie   = "classdrive_login"
)

var (
	errInvalidLoginState = errors.New("invalid login state")
	errTokenSigning      = errors.New("signing token")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
}

// newJWTConfig returns the JWT auth middleware config.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

func GetTeacherClaims(conf *core.Config, t teacher.Teacher, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   t.ID,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Name:         t.Name,
		Email:        t.Email,
	}
}

// GenerateToken generates a signed JWT token string representing the claims.
func GenerateToken(conf *core.Config, claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errTokenSigning
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextTeacher(ctx echo.Context) (teacher.Teacher, error) {
	if t, ok := ctx.Get(teacherContextKey).(teacher.Teacher); ok {
		return t, nil
	}
	return teacher.Teacher{}, errUnauthorized
}

func refreshToken(ctx echo.Context, conf *core.Config) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}
	t, err := getContextTeacher(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context teacher")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := GenerateToken(conf, GetTeacherClaims(conf, t, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}

// newLoginState returns a short-lived signed state for the Google sign-in round-trip,
// along with the cookie binding it to the browser that started it.
func newLoginState(conf *core.Config) (string, *http.Cookie, error) {
	now := time.Now()
	nonce := uuid.NewString()
	state, err := GenerateToken(conf, &jwt.StandardClaims{
		Id:        nonce,
		Issuer:    conf.AppName,
		Audience:  loginStateAudience,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(loginStateLifetime).Unix(),
	})
	if err != nil {
		return "", nil, err
	}
	cookie := &http.Cookie{
		Name:     loginStateCookie,
		Value:    nonce,
		Path:     "/auth/google",
		MaxAge:   int(loginStateLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return state, cookie, nil
}

func verifyLoginState(conf *core.Config, state string, cookie *http.Cookie) error {
	claims := new(jwt.StandardClaims)
	_, err := jwt.ParseWithClaims(state, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, errInvalidLoginState
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil {
		return errors.Wrap(errInvalidLoginState, err.Error())
	}
	if !claims.VerifyAudience(loginStateAudience, true) {
		return errInvalidLoginState
	}
	if cookie == nil || cookie.Value == "" || cookie.Value != claims.Id {
		return errInvalidLoginState
	}
	return nil
}
