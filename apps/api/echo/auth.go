package echoapi

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/RealCodeCrafter/ERP/core"
	"github.com/RealCodeCrafter/ERP/core/operator"
	"github.com/RealCodeCrafter/ERP/core/teacher"
)

const contextTokenKey = "principalToken"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Username   string `json:"username,omitempty"`
	IsTeacher  bool   `json:"is_teacher,omitempty"`
	IsOperator bool   `json:"is_operator,omitempty"`
}

// PrincipalID returns the authenticated teacher or operator id.
func (c Claims) PrincipalID() (int, error) {
	id, err := strconv.Atoi(c.Subject)
	if err != nil {
		return 0, errUnauthorized
	}
	return id, nil
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// GetTeacherClaims builds the authorization claims for a teacher.
func GetTeacherClaims(conf *core.Config, tch teacher.Teacher) *Claims {
	return newClaims(conf, tch.ID, tch.Username, true, false)
}

// GetOperatorClaims builds the authorization claims for an operator.
func GetOperatorClaims(conf *core.Config, op operator.Operator) *Claims {
	return newClaims(conf, op.ID, op.Username, false, true)
}

func newClaims(conf *core.Config, id int, username string, isTeacher, isOperator bool) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   strconv.Itoa(id),
			ExpiresAt: now.Add(conf.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username:   username,
		IsTeacher:  isTeacher,
		IsOperator: isOperator,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}
