// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/heatsheet/internal/logging"
	"github.com/tomtom215/heatsheet/internal/models"
)

// tokenTTL is the lifetime of locally issued tokens.
const tokenTTL = 24 * time.Hour

// defaultModel is the casbin RBAC model used when no model file is
// configured: a role may write a resource when a policy line grants it
// directly or through role inheritance.
const defaultModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj
`

// defaultPolicy mirrors the role lists the remote user service
// applies: event admins manage planning documents, the timing crew
// writes results, the race office edits start entries. admin inherits
// everything through event-admin.
var defaultPolicy = [][]string{
	{"p", RoleEventAdmin, ResourceRaceplans},
	{"p", RoleEventAdmin, ResourceStartlists},
	{"p", RoleEventAdmin, ResourceRaces},
	{"p", RoleEventAdmin, ResourceStartEntries},
	{"p", RoleEventAdmin, ResourceRaceResults},
	{"p", RoleEventAdmin, ResourceTimeEvents},
	{"p", RoleRaceResult, ResourceTimeEvents},
	{"p", RoleRaceResult, ResourceRaceResults},
	{"p", RoleRaceResult, ResourceStartEntries},
	{"p", RoleRaceOffice, ResourceStartEntries},
	{"g", RoleAdmin, RoleEventAdmin},
}

// LocalAuthorizer verifies HMAC-signed JWTs issued by Login and
// enforces the casbin role policy. For deployments without a user
// service.
type LocalAuthorizer struct {
	secret       []byte
	enforcer     *casbin.Enforcer
	username     string
	passwordHash []byte
}

// NewLocalAuthorizer builds the local authorizer. modelPath and
// policyPath may be empty, selecting the built-in policy. The admin
// password is bcrypt-hashed immediately and the plaintext discarded.
func NewLocalAuthorizer(secret, username, password, modelPath, policyPath string) (*LocalAuthorizer, error) {
	enforcer, err := newEnforcer(modelPath, policyPath)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	return &LocalAuthorizer{
		secret:       []byte(secret),
		enforcer:     enforcer,
		username:     username,
		passwordHash: hash,
	}, nil
}

func newEnforcer(modelPath, policyPath string) (*casbin.Enforcer, error) {
	if modelPath != "" && policyPath != "" {
		enforcer, err := casbin.NewEnforcer(modelPath, policyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load casbin policy: %w", err)
		}
		return enforcer, nil
	}

	m, err := casbinmodel.NewModelFromString(defaultModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse built-in casbin model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to build casbin enforcer: %w", err)
	}
	for _, line := range defaultPolicy {
		if line[0] == "g" {
			if _, err := enforcer.AddGroupingPolicy(line[1], line[2]); err != nil {
				return nil, fmt.Errorf("failed to add casbin grouping: %w", err)
			}
			continue
		}
		if _, err := enforcer.AddPolicy(line[1], line[2]); err != nil {
			return nil, fmt.Errorf("failed to add casbin policy: %w", err)
		}
	}
	return enforcer, nil
}

// localClaims are the claims carried by locally issued tokens.
type localClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Authorize implements Authorizer: verify the signature, then check
// that any of the token's roles may write the resource.
func (a *LocalAuthorizer) Authorize(_ context.Context, token, resource string, _ []string) (string, error) {
	claims := &localClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return "", models.ErrUnauthorized
	}

	for _, role := range claims.Roles {
		ok, err := a.enforcer.Enforce(role, resource)
		if err != nil {
			return "", fmt.Errorf("casbin enforcement failed: %w", err)
		}
		if ok {
			return claims.Subject, nil
		}
	}
	return "", models.ErrForbidden
}

// IssueToken signs a token for the given subject and roles.
func (a *LocalAuthorizer) IssueToken(subject string, roles []string) (string, error) {
	now := time.Now()
	claims := &localClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			Issuer:    "heatsheet",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// LoginHandler answers POST /login in local mode: bcrypt-check the
// bootstrap admin credentials and issue an admin token.
func (a *LocalAuthorizer) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed login request")
		return
	}

	if req.Username != a.username ||
		bcrypt.CompareHashAndPassword(a.passwordHash, []byte(req.Password)) != nil {
		logging.Warn().Str("username", req.Username).Msg("login rejected")
		writeDetail(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := a.IssueToken(req.Username, []string{RoleAdmin})
	if err != nil {
		logging.Error().Err(err).Msg("failed to sign token")
		writeDetail(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(map[string]string{"token": token}); err != nil {
		logging.Error().Err(err).Msg("failed to encode login response")
	}
}
