package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mercadolocal/catalogsync/internal/crypto"
	"github.com/mercadolocal/catalogsync/internal/limiter"
	"github.com/mercadolocal/catalogsync/internal/model"
)

const ctxUserID = "authUserID"

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	LastName string `json:"lastName"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Photo    string `json:"photo"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	digest, err := crypto.Hash(req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	u := &model.User{
		Name:         req.Name,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: digest,
		Role:         model.RoleClient,
		Phone:        req.Phone,
		Address:      req.Address,
		PhotoRef:     req.Photo,
		VerifyCode:   uuid.Must(uuid.NewV4()).String(),
	}
	created, err := s.users.Create(c.Request.Context(), u)
	if err != nil {
		fail(c, err)
		return
	}
	created.PasswordHash = ""
	created.VerifyCode = ""
	c.JSON(http.StatusCreated, created)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	ipHash := limiter.HashIP(c.ClientIP())

	allowed, retryAfter, err := s.lim.Allow(ctx, req.Email, ipHash)
	if err != nil {
		fail(c, err)
		return
	}
	if !allowed {
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limited"})
		return
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil || !crypto.Verify(req.Password, u.PasswordHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, req.Email, ipHash); ferr == nil && blocked {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limited"})
			return
		}
		// do not leak whether the account exists
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	_ = s.lim.Success(ctx, req.Email, ipHash)

	token, err := s.issueToken(u.ID)
	if err != nil {
		fail(c, err)
		return
	}
	u.PasswordHash = ""
	u.VerifyCode = ""
	u.ResetCode = ""
	c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
}

// issueToken creates a signed HS256 JWT for the given subject.
func (s *Server) issueToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
}

// requireAuth validates the bearer token and stores the subject user id.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tok, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
			return s.signKey, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !tok.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		sub, err := tok.Claims.GetSubject()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		uid, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxUserID, uid)
		c.Next()
	}
}

// authedUserID reads the subject set by requireAuth.
func authedUserID(c *gin.Context) int64 {
	v, _ := c.Get(ctxUserID)
	id, _ := v.(int64)
	return id
}
