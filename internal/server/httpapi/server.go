// Package httpapi exposes the catalogd JSON API consumed by the sync core's
// remote client. It is the authority side of the protocol: deterministic
// 404s, client-assigned product identifiers, PATCH (partial) and PUT (same
// payload shape) for sellers, and an email-filtered seller query.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mercadolocal/catalogsync/internal/errs"
	"github.com/mercadolocal/catalogsync/internal/limiter"
	"github.com/mercadolocal/catalogsync/internal/repository"
)

// Server bundles the repositories and auth state behind the JSON API.
type Server struct {
	products  repository.ProductRepository
	sellers   repository.SellerRepository
	users     repository.UserRepository
	lim       limiter.Limiter
	signKey   []byte
	accessTTL time.Duration
	log       *zap.Logger
}

// New constructs the API server. log may be nil.
func New(products repository.ProductRepository, sellers repository.SellerRepository, users repository.UserRepository, lim limiter.Limiter, signKey []byte, accessTTL time.Duration, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		products:  products,
		sellers:   sellers,
		users:     users,
		lim:       lim,
		signKey:   signKey,
		accessTTL: accessTTL,
		log:       log,
	}
}

// Router builds the gin engine with all routes mounted under /api.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	api := r.Group("/api")
	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)

	api.GET("/products", s.listProducts)
	api.GET("/products/:id", s.getProduct)
	api.GET("/sellers", s.listSellers)
	api.GET("/sellers/:id", s.getSeller)
	api.GET("/users/:id", s.getUser)

	authed := api.Group("", s.requireAuth())
	authed.POST("/products", s.createProduct)
	authed.PUT("/products/:id", s.updateProduct)
	authed.DELETE("/products/:id", s.deleteProduct)
	authed.POST("/sellers", s.createSeller)
	authed.PATCH("/sellers/:id", s.patchSeller)
	authed.PUT("/sellers/:id", s.putSeller)
	authed.PUT("/users/:id", s.updateUser)

	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

// pathID parses the :id path parameter.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad id"})
		return 0, false
	}
	return id, true
}

// fail maps repository errors onto HTTP statuses.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, errs.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, errs.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
