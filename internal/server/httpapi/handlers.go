package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mercadolocal/catalogsync/internal/model"
)

// ---- products ----

func (s *Server) listProducts(c *gin.Context) {
	ps, err := s.products.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if ps == nil {
		ps = []model.Product{}
	}
	c.JSON(http.StatusOK, ps)
}

func (s *Server) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := s.products.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) createProduct(c *gin.Context) {
	var p model.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if p.Name == "" || len(p.Images) > model.MaxProductImages {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product"})
		return
	}
	if p.OwnerID == nil {
		owner := authedUserID(c)
		p.OwnerID = &owner
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	created, err := s.products.Create(c.Request.Context(), &p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var p model.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p.ID = id
	current, err := s.products.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if current.OwnerID != nil && *current.OwnerID != authedUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the owner"})
		return
	}
	updated, err := s.products.Update(c.Request.Context(), &p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	current, err := s.products.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if current.OwnerID != nil && *current.OwnerID != authedUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the owner"})
		return
	}
	if err := s.products.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- sellers ----

func (s *Server) listSellers(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		out []model.Seller
		err error
	)
	if email := c.Query("email"); email != "" {
		out, err = s.sellers.ListByEmail(ctx, email)
	} else {
		out, err = s.sellers.List(ctx)
	}
	if err != nil {
		fail(c, err)
		return
	}
	if out == nil {
		out = []model.Seller{}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getSeller(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sl, err := s.sellers.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sl)
}

func (s *Server) createSeller(c *gin.Context) {
	var sl model.Seller
	if err := c.ShouldBindJSON(&sl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if sl.UserID == 0 || sl.Entrepreneurship == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid seller"})
		return
	}
	if sl.UserID != authedUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "id mismatch"})
		return
	}
	ctx := c.Request.Context()
	created, err := s.sellers.Create(ctx, &sl)
	if err != nil {
		fail(c, err)
		return
	}
	// the seller role follows the profile on the authority side
	if err := s.users.SetRole(ctx, sl.UserID, model.RoleSeller); err != nil {
		s.log.Warn("seller role flip failed", zap.Int64("userId", sl.UserID), zap.Error(err))
	}
	c.JSON(http.StatusCreated, created)
}

// applySellerPatch merges a partial payload into the current profile.
func applySellerPatch(cur *model.Seller, patch map[string]any) {
	if v, ok := patch["name"].(string); ok {
		cur.Name = v
	}
	if v, ok := patch["lastname"].(string); ok {
		cur.LastName = v
	}
	if v, ok := patch["email"].(string); ok {
		cur.Email = v
	}
	if v, ok := patch["phone"].(string); ok {
		cur.Phone = v
	}
	if v, ok := patch["address"].(string); ok {
		cur.Address = v
	}
	if v, ok := patch["entrepreneurship"].(string); ok {
		cur.Entrepreneurship = v
	}
	if v, ok := patch["photo"].(string); ok {
		cur.PhotoRef = v
	}
	if v, ok := patch["latitude"].(float64); ok {
		cur.Latitude = v
	}
	if v, ok := patch["longitude"].(float64); ok {
		cur.Longitude = v
	}
}

// patchSeller and putSeller accept the same payload shape; both merge into
// the stored profile and save the result.
func (s *Server) patchSeller(c *gin.Context) { s.mergeSeller(c) }
func (s *Server) putSeller(c *gin.Context)   { s.mergeSeller(c) }

func (s *Server) mergeSeller(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if id != authedUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "id mismatch"})
		return
	}
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	cur, err := s.sellers.Get(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	applySellerPatch(cur, patch)
	saved, err := s.sellers.Save(ctx, cur)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// ---- users ----

func (s *Server) getUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := s.users.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	u.PasswordHash = ""
	u.VerifyCode = ""
	u.ResetCode = ""
	c.JSON(http.StatusOK, u)
}

func (s *Server) updateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if id != authedUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "id mismatch"})
		return
	}
	var u model.User
	if err := c.ShouldBindJSON(&u); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u.ID = id
	updated, err := s.users.Update(c.Request.Context(), &u)
	if err != nil {
		fail(c, err)
		return
	}
	updated.PasswordHash = ""
	c.JSON(http.StatusOK, updated)
}
