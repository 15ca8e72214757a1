package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shelfsync/shelfsync/src/internal/domain"
	"github.com/shelfsync/shelfsync/src/internal/ports"
)

// API carries the handlers for the KOReader progress sync protocol.
type API struct {
	sync  ports.SyncManager
	users ports.UserRepository
}

func NewAPI(sync ports.SyncManager, users ports.UserRepository) *API {
	return &API{sync: sync, users: users}
}

// registerRoutes wires the KOReader sync route set. Paths follow the
// kosync server convention so stock KOReader clients work unmodified.
func registerRoutes(engine *gin.Engine, api *API, auth *Authenticator) {
	engine.GET("/healthcheck", api.healthcheck)
	engine.POST("/users/create", api.createUser)

	authed := engine.Group("/", auth.RequireAuth())
	authed.GET("/users/auth", api.checkAuth)
	authed.PUT("/syncs/progress", api.updateProgress)
	authed.GET("/syncs/progress/:document", api.getProgress)
}

func (api *API) healthcheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": "OK"})
}

func (api *API) checkAuth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"authorized": "OK"})
}

type createUserRequest struct {
	Username string `json:"username"`
	// Password arrives pre-hashed: KOReader sends md5(password).
	Password string `json:"password"`
}

func (api *API) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid registration: username and password are required"})
		return
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: req.Password,
		CreatedAt:    time.Now(),
		LastSeen:     time.Now(),
	}
	if err := api.users.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			// KOReader expects 402 for an already-registered username.
			c.JSON(http.StatusPaymentRequired, gin.H{"message": "Username is already registered"})
			return
		}
		log.Printf("Error creating user %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	log.Printf("Registered user %s", user.Username)
	c.JSON(http.StatusCreated, gin.H{"username": user.Username})
}

func (api *API) updateProgress(c *gin.Context) {
	var rec domain.ProgressRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid progress data"})
		return
	}

	ack, err := api.sync.UpdateProgress(c.Request.Context(), GetUserID(c), &rec)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"message": verr.Error()})
			return
		}
		log.Printf("Error updating progress for document %s: %v", rec.Document, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, ack)
}

func (api *API) getProgress(c *gin.Context) {
	document := c.Param("document")

	rec, err := api.sync.GetProgress(c.Request.Context(), GetUserID(c), document)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"message": verr.Error()})
			return
		}
		log.Printf("Error retrieving progress for document %s: %v", document, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	if rec == nil {
		// Absence is not an error in the sync protocol.
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	c.JSON(http.StatusOK, rec)
}
