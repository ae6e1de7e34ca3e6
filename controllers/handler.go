package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Tharoon321/worldpeace-api/cache"
	"github.com/Tharoon321/worldpeace-api/events"
	"github.com/Tharoon321/worldpeace-api/store"
)

const (
	requestTimeout = 5 * time.Second
	maxPageLimit   = 100
)

// Scheduler arranges settlement of a newly created donation.
type Scheduler interface {
	Schedule(id primitive.ObjectID)
}

// Mailer delivers password recovery codes.
type Mailer interface {
	SendMail(to, subject, body string) error
}

// TokenIssuer issues and verifies bearer tokens.
type TokenIssuer interface {
	GenerateJWT(userID, role string) (string, error)
	ParseJWT(token string) (string, error)
}

// Options tunes handler behaviour.
type Options struct {
	BcryptCost      int
	OTPTTL          time.Duration
	StatsCacheTTL   time.Duration
	DefaultCurrency string
}

// Deps are the collaborators a Handler needs. Cache, Publisher and Mailer
// may be left nil.
type Deps struct {
	Store     store.Store
	Tokens    TokenIssuer
	Settler   Scheduler
	Publisher events.Publisher
	Cache     cache.Cache
	Mailer    Mailer
	Log       logrus.FieldLogger
	Options   Options
}

// Handler serves every API route.
type Handler struct {
	store     store.Store
	tokens    TokenIssuer
	settler   Scheduler
	publisher events.Publisher
	cache     cache.Cache
	mailer    Mailer
	log       logrus.FieldLogger
	opts      Options
	started   time.Time
	now       func() time.Time
}

func New(d Deps) *Handler {
	h := &Handler{
		store:     d.Store,
		tokens:    d.Tokens,
		settler:   d.Settler,
		publisher: d.Publisher,
		cache:     d.Cache,
		mailer:    d.Mailer,
		log:       d.Log,
		opts:      d.Options,
		started:   time.Now(),
		now:       time.Now,
	}
	if h.cache == nil {
		h.cache = cache.Nop{}
	}
	if h.opts.DefaultCurrency == "" {
		h.opts.DefaultCurrency = "USD"
	}
	if h.opts.OTPTTL == 0 {
		h.opts.OTPTTL = 10 * time.Minute
	}
	return h
}

// ctx bounds store calls made on behalf of a request.
func (h *Handler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// internalError logs err and answers with a generic 500.
func (h *Handler) internalError(c *gin.Context, err error, msg string) {
	h.log.WithError(err).WithField("path", c.Request.URL.Path).Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func (h *Handler) emit(ctx context.Context, eventType, key string, data any) {
	events.Emit(ctx, h.publisher, h.log, eventType, key, data)
}

// parseID reads a hex ObjectID from the named path parameter, answering 400
// when it is malformed.
func parseID(c *gin.Context, param, what string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " id"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// bindJSON decodes and validates the body into dst, answering 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Invalid email address"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return field + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// pageParams reads page and limit from the query string. Missing, malformed
// or non-positive values fall back to page 1 and defaultLimit; limit is
// capped at maxPageLimit.
func pageParams(c *gin.Context, defaultLimit int) store.Page {
	page := positiveQuery(c, "page", 1)
	limit := positiveQuery(c, "limit", defaultLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return store.Page{Number: page, Limit: limit}
}

func positiveQuery(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// cached serves key from the response cache, loading and storing it on a
// miss. Cache failures only cost a reload.
func cached[T any](ctx context.Context, h *Handler, key string, load func(context.Context) (T, error)) (T, error) {
	var v T
	if h.opts.StatsCacheTTL > 0 {
		hit, err := h.cache.Get(ctx, key, &v)
		if err != nil {
			h.log.WithError(err).WithField("key", key).Warn("cache get")
		}
		if hit {
			return v, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if h.opts.StatsCacheTTL > 0 {
		if err := h.cache.Set(ctx, key, v, h.opts.StatsCacheTTL); err != nil {
			h.log.WithError(err).WithField("key", key).Warn("cache set")
		}
	}
	return v, nil
}
