package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/codigarte/codigarte/app/controllers"
	"github.com/codigarte/codigarte/app/models"
	"github.com/codigarte/codigarte/internal/pkg/database"
	"github.com/codigarte/codigarte/internal/pkg/entitlements"
	"github.com/codigarte/codigarte/internal/pkg/session"
	"github.com/codigarte/codigarte/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request.
// For logged-in users it also runs the entitlement refresh: expired premium is
// cleared and the regenerating life pool is brought up to date before any
// handler reads either, so no handler ever sees a stale entitlement.
func UserContextMiddleware(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return anonymous(c)
	}

	userID := sess.Get(controllers.USER_ID)
	if userID == nil {
		return anonymous(c)
	}

	id, ok := userID.(uint)
	if !ok {
		return anonymous(c)
	}

	var user models.User
	if err := database.GetDB().First(&user, id).Error; err != nil {
		// Stale session pointing at a deleted account.
		return anonymous(c)
	}

	now := time.Now().UTC()
	expired := entitlements.ExpireIfNeeded(&user, now)
	premiumActive := entitlements.IsActive(&user, now)

	livesBefore := user.Lives
	anchorBefore := user.LastLifeRegenAt
	user.RegenerateLives(now, premiumActive)

	if expired || user.Lives != livesBefore || user.LastLifeRegenAt != anchorBefore {
		database.GetDB().Save(&user)
	}

	username := session.GetSessionValue(c, controllers.USER_NAME)
	isAdmin := sess.Get(controllers.USER_IS_ADMIN)

	userCtx := usercontext.UserContext{
		UserID:     user.ID,
		Username:   username,
		IsLoggedIn: true,
		IsAdmin:    isAdmin != nil && isAdmin == true,
		Premium:    premiumActive,
		Lives:      user.Lives,
	}
	c.Locals("USER_CONTEXT", userCtx)

	c.Locals(controllers.FROM_PROTECTED, true)
	c.Locals(controllers.USER_NAME, username)
	c.Locals(controllers.USER_ID, user.ID)
	c.Locals(controllers.USER_IS_ADMIN, userCtx.IsAdmin)

	return c.Next()
}

func anonymous(c *fiber.Ctx) error {
	c.Locals("USER_CONTEXT", usercontext.UserContext{
		IsLoggedIn: false,
		IsAdmin:    false,
	})
	c.Locals(controllers.FROM_PROTECTED, false)
	c.Locals(controllers.USER_IS_ADMIN, false)
	return c.Next()
}
