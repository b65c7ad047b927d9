package middleware

import (
	"net/http"

	"github.com/plateful/plateful-api/internal/database"
	"go.uber.org/zap"
)

// ActivityTracking records when a member last touched the API. The
// refresher worker uses the timestamps to keep only recently active
// families' dashboard snapshots warm.
func ActivityTracking(activityRepo *database.MemberActivityRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Only track authenticated requests
			if user := UserFromContext(r); user != nil {
				if err := activityRepo.UpdateLastInteraction(r.Context(), user.ID); err != nil {
					// Never fail the request over activity bookkeeping
					logger.Warn("failed_to_update_member_activity",
						zap.String("user_id", user.ID.String()),
						zap.Error(err),
					)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
