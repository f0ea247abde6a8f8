package routes

import (
	"civicplus-be/controllers"
	"civicplus-be/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes. Browsing, voting and rating are
// public; creating and triaging require an authenticated caller.
func IssueRoutes(r *gin.Engine, ic *controllers.IssueController, rateLimiter gin.HandlerFunc) {
	issue := r.Group("/api/issues")
	{
		issue.GET("", ic.GetIssues)
		issue.POST("", middlewares.AuthMiddleware(), rateLimiter, ic.CreateIssue)
		issue.GET("/:id", ic.GetIssue)
		issue.PUT("/:id/status", middlewares.AuthMiddleware(), ic.UpdateIssueStatus)
		issue.POST("/:id/rate", ic.RateIssue)
		issue.POST("/:id/vote", ic.VoteOnIssue)
	}

	r.GET("/api/statistics", ic.GetStatistics)
	r.GET("/api/leaderboard", ic.GetLeaderboard)
}
