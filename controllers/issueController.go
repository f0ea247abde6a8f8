package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"civicplus-be/middlewares"
	"civicplus-be/models"
	"civicplus-be/query"
	"civicplus-be/stats"
	"civicplus-be/store"

	"github.com/gin-gonic/gin"
)

type IssueController struct {
	store store.Store
}

func NewIssueController(s store.Store) *IssueController {
	return &IssueController{store: s}
}

// respondStoreError maps the store's error kinds onto HTTP statuses.
func respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Println("store error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}

func issueIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return 0, false
	}
	return id, true
}

// CreateIssue handles a citizen-facing issue submission
func (ic *IssueController) CreateIssue(c *gin.Context) {
	var input struct {
		Title         string          `json:"title" binding:"required,max=200"`
		Description   string          `json:"description" binding:"required,max=1000"`
		IssueType     string          `json:"issueType" binding:"required"`
		Location      models.Location `json:"location"`
		Priority      string          `json:"priority"`
		ReportedDate  models.DateOnly `json:"reportedDate"`
		ReporterName  string          `json:"reporterName"`
		ReporterEmail string          `json:"reporterEmail"`
		Ward          string          `json:"ward"`
		ImageURL      *string         `json:"imageUrl,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reportedBy := ""
	if emailVal, exists := c.Get(middlewares.UserEmailKey); exists {
		reportedBy, _ = emailVal.(string)
	}

	issue, err := ic.store.CreateIssue(c.Request.Context(), models.Issue{
		Title:         input.Title,
		Description:   input.Description,
		IssueType:     models.IssueType(input.IssueType),
		Location:      input.Location,
		Priority:      models.IssuePriority(input.Priority),
		ReportedDate:  input.ReportedDate,
		ReporterName:  input.ReporterName,
		ReporterEmail: input.ReporterEmail,
		ReportedBy:    reportedBy,
		Ward:          input.Ward,
		ImageURL:      input.ImageURL,
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"issue": issue})
}

// GetIssues lists issues with filtering and pagination. daysOpen is
// populated on every record.
func (ic *IssueController) GetIssues(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	filter := query.Filter{
		Status:     c.Query("status"),
		IssueType:  c.Query("issueType"),
		Priority:   c.Query("priority"),
		Search:     c.Query("search"),
		ReportedBy: c.Query("reportedBy"),
		Ward:       c.Query("ward"),
	}

	issues, err := ic.store.ListIssues(c.Request.Context(), filter)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	result := query.Paginate(issues, limit, page)
	c.JSON(http.StatusOK, gin.H{
		"issues":      result.Items,
		"totalIssues": result.TotalCount,
		"totalPages":  result.TotalPages,
		"currentPage": page,
	})
}

// GetIssue retrieves an issue by its ID
func (ic *IssueController) GetIssue(c *gin.Context) {
	id, ok := issueIDParam(c)
	if !ok {
		return
	}
	issue, err := ic.store.GetIssue(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

// UpdateIssueStatus is the admin triage action: set status and notes.
// Moving an issue out of resolved clears any citizen rating.
func (ic *IssueController) UpdateIssueStatus(c *gin.Context) {
	id, ok := issueIDParam(c)
	if !ok {
		return
	}

	var input struct {
		Status     string `json:"status" binding:"required"`
		AdminNotes string `json:"adminNotes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issue, err := ic.store.UpdateIssueStatus(c.Request.Context(), id,
		models.IssueStatus(input.Status), input.AdminNotes)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

// RateIssue records a 1-5 star rating on a resolved issue
func (ic *IssueController) RateIssue(c *gin.Context) {
	id, ok := issueIDParam(c)
	if !ok {
		return
	}

	var input struct {
		Rating   int    `json:"rating" binding:"required"`
		Comments string `json:"comments"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issue, err := ic.store.RateIssue(c.Request.Context(), id, input.Rating, input.Comments)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

// VoteOnIssue adds a community priority vote to an issue
func (ic *IssueController) VoteOnIssue(c *gin.Context) {
	id, ok := issueIDParam(c)
	if !ok {
		return
	}

	var input struct {
		VoteValue *int   `json:"voteValue" binding:"required"`
		Comments  string `json:"comments"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issue, err := ic.store.VoteIssue(c.Request.Context(), id, *input.VoteValue, input.Comments)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

// GetStatistics returns summary counters over the whole record set
func (ic *IssueController) GetStatistics(c *gin.Context) {
	issues, err := ic.store.ListIssues(c.Request.Context(), query.Filter{})
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats.Compute(issues))
}

// GetLeaderboard ranks wards by citizen rating and resolution counts,
// computed from the live record set.
func (ic *IssueController) GetLeaderboard(c *gin.Context) {
	issues, err := ic.store.ListIssues(c.Request.Context(), query.Filter{})
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wards": stats.Leaderboard(issues)})
}
