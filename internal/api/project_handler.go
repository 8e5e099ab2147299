package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gramchain/internal/attest"
	"gramchain/internal/ledger"
	"gramchain/internal/model"
	"gramchain/pkg/circuitbreaker"
)

// DocumentFetcher retrieves a pinned project document by CID.
type DocumentFetcher interface {
	Fetch(ctx context.Context, cid string) (model.Project, error)
}

type ProjectHandler struct {
	ledger  *ledger.Ledger
	wallet  attest.WalletClient
	pinner  attest.Pinner
	fetcher DocumentFetcher
	logger  *zap.Logger
}

func NewProjectHandler(l *ledger.Ledger, wallet attest.WalletClient, pinner attest.Pinner, fetcher DocumentFetcher, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		ledger:  l,
		wallet:  wallet,
		pinner:  pinner,
		fetcher: fetcher,
		logger:  logger,
	}
}

type projectRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Location    string            `json:"location"`
	TotalBudget float64           `json:"totalBudget"`
	Contractor  string            `json:"contractor"`
	Milestones  []model.Milestone `json:"milestones"`
}

// validate aggregates every missing required field into one message, so
// the caller sees the full list before any remote call happens.
func (r *projectRequest) validate() error {
	var missing []string
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(r.Location) == "" {
		missing = append(missing, "location")
	}
	if strings.TrimSpace(r.Description) == "" {
		missing = append(missing, "description")
	}
	if r.TotalBudget <= 0 {
		missing = append(missing, "totalBudget")
	}
	if len(missing) > 0 {
		return errors.New("missing required fields: " + strings.Join(missing, ", "))
	}
	return nil
}

func (r *projectRequest) toProject() model.Project {
	milestones := r.Milestones
	if milestones == nil {
		milestones = []model.Milestone{}
	}
	return model.Project{
		Name:        r.Name,
		Description: r.Description,
		Location:    r.Location,
		TotalBudget: r.TotalBudget,
		Contractor:  r.Contractor,
		Milestones:  milestones,
		Status:      model.ProjectStatusPlanning,
	}
}

// List handles GET /projects, filtered by the viewer's role.
func (h *ProjectHandler) List(c *gin.Context) {
	p, _ := principalFrom(c)

	visible := ledger.VisibleProjects(h.ledger.Projects(), p.Role, p.Name)
	c.JSON(http.StatusOK, gin.H{
		"projects": visible,
		"count":    len(visible),
	})
}

// Get handles GET /projects/:id.
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.ledger.Project(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	p, _ := principalFrom(c)
	visible := ledger.VisibleProjects([]model.Project{project}, p.Role, p.Name)
	if len(visible) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": visible[0]})
}

// Create handles POST /projects.
func (h *ProjectHandler) Create(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.ledger.AddProject(req.toProject())
	if err != nil {
		h.logger.Error("Failed to record project", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record project"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Project created successfully",
		"project": project,
	})
}

// CreateAttested handles POST /projects/attested: validation, then the
// wallet-signature-plus-upload flow, then the ledger append. A failure
// anywhere before the append leaves no partial record.
func (h *ProjectHandler) CreateAttested(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Each flow gets its own adapter so its state machine is private to
	// this request.
	adapter := attest.NewAdapter(h.wallet, h.pinner, h.logger)
	result, err := adapter.Attest(c.Request.Context(), req.toProject())
	if err != nil {
		status := attestErrorStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	partial := req.toProject()
	partial.Signature = result.Signature
	partial.CreatedBy = result.Address
	partial.IPFSHash = result.CID

	project, err := h.ledger.AddProject(partial)
	if err != nil {
		h.logger.Error("Failed to record attested project", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record project"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Project created successfully",
		"project": project,
		"attestation": gin.H{
			"address":   result.Address,
			"message":   result.Message,
			"signature": result.Signature,
			"ipfsHash":  result.CID,
			"url":       result.URL,
		},
	})
}

// Patch handles PATCH /projects/:id with a free-form shallow patch.
func (h *ProjectHandler) Patch(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.ledger.Project(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	updated, err := h.ledger.UpdateProject(id, patch)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": updated})
}

// SubmitMilestone handles POST /projects/:id/milestones/:mid/submit.
func (h *ProjectHandler) SubmitMilestone(c *gin.Context) {
	h.patchMilestone(c, model.MilestoneStatusSubmitted)
}

// ApproveMilestone handles POST /projects/:id/milestones/:mid/approve.
func (h *ProjectHandler) ApproveMilestone(c *gin.Context) {
	h.patchMilestone(c, model.MilestoneStatusApproved)
}

// patchMilestone rewrites the project's milestone list through the same
// shallow-merge path a free-form patch would use.
func (h *ProjectHandler) patchMilestone(c *gin.Context, status string) {
	id := c.Param("id")
	mid := c.Param("mid")

	project, err := h.ledger.Project(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	now := time.Now().UnixMilli()
	found := false
	milestones := append([]model.Milestone{}, project.Milestones...)
	for i := range milestones {
		if milestones[i].ID != mid {
			continue
		}
		milestones[i].Status = status
		switch status {
		case model.MilestoneStatusSubmitted:
			milestones[i].SubmittedAt = now
		case model.MilestoneStatusApproved:
			milestones[i].ApprovedAt = now
		}
		found = true
		break
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "milestone not found"})
		return
	}

	updated, err := h.ledger.UpdateProject(id, map[string]interface{}{
		"milestones": milestones,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update milestone"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": updated})
}

// GetAttestation handles GET /attestations/:cid: a plain gateway fetch
// of a previously pinned project document.
func (h *ProjectHandler) GetAttestation(c *gin.Context) {
	doc, err := h.fetcher.Fetch(c.Request.Context(), c.Param("cid"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

// attestErrorStatus maps the adapter's error classes onto HTTP statuses:
// user rejection is the caller's doing, missing dependencies are service
// configuration, everything else is an upstream failure.
func attestErrorStatus(err error) int {
	switch {
	case errors.Is(err, attest.ErrUserRejected):
		return http.StatusBadRequest
	case errors.Is(err, attest.ErrWalletNotConfigured),
		errors.Is(err, attest.ErrPinningNotConfigured),
		errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
