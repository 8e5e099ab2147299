package model

// Project is a tracked fund-receiving project. AllocatedFunds and
// SpentFunds are free-form numbers updated by shallow patches; nothing
// ties them to milestone amounts or transaction history.
type Project struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Location       string      `json:"location"`
	TotalBudget    float64     `json:"totalBudget"`
	AllocatedFunds float64     `json:"allocatedFunds"`
	SpentFunds     float64     `json:"spentFunds"`
	Status         string      `json:"status"` // planning / approved / in_progress / completed
	Contractor     string      `json:"contractor,omitempty"`
	Milestones     []Milestone `json:"milestones"`
	CreatedAt      int64       `json:"createdAt"` // unix milliseconds
	IPFSHash       string      `json:"ipfsHash,omitempty"`
	Signature      string      `json:"signature,omitempty"`
	CreatedBy      string      `json:"createdBy,omitempty"`
}

type Milestone struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"` // pending / submitted / approved / paid
	SubmittedAt int64   `json:"submittedAt,omitempty"`
	ApprovedAt  int64   `json:"approvedAt,omitempty"`
}

const (
	ProjectStatusPlanning   = "planning"
	ProjectStatusApproved   = "approved"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
)

const (
	MilestoneStatusPending   = "pending"
	MilestoneStatusSubmitted = "submitted"
	MilestoneStatusApproved  = "approved"
	MilestoneStatusPaid      = "paid"
)
