package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectStatus string
type ProcurementMethod string

const (
	StatusPlanning   ProjectStatus = "Planning"
	StatusTenderOpen ProjectStatus = "Tender Open"
	StatusEvaluation ProjectStatus = "Evaluation"
	StatusAwarded    ProjectStatus = "Awarded"
	StatusInProgress ProjectStatus = "In Progress"
	StatusCompleted  ProjectStatus = "Completed"
	StatusDelayed    ProjectStatus = "Delayed"
	StatusDisputed   ProjectStatus = "Disputed"

	MethodWorksNCB   ProcurementMethod = "Works-NCB"
	MethodWorksICB   ProcurementMethod = "Works-ICB"
	MethodGoodsNCB   ProcurementMethod = "Goods-NCB"
	MethodGoodsICB   ProcurementMethod = "Goods-ICB"
	MethodConsulting ProcurementMethod = "Consulting"
	MethodShopping   ProcurementMethod = "Shopping"
)

var ProjectStatuses = []ProjectStatus{
	StatusPlanning,
	StatusTenderOpen,
	StatusEvaluation,
	StatusAwarded,
	StatusInProgress,
	StatusCompleted,
	StatusDelayed,
	StatusDisputed,
}

var ProcurementMethods = []ProcurementMethod{
	MethodWorksNCB,
	MethodWorksICB,
	MethodGoodsNCB,
	MethodGoodsICB,
	MethodConsulting,
	MethodShopping,
}

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusPlanning,
		StatusTenderOpen,
		StatusEvaluation,
		StatusAwarded,
		StatusInProgress,
		StatusCompleted,
		StatusDelayed,
		StatusDisputed:
		return true
	}
	return false
}

// Keys of the procurement plan document that the query layer reads.
const (
	PlanContractAmount  = "contract_amount"
	PlanDetailsOfWork   = "details_of_work"
	PlanContractorName  = "contractor_name"
	PlanSigningContract = "date_of_signing_contract"
	PlanInitiation      = "date_of_initiation"
	PlanCompletion      = "date_of_completion"
)

// Project — тендер/закупка. ProcurementPlan, Signatures и Location хранятся
// как JSON-документы: их форма зависит от типа закупки.
type Project struct {
	ID             string `gorm:"primaryKey;size:64"`
	FiscalYear     string `gorm:"size:16;not null;index"`
	Ministry       string `gorm:"size:255;not null;index"`
	BudgetSubtitle string `gorm:"size:64"`

	ProcurementPlan datatypes.JSON `gorm:"not null"`
	Signatures      datatypes.JSON `gorm:"not null"`

	Status             ProjectStatus  `gorm:"type:varchar(32);not null;index"`
	ProgressPercentage int            `gorm:"not null"` // 0..100, проверяется на входе
	Location           datatypes.JSON `gorm:"not null"` // {lat, lng, address}

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Reviews    []CitizenReview    `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Statistics *ProjectStatistics `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

func (p *Project) BeforeSave(tx *gorm.DB) error {
	p.ProcurementPlan = orNull(p.ProcurementPlan)
	p.Signatures = orNull(p.Signatures)
	p.Location = orNull(p.Location)
	return nil
}
