package request

import (
	"github.com/shopspring/decimal"

	"proposal-core/internal/model"
)

type EnvironmentalDataRequest struct {
	NDVIBefore            decimal.Decimal `json:"ndviBefore" binding:"decimal_gte0"`
	NDVIAfter             decimal.Decimal `json:"ndviAfter" binding:"decimal_gte0"`
	PM25Before            decimal.Decimal `json:"pm25Before" binding:"decimal_gte0"`
	PM25After             decimal.Decimal `json:"pm25After" binding:"decimal_gte0"`
	PM25IncreasePercent   decimal.Decimal `json:"pm25IncreasePercent" binding:"decimal_gte0"`
	VegetationLossPercent decimal.Decimal `json:"vegetationLossPercent" binding:"decimal_gte0"`
}

type DemographicsRequest struct {
	Children                uint64 `json:"children"`
	Adults                  uint64 `json:"adults"`
	Seniors                 uint64 `json:"seniors"`
	TotalAffectedPopulation uint64 `json:"totalAffectedPopulation"`
}

// CreateProposalRequest 与 model.ProposalDraft 的 JSON 格式一致
type CreateProposalRequest struct {
	ParkID            string                   `json:"parkId" binding:"required,max=64"`
	ParkName          string                   `json:"parkName" binding:"required,max=128"`
	Description       string                   `json:"description"`
	EndDate           string                   `json:"endDate"`
	EnvironmentalData EnvironmentalDataRequest `json:"environmentalData"`
	Demographics      DemographicsRequest      `json:"demographics"`
}

func (r CreateProposalRequest) ToDraft() model.ProposalDraft {
	return model.ProposalDraft{
		ParkID:      r.ParkID,
		ParkName:    r.ParkName,
		Description: r.Description,
		EndDate:     r.EndDate,
		Metrics: model.EnvironmentalMetrics{
			NDVIBefore:            r.EnvironmentalData.NDVIBefore,
			NDVIAfter:             r.EnvironmentalData.NDVIAfter,
			PM25Before:            r.EnvironmentalData.PM25Before,
			PM25After:             r.EnvironmentalData.PM25After,
			PM25IncreasePercent:   r.EnvironmentalData.PM25IncreasePercent,
			VegetationLossPercent: r.EnvironmentalData.VegetationLossPercent,
		},
		Demographics: model.Demographics{
			Children:                r.Demographics.Children,
			Adults:                  r.Demographics.Adults,
			Seniors:                 r.Demographics.Seniors,
			TotalAffectedPopulation: r.Demographics.TotalAffectedPopulation,
		},
	}
}
