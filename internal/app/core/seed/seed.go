package seed

import (
	"github.com/shopspring/decimal"

	"github.com/abhishek4kahol/deel-task/internal/app/core/domain"
)

// Sample 開發用的初始資料
// 涵蓋各種狀態：兩位客戶、兩位承包商、三種合約狀態、已付款與未付款的工作
func Sample() (profiles []domain.Profile, contracts []domain.Contract, jobs []domain.Job) {
	profiles = []domain.Profile{
		{ID: 1, Kind: domain.ProfileKindClient, Balance: decimal.NewFromInt(1150)},
		{ID: 2, Kind: domain.ProfileKindClient, Balance: decimal.NewFromInt(230)},
		{ID: 5, Kind: domain.ProfileKindContractor, Balance: decimal.NewFromInt(64)},
		{ID: 6, Kind: domain.ProfileKindContractor, Balance: decimal.NewFromInt(1214)},
	}
	contracts = []domain.Contract{
		{ID: 1, ClientID: 1, ContractorID: 5, Status: domain.ContractStatusTerminated},
		{ID: 2, ClientID: 1, ContractorID: 6, Status: domain.ContractStatusInProgress},
		{ID: 3, ClientID: 2, ContractorID: 6, Status: domain.ContractStatusInProgress},
		{ID: 4, ClientID: 2, ContractorID: 5, Status: domain.ContractStatusNew},
	}
	jobs = []domain.Job{
		{ID: 1, ContractID: 2, Price: decimal.NewFromInt(200)},
		{ID: 2, ContractID: 2, Price: decimal.NewFromInt(201)},
		{ID: 3, ContractID: 3, Price: decimal.NewFromInt(202)},
		{ID: 4, ContractID: 3, Price: decimal.RequireFromString("200.10")},
		{ID: 5, ContractID: 2, Price: decimal.NewFromInt(121), Paid: true},
	}
	return profiles, contracts, jobs
}
