package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abhishek4kahol/deel-task/internal/app/core/domain"
)

// 合約列表只回傳尚未終止的合約
var listableStatuses = []domain.ContractStatus{
	domain.ContractStatusNew,
	domain.ContractStatusInProgress,
}

// CoreUseCase 是核心業務邏輯層
type CoreUseCase struct {
	billing Billing
}

func NewCoreUseCase(billing Billing) *CoreUseCase {
	return &CoreUseCase{
		billing: billing,
	}
}

// GetProfile 取得 Profile (身分解析層使用)
func (c *CoreUseCase) GetProfile(ctx context.Context, id int64) (*domain.Profile, error) {
	return c.billing.GetProfile(ctx, id)
}

// GetContract 取得請求者範圍內的單一合約
func (c *CoreUseCase) GetContract(ctx context.Context, requester *domain.Profile, contractID int64) (*domain.Contract, error) {
	return c.billing.FindContract(ctx, domain.ScopeFor(requester), contractID)
}

// ListContracts 取得請求者範圍內所有未終止的合約
func (c *CoreUseCase) ListContracts(ctx context.Context, requester *domain.Profile) ([]domain.Contract, error) {
	return c.billing.FindContracts(ctx, domain.ScopeFor(requester), listableStatuses)
}

// ListUnpaidJobs 取得請求者範圍內、進行中合約下的未付款工作
func (c *CoreUseCase) ListUnpaidJobs(ctx context.Context, requester *domain.Profile) ([]domain.Job, error) {
	return c.billing.FindUnpaidJobs(ctx, domain.ScopeFor(requester))
}

// PayJob 支付工作款項
func (c *CoreUseCase) PayJob(ctx context.Context, jobID int64, requesterID int64) error {
	return c.billing.PayJob(ctx, jobID, requesterID, time.Now())
}

// Deposit 存款至客戶餘額
// 金額驗證在進入交易前完成，上限檢查與餘額變動在儲存層交易內完成
func (c *CoreUseCase) Deposit(ctx context.Context, depositorID int64, targetID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	return c.billing.Deposit(ctx, depositorID, targetID, amount)
}
