package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abhishek4kahol/deel-task/internal/app/core/domain"
)

// Billing 是帳務核心對儲存層的介面
// 每個會變動餘額的操作都必須在儲存層的單一交易內完成 read-decide-write，
// 交易之間彼此隔離，失敗時全數回滾
type Billing interface {
	// GetProfile 取得 Profile
	GetProfile(ctx context.Context, id int64) (*domain.Profile, error)

	// FindContract 依 id 取得範圍內的合約，範圍外視同不存在
	FindContract(ctx context.Context, scope domain.Scope, id int64) (*domain.Contract, error)

	// FindContracts 取得範圍內、狀態符合的合約
	FindContracts(ctx context.Context, scope domain.Scope, statuses []domain.ContractStatus) ([]domain.Contract, error)

	// FindUnpaidJobs 取得範圍內、進行中合約下的未付款工作
	FindUnpaidJobs(ctx context.Context, scope domain.Scope) ([]domain.Job, error)

	// PayJob 支付工作款項：扣客戶餘額、加承包商餘額、標記已付款，單一交易完成
	// 只有合約的客戶本人可以付款；同一筆工作最多成功付款一次
	PayJob(ctx context.Context, jobID int64, requesterID int64, at time.Time) error

	// Deposit 存款至客戶餘額，受未付款總額 25% 上限約束，回傳最新餘額
	// depositorID 僅作記錄用途，存款對象不限本人
	Deposit(ctx context.Context, depositorID int64, targetID int64, amount decimal.Decimal) (decimal.Decimal, error)
}
