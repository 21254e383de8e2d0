package domain

import "github.com/shopspring/decimal"

// ProfileKind 身分類型
type ProfileKind string

const (
	// 客戶：發包方，支付工作款項
	ProfileKindClient ProfileKind = "client"
	// 承包商：接案方，收取工作款項
	ProfileKindContractor ProfileKind = "contractor"
)

// DepositCapRate 單筆存款上限比率：未付款工作總額的 25%
var DepositCapRate = decimal.RequireFromString("0.25")

// Profile 帳戶資料
// Balance 只能透過核心的付款 / 存款操作變動，不允許外部直接指定
type Profile struct {
	ID      int64           `json:"id"`
	Kind    ProfileKind     `json:"kind"`
	Balance decimal.Decimal `json:"balance"`
}

// IsClient 是否為客戶身分
func (p *Profile) IsClient() bool {
	return p.Kind == ProfileKindClient
}

// Credit 存款
func (p *Profile) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	p.Balance = p.Balance.Add(amount)
	return nil
}

// Debit 扣款，餘額不足時拒絕，餘額永遠不會為負
func (p *Profile) Debit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if p.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	p.Balance = p.Balance.Sub(amount)
	return nil
}

// DepositCap 計算存款上限
//
// 參數:
//
//	outstanding: 未付款工作總額
//
// 回傳:
//
//	decimal.Decimal: 單筆存款可接受的最大金額 (等於上限時接受)
func DepositCap(outstanding decimal.Decimal) decimal.Decimal {
	return outstanding.Mul(DepositCapRate)
}
