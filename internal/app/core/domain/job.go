package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Job 工作，隸屬於一份合約
// Paid 只會由 false 變成 true 一次，且只能透過付款流程發生
type Job struct {
	ID          int64           `json:"id"`
	ContractID  int64           `json:"contractId"`
	Price       decimal.Decimal `json:"price"`
	Paid        bool            `json:"paid"`
	PaymentDate *time.Time      `json:"paymentDate,omitempty"`
}

// MarkPaid 標記付款完成
// 呼叫前必須先確認 Paid == false 且合約為 in_progress
func (j *Job) MarkPaid(at time.Time) {
	j.Paid = true
	j.PaymentDate = &at
}
