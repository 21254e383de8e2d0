package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount 金額必須為正數
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrNotFound 查無資料
	// 包含「已付款」與「不在可見範圍內」的情況，對呼叫端一律視同不存在
	ErrNotFound = errors.New("not found")

	// ErrForbidden 請求者不是有權執行此操作的一方
	ErrForbidden = errors.New("requesting profile is not allowed to perform this operation")

	// ErrInsufficientFunds 餘額不足
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrTransactionFailed 交易無法提交，所有變更已回滾
	ErrTransactionFailed = errors.New("transaction failed")
)

// DepositLimitError 存款金額超過上限 (未付款工作總額的 25%)
type DepositLimitError struct {
	Cap decimal.Decimal
}

func (e *DepositLimitError) Error() string {
	return fmt.Sprintf("deposit amount exceeds the limit of 25%% of total unpaid jobs (%s)", e.Cap.StringFixed(2))
}

// 對外回應使用的穩定 kind 識別字串
const (
	KindInvalidAmount        = "invalid_amount"
	KindNotFound             = "not_found"
	KindForbidden            = "forbidden"
	KindInsufficientFunds    = "insufficient_funds"
	KindDepositLimitExceeded = "deposit_limit_exceeded"
	KindTransactionFailure   = "transaction_failure"
)

// KindOf 將錯誤對應到穩定的 kind 字串
// 未知錯誤一律視為交易失敗 (儲存層故障)
func KindOf(err error) string {
	var limitErr *DepositLimitError
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return KindInvalidAmount
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.As(err, &limitErr):
		return KindDepositLimitExceeded
	default:
		return KindTransactionFailure
	}
}

// IsBusinessError 判斷錯誤是否為業務規則拒絕 (而非儲存層故障)
// 業務錯誤在交易內發生時照原樣回傳，儲存層錯誤則包成 ErrTransactionFailed
func IsBusinessError(err error) bool {
	var limitErr *DepositLimitError
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.As(err, &limitErr)
}
