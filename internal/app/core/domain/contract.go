package domain

// ContractStatus 合約狀態，狀態轉移由外部的簽約流程負責，核心只讀取
type ContractStatus string

const (
	ContractStatusNew        ContractStatus = "new"
	ContractStatusInProgress ContractStatus = "in_progress"
	ContractStatusTerminated ContractStatus = "terminated"
)

// Contract 合約，連結一個客戶與一個承包商
type Contract struct {
	ID           int64          `json:"id"`
	ClientID     int64          `json:"clientId"`
	ContractorID int64          `json:"contractorId"`
	Status       ContractStatus `json:"status"`
}

// Scope 可見範圍，依請求者身分限定合約 / 工作查詢
// 額外查詢條件只能以 AND 疊加在範圍之上，呼叫端無法藉由附加條件放寬範圍
// 落在範圍外的資料一律視同不存在
type Scope struct {
	ProfileID int64
	Kind      ProfileKind
}

// ScopeFor 依請求者身分產生可見範圍
func ScopeFor(p *Profile) Scope {
	return Scope{ProfileID: p.ID, Kind: p.Kind}
}

// Matches 判斷合約是否落在範圍內
func (s Scope) Matches(c *Contract) bool {
	if s.Kind == ProfileKindClient {
		return c.ClientID == s.ProfileID
	}
	return c.ContractorID == s.ProfileID
}
