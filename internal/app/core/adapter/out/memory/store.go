package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abhishek4kahol/deel-task/internal/app/core/domain"
	"github.com/abhishek4kahol/deel-task/internal/app/core/usecase"
	"github.com/abhishek4kahol/deel-task/pkg/wal"
)

// walEntry WAL 日誌項目，只記錄已通過所有檢查的交易
// 重放時依 RefID 去重
type walEntry struct {
	RefID       uuid.UUID       `json:"refId"`
	Kind        string          `json:"kind"`
	JobID       int64           `json:"jobId,omitempty"`
	RequesterID int64           `json:"requesterId,omitempty"`
	DepositorID int64           `json:"depositorId,omitempty"`
	TargetID    int64           `json:"targetId,omitempty"`
	Amount      decimal.Decimal `json:"amount,omitempty"`
	At          time.Time       `json:"at"`
}

const (
	entryKindPay     = "pay"
	entryKindDeposit = "deposit"
)

// Dataset 記憶體儲存層的初始資料
type Dataset struct {
	Profiles  []domain.Profile
	Contracts []domain.Contract
	Jobs      []domain.Job
}

// Store 是以記憶體 Map 實現的帳務儲存層 (本機模式與測試用)
//
// 結構:
//
//	profiles / contracts / jobs: 實體資料 Map
//	mu: RWMutex，單一鎖序列化所有變動，提供與資料庫交易等價的隔離
//	applied: 已套用的日誌項目
//	wal: Write-Ahead Log 實例，nil 時不記錄 (純測試)
type Store struct {
	mu        sync.RWMutex
	profiles  map[int64]*domain.Profile
	contracts map[int64]*domain.Contract
	jobs      map[int64]*domain.Job
	applied   map[uuid.UUID]time.Time
	wal       *wal.WAL
}

// NewStore 建立記憶體儲存層並重放 WAL
//
// 參數:
//
//	dataset: 初始實體資料
//	journal: WAL 實例，可為 nil
//
// 回傳:
//
//	*Store: Store 實例
//	error: WAL 重放失敗
func NewStore(dataset Dataset, journal *wal.WAL) (*Store, error) {
	s := &Store{
		profiles:  make(map[int64]*domain.Profile, len(dataset.Profiles)),
		contracts: make(map[int64]*domain.Contract, len(dataset.Contracts)),
		jobs:      make(map[int64]*domain.Job, len(dataset.Jobs)),
		applied:   make(map[uuid.UUID]time.Time),
		wal:       journal,
	}
	for i := range dataset.Profiles {
		p := dataset.Profiles[i]
		s.profiles[p.ID] = &p
	}
	for i := range dataset.Contracts {
		c := dataset.Contracts[i]
		s.contracts[c.ID] = &c
	}
	for i := range dataset.Jobs {
		j := dataset.Jobs[i]
		s.jobs[j.ID] = &j
	}
	if err := s.recoverFromWAL(); err != nil {
		return nil, err
	}
	return s, nil
}

// recoverFromWAL 重放 WAL，恢復上次執行已提交的交易
// 只有 NewStore 呼叫，無需上鎖 (單執行緒)
func (s *Store) recoverFromWAL() error {
	if s.wal == nil {
		return nil
	}
	return s.wal.ReadAll(func(jsonRaw []byte) error {
		var entry walEntry
		if err := json.Unmarshal(jsonRaw, &entry); err != nil {
			return err
		}
		if _, ok := s.applied[entry.RefID]; ok {
			return nil
		}
		var err error
		switch entry.Kind {
		case entryKindPay:
			_, err = s.checkPayment(entry.JobID, entry.RequesterID)
			if err == nil {
				s.applyPayment(entry.JobID, entry.At)
			}
		case entryKindDeposit:
			err = s.replayDeposit(&entry)
		default:
			err = fmt.Errorf("unknown wal entry kind %q", entry.Kind)
		}
		if err != nil {
			return fmt.Errorf("replay %s: %w", entry.RefID, err)
		}
		s.applied[entry.RefID] = entry.At
		return nil
	})
}

func (s *Store) replayDeposit(entry *walEntry) error {
	target, ok := s.profiles[entry.TargetID]
	if !ok || !target.IsClient() {
		return domain.ErrNotFound
	}
	return target.Credit(entry.Amount)
}

// GetProfile 取得 Profile (回傳複本，外部不可直接改餘額)
func (s *Store) GetProfile(ctx context.Context, id int64) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// FindContract 依 id 取得範圍內的合約，範圍外視同不存在
func (s *Store) FindContract(ctx context.Context, scope domain.Scope, id int64) (*domain.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contracts[id]
	if !ok || !scope.Matches(c) {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// FindContracts 取得範圍內、狀態符合的合約，依 ID 排序
func (s *Store) FindContracts(ctx context.Context, scope domain.Scope, statuses []domain.ContractStatus) ([]domain.Contract, error) {
	wanted := make(map[domain.ContractStatus]bool, len(statuses))
	for _, status := range statuses {
		wanted[status] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	contracts := make([]domain.Contract, 0)
	for _, c := range s.contracts {
		if scope.Matches(c) && wanted[c.Status] {
			contracts = append(contracts, *c)
		}
	}
	sort.Slice(contracts, func(i, j int) bool { return contracts[i].ID < contracts[j].ID })
	return contracts, nil
}

// FindUnpaidJobs 取得範圍內、進行中合約下的未付款工作，依 ID 排序
func (s *Store) FindUnpaidJobs(ctx context.Context, scope domain.Scope) ([]domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]domain.Job, 0)
	for _, j := range s.jobs {
		if j.Paid {
			continue
		}
		c, ok := s.contracts[j.ContractID]
		if !ok || c.Status != domain.ContractStatusInProgress || !scope.Matches(c) {
			continue
		}
		jobs = append(jobs, *j)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs, nil
}

// PayJob 支付工作款項
// 檢查全部通過後才寫 WAL，之後的套用不會失敗，因此日誌裡只有成功的交易
func (s *Store) PayJob(ctx context.Context, jobID int64, requesterID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	price, err := s.checkPayment(jobID, requesterID)
	if err != nil {
		return err
	}
	if err := s.journal(walEntry{
		RefID:       uuid.New(),
		Kind:        entryKindPay,
		JobID:       jobID,
		RequesterID: requesterID,
		Amount:      price,
		At:          at,
	}); err != nil {
		return err
	}
	s.applyPayment(jobID, at)
	return nil
}

// checkPayment 驗證付款條件，回傳工作價格
// 未付款且合約進行中才找得到；已付款與範圍外一律 ErrNotFound
func (s *Store) checkPayment(jobID int64, requesterID int64) (decimal.Decimal, error) {
	job, ok := s.jobs[jobID]
	if !ok || job.Paid {
		return decimal.Zero, domain.ErrNotFound
	}
	contract, ok := s.contracts[job.ContractID]
	if !ok || contract.Status != domain.ContractStatusInProgress {
		return decimal.Zero, domain.ErrNotFound
	}
	client, ok := s.profiles[contract.ClientID]
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	if _, ok := s.profiles[contract.ContractorID]; !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	if contract.ClientID != requesterID {
		return decimal.Zero, domain.ErrForbidden
	}
	if client.Balance.LessThan(job.Price) {
		return decimal.Zero, domain.ErrInsufficientFunds
	}
	return job.Price, nil
}

// applyPayment 套用付款，呼叫前必須先通過 checkPayment
func (s *Store) applyPayment(jobID int64, at time.Time) {
	job := s.jobs[jobID]
	contract := s.contracts[job.ContractID]
	client := s.profiles[contract.ClientID]
	contractor := s.profiles[contract.ContractorID]

	client.Balance = client.Balance.Sub(job.Price)
	contractor.Balance = contractor.Balance.Add(job.Price)
	job.MarkPaid(at)
}

// Deposit 存款至客戶餘額，受未付款總額 25% 上限約束
func (s *Store) Deposit(ctx context.Context, depositorID int64, targetID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	// 負數金額若只靠上限檢查會被放行並使餘額下降，必須先擋掉
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.profiles[targetID]
	if !ok || !target.IsClient() {
		return decimal.Zero, domain.ErrNotFound
	}

	limit := domain.DepositCap(s.outstandingLocked(targetID))
	if amount.GreaterThan(limit) {
		return decimal.Zero, &domain.DepositLimitError{Cap: limit}
	}

	if err := s.journal(walEntry{
		RefID:       uuid.New(),
		Kind:        entryKindDeposit,
		DepositorID: depositorID,
		TargetID:    targetID,
		Amount:      amount,
		At:          time.Now(),
	}); err != nil {
		return decimal.Zero, err
	}

	target.Balance = target.Balance.Add(amount)
	return target.Balance, nil
}

// outstandingLocked 計算客戶在進行中合約下的未付款工作總額，呼叫端需持鎖
func (s *Store) outstandingLocked(clientID int64) decimal.Decimal {
	total := decimal.Zero
	for _, j := range s.jobs {
		if j.Paid {
			continue
		}
		c, ok := s.contracts[j.ContractID]
		if !ok || c.ClientID != clientID || c.Status != domain.ContractStatusInProgress {
			continue
		}
		total = total.Add(j.Price)
	}
	return total
}

// journal 寫入 WAL 並刷入硬碟，寫入失敗視為交易失敗 (尚未套用任何變動)
func (s *Store) journal(entry walEntry) error {
	if s.wal == nil {
		return nil
	}
	if err := s.wal.Write(entry); err != nil {
		return fmt.Errorf("%w: wal write: %v", domain.ErrTransactionFailed, err)
	}
	s.applied[entry.RefID] = entry.At
	return nil
}

var _ usecase.Billing = (*Store)(nil)
