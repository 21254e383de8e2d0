package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abhishek4kahol/deel-task/internal/app/core/domain"
	"github.com/abhishek4kahol/deel-task/internal/app/core/usecase"
	"github.com/abhishek4kahol/deel-task/pkg/mysql"
)

// sqlProfile 對應資料庫的 profiles 表
type sqlProfile struct {
	ID        int64           `gorm:"primaryKey"`
	Kind      string          `gorm:"type:varchar(16);index"`
	Balance   decimal.Decimal `gorm:"type:decimal(12,2)"`
	UpdatedAt int64           `gorm:"autoUpdateTime:milli"` // 自動更新時間
}

func (*sqlProfile) TableName() string {
	return "profiles"
}

// sqlContract 對應資料庫的 contracts 表
type sqlContract struct {
	ID           int64  `gorm:"primaryKey"`
	ClientID     int64  `gorm:"index"`
	ContractorID int64  `gorm:"index"`
	Status       string `gorm:"type:varchar(16);index"`
}

func (*sqlContract) TableName() string {
	return "contracts"
}

// sqlJob 對應資料庫的 jobs 表
type sqlJob struct {
	ID          int64           `gorm:"primaryKey"`
	ContractID  int64           `gorm:"index"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2)"`
	Paid        bool
	PaymentDate *time.Time
}

func (*sqlJob) TableName() string {
	return "jobs"
}

// MySQLStore 以 MySQL 為後端的帳務儲存層
// 所有會變動餘額的操作都在單一 gorm Transaction 內完成，
// 涉及的列先以 SELECT ... FOR UPDATE 鎖定，餘額寫入使用原子加減而非 read-modify-write
type MySQLStore struct {
	client *mysql.Client
}

func NewMySQLStore(client *mysql.Client) *MySQLStore {
	return &MySQLStore{
		client: client,
	}
}

// Migrate 建立資料表
func (s *MySQLStore) Migrate(ctx context.Context) error {
	return s.client.DB().WithContext(ctx).AutoMigrate(&sqlProfile{}, &sqlContract{}, &sqlJob{})
}

// Seed 寫入初始資料 (開發用，已存在的列會被覆蓋)
func (s *MySQLStore) Seed(ctx context.Context, profiles []domain.Profile, contracts []domain.Contract, jobs []domain.Job) error {
	return s.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := clause.OnConflict{UpdateAll: true}
		for _, p := range profiles {
			row := sqlProfile{ID: p.ID, Kind: string(p.Kind), Balance: p.Balance}
			if err := tx.Clauses(upsert).Create(&row).Error; err != nil {
				return err
			}
		}
		for _, c := range contracts {
			row := sqlContract{ID: c.ID, ClientID: c.ClientID, ContractorID: c.ContractorID, Status: string(c.Status)}
			if err := tx.Clauses(upsert).Create(&row).Error; err != nil {
				return err
			}
		}
		for _, j := range jobs {
			row := sqlJob{ID: j.ID, ContractID: j.ContractID, Price: j.Price, Paid: j.Paid, PaymentDate: j.PaymentDate}
			if err := tx.Clauses(upsert).Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetProfile 取得 Profile
func (s *MySQLStore) GetProfile(ctx context.Context, id int64) (*domain.Profile, error) {
	var row sqlProfile
	err := s.client.DB().WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return toProfile(&row), nil
}

// FindContract 依 id 取得範圍內的合約
// 範圍外的合約與不存在的合約回傳相同的 ErrNotFound，不洩漏存在與否
func (s *MySQLStore) FindContract(ctx context.Context, scope domain.Scope, id int64) (*domain.Contract, error) {
	var row sqlContract
	err := applyScope(s.client.DB().WithContext(ctx), scope).
		Where("contracts.id = ?", id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return toContract(&row), nil
}

// FindContracts 取得範圍內、狀態符合的合約
func (s *MySQLStore) FindContracts(ctx context.Context, scope domain.Scope, statuses []domain.ContractStatus) ([]domain.Contract, error) {
	vals := make([]string, 0, len(statuses))
	for _, status := range statuses {
		vals = append(vals, string(status))
	}
	var rows []sqlContract
	err := applyScope(s.client.DB().WithContext(ctx), scope).
		Where("contracts.status IN ?", vals).
		Order("contracts.id").
		Find(&rows).Error
	if err != nil {
		return nil, storeErr(err)
	}
	contracts := make([]domain.Contract, 0, len(rows))
	for i := range rows {
		contracts = append(contracts, *toContract(&rows[i]))
	}
	return contracts, nil
}

// FindUnpaidJobs 取得範圍內、進行中合約下的未付款工作
func (s *MySQLStore) FindUnpaidJobs(ctx context.Context, scope domain.Scope) ([]domain.Job, error) {
	var rows []sqlJob
	err := applyScope(
		s.client.DB().WithContext(ctx).
			Model(&sqlJob{}).
			Select("jobs.*").
			Joins("JOIN contracts ON contracts.id = jobs.contract_id").
			Where("jobs.paid = ?", false).
			Where("contracts.status = ?", domain.ContractStatusInProgress),
		scope,
	).Order("jobs.id").Find(&rows).Error
	if err != nil {
		return nil, storeErr(err)
	}
	jobs := make([]domain.Job, 0, len(rows))
	for i := range rows {
		jobs = append(jobs, *toJob(&rows[i]))
	}
	return jobs, nil
}

// PayJob 支付工作款項
// 單一交易內：鎖定工作列與雙方帳戶列、驗證身分與餘額、原子加減餘額、標記已付款
// 任一步失敗即整筆回滾，不會留下半套狀態
func (s *MySQLStore) PayJob(ctx context.Context, jobID int64, requesterID int64, at time.Time) error {
	err := s.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 只找未付款的工作並鎖定，已付款與不存在在此處同樣是 ErrRecordNotFound
		var job sqlJob
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND paid = ?", jobID, false).
			First(&job).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		var contract sqlContract
		if err := tx.Where("id = ? AND status = ?", job.ContractID, domain.ContractStatusInProgress).
			First(&contract).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		// 依 ID 遞增順序鎖定雙方帳戶，避免死鎖
		var rows []sqlProfile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", lockOrder(contract.ClientID, contract.ContractorID)).
			Find(&rows).Error; err != nil {
			return err
		}
		byID := make(map[int64]*sqlProfile, len(rows))
		for i := range rows {
			byID[rows[i].ID] = &rows[i]
		}
		client, ok := byID[contract.ClientID]
		if !ok {
			return domain.ErrNotFound
		}
		if _, ok := byID[contract.ContractorID]; !ok {
			return domain.ErrNotFound
		}

		if contract.ClientID != requesterID {
			return domain.ErrForbidden
		}
		if client.Balance.LessThan(job.Price) {
			return domain.ErrInsufficientFunds
		}

		// 原子加減，餘額檢查已在持鎖狀態下完成，扣款不會使餘額為負
		if err := tx.Model(&sqlProfile{}).Where("id = ?", contract.ClientID).
			UpdateColumn("balance", gorm.Expr("balance - ?", job.Price)).Error; err != nil {
			return err
		}
		if err := tx.Model(&sqlProfile{}).Where("id = ?", contract.ContractorID).
			UpdateColumn("balance", gorm.Expr("balance + ?", job.Price)).Error; err != nil {
			return err
		}

		// paid = false 條件再驗一次，RowsAffected == 0 代表有並發交易搶先付款
		res := tx.Model(&sqlJob{}).
			Where("id = ? AND paid = ?", jobID, false).
			Updates(map[string]interface{}{"paid": true, "payment_date": at})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err == nil || domain.IsBusinessError(err) {
		return err
	}
	return storeErr(err)
}

// Deposit 存款至客戶餘額
// 單一交易內：鎖定目標帳戶列、計算未付款總額、檢查 25% 上限、原子加款
func (s *MySQLStore) Deposit(ctx context.Context, depositorID int64, targetID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	_ = depositorID // 存款人僅作記錄用途，不影響上限判斷

	// 負數金額若只靠上限檢查會被放行並使餘額下降，必須先擋掉
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	var balance decimal.Decimal
	err := s.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target sqlProfile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND kind = ?", targetID, domain.ProfileKindClient).
			First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		// 未付款總額必須與加款在同一交易內計算，避免用到過期的快照
		var outstanding decimal.Decimal
		if err := tx.Model(&sqlJob{}).
			Joins("JOIN contracts ON contracts.id = jobs.contract_id").
			Where("jobs.paid = ?", false).
			Where("contracts.client_id = ? AND contracts.status = ?", targetID, domain.ContractStatusInProgress).
			Select("COALESCE(SUM(jobs.price), 0)").
			Scan(&outstanding).Error; err != nil {
			return err
		}

		limit := domain.DepositCap(outstanding)
		if amount.GreaterThan(limit) {
			return &domain.DepositLimitError{Cap: limit}
		}

		if err := tx.Model(&sqlProfile{}).Where("id = ?", targetID).
			UpdateColumn("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
			return err
		}

		// 列鎖仍持有，讀回的就是本次加款後的餘額
		if err := tx.Where("id = ?", targetID).First(&target).Error; err != nil {
			return err
		}
		balance = target.Balance
		return nil
	})
	if err == nil {
		return balance, nil
	}
	if domain.IsBusinessError(err) {
		return decimal.Zero, err
	}
	return decimal.Zero, storeErr(err)
}

// applyScope 將可見範圍加到合約條件上
// 額外條件只會以 AND 疊加，呼叫端無法放寬範圍
func applyScope(tx *gorm.DB, scope domain.Scope) *gorm.DB {
	if scope.Kind == domain.ProfileKindClient {
		return tx.Where("contracts.client_id = ?", scope.ProfileID)
	}
	return tx.Where("contracts.contractor_id = ?", scope.ProfileID)
}

// lockOrder 回傳需要鎖定的帳戶 ID，固定遞增順序以避免死鎖
func lockOrder(a, b int64) []int64 {
	if a < b {
		return []int64{a, b}
	}
	return []int64{b, a}
}

// storeErr 儲存層故障一律包成 ErrTransactionFailed，交易已回滾，呼叫端可重試
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrTransactionFailed, err)
}

func toProfile(row *sqlProfile) *domain.Profile {
	return &domain.Profile{
		ID:      row.ID,
		Kind:    domain.ProfileKind(row.Kind),
		Balance: row.Balance,
	}
}

func toContract(row *sqlContract) *domain.Contract {
	return &domain.Contract{
		ID:           row.ID,
		ClientID:     row.ClientID,
		ContractorID: row.ContractorID,
		Status:       domain.ContractStatus(row.Status),
	}
}

func toJob(row *sqlJob) *domain.Job {
	return &domain.Job{
		ID:          row.ID,
		ContractID:  row.ContractID,
		Price:       row.Price,
		Paid:        row.Paid,
		PaymentDate: row.PaymentDate,
	}
}

var _ usecase.Billing = (*MySQLStore)(nil)
