package memory

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek4kahol/deel-task/internal/app/core/domain"
	"github.com/abhishek4kahol/deel-task/pkg/wal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// 測試資料:
//
//	Profile 1: client, 餘額 100
//	Profile 2: client, 餘額 10
//	Profile 5: contractor, 餘額 0
//	Contract 1: (1, 5) in_progress, Job 1 價格 40 未付款, Job 2 價格 60 未付款
//	Contract 2: (2, 5) in_progress, Job 3 價格 40 未付款
//	Contract 3: (1, 5) new,         Job 4 價格 10 未付款
//	Contract 4: (2, 5) terminated
func testDataset(t *testing.T) Dataset {
	t.Helper()
	return Dataset{
		Profiles: []domain.Profile{
			{ID: 1, Kind: domain.ProfileKindClient, Balance: dec(t, "100")},
			{ID: 2, Kind: domain.ProfileKindClient, Balance: dec(t, "10")},
			{ID: 5, Kind: domain.ProfileKindContractor, Balance: decimal.Zero},
		},
		Contracts: []domain.Contract{
			{ID: 1, ClientID: 1, ContractorID: 5, Status: domain.ContractStatusInProgress},
			{ID: 2, ClientID: 2, ContractorID: 5, Status: domain.ContractStatusInProgress},
			{ID: 3, ClientID: 1, ContractorID: 5, Status: domain.ContractStatusNew},
			{ID: 4, ClientID: 2, ContractorID: 5, Status: domain.ContractStatusTerminated},
		},
		Jobs: []domain.Job{
			{ID: 1, ContractID: 1, Price: dec(t, "40")},
			{ID: 2, ContractID: 1, Price: dec(t, "60")},
			{ID: 3, ContractID: 2, Price: dec(t, "40")},
			{ID: 4, ContractID: 3, Price: dec(t, "10")},
		},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(testDataset(t), nil)
	require.NoError(t, err)
	return s
}

func balanceOf(t *testing.T, s *Store, id int64) decimal.Decimal {
	t.Helper()
	p, err := s.GetProfile(context.Background(), id)
	require.NoError(t, err)
	return p.Balance
}

func TestPayJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PayJob(ctx, 1, 1, time.Now()))

	assert.True(t, balanceOf(t, s, 1).Equal(dec(t, "60")))
	assert.True(t, balanceOf(t, s, 5).Equal(dec(t, "40")))

	jobs, err := s.FindUnpaidJobs(ctx, domain.Scope{ProfileID: 1, Kind: domain.ProfileKindClient})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, int64(2), jobs[0].ID, "job 1 must no longer appear as unpaid")
}

func TestPayJobTwiceIsNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PayJob(ctx, 1, 1, time.Now()))
	assert.ErrorIs(t, s.PayJob(ctx, 1, 1, time.Now()), domain.ErrNotFound)

	// 第二次呼叫不得再動到任何餘額
	assert.True(t, balanceOf(t, s, 1).Equal(dec(t, "60")))
	assert.True(t, balanceOf(t, s, 5).Equal(dec(t, "40")))
}

func TestPayJobRejections(t *testing.T) {
	cases := []struct {
		name      string
		jobID     int64
		requester int64
		want      error
	}{
		{"unknown job", 99, 1, domain.ErrNotFound},
		{"contract not in progress", 4, 1, domain.ErrNotFound},
		{"requester is not the client", 1, 2, domain.ErrForbidden},
		{"insufficient balance", 3, 2, domain.ErrInsufficientFunds},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := newTestStore(t)
			err := s.PayJob(context.Background(), c.jobID, c.requester, time.Now())
			assert.ErrorIs(t, err, c.want)

			// 被拒絕的付款不得留下任何變動
			assert.True(t, balanceOf(t, s, 1).Equal(dec(t, "100")))
			assert.True(t, balanceOf(t, s, 2).Equal(dec(t, "10")))
			assert.True(t, balanceOf(t, s, 5).IsZero())
		})
	}
}

func TestPayJobConservesTotalBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	total := balanceOf(t, s, 1).Add(balanceOf(t, s, 2)).Add(balanceOf(t, s, 5))
	require.NoError(t, s.PayJob(ctx, 1, 1, time.Now()))
	after := balanceOf(t, s, 1).Add(balanceOf(t, s, 2)).Add(balanceOf(t, s, 5))

	assert.True(t, total.Equal(after), "total balance before %s, after %s", total, after)
}

func TestConcurrentPaymentsForSameJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 32
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.PayJob(ctx, 1, 1, time.Now())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrNotFound)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent payment may win")
	assert.True(t, balanceOf(t, s, 1).Equal(dec(t, "60")), "price must be debited exactly once")
	assert.True(t, balanceOf(t, s, 5).Equal(dec(t, "40")))
}

func TestDepositCapBoundary(t *testing.T) {
	// client 1 未付款總額 100 (job 1 + job 2，contract 3 是 new 不計入)，上限 25
	ctx := context.Background()

	t.Run("over the cap", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Deposit(ctx, 5, 1, dec(t, "30"))
		var limitErr *domain.DepositLimitError
		require.ErrorAs(t, err, &limitErr)
		assert.True(t, limitErr.Cap.Equal(dec(t, "25")), "cap = %s", limitErr.Cap)
		assert.True(t, balanceOf(t, s, 1).Equal(dec(t, "100")))
	})

	t.Run("just over the cap", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Deposit(ctx, 5, 1, dec(t, "25.01"))
		var limitErr *domain.DepositLimitError
		assert.ErrorAs(t, err, &limitErr)
	})

	t.Run("exactly the cap", func(t *testing.T) {
		s := newTestStore(t)
		balance, err := s.Deposit(ctx, 5, 1, dec(t, "25"))
		require.NoError(t, err)
		assert.True(t, balance.Equal(dec(t, "125")))
		assert.True(t, balanceOf(t, s, 1).Equal(dec(t, "125")))
	})
}

func TestDepositTargetMustBeClient(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Deposit(ctx, 1, 5, dec(t, "1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.Deposit(ctx, 1, 99, dec(t, "1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDepositOnBehalfOfAnotherProfile(t *testing.T) {
	s := newTestStore(t)

	// 存款人不必是目標本人，上限只看目標的未付款總額
	balance, err := s.Deposit(context.Background(), 2, 1, dec(t, "20"))
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec(t, "120")))
}

func TestVisibilityScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// contract 1 屬於 client 1 / contractor 5，client 2 查不到
	_, err := s.FindContract(ctx, domain.Scope{ProfileID: 2, Kind: domain.ProfileKindClient}, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	c, err := s.FindContract(ctx, domain.Scope{ProfileID: 5, Kind: domain.ProfileKindContractor}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)

	// client 2 看不到 client 1 的未付款工作
	jobs, err := s.FindUnpaidJobs(ctx, domain.Scope{ProfileID: 2, Kind: domain.ProfileKindClient})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, int64(3), jobs[0].ID)
}

func TestFindContractsFiltersStatusWithinScope(t *testing.T) {
	s := newTestStore(t)

	statuses := []domain.ContractStatus{domain.ContractStatusNew, domain.ContractStatusInProgress}
	contracts, err := s.FindContracts(context.Background(),
		domain.Scope{ProfileID: 2, Kind: domain.ProfileKindClient}, statuses)
	require.NoError(t, err)

	// contract 4 是 terminated，不得因為狀態條件而放寬範圍
	require.Len(t, contracts, 1)
	assert.Equal(t, int64(2), contracts[0].ID)
}

func TestWALReplayRestoresCommittedState(t *testing.T) {
	ctx := context.Background()
	walPath := filepath.Join(t.TempDir(), "billing.wal")

	journal, err := wal.NewWAL(walPath)
	require.NoError(t, err)

	s1, err := NewStore(testDataset(t), journal)
	require.NoError(t, err)
	require.NoError(t, s1.PayJob(ctx, 1, 1, time.Now()))
	_, err = s1.Deposit(ctx, 1, 2, dec(t, "10"))
	require.NoError(t, err)
	require.NoError(t, journal.Close())

	// 用同一份初始資料與日誌重建，狀態要回到關閉前
	journal2, err := wal.NewWAL(walPath)
	require.NoError(t, err)
	defer journal2.Close()

	s2, err := NewStore(testDataset(t), journal2)
	require.NoError(t, err)

	assert.True(t, balanceOf(t, s2, 1).Equal(dec(t, "60")))
	assert.True(t, balanceOf(t, s2, 2).Equal(dec(t, "20")))
	assert.True(t, balanceOf(t, s2, 5).Equal(dec(t, "40")))

	assert.ErrorIs(t, s2.PayJob(ctx, 1, 1, time.Now()), domain.ErrNotFound,
		"replayed payment must keep the job paid")
}

func TestGetProfileReturnsCopy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.GetProfile(ctx, 1)
	require.NoError(t, err)
	p.Balance = decimal.NewFromInt(9999)

	assert.True(t, balanceOf(t, s, 1).Equal(dec(t, "100")),
		"mutating the returned profile must not touch the store")

	_, err = s.GetProfile(ctx, 42)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
