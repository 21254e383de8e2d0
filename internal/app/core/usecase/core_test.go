package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek4kahol/deel-task/internal/app/core/adapter/out/memory"
	"github.com/abhishek4kahol/deel-task/internal/app/core/domain"
	"github.com/abhishek4kahol/deel-task/internal/app/core/usecase"
)

func newCore(t *testing.T) (*usecase.CoreUseCase, *memory.Store) {
	t.Helper()
	store, err := memory.NewStore(memory.Dataset{
		Profiles: []domain.Profile{
			{ID: 1, Kind: domain.ProfileKindClient, Balance: decimal.NewFromInt(100)},
			{ID: 5, Kind: domain.ProfileKindContractor, Balance: decimal.Zero},
		},
		Contracts: []domain.Contract{
			{ID: 1, ClientID: 1, ContractorID: 5, Status: domain.ContractStatusInProgress},
			{ID: 2, ClientID: 1, ContractorID: 5, Status: domain.ContractStatusNew},
			{ID: 3, ClientID: 1, ContractorID: 5, Status: domain.ContractStatusTerminated},
		},
		Jobs: []domain.Job{
			{ID: 1, ContractID: 1, Price: decimal.NewFromInt(40)},
		},
	}, nil)
	require.NoError(t, err)
	return usecase.NewCoreUseCase(store), store
}

func TestListContractsExcludesTerminated(t *testing.T) {
	core, _ := newCore(t)
	client := &domain.Profile{ID: 1, Kind: domain.ProfileKindClient}

	contracts, err := core.ListContracts(context.Background(), client)
	require.NoError(t, err)

	require.Len(t, contracts, 2)
	assert.Equal(t, int64(1), contracts[0].ID)
	assert.Equal(t, int64(2), contracts[1].ID)
}

func TestDepositValidatesAmountBeforeStore(t *testing.T) {
	core, store := newCore(t)
	ctx := context.Background()

	_, err := core.Deposit(ctx, 1, 1, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = core.Deposit(ctx, 1, 1, decimal.NewFromInt(-10))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	p, err := store.GetProfile(ctx, 1)
	require.NoError(t, err)
	assert.True(t, p.Balance.Equal(decimal.NewFromInt(100)), "rejected deposit must not change balance")
}

func TestDepositWithinCap(t *testing.T) {
	core, _ := newCore(t)

	// 未付款總額 40，上限 10
	balance, err := core.Deposit(context.Background(), 5, 1, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(110)))
}

func TestPayJobSettlesOnce(t *testing.T) {
	core, store := newCore(t)
	ctx := context.Background()

	require.NoError(t, core.PayJob(ctx, 1, 1))
	assert.ErrorIs(t, core.PayJob(ctx, 1, 1), domain.ErrNotFound)

	client, err := store.GetProfile(ctx, 1)
	require.NoError(t, err)
	contractor, err := store.GetProfile(ctx, 5)
	require.NoError(t, err)
	assert.True(t, client.Balance.Equal(decimal.NewFromInt(60)))
	assert.True(t, contractor.Balance.Equal(decimal.NewFromInt(40)))
}

func TestGetContractAppliesScope(t *testing.T) {
	core, _ := newCore(t)
	ctx := context.Background()

	stranger := &domain.Profile{ID: 9, Kind: domain.ProfileKindContractor}
	_, err := core.GetContract(ctx, stranger, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	owner := &domain.Profile{ID: 5, Kind: domain.ProfileKindContractor}
	c, err := core.GetContract(ctx, owner, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)
}
