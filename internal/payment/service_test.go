package payment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/activity"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/catalog"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/gateway"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
formations:
  - id: f-ecom
    slug: ecommerce
    title: Formation E-commerce
    price: 150001
    active: true
`

type fixture struct {
	gw      *gateway.MemoryGateway
	service *Service
	txs     *store.Transactions
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	gw := gateway.NewMemory(store.Tables...)
	formations, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	txs := store.NewTransactions(gw)
	svc := NewService(txs, formations, activity.New(gw), NewWaveProvider("M_TEST"), NewKeyedMutex(), opts)
	return &fixture{gw: gw, service: svc, txs: txs}
}

func (f *fixture) activityTypes() []string {
	var out []string
	for _, r := range f.gw.Rows(store.ActivityLogsTable) {
		out = append(out, r["type"].(string))
	}
	return out
}

func TestCreateRecordsPendingTransaction(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	checkout, err := f.service.Create(ctx, models.CreateTransactionRequest{
		Amount:        100000,
		PaymentOption: models.PaymentOptionFull,
		CustomerData:  map[string]any{"email": "a@b.com"},
	})
	require.NoError(t, err)
	assert.True(t, checkout.Recorded)
	assert.Equal(t, "https://pay.wave.com/m/M_TEST/c/sn/?amount=100000", checkout.PaymentLink)

	tx, err := f.txs.FindByID(ctx, checkout.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, tx.Status)
	assert.Equal(t, int64(100000), tx.Amount)
	assert.Equal(t, "wave", tx.Provider)
}

func TestCreatePricesFormationServerSide(t *testing.T) {
	f := newFixture(t, Options{})

	checkout, err := f.service.Create(context.Background(), models.CreateTransactionRequest{
		Amount:        1,
		FormationID:   "ecommerce",
		PaymentOption: models.PaymentOptionInstallments,
		CustomerData:  map[string]any{},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(75001), checkout.Amount)
	assert.Equal(t, "https://pay.wave.com/m/M_TEST/c/sn/?amount=75001", checkout.PaymentLink)

	tx, err := f.txs.FindByID(context.Background(), checkout.TransactionID)
	require.NoError(t, err)
	require.NotNil(t, tx.FormationID)
	assert.Equal(t, "f-ecom", *tx.FormationID)
	assert.Equal(t, models.PaymentOptionInstallments, tx.PaymentOption)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.service.Create(ctx, models.CreateTransactionRequest{Amount: 1000})
	assert.ErrorIs(t, err, ErrMissingCustomerData)

	_, err = f.service.Create(ctx, models.CreateTransactionRequest{CustomerData: map[string]any{}})
	assert.ErrorIs(t, err, ErrMissingAmount)

	_, err = f.service.Create(ctx, models.CreateTransactionRequest{Amount: 1000, ProviderType: "orange_money", CustomerData: map[string]any{}})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	_, err = f.service.Create(ctx, models.CreateTransactionRequest{FormationID: "unknown", CustomerData: map[string]any{}})
	assert.ErrorIs(t, err, ErrFormationNotFound)

	assert.Empty(t, f.gw.Rows(store.TransactionsTable))
}

func TestCreateIsLenientOnWriteFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.gw.FailOn(store.TransactionsTable, gateway.OpInsert, errors.New("connection refused"))

	checkout, err := f.service.Create(context.Background(), models.CreateTransactionRequest{
		Amount:       20000,
		CustomerData: map[string]any{"email": "a@b.com"},
	})
	require.NoError(t, err)
	assert.False(t, checkout.Recorded)
	assert.NotEmpty(t, checkout.TransactionID)
	assert.Equal(t, "https://pay.wave.com/m/M_TEST/c/sn/?amount=20000", checkout.PaymentLink)
}

func TestCreateStrictBookkeeping(t *testing.T) {
	f := newFixture(t, Options{StrictBookkeeping: true})
	f.gw.FailOn(store.TransactionsTable, gateway.OpInsert, errors.New("connection refused"))

	_, err := f.service.Create(context.Background(), models.CreateTransactionRequest{
		Amount:       20000,
		CustomerData: map[string]any{"email": "a@b.com"},
	})
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestCreatePaymentLink(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	checkout, err := f.service.CreatePaymentLink(ctx, models.CreatePaymentLinkRequest{
		FormationID:   "f-ecom",
		PaymentOption: models.PaymentOptionFull,
		FormData:      map[string]any{"fullName": "Awa"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.wave.com/m/M_TEST/c/sn/?amount=150001", checkout.PaymentLink)

	tx, err := f.txs.FindByID(ctx, checkout.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, TypeFormation, tx.TransactionType)
	assert.Equal(t, "Awa", tx.CustomerData["fullName"])

	_, err = f.service.CreatePaymentLink(ctx, models.CreatePaymentLinkRequest{FormationID: "nope", FormData: map[string]any{}})
	assert.ErrorIs(t, err, ErrFormationNotFound)
}

func TestCreatePaymentLinkFailsOnWriteFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.gw.FailOn(store.TransactionsTable, gateway.OpInsert, errors.New("connection refused"))

	_, err := f.service.CreatePaymentLink(context.Background(), models.CreatePaymentLinkRequest{
		FormationID: "f-ecom",
		FormData:    map[string]any{},
	})
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestVerifyCompletesPendingTransaction(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	checkout, err := f.service.Create(ctx, models.CreateTransactionRequest{Amount: 100000, CustomerData: map[string]any{}})
	require.NoError(t, err)

	outcome, err := f.service.Verify(ctx, checkout.TransactionID, "")
	require.NoError(t, err)
	assert.Equal(t, Verified, outcome)

	tx, err := f.txs.FindByID(ctx, checkout.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
	assert.Equal(t, int64(100000), tx.Amount)
	require.NotNil(t, tx.ProviderTransactionID)
	assert.Equal(t, checkout.TransactionID, *tx.ProviderTransactionID)
	assert.Equal(t, []string{models.ActivityPaymentVerified}, f.activityTypes())
	assert.Len(t, f.gw.Rows(store.TransactionsTable), 1)
}

func TestVerifyKeepsProviderReference(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	checkout, err := f.service.Create(ctx, models.CreateTransactionRequest{Amount: 5000, CustomerData: map[string]any{}})
	require.NoError(t, err)

	_, err = f.service.Verify(ctx, checkout.TransactionID, "T_WAVE_123")
	require.NoError(t, err)

	tx, err := f.txs.FindByID(ctx, checkout.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "T_WAVE_123", *tx.ProviderTransactionID)
}

func TestVerifyUnknownTransactionCreatesCompletedRecord(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	outcome, err := f.service.Verify(ctx, "lost-tx", "")
	require.NoError(t, err)
	assert.Equal(t, CreatedAndVerified, outcome)

	tx, err := f.txs.FindByID(ctx, "lost-tx")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
	assert.Equal(t, int64(0), tx.Amount)
	assert.Equal(t, TypeRecovered, tx.TransactionType)
	assert.Equal(t, []string{models.ActivityPaymentCreatedAndVerified}, f.activityTypes())
}

func TestVerifyIsIdempotent(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.service.Verify(ctx, "lost-tx", "")
	require.NoError(t, err)
	outcome, err := f.service.Verify(ctx, "lost-tx", "")
	require.NoError(t, err)

	assert.Equal(t, AlreadyCompleted, outcome)
	assert.Len(t, f.gw.Rows(store.TransactionsTable), 1)
	assert.Len(t, f.activityTypes(), 1)
}

func TestVerifyConcurrentCallsWriteOneRecord(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	checkout, err := f.service.Create(ctx, models.CreateTransactionRequest{Amount: 3000, CustomerData: map[string]any{}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	outcomes := make(chan VerifyOutcome, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			o, err := f.service.Verify(ctx, checkout.TransactionID, "")
			assert.NoError(t, err)
			outcomes <- o
		}()
		go func() {
			defer wg.Done()
			o, err := f.service.Verify(ctx, "unknown-tx", "")
			assert.NoError(t, err)
			outcomes <- o
		}()
	}
	wg.Wait()
	close(outcomes)

	counts := map[VerifyOutcome]int{}
	for o := range outcomes {
		counts[o]++
	}
	assert.Equal(t, 1, counts[Verified])
	assert.Equal(t, 1, counts[CreatedAndVerified])
	assert.Equal(t, 38, counts[AlreadyCompleted])
	assert.Len(t, f.gw.Rows(store.TransactionsTable), 2)
}

func TestVerifyFailsWhenUpdateFails(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	checkout, err := f.service.Create(ctx, models.CreateTransactionRequest{Amount: 3000, CustomerData: map[string]any{}})
	require.NoError(t, err)
	f.gw.FailOn(store.TransactionsTable, gateway.OpUpdate, errors.New("timeout"))

	_, err = f.service.Verify(ctx, checkout.TransactionID, "")
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestVerifySucceedsWhenRecoveryWriteFails(t *testing.T) {
	f := newFixture(t, Options{})
	f.gw.FailOn(store.TransactionsTable, gateway.OpInsert, errors.New("timeout"))

	outcome, err := f.service.Verify(context.Background(), "lost-tx", "")
	require.NoError(t, err)
	assert.Equal(t, Unrecorded, outcome)
}

func TestVerifyTreatsLookupErrorAsMissing(t *testing.T) {
	f := newFixture(t, Options{})
	f.gw.FailOn(store.TransactionsTable, gateway.OpSelect, errors.New("timeout"))

	outcome, err := f.service.Verify(context.Background(), "tx-9", "")
	require.NoError(t, err)
	assert.Equal(t, CreatedAndVerified, outcome)
	assert.Len(t, f.gw.Rows(store.TransactionsTable), 1)
}

func TestVerifyRequiresID(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.service.Verify(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrMissingTransactionID)
}

func TestVerifySurvivesActivityLogFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.gw.DropTable(store.ActivityLogsTable)

	outcome, err := f.service.Verify(context.Background(), "lost-tx", "")
	require.NoError(t, err)
	assert.Equal(t, CreatedAndVerified, outcome)
}

// pricedAt serves a single formation with a fixed price
type pricedAt struct {
	price int64
}

func (p pricedAt) Lookup(_ context.Context, key string) (*models.Formation, error) {
	return &models.Formation{ID: key, Title: "Formation", Price: p.price, Active: true}, nil
}

func (p pricedAt) Active(ctx context.Context) ([]models.Formation, error) {
	f, _ := p.Lookup(ctx, "f-any")
	return []models.Formation{*f}, nil
}

func TestCheckoutRejectsUnpricedFormation(t *testing.T) {
	gw := gateway.NewMemory(store.Tables...)
	svc := NewService(store.NewTransactions(gw), pricedAt{price: 0}, activity.New(gw), NewWaveProvider("M_TEST"), NewKeyedMutex(), Options{})
	ctx := context.Background()

	_, err := svc.CreatePaymentLink(ctx, models.CreatePaymentLinkRequest{FormationID: "f-free", FormData: map[string]any{}})
	assert.ErrorIs(t, err, ErrFormationNotFound)

	_, err = svc.Create(ctx, models.CreateTransactionRequest{FormationID: "f-free", CustomerData: map[string]any{}})
	assert.ErrorIs(t, err, ErrFormationNotFound)

	assert.Empty(t, gw.Rows(store.TransactionsTable))
}

func TestCheckoutRejectsRetiredFormation(t *testing.T) {
	gw := gateway.NewMemory(store.Tables...)
	formations := store.NewFormations(gw)
	ctx := context.Background()
	require.NoError(t, formations.Upsert(ctx, models.Formation{ID: "f-old", Title: "Ancienne", Price: 50000, Active: false}))

	svc := NewService(store.NewTransactions(gw), catalog.NewTable(formations), activity.New(gw), NewWaveProvider("M_TEST"), NewKeyedMutex(), Options{})

	_, err := svc.CreatePaymentLink(ctx, models.CreatePaymentLinkRequest{FormationID: "f-old", FormData: map[string]any{}})
	assert.ErrorIs(t, err, ErrFormationNotFound)

	_, err = svc.Create(ctx, models.CreateTransactionRequest{FormationID: "f-old", Amount: 50000, CustomerData: map[string]any{}})
	assert.ErrorIs(t, err, ErrFormationNotFound)

	assert.Empty(t, gw.Rows(store.TransactionsTable))
}

// undecodableInserts stores rows but answers with a representation that does not decode
type undecodableInserts struct {
	gateway.Gateway
}

func (g undecodableInserts) Insert(ctx context.Context, table string, row gateway.Row) (gateway.Row, error) {
	if _, err := g.Gateway.Insert(ctx, table, row); err != nil {
		return nil, err
	}
	return gateway.Row{"id": row["id"], "created_at": 42}, nil
}

func TestCreateCountsWrittenRowAsRecorded(t *testing.T) {
	mem := gateway.NewMemory(store.Tables...)
	formations, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	svc := NewService(store.NewTransactions(undecodableInserts{mem}), formations, activity.New(mem), NewWaveProvider("M_TEST"), NewKeyedMutex(), Options{StrictBookkeeping: true})

	checkout, err := svc.Create(context.Background(), models.CreateTransactionRequest{
		Amount:       20000,
		CustomerData: map[string]any{"email": "a@b.com"},
	})
	require.NoError(t, err)
	assert.True(t, checkout.Recorded)
	assert.Len(t, mem.Rows(store.TransactionsTable), 1)
}
