package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vowsmarket/settlement-service/internal/adapters/memory"
	"github.com/vowsmarket/settlement-service/internal/adapters/processor"
	"github.com/vowsmarket/settlement-service/internal/application"
	"github.com/vowsmarket/settlement-service/internal/domain"
	"github.com/vowsmarket/settlement-service/internal/ports"
)

const webhookSecret = "whsec_test"

type fixture struct {
	svc   *application.Service
	store *memory.Store
	proc  *processor.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWrapped(t, nil)
}

func newFixtureWrapped(t *testing.T, wrapLedger func(ports.LedgerRepository) ports.LedgerRepository) *fixture {
	t.Helper()
	store := memory.NewStore()
	proc := processor.NewFake()
	verifier, err := processor.NewSignatureVerifier(webhookSecret, 5*time.Minute)
	if err != nil {
		t.Fatalf("build verifier: %v", err)
	}
	ledger := ports.LedgerRepository(store.Ledger())
	if wrapLedger != nil {
		ledger = wrapLedger(ledger)
	}
	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			FeeBasisPoints:   1000,
			DefaultCurrency:  "USD",
			ReconcilePending: true,
		},
		Payments:    store.Payments(),
		Holds:       store.Holds(),
		Ledger:      ledger,
		Transfers:   store.Transfers(),
		Invoices:    store.Invoices(),
		Vendors:     store.Vendors(),
		Outbox:      store.Outbox(),
		EventDedup:  store.EventDedup(),
		Idempotency: store.Idempotency(),
		Processor:   proc,
		Verifier:    verifier,
	})
	store.PutInvoice(domain.Invoice{
		InvoiceID:   "inv-1",
		InquiryID:   "inq-1",
		VendorID:    "ven-1",
		UserID:      "usr-1",
		TotalAmount: 50000,
		Currency:    "USD",
		Status:      domain.InvoiceStatusOpen,
	})
	store.PutVendor(domain.Vendor{
		VendorID:          "ven-1",
		DisplayName:       "Bluebell Catering",
		PayoutDestination: "acct_ven1",
		PayoutsEnabled:    true,
	})
	return &fixture{svc: svc, store: store, proc: proc}
}

func payerActor() application.Actor {
	return application.Actor{SubjectID: "usr-1", Role: "user"}
}

func operatorActor() application.Actor {
	return application.Actor{SubjectID: "ops-1", Role: application.RoleOperator}
}

func (f *fixture) createPayment(t *testing.T, amount int64) domain.Payment {
	t.Helper()
	out, err := f.svc.CreateIntent(context.Background(), payerActor(), application.CreateIntentInput{
		InvoiceID: "inv-1",
		InquiryID: "inq-1",
		Amount:    amount,
		Method:    "card",
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	payment, err := f.svc.GetPaymentStatus(context.Background(), out.PaymentID)
	if err != nil {
		t.Fatalf("load payment: %v", err)
	}
	return payment
}

func (f *fixture) deliverWebhook(t *testing.T, eventID, eventType, object string) error {
	t.Helper()
	payload := []byte(fmt.Sprintf(`{"id":%q,"type":%q,"created":%d,"data":{"object":%s}}`,
		eventID, eventType, time.Now().Unix(), object))
	header := processor.Sign(webhookSecret, payload, time.Now())
	return f.svc.HandleWebhook(context.Background(), payload, header)
}

func (f *fixture) settle(t *testing.T, payment domain.Payment, eventID string) {
	t.Helper()
	object := fmt.Sprintf(`{"id":%q,"amount":%d,"currency":"usd"}`, payment.ProcessorRef, payment.Amount)
	if err := f.deliverWebhook(t, eventID, "payment.succeeded", object); err != nil {
		t.Fatalf("deliver succeeded webhook: %v", err)
	}
}

func TestWebhookSettlementSplitsAmount(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payment := f.createPayment(t, 10000)
	f.settle(t, payment, "evt-1")

	settled, err := f.svc.GetPaymentStatus(context.Background(), payment.PaymentID)
	if err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if settled.Status != domain.PaymentStatusSucceeded {
		t.Fatalf("payment status = %s, want succeeded", settled.Status)
	}
	if settled.ProcessedAt == nil {
		t.Fatalf("expected processed_at to be set")
	}

	hold, ok := f.store.HoldForPayment(payment.PaymentID)
	if !ok {
		t.Fatalf("expected escrow hold for settled payment")
	}
	if hold.Amount != 9000 {
		t.Fatalf("hold amount = %d, want 9000", hold.Amount)
	}
	if hold.Status != domain.HoldStatusHeld {
		t.Fatalf("hold status = %s, want held", hold.Status)
	}

	entries := f.store.EntriesForPayment(payment.PaymentID)
	if len(entries) != 2 {
		t.Fatalf("revenue entries = %d, want 2", len(entries))
	}
	var fee, due int64
	for _, entry := range entries {
		switch entry.EntryType {
		case domain.RevenueEntryPlatformFee:
			fee = entry.Amount
		case domain.RevenueEntryVendorDue:
			due = entry.Amount
		}
	}
	if fee != 1000 || due != 9000 {
		t.Fatalf("split = fee %d / due %d, want 1000 / 9000", fee, due)
	}

	invoice, err := f.store.Invoices().GetByID(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("load invoice: %v", err)
	}
	if invoice.PaidAmount != 10000 {
		t.Fatalf("invoice paid amount = %d, want 10000", invoice.PaidAmount)
	}
}

func TestDuplicateSucceededWebhookSettlesOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payment := f.createPayment(t, 10000)
	f.settle(t, payment, "evt-1")

	// Same event id replayed and a distinct redelivery with a new id.
	f.settle(t, payment, "evt-1")
	f.settle(t, payment, "evt-2")

	entries := f.store.EntriesForPayment(payment.PaymentID)
	if len(entries) != 2 {
		t.Fatalf("revenue entries = %d after replays, want 2", len(entries))
	}
	invoice, err := f.store.Invoices().GetByID(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("load invoice: %v", err)
	}
	if invoice.PaidAmount != 10000 {
		t.Fatalf("invoice paid amount = %d after replays, want 10000", invoice.PaidAmount)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payload := []byte(`{"id":"evt-x","type":"payment.succeeded","data":{"object":{"id":"pi_x"}}}`)
	header := processor.Sign("wrong-secret", payload, time.Now())
	err := f.svc.HandleWebhook(context.Background(), payload, header)
	if !errors.Is(err, domain.ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestWebhookFailedPayment(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payment := f.createPayment(t, 5000)
	object := fmt.Sprintf(`{"id":%q,"failure_code":"card_declined","failure_message":"card was declined"}`, payment.ProcessorRef)
	if err := f.deliverWebhook(t, "evt-f1", "payment.failed", object); err != nil {
		t.Fatalf("deliver failed webhook: %v", err)
	}
	failed, err := f.svc.GetPaymentStatus(context.Background(), payment.PaymentID)
	if err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if failed.Status != domain.PaymentStatusFailed {
		t.Fatalf("status = %s, want failed", failed.Status)
	}
	if failed.FailureReason != "card was declined" {
		t.Fatalf("failure reason = %q", failed.FailureReason)
	}
	if _, ok := f.store.HoldForPayment(payment.PaymentID); ok {
		t.Fatalf("failed payment must not create a hold")
	}
}

func TestFailedAfterSucceededIsIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payment := f.createPayment(t, 5000)
	f.settle(t, payment, "evt-1")

	object := fmt.Sprintf(`{"id":%q,"failure_code":"late"}`, payment.ProcessorRef)
	if err := f.deliverWebhook(t, "evt-2", "payment.failed", object); err != nil {
		t.Fatalf("late failed webhook should be swallowed: %v", err)
	}
	current, err := f.svc.GetPaymentStatus(context.Background(), payment.PaymentID)
	if err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if current.Status != domain.PaymentStatusSucceeded {
		t.Fatalf("status = %s, want succeeded to stand", current.Status)
	}
}

func TestReleaseRequiresWorkCompleted(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payment := f.createPayment(t, 10000)
	f.settle(t, payment, "evt-1")
	hold, _ := f.store.HoldForPayment(payment.PaymentID)

	_, err := f.svc.ReleaseHold(context.Background(), operatorActor(), application.ReleaseInput{
		HoldID: hold.HoldID,
		Method: "manual",
		Reason: "client confirmed",
	})
	if !errors.Is(err, domain.ErrWorkNotCompleted) {
		t.Fatalf("expected ErrWorkNotCompleted, got %v", err)
	}
}

func TestManualReleaseRequiresOperator(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payment := f.createPayment(t, 10000)
	f.settle(t, payment, "evt-1")
	hold, _ := f.store.HoldForPayment(payment.PaymentID)

	_, err := f.svc.ReleaseHold(context.Background(), payerActor(), application.ReleaseInput{
		HoldID: hold.HoldID,
		Method: "manual",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestReleasePaysTransferAndIsOneWay(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payment := f.createPayment(t, 10000)
	f.settle(t, payment, "evt-1")
	hold, _ := f.store.HoldForPayment(payment.PaymentID)

	if _, err := f.svc.MarkWorkCompleted(context.Background(), operatorActor(), hold.HoldID); err != nil {
		t.Fatalf("mark work completed: %v", err)
	}
	// Idempotent replay of the completion signal.
	if _, err := f.svc.MarkWorkCompleted(context.Background(), operatorActor(), hold.HoldID); err != nil {
		t.Fatalf("re-mark work completed: %v", err)
	}

	result, err := f.svc.ReleaseHold(context.Background(), operatorActor(), application.ReleaseInput{
		HoldID: hold.HoldID,
		Method: "manual",
		Reason: "event completed",
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if result.Hold.Status != domain.HoldStatusReleased {
		t.Fatalf("hold status = %s, want released", result.Hold.Status)
	}
	if result.Outcome != application.TransferOutcomePaid {
		t.Fatalf("outcome = %s, want paid", result.Outcome)
	}
	if result.Transfer == nil || result.Transfer.Amount != 9000 {
		t.Fatalf("expected transfer of 9000, got %+v", result.Transfer)
	}
	if len(f.proc.Transfers) != 1 {
		t.Fatalf("processor transfers = %d, want 1", len(f.proc.Transfers))
	}
	if f.proc.Transfers[0].Destination != "acct_ven1" {
		t.Fatalf("transfer destination = %q", f.proc.Transfers[0].Destination)
	}

	entries := f.store.EntriesForPayment(payment.PaymentID)
	for _, entry := range entries {
		if entry.EntryType == domain.RevenueEntryVendorDue && entry.TransferStatus != domain.TransferStatusPaid {
			t.Fatalf("vendor entry transfer status = %s, want paid", entry.TransferStatus)
		}
	}

	_, err = f.svc.ReleaseHold(context.Background(), operatorActor(), application.ReleaseInput{
		HoldID: hold.HoldID,
		Method: "manual",
	})
	if !errors.Is(err, domain.ErrAlreadyReleased) {
		t.Fatalf("expected ErrAlreadyReleased on second release, got %v", err)
	}
}

func TestReleaseStandsWhenTransferFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payment := f.createPayment(t, 10000)
	f.settle(t, payment, "evt-1")
	hold, _ := f.store.HoldForPayment(payment.PaymentID)
	if _, err := f.svc.MarkWorkCompleted(context.Background(), operatorActor(), hold.HoldID); err != nil {
		t.Fatalf("mark work completed: %v", err)
	}

	f.proc.TransferErr = errors.New("upstream timeout")
	result, err := f.svc.ReleaseHold(context.Background(), operatorActor(), application.ReleaseInput{
		HoldID: hold.HoldID,
		Method: "manual",
	})
	if err != nil {
		t.Fatalf("release must not fail on transfer error: %v", err)
	}
	if result.Hold.Status != domain.HoldStatusReleased {
		t.Fatalf("hold status = %s, want released", result.Hold.Status)
	}
	if result.Outcome != application.TransferOutcomeFailed {
		t.Fatalf("outcome = %s, want failed", result.Outcome)
	}
	if result.TransferError == "" {
		t.Fatalf("expected transfer error detail")
	}
	if _, err := f.store.Transfers().GetByHoldID(context.Background(), hold.HoldID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("no transfer row should exist, got %v", err)
	}
}

func TestReleaseSkippedForNonPayoutVendor(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.store.PutVendor(domain.Vendor{
		VendorID:       "ven-1",
		DisplayName:    "Bluebell Catering",
		PayoutsEnabled: false,
	})
	payment := f.createPayment(t, 10000)
	f.settle(t, payment, "evt-1")
	hold, _ := f.store.HoldForPayment(payment.PaymentID)
	if _, err := f.svc.MarkWorkCompleted(context.Background(), operatorActor(), hold.HoldID); err != nil {
		t.Fatalf("mark work completed: %v", err)
	}

	result, err := f.svc.ReleaseHold(context.Background(), operatorActor(), application.ReleaseInput{
		HoldID: hold.HoldID,
		Method: "manual",
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if result.Outcome != application.TransferOutcomeSkipped {
		t.Fatalf("outcome = %s, want skipped", result.Outcome)
	}
	if result.Hold.Status != domain.HoldStatusReleased {
		t.Fatalf("hold status = %s, want released", result.Hold.Status)
	}
}

func TestConcurrentReleaseSingleWinner(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payment := f.createPayment(t, 10000)
	f.settle(t, payment, "evt-1")
	hold, _ := f.store.HoldForPayment(payment.PaymentID)
	if _, err := f.svc.MarkWorkCompleted(context.Background(), operatorActor(), hold.HoldID); err != nil {
		t.Fatalf("mark work completed: %v", err)
	}

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.ReleaseHold(context.Background(), operatorActor(), application.ReleaseInput{
				HoldID: hold.HoldID,
				Method: "manual",
			})
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, domain.ErrAlreadyReleased) {
			t.Fatalf("unexpected release error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
	if len(f.proc.Transfers) != 1 {
		t.Fatalf("processor transfers = %d, want 1", len(f.proc.Transfers))
	}
}

func TestRefundPartialThenFull(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payment := f.createPayment(t, 10000)
	f.settle(t, payment, "evt-1")

	object := fmt.Sprintf(`{"id":"ch_1","payment_intent":%q,"amount":10000,"amount_refunded":3000}`, payment.ProcessorRef)
	if err := f.deliverWebhook(t, "evt-r1", "charge.refunded", object); err != nil {
		t.Fatalf("partial refund webhook: %v", err)
	}
	current, _ := f.svc.GetPaymentStatus(context.Background(), payment.PaymentID)
	if current.Status != domain.PaymentStatusPartiallyRefunded || current.RefundedAmount != 3000 {
		t.Fatalf("after partial: status %s, refunded %d", current.Status, current.RefundedAmount)
	}

	object = fmt.Sprintf(`{"id":"ch_1","payment_intent":%q,"amount":10000,"amount_refunded":10000}`, payment.ProcessorRef)
	if err := f.deliverWebhook(t, "evt-r2", "charge.refunded", object); err != nil {
		t.Fatalf("full refund webhook: %v", err)
	}
	current, _ = f.svc.GetPaymentStatus(context.Background(), payment.PaymentID)
	if current.Status != domain.PaymentStatusRefunded || current.RefundedAmount != 10000 {
		t.Fatalf("after full: status %s, refunded %d", current.Status, current.RefundedAmount)
	}
}

func TestRefundOutOfOrderNeverShrinks(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payment := f.createPayment(t, 10000)
	f.settle(t, payment, "evt-1")

	object := fmt.Sprintf(`{"id":"ch_1","payment_intent":%q,"amount":10000,"amount_refunded":6000}`, payment.ProcessorRef)
	if err := f.deliverWebhook(t, "evt-r1", "charge.refunded", object); err != nil {
		t.Fatalf("refund webhook: %v", err)
	}
	// An older delivery with a smaller cumulative total arrives late.
	object = fmt.Sprintf(`{"id":"ch_1","payment_intent":%q,"amount":10000,"amount_refunded":2000}`, payment.ProcessorRef)
	if err := f.deliverWebhook(t, "evt-r2", "charge.refunded", object); err != nil {
		t.Fatalf("stale refund webhook: %v", err)
	}
	current, _ := f.svc.GetPaymentStatus(context.Background(), payment.PaymentID)
	if current.RefundedAmount != 6000 {
		t.Fatalf("refunded amount = %d, want 6000 preserved", current.RefundedAmount)
	}
}

func TestRefundUnknownPaymentDropped(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	object := `{"id":"ch_x","payment_intent":"pi_unknown","amount":5000,"amount_refunded":5000}`
	if err := f.deliverWebhook(t, "evt-rx", "charge.refunded", object); err != nil {
		t.Fatalf("unknown refund must be swallowed: %v", err)
	}
}

func TestCreateIntentValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.CreateIntent(context.Background(), payerActor(), application.CreateIntentInput{
		InvoiceID: "inv-1",
		InquiryID: "inq-1",
		Amount:    60000,
	})
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for amount above remaining, got %v", err)
	}

	f.store.PutInvoice(domain.Invoice{
		InvoiceID:   "inv-closed",
		InquiryID:   "inq-2",
		VendorID:    "ven-1",
		TotalAmount: 10000,
		PaidAmount:  10000,
		Currency:    "USD",
		Status:      domain.InvoiceStatusPaid,
	})
	_, err = f.svc.CreateIntent(context.Background(), payerActor(), application.CreateIntentInput{
		InvoiceID: "inv-closed",
		InquiryID: "inq-2",
		Amount:    1000,
	})
	if !errors.Is(err, domain.ErrInvoiceClosed) {
		t.Fatalf("expected ErrInvoiceClosed, got %v", err)
	}

	_, err = f.svc.CreateIntent(context.Background(), application.Actor{}, application.CreateIntentInput{
		InvoiceID: "inv-1",
		InquiryID: "inq-1",
		Amount:    1000,
	})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for anonymous caller, got %v", err)
	}
}

func TestCreateIntentIdempotencyReplay(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	actor := payerActor()
	actor.IdempotencyKey = "intent:inv-1:attempt-1"
	input := application.CreateIntentInput{
		InvoiceID: "inv-1",
		InquiryID: "inq-1",
		Amount:    10000,
	}
	first, err := f.svc.CreateIntent(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("first intent: %v", err)
	}
	second, err := f.svc.CreateIntent(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("replayed intent: %v", err)
	}
	if first.PaymentID != second.PaymentID {
		t.Fatalf("replay created a new payment: %s vs %s", first.PaymentID, second.PaymentID)
	}

	// Same key with a different body is a conflict, not a replay.
	input.Amount = 20000
	_, err = f.svc.CreateIntent(context.Background(), actor, input)
	if !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
}

func TestCreateIntentWithoutKeyCreatesFreshAttempts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	first := f.createPayment(t, 10000)
	second := f.createPayment(t, 10000)
	if first.PaymentID == second.PaymentID {
		t.Fatalf("retries without a key must create distinct payments")
	}
	if first.ProcessorRef == second.ProcessorRef {
		t.Fatalf("distinct attempts must carry distinct processor refs")
	}
}

// flakyLedger fails a fixed number of settlement writes before delegating.
type flakyLedger struct {
	ports.LedgerRepository
	failures int
}

func (l *flakyLedger) CreateSettlement(ctx context.Context, hold domain.EscrowHold, platformFee, vendorDue domain.RevenueEntry) error {
	if l.failures > 0 {
		l.failures--
		return errors.New("write timeout")
	}
	return l.LedgerRepository.CreateSettlement(ctx, hold, platformFee, vendorDue)
}

func TestRedeliveryRecoversFailedSettlementWrite(t *testing.T) {
	t.Parallel()

	flaky := &flakyLedger{failures: 1}
	f := newFixtureWrapped(t, func(inner ports.LedgerRepository) ports.LedgerRepository {
		flaky.LedgerRepository = inner
		return flaky
	})
	payment := f.createPayment(t, 10000)

	object := fmt.Sprintf(`{"id":%q,"amount":%d,"currency":"usd"}`, payment.ProcessorRef, payment.Amount)
	if err := f.deliverWebhook(t, "evt-1", "payment.succeeded", object); err == nil {
		t.Fatalf("expected first delivery to surface the settlement write failure")
	}

	// The status transition committed but the ledger write did not.
	stranded, err := f.svc.GetPaymentStatus(context.Background(), payment.PaymentID)
	if err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if stranded.Status != domain.PaymentStatusSucceeded {
		t.Fatalf("status = %s, want succeeded", stranded.Status)
	}
	if _, ok := f.store.HoldForPayment(payment.PaymentID); ok {
		t.Fatalf("failed settlement write must not leave a hold")
	}

	// Redelivery finds the succeeded payment without a hold and re-runs the
	// settlement write.
	f.settle(t, payment, "evt-2")

	hold, ok := f.store.HoldForPayment(payment.PaymentID)
	if !ok {
		t.Fatalf("expected redelivery to recover the settlement")
	}
	if hold.Amount != 9000 {
		t.Fatalf("hold amount = %d, want 9000", hold.Amount)
	}
	if entries := f.store.EntriesForPayment(payment.PaymentID); len(entries) != 2 {
		t.Fatalf("revenue entries = %d, want 2", len(entries))
	}
	invoice, err := f.store.Invoices().GetByID(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("load invoice: %v", err)
	}
	if invoice.PaidAmount != 10000 {
		t.Fatalf("invoice paid amount = %d, want 10000", invoice.PaidAmount)
	}
	var settled int
	for _, rec := range f.store.OutboxRecords() {
		if rec.EventType == domain.EventPaymentSettled {
			settled++
		}
	}
	if settled != 1 {
		t.Fatalf("payment.settled outbox events = %d, want 1", settled)
	}
}

func TestCreateIntentRetryAfterProcessorFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	actor := payerActor()
	actor.IdempotencyKey = "intent:inv-1:flaky"
	input := application.CreateIntentInput{
		InvoiceID: "inv-1",
		InquiryID: "inq-1",
		Amount:    10000,
	}

	f.proc.IntentErr = errors.New("gateway timeout")
	_, err := f.svc.CreateIntent(context.Background(), actor, input)
	if !errors.Is(err, domain.ErrProcessorUnavailable) {
		t.Fatalf("expected ErrProcessorUnavailable, got %v", err)
	}

	// The reservation from the failed attempt must not block an identical
	// retry.
	f.proc.IntentErr = nil
	first, err := f.svc.CreateIntent(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("retry after processor failure: %v", err)
	}
	second, err := f.svc.CreateIntent(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("replay after retry: %v", err)
	}
	if first.PaymentID != second.PaymentID {
		t.Fatalf("replay created a new payment: %s vs %s", first.PaymentID, second.PaymentID)
	}
}

func TestPendingStatusReconcilesAgainstProcessor(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payment := f.createPayment(t, 10000)
	if payment.Status != domain.PaymentStatusPending {
		t.Fatalf("status = %s, want pending before reconciliation", payment.Status)
	}

	// The processor moved the intent before its webhook arrived.
	f.proc.SetIntentStatus(payment.ProcessorRef, "succeeded")
	current, err := f.svc.GetPaymentStatus(context.Background(), payment.PaymentID)
	if err != nil {
		t.Fatalf("status read: %v", err)
	}
	if current.Status != domain.PaymentStatusSucceeded {
		t.Fatalf("status = %s, want succeeded after reconciliation", current.Status)
	}
	if _, ok := f.store.HoldForPayment(payment.PaymentID); !ok {
		t.Fatalf("reconciliation must settle through the same path as webhooks")
	}
}

func TestSettlementEmitsOutboxEvent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payment := f.createPayment(t, 10000)
	f.settle(t, payment, "evt-1")

	var settled int
	for _, rec := range f.store.OutboxRecords() {
		if rec.EventType == domain.EventPaymentSettled {
			settled++
		}
	}
	if settled != 1 {
		t.Fatalf("payment.settled outbox events = %d, want 1", settled)
	}
}
