package payment_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/betselot/gojo-bookings/internal"
	paymentmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/payment"
	"github.com/betselot/gojo-bookings/internal/core/events"
	paymentPkg "github.com/betselot/gojo-bookings/internal/payment"
)

func TestPayment(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Payment Suite")
}

// Mock repository for testing. ConditionalTransition holds the same
// compare-and-set contract as the real store: exactly one caller wins a
// pending -> terminal transition.
type mockPaymentRepository struct {
	mu        sync.Mutex
	payments  map[string]*paymentmodel.Payment
	byBooking map[int64]*paymentmodel.Payment
	createErr error
	getErr    error
	casErr    error
	casCalls  int
	nextID    int64
	checkouts map[string]string
	updateErr error
}

func newMockPaymentRepository() *mockPaymentRepository {
	return &mockPaymentRepository{
		payments:  make(map[string]*paymentmodel.Payment),
		byBooking: make(map[int64]*paymentmodel.Payment),
		checkouts: make(map[string]string),
	}
}

func (m *mockPaymentRepository) Create(p *paymentmodel.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.payments[p.BookingReference] = p
	m.byBooking[p.BookingID] = p
	return nil
}

func (m *mockPaymentRepository) GetByReference(reference string) (*paymentmodel.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.payments[reference]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (m *mockPaymentRepository) GetByBookingID(bookingID int64) (*paymentmodel.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byBooking[bookingID]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (m *mockPaymentRepository) ConditionalTransition(reference string, expected, next paymentmodel.Status, fields paymentPkg.TransitionFields) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.casCalls++
	if m.casErr != nil {
		return false, m.casErr
	}
	p, ok := m.payments[reference]
	if !ok || p.Status != expected {
		return false, nil
	}
	p.Status = next
	p.UpdatedAt = time.Now()
	if next.IsTerminal() {
		now := time.Now()
		p.SettledAt = &now
	}
	if fields.GatewayTxID != nil {
		p.GatewayTxID = fields.GatewayTxID
	}
	if fields.PaymentMethod != nil {
		p.PaymentMethod = fields.PaymentMethod
	}
	return true, nil
}

func (m *mockPaymentRepository) UpdateCheckoutURL(reference, checkoutURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.checkouts[reference] = checkoutURL
	if p, ok := m.payments[reference]; ok {
		url := checkoutURL
		p.CheckoutURL = &url
	}
	return nil
}

func (m *mockPaymentRepository) seed(reference string, bookingID int64, status paymentmodel.Status) *paymentmodel.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p := &paymentmodel.Payment{
		ID:               m.nextID,
		BookingID:        bookingID,
		BookingReference: reference,
		Amount:           250000,
		Currency:         "ETB",
		Status:           status,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	m.payments[reference] = p
	m.byBooking[bookingID] = p
	return p
}

var _ = Describe("Engine", func() {
	var (
		engine    *paymentPkg.Engine
		mockRepo  *mockPaymentRepository
		eventBus  *events.EventBus
		testLog   *slog.Logger
		completed chan events.Event
		failed    chan events.Event
	)

	BeforeEach(func() {
		testLog = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		mockRepo = newMockPaymentRepository()
		eventBus = events.NewEventBus(testLog)

		// capture the channels by value so async deliveries from a previous
		// spec's bus cannot land on the current spec's channels
		completed = make(chan events.Event, 10)
		failed = make(chan events.Event, 10)
		completedSink := completed
		failedSink := failed
		eventBus.Subscribe(events.EventTypePaymentCompleted, func(ctx context.Context, event events.Event) error {
			completedSink <- event
			return nil
		})
		eventBus.Subscribe(events.EventTypePaymentFailed, func(ctx context.Context, event events.Event) error {
			failedSink <- event
			return nil
		})

		engine = paymentPkg.NewEngine(mockRepo, eventBus, testLog)
	})

	Describe("Apply", func() {
		It("rejects claims without a reference", func() {
			_, err := engine.Apply(context.Background(), paymentPkg.Claim{
				RawStatus: "success",
				Source:    paymentPkg.SourceWebhook,
			})

			Expect(err).To(HaveOccurred())
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeMissingReference))
		})

		It("returns not found for an unknown reference", func() {
			_, err := engine.Apply(context.Background(), paymentPkg.Claim{
				Reference: "no-such-ref",
				RawStatus: "success",
				Source:    paymentPkg.SourceWebhook,
			})

			Expect(err).To(Equal(apperrors.ErrPaymentNotFound))
		})

		It("settles a pending payment on a success claim and records gateway fields", func() {
			mockRepo.seed("ref-1", 1, paymentmodel.StatusPending)

			outcome, err := engine.Apply(context.Background(), paymentPkg.Claim{
				Reference:     "ref-1",
				RawStatus:     "success",
				GatewayTxID:   "tx-abc",
				PaymentMethod: "telebirr",
				Source:        paymentPkg.SourceWebhook,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Transitioned).To(BeTrue())
			Expect(outcome.Status).To(Equal(paymentmodel.StatusCompleted))
			Expect(outcome.Payment.GatewayTxID).NotTo(BeNil())
			Expect(*outcome.Payment.GatewayTxID).To(Equal("tx-abc"))
			Expect(*outcome.Payment.PaymentMethod).To(Equal("telebirr"))
			Expect(outcome.Payment.SettledAt).NotTo(BeNil())
		})

		It("publishes a completed event exactly once for the winning claim", func() {
			mockRepo.seed("ref-2", 2, paymentmodel.StatusPending)

			claim := paymentPkg.Claim{
				Reference: "ref-2",
				RawStatus: "success",
				Source:    paymentPkg.SourceWebhook,
			}

			_, err := engine.Apply(context.Background(), claim)
			Expect(err).NotTo(HaveOccurred())

			// duplicate delivery of the same claim
			_, err = engine.Apply(context.Background(), claim)
			Expect(err).NotTo(HaveOccurred())

			Eventually(completed).Should(Receive())
			Consistently(completed, 100*time.Millisecond).ShouldNot(Receive())
		})

		It("publishes a failed event for a failure transition", func() {
			mockRepo.seed("ref-3", 3, paymentmodel.StatusPending)

			outcome, err := engine.Apply(context.Background(), paymentPkg.Claim{
				Reference: "ref-3",
				RawStatus: "failed",
				Source:    paymentPkg.SourcePoll,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Transitioned).To(BeTrue())
			Expect(outcome.Status).To(Equal(paymentmodel.StatusFailed))
			Eventually(failed).Should(Receive())
		})

		It("does not notify on a cancelled transition", func() {
			mockRepo.seed("ref-4", 4, paymentmodel.StatusPending)

			outcome, err := engine.Apply(context.Background(), paymentPkg.Claim{
				Reference: "ref-4",
				RawStatus: "cancelled",
				Source:    paymentPkg.SourceWebhook,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Transitioned).To(BeTrue())
			Expect(outcome.Status).To(Equal(paymentmodel.StatusCancelled))
			Consistently(completed, 100*time.Millisecond).ShouldNot(Receive())
			Consistently(failed, 100*time.Millisecond).ShouldNot(Receive())
		})

		It("leaves a pending payment untouched on a pending claim", func() {
			mockRepo.seed("ref-5", 5, paymentmodel.StatusPending)

			outcome, err := engine.Apply(context.Background(), paymentPkg.Claim{
				Reference: "ref-5",
				RawStatus: "pending",
				Source:    paymentPkg.SourcePoll,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Transitioned).To(BeFalse())
			Expect(outcome.Status).To(Equal(paymentmodel.StatusPending))
			Expect(mockRepo.casCalls).To(BeZero())
		})

		It("discards a conflicting claim after settlement", func() {
			mockRepo.seed("ref-6", 6, paymentmodel.StatusPending)

			_, err := engine.Apply(context.Background(), paymentPkg.Claim{
				Reference:   "ref-6",
				RawStatus:   "success",
				GatewayTxID: "tx-abc",
				Source:      paymentPkg.SourceWebhook,
			})
			Expect(err).NotTo(HaveOccurred())

			outcome, err := engine.Apply(context.Background(), paymentPkg.Claim{
				Reference:   "ref-6",
				RawStatus:   "failed",
				GatewayTxID: "tx-xyz",
				Source:      paymentPkg.SourcePoll,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Transitioned).To(BeFalse())
			Expect(outcome.Status).To(Equal(paymentmodel.StatusCompleted))
			Expect(*outcome.Payment.GatewayTxID).To(Equal("tx-abc"))
		})

		It("treats unrecognized gateway vocabulary as not yet final", func() {
			mockRepo.seed("ref-7", 7, paymentmodel.StatusPending)

			outcome, err := engine.Apply(context.Background(), paymentPkg.Claim{
				Reference: "ref-7",
				RawStatus: "authorized_hold",
				Source:    paymentPkg.SourceWebhook,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Transitioned).To(BeFalse())
			Expect(outcome.Status).To(Equal(paymentmodel.StatusPending))
		})

		It("settles exactly once when both channels race", func() {
			mockRepo.seed("ref-8", 8, paymentmodel.StatusPending)

			var wg sync.WaitGroup
			outcomes := make([]*paymentPkg.Outcome, 2)
			claims := []paymentPkg.Claim{
				{Reference: "ref-8", RawStatus: "success", Source: paymentPkg.SourceWebhook},
				{Reference: "ref-8", RawStatus: "success", Source: paymentPkg.SourcePoll},
			}

			for i := range claims {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					defer GinkgoRecover()
					outcome, err := engine.Apply(context.Background(), claims[i])
					Expect(err).NotTo(HaveOccurred())
					outcomes[i] = outcome
				}(i)
			}
			wg.Wait()

			winners := 0
			for _, o := range outcomes {
				Expect(o.Status).To(Equal(paymentmodel.StatusCompleted))
				if o.Transitioned {
					winners++
				}
			}
			Expect(winners).To(Equal(1))

			Eventually(completed).Should(Receive())
			Consistently(completed, 100*time.Millisecond).ShouldNot(Receive())
		})

		It("surfaces store failures as transient errors", func() {
			mockRepo.seed("ref-9", 9, paymentmodel.StatusPending)
			mockRepo.casErr = errors.New("connection reset")

			_, err := engine.Apply(context.Background(), paymentPkg.Claim{
				Reference: "ref-9",
				RawStatus: "success",
				Source:    paymentPkg.SourceWebhook,
			})

			Expect(err).To(HaveOccurred())
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeStoreUnavailable))
		})
	})
})

var _ = Describe("NormalizeGatewayStatus", func() {
	It("maps the known gateway vocabulary", func() {
		Expect(paymentPkg.NormalizeGatewayStatus("success")).To(Equal(paymentmodel.StatusCompleted))
		Expect(paymentPkg.NormalizeGatewayStatus("failed")).To(Equal(paymentmodel.StatusFailed))
		Expect(paymentPkg.NormalizeGatewayStatus("cancelled")).To(Equal(paymentmodel.StatusCancelled))
		Expect(paymentPkg.NormalizeGatewayStatus("pending")).To(Equal(paymentmodel.StatusPending))
	})

	It("is case and whitespace insensitive", func() {
		Expect(paymentPkg.NormalizeGatewayStatus(" SUCCESS ")).To(Equal(paymentmodel.StatusCompleted))
		Expect(paymentPkg.NormalizeGatewayStatus("Failed")).To(Equal(paymentmodel.StatusFailed))
	})

	It("maps anything unrecognized to pending", func() {
		Expect(paymentPkg.NormalizeGatewayStatus("")).To(Equal(paymentmodel.StatusPending))
		Expect(paymentPkg.NormalizeGatewayStatus("refunded")).To(Equal(paymentmodel.StatusPending))
		Expect(paymentPkg.NormalizeGatewayStatus("chargeback")).To(Equal(paymentmodel.StatusPending))
	})
})
