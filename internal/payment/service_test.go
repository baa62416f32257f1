package payment_test

import (
	"context"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/betselot/gojo-bookings/internal"
	bookingmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/booking"
	paymentmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/payment"
	"github.com/betselot/gojo-bookings/internal/core/events"
	"github.com/betselot/gojo-bookings/internal/gateway"
	paymentPkg "github.com/betselot/gojo-bookings/internal/payment"
)

// Mock gateway client for testing
type mockGateway struct {
	initiateResp  *gateway.InitiateResponse
	initiateErr   error
	initiateCalls int
	verifyResult  *gateway.VerifyResult
	verifyErr     error
	verifyCalls   int
}

func (m *mockGateway) Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.InitiateResponse, error) {
	m.initiateCalls++
	if m.initiateErr != nil {
		return nil, m.initiateErr
	}
	return m.initiateResp, nil
}

func (m *mockGateway) Verify(ctx context.Context, reference string) (*gateway.VerifyResult, error) {
	m.verifyCalls++
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	return m.verifyResult, nil
}

var _ = Describe("PaymentService", func() {
	var (
		service  *paymentPkg.Service
		mockRepo *mockPaymentRepository
		mockGw   *mockGateway
		testLog  *slog.Logger
		booking  *bookingmodel.Booking
	)

	BeforeEach(func() {
		testLog = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		mockRepo = newMockPaymentRepository()
		mockGw = &mockGateway{
			initiateResp: &gateway.InitiateResponse{CheckoutURL: "https://checkout.chapa.co/pay/abc"},
		}

		eventBus := events.NewEventBus(testLog)
		engine := paymentPkg.NewEngine(mockRepo, eventBus, testLog)

		chapaCfg := apperrors.ChapaConfig{
			BaseURL:     "https://api.chapa.co/v1/",
			SecretKey:   "CHASECK_TEST-secret",
			CallbackURL: "https://example.com/api/v1/payments/webhook",
		}
		service = paymentPkg.NewService(mockRepo, engine, mockGw, chapaCfg, testLog)

		booking = &bookingmodel.Booking{
			ID:         42,
			ListingID:  1,
			GuestName:  "Abebe",
			GuestEmail: "abebe@example.com",
			TotalPrice: 500000,
			Currency:   "ETB",
		}
	})

	Describe("InitiateForBooking", func() {
		It("creates a pending payment and returns the checkout URL", func() {
			resp, err := service.InitiateForBooking(context.Background(), booking, paymentPkg.InitiatePaymentRequest{})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Reference).NotTo(BeEmpty())
			Expect(resp.Status).To(Equal(paymentmodel.StatusPending))
			Expect(resp.CheckoutURL).To(Equal("https://checkout.chapa.co/pay/abc"))

			stored, err := mockRepo.GetByReference(resp.Reference)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).NotTo(BeNil())
			Expect(stored.Status).To(Equal(paymentmodel.StatusPending))
			Expect(stored.Amount).To(Equal(booking.TotalPrice))
			Expect(mockRepo.checkouts[resp.Reference]).To(Equal("https://checkout.chapa.co/pay/abc"))
		})

		It("rejects a second payment for the same booking", func() {
			_, err := service.InitiateForBooking(context.Background(), booking, paymentPkg.InitiatePaymentRequest{})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.InitiateForBooking(context.Background(), booking, paymentPkg.InitiatePaymentRequest{})
			Expect(err).To(Equal(apperrors.ErrPaymentExists))
			Expect(mockGw.initiateCalls).To(Equal(1))
		})

		It("marks the payment failed when the gateway rejects the checkout", func() {
			mockGw.initiateErr = apperrors.NewExternalError("gateway returned status 400", apperrors.ErrCodeGatewayFailed, nil)

			_, err := service.InitiateForBooking(context.Background(), booking, paymentPkg.InitiatePaymentRequest{})

			Expect(err).To(HaveOccurred())
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeGatewayFailed))

			stored, _ := mockRepo.GetByBookingID(booking.ID)
			Expect(stored).NotTo(BeNil())
			Expect(stored.Status).To(Equal(paymentmodel.StatusFailed))
		})
	})

	Describe("VerifyByReference", func() {
		It("returns not found without calling the gateway for an unknown reference", func() {
			_, err := service.VerifyByReference(context.Background(), "no-such-ref")

			Expect(err).To(Equal(apperrors.ErrPaymentNotFound))
			Expect(mockGw.verifyCalls).To(BeZero())
		})

		It("settles the payment when the gateway reports success", func() {
			mockRepo.seed("ref-v1", 10, paymentmodel.StatusPending)
			mockGw.verifyResult = &gateway.VerifyResult{
				RawStatus:     "success",
				TransactionID: "tx-abc",
				PaymentMethod: "telebirr",
			}

			resp, err := service.VerifyByReference(context.Background(), "ref-v1")

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal(paymentmodel.StatusCompleted))
			Expect(resp.Transitioned).To(BeTrue())
			Expect(resp.GatewayTxID).To(Equal("tx-abc"))
		})

		It("reports a no-op when re-verifying a settled payment", func() {
			mockRepo.seed("ref-v2", 11, paymentmodel.StatusCompleted)
			mockGw.verifyResult = &gateway.VerifyResult{RawStatus: "success", TransactionID: "tx-abc"}

			resp, err := service.VerifyByReference(context.Background(), "ref-v2")

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal(paymentmodel.StatusCompleted))
			Expect(resp.Transitioned).To(BeFalse())
		})

		It("leaves the payment pending when the gateway is unreachable", func() {
			mockRepo.seed("ref-v3", 12, paymentmodel.StatusPending)
			mockGw.verifyErr = apperrors.NewExternalError("payment gateway unreachable", apperrors.ErrCodeGatewayFailed, nil)

			_, err := service.VerifyByReference(context.Background(), "ref-v3")

			Expect(err).To(HaveOccurred())
			stored, _ := mockRepo.GetByReference("ref-v3")
			Expect(stored.Status).To(Equal(paymentmodel.StatusPending))
		})
	})

	Describe("GetByReference", func() {
		It("returns the stored payment without contacting the gateway", func() {
			mockRepo.seed("ref-g1", 13, paymentmodel.StatusCompleted)

			p, err := service.GetByReference("ref-g1")

			Expect(err).NotTo(HaveOccurred())
			Expect(p.Status).To(Equal(paymentmodel.StatusCompleted))
			Expect(mockGw.verifyCalls).To(BeZero())
		})

		It("returns not found for an unknown reference", func() {
			_, err := service.GetByReference("no-such-ref")
			Expect(err).To(Equal(apperrors.ErrPaymentNotFound))
		})
	})
})
