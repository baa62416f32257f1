package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/betselot/gojo-bookings/internal"
	paymentmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/payment"
	paymentPkg "github.com/betselot/gojo-bookings/internal/payment"
	"github.com/betselot/gojo-bookings/internal/transport"
)

type mockPaymentService struct {
	verifyResp   *paymentPkg.VerifyPaymentResponse
	verifyErr    error
	getPayment   *paymentmodel.Payment
	getErr       error
	applyOutcome *paymentPkg.Outcome
	applyErr     error
	appliedClaim *paymentPkg.Claim
}

func (m *mockPaymentService) VerifyByReference(ctx context.Context, reference string) (*paymentPkg.VerifyPaymentResponse, error) {
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	return m.verifyResp, nil
}

func (m *mockPaymentService) GetByReference(reference string) (*paymentmodel.Payment, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.getPayment, nil
}

func (m *mockPaymentService) ApplyClaim(ctx context.Context, claim paymentPkg.Claim) (*paymentPkg.Outcome, error) {
	m.appliedClaim = &claim
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	return m.applyOutcome, nil
}

func routerFor(handler *paymentPkg.Handler, webhook *paymentPkg.WebhookHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/payments/webhook", webhook.HandleCallback)
	r.Get("/payments/{reference}", handler.GetPayment)
	r.Post("/payments/{reference}/verify", handler.VerifyPayment)
	return r
}

var _ = Describe("PaymentHandler", func() {
	var (
		handler     *paymentPkg.Handler
		webhook     *paymentPkg.WebhookHandler
		mockService *mockPaymentService
		router      *chi.Mux
	)

	BeforeEach(func() {
		testLog := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		mockService = &mockPaymentService{}
		base := transport.NewBaseHandler(testLog)
		handler = paymentPkg.NewHandler(base, mockService, testLog)
		webhook = paymentPkg.NewWebhookHandler(base, mockService, testLog)
		router = routerFor(handler, webhook)
	})

	Describe("GetPayment", func() {
		It("returns the stored payment view", func() {
			txID := "tx-abc"
			mockService.getPayment = &paymentmodel.Payment{
				ID:               1,
				BookingID:        42,
				BookingReference: "ref-1",
				Amount:           250000,
				Currency:         "ETB",
				Status:           paymentmodel.StatusCompleted,
				GatewayTxID:      &txID,
			}

			req := httptest.NewRequest(http.MethodGet, "/payments/ref-1", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var view paymentPkg.PaymentView
			Expect(json.Unmarshal(rec.Body.Bytes(), &view)).To(Succeed())
			Expect(view.Reference).To(Equal("ref-1"))
			Expect(view.Status).To(Equal(paymentmodel.StatusCompleted))
			Expect(view.GatewayTxID).To(Equal("tx-abc"))
		})

		It("returns 404 for an unknown reference", func() {
			mockService.getErr = apperrors.ErrPaymentNotFound

			req := httptest.NewRequest(http.MethodGet, "/payments/missing", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("VerifyPayment", func() {
		It("returns the reconciled state", func() {
			mockService.verifyResp = &paymentPkg.VerifyPaymentResponse{
				Reference:    "ref-1",
				Status:       paymentmodel.StatusCompleted,
				Transitioned: true,
				GatewayTxID:  "tx-abc",
			}

			req := httptest.NewRequest(http.MethodPost, "/payments/ref-1/verify", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp paymentPkg.VerifyPaymentResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Transitioned).To(BeTrue())
			Expect(resp.Status).To(Equal(paymentmodel.StatusCompleted))
		})

		It("returns 502 when the gateway cannot be reached", func() {
			mockService.verifyErr = apperrors.NewExternalError("payment gateway unreachable", apperrors.ErrCodeGatewayFailed, nil)

			req := httptest.NewRequest(http.MethodPost, "/payments/ref-1/verify", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadGateway))
		})
	})

	Describe("HandleCallback", func() {
		It("acknowledges a processed claim", func() {
			mockService.applyOutcome = &paymentPkg.Outcome{
				Transitioned: true,
				Status:       paymentmodel.StatusCompleted,
			}

			body, _ := json.Marshal(paymentPkg.WebhookRequest{
				TxRef:  "ref-1",
				Status: "success",
				Ref:    "tx-abc",
				Method: "telebirr",
			})
			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(mockService.appliedClaim).NotTo(BeNil())
			Expect(mockService.appliedClaim.Reference).To(Equal("ref-1"))
			Expect(mockService.appliedClaim.Source).To(Equal(paymentPkg.SourceWebhook))
		})

		It("acknowledges redeliveries that change nothing", func() {
			mockService.applyOutcome = &paymentPkg.Outcome{
				Transitioned: false,
				Status:       paymentmodel.StatusCompleted,
			}

			body, _ := json.Marshal(paymentPkg.WebhookRequest{TxRef: "ref-1", Status: "success"})
			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("rejects a callback without tx_ref", func() {
			body, _ := json.Marshal(paymentPkg.WebhookRequest{Status: "success"})
			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader([]byte("{not json")))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for an unknown reference so misrouted callbacks are visible", func() {
			mockService.applyErr = apperrors.ErrPaymentNotFound

			body, _ := json.Marshal(paymentPkg.WebhookRequest{TxRef: "ghost", Status: "success"})
			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 503 when the store is unavailable so the gateway redelivers", func() {
			mockService.applyErr = apperrors.NewTransientStoreError(context.DeadlineExceeded)

			body, _ := json.Marshal(paymentPkg.WebhookRequest{TxRef: "ref-1", Status: "success"})
			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		})
	})
})
