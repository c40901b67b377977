package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tixario2/tixario-2/internal/models"
	"github.com/Tixario2/tixario-2/pkg/logger"
)

type fakePayments struct {
	items         []SessionLineItem
	itemsErr      error
	customerEmail string
	emailErr      error
	emailCalls    int
	createdReq    *CheckoutSessionRequest
	createErr     error
}

func (f *fakePayments) CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createdReq = req
	return &CheckoutSession{ID: "cs_new", URL: "https://checkout.example/cs_new"}, nil
}

func (f *fakePayments) ListLineItems(ctx context.Context, sessionID string) ([]SessionLineItem, error) {
	return f.items, f.itemsErr
}

func (f *fakePayments) CustomerEmail(ctx context.Context, customerID string) (string, error) {
	f.emailCalls++
	return f.customerEmail, f.emailErr
}

func (f *fakePayments) VerifyWebhookSignature(payload []byte, header string) error { return nil }

func (f *fakePayments) ParseEvent(payload []byte) (*WebhookEvent, error) { return nil, nil }

type fakeOffers struct {
	offers     map[string]*models.Offer
	decrements map[string]int
	decErr     map[string]error
}

func newFakeOffers(offers ...*models.Offer) *fakeOffers {
	f := &fakeOffers{
		offers:     map[string]*models.Offer{},
		decrements: map[string]int{},
		decErr:     map[string]error{},
	}
	for _, o := range offers {
		f.offers[o.ID] = o
	}
	return f
}

func (f *fakeOffers) GetByID(id string) (*models.Offer, error) {
	offer, ok := f.offers[id]
	if !ok {
		return nil, models.ErrOfferNotFound
	}
	return offer, nil
}

func (f *fakeOffers) DecrementQuantity(id string, qty int) (int, error) {
	if err := f.decErr[id]; err != nil {
		return 0, err
	}
	f.decrements[id] += qty
	offer := f.offers[id]
	remaining := offer.Quantity - f.decrements[id]
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

type fakeOrders struct {
	seen   map[string]*models.Order
	err    error
	writes int
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{seen: map[string]*models.Order{}}
}

func (f *fakeOrders) CreateIfAbsent(order *models.Order) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if _, dup := f.seen[order.SessionID]; dup {
		return false, nil
	}
	f.seen[order.SessionID] = order
	f.writes++
	return true, nil
}

type fakeNewsletter struct {
	emails  []string
	sources []string
	err     error
}

func (f *fakeNewsletter) Subscribe(email, source string) error {
	if f.err != nil {
		return f.err
	}
	f.emails = append(f.emails, email)
	f.sources = append(f.sources, source)
	return nil
}

type fakeEmail struct {
	sent []*models.Order
	err  error
}

func (f *fakeEmail) SendOrderConfirmation(order *models.Order) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, order)
	return nil
}

type fakeInvalidator struct {
	calls []string
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, slug, date string) {
	f.calls = append(f.calls, slug+"/"+date)
}

type fulfillmentFixture struct {
	payments   *fakePayments
	offers     *fakeOffers
	orders     *fakeOrders
	newsletter *fakeNewsletter
	email      *fakeEmail
	snapshots  *fakeInvalidator
	svc        *FulfillmentService
}

func newFulfillmentFixture(payments *fakePayments, offers *fakeOffers) *fulfillmentFixture {
	fx := &fulfillmentFixture{
		payments:   payments,
		offers:     offers,
		orders:     newFakeOrders(),
		newsletter: &fakeNewsletter{},
		email:      &fakeEmail{},
		snapshots:  &fakeInvalidator{},
	}
	fx.svc = NewFulfillmentService(
		fx.payments, fx.offers, fx.orders, fx.newsletter, fx.email, fx.snapshots,
		logger.New("test"),
	)
	return fx
}

func completedEvent() *WebhookEvent {
	return &WebhookEvent{
		ID:   "evt_1",
		Type: "checkout.session.completed",
		Session: &CompletedSession{
			ID:            "cs_test_123",
			AmountTotal:   23000,
			CustomerID:    "cus_9",
			CustomerEmail: "jane@example.com",
			CustomerName:  "Jane Doe",
			Metadata: map[string]string{
				"slug":       "indochine",
				"event_date": "2026-06-27",
				"event_name": "Indochine",
			},
		},
	}
}

func sellableOffer(id, category string, qty int) *models.Offer {
	return &models.Offer{
		ID:        id,
		Slug:      "indochine",
		EventName: "Indochine",
		Category:  category,
		Quantity:  qty,
		Available: true,
		EventDate: "2026-06-27",
	}
}

func TestFulfillmentService_HandleEvent(t *testing.T) {
	payments := &fakePayments{
		items: []SessionLineItem{
			{Description: "Indochine – Carré Or [ID:abc]", Quantity: 2, AmountTotal: 17000, AmountSubtotal: 17000, OfferID: "abc"},
			{Description: "Indochine – Fosse [ID:def]", Quantity: 1, AmountTotal: 6000, AmountSubtotal: 6000, OfferID: "def"},
		},
	}
	offers := newFakeOffers(sellableOffer("abc", "Carré Or", 5), sellableOffer("def", "Fosse", 3))
	fx := newFulfillmentFixture(payments, offers)

	err := fx.svc.HandleEvent(context.Background(), completedEvent())
	require.NoError(t, err)

	// one order, fully described
	require.Equal(t, 1, fx.orders.writes)
	order := fx.orders.seen["cs_test_123"]
	require.NotNil(t, order)
	assert.NotEmpty(t, order.Reference)
	assert.Equal(t, "jane@example.com", order.Email)
	assert.Equal(t, "Jane Doe", order.CustomerName)
	assert.Equal(t, 3, order.TotalQuantity)
	assert.Equal(t, 23000, order.TotalAmount)
	assert.Equal(t, "Indochine", order.EventName)
	assert.Equal(t, "2026-06-27", order.EventDate)
	assert.Equal(t, []string{"abc", "def"}, order.OfferIDs)

	require.Len(t, order.Tickets, 2)
	assert.Equal(t, "Carré Or", order.Tickets[0].Category)
	assert.Equal(t, 85.0, order.Tickets[0].UnitPrice)
	assert.Equal(t, 170.0, order.Tickets[0].LineTotal)

	// stock decremented per line
	assert.Equal(t, 2, offers.decrements["abc"])
	assert.Equal(t, 1, offers.decrements["def"])

	// snapshot dropped once for the shared event date
	assert.Equal(t, []string{"indochine/2026-06-27"}, fx.snapshots.calls)

	assert.Equal(t, []string{"jane@example.com"}, fx.newsletter.emails)
	assert.Equal(t, []string{"checkout"}, fx.newsletter.sources)
	require.Len(t, fx.email.sent, 1)
	assert.Equal(t, order.Reference, fx.email.sent[0].Reference)
}

func TestFulfillmentService_HandleEvent_Idempotent(t *testing.T) {
	payments := &fakePayments{
		items: []SessionLineItem{
			{Description: "Indochine – Carré Or [ID:abc]", Quantity: 2, AmountTotal: 17000, AmountSubtotal: 17000, OfferID: "abc"},
		},
	}
	offers := newFakeOffers(sellableOffer("abc", "Carré Or", 5))
	fx := newFulfillmentFixture(payments, offers)

	require.NoError(t, fx.svc.HandleEvent(context.Background(), completedEvent()))
	require.NoError(t, fx.svc.HandleEvent(context.Background(), completedEvent()))

	assert.Equal(t, 1, fx.orders.writes)
	assert.Equal(t, 2, offers.decrements["abc"], "redelivery must not decrement again")
	assert.Len(t, fx.email.sent, 1)
}

func TestFulfillmentService_HandleEvent_IgnoresOtherTypes(t *testing.T) {
	fx := newFulfillmentFixture(&fakePayments{}, newFakeOffers())

	err := fx.svc.HandleEvent(context.Background(), &WebhookEvent{ID: "evt_2", Type: "payment_intent.created"})
	require.NoError(t, err)

	assert.Zero(t, fx.orders.writes)
}

func TestFulfillmentService_HandleEvent_TokenFallback(t *testing.T) {
	// no structured metadata: the offer id comes from the description token
	payments := &fakePayments{
		items: []SessionLineItem{
			{Description: "Indochine – Carré Or [ID:abc]", Quantity: 2, AmountTotal: 17000, AmountSubtotal: 17000},
		},
	}
	offers := newFakeOffers(sellableOffer("abc", "Carré Or", 5))
	fx := newFulfillmentFixture(payments, offers)

	require.NoError(t, fx.svc.HandleEvent(context.Background(), completedEvent()))

	assert.Equal(t, 2, offers.decrements["abc"])
	assert.Equal(t, []string{"abc"}, fx.orders.seen["cs_test_123"].OfferIDs)
}

func TestFulfillmentService_HandleEvent_ResolvesEmailFromCustomer(t *testing.T) {
	payments := &fakePayments{
		items: []SessionLineItem{
			{Description: "Indochine – Fosse [ID:def]", Quantity: 1, AmountTotal: 6000, AmountSubtotal: 6000, OfferID: "def"},
		},
		customerEmail: "resolved@example.com",
	}
	offers := newFakeOffers(sellableOffer("def", "Fosse", 3))
	fx := newFulfillmentFixture(payments, offers)

	event := completedEvent()
	event.Session.CustomerEmail = ""

	require.NoError(t, fx.svc.HandleEvent(context.Background(), event))

	assert.Equal(t, 1, payments.emailCalls)
	assert.Equal(t, "resolved@example.com", fx.orders.seen["cs_test_123"].Email)
}

func TestFulfillmentService_HandleEvent_EmailLookupFailureStillFulfills(t *testing.T) {
	payments := &fakePayments{
		items: []SessionLineItem{
			{Description: "Indochine – Fosse [ID:def]", Quantity: 1, AmountTotal: 6000, AmountSubtotal: 6000, OfferID: "def"},
		},
		emailErr: errors.New("customer gone"),
	}
	offers := newFakeOffers(sellableOffer("def", "Fosse", 3))
	fx := newFulfillmentFixture(payments, offers)

	event := completedEvent()
	event.Session.CustomerEmail = ""

	require.NoError(t, fx.svc.HandleEvent(context.Background(), event))

	assert.Equal(t, 1, fx.orders.writes)
	assert.Equal(t, 1, offers.decrements["def"])
	assert.Empty(t, fx.email.sent, "no address, no confirmation")
	assert.Empty(t, fx.newsletter.emails)
}

func TestFulfillmentService_HandleEvent_LineItemsError(t *testing.T) {
	payments := &fakePayments{itemsErr: errors.New("stripe down")}
	fx := newFulfillmentFixture(payments, newFakeOffers())

	err := fx.svc.HandleEvent(context.Background(), completedEvent())
	assert.Error(t, err)
	assert.Zero(t, fx.orders.writes)
}

func TestFulfillmentService_HandleEvent_PartialDecrementFailure(t *testing.T) {
	payments := &fakePayments{
		items: []SessionLineItem{
			{Description: "Indochine – Carré Or [ID:abc]", Quantity: 2, AmountTotal: 17000, AmountSubtotal: 17000, OfferID: "abc"},
			{Description: "Indochine – Fosse [ID:def]", Quantity: 1, AmountTotal: 6000, AmountSubtotal: 6000, OfferID: "def"},
		},
	}
	offers := newFakeOffers(sellableOffer("abc", "Carré Or", 5), sellableOffer("def", "Fosse", 3))
	offers.decErr["abc"] = errors.New("deadlock")
	fx := newFulfillmentFixture(payments, offers)

	// the payment settled, so fulfillment completes and the failure is logged
	require.NoError(t, fx.svc.HandleEvent(context.Background(), completedEvent()))

	assert.Zero(t, offers.decrements["abc"])
	assert.Equal(t, 1, offers.decrements["def"])
	assert.Equal(t, 1, fx.orders.writes)
	assert.Len(t, fx.email.sent, 1)
}

func TestFulfillmentService_HandleEvent_BestEffortSideEffects(t *testing.T) {
	payments := &fakePayments{
		items: []SessionLineItem{
			{Description: "Indochine – Fosse [ID:def]", Quantity: 1, AmountTotal: 6000, AmountSubtotal: 6000, OfferID: "def"},
		},
	}
	offers := newFakeOffers(sellableOffer("def", "Fosse", 3))
	fx := newFulfillmentFixture(payments, offers)
	fx.newsletter.err = errors.New("table locked")
	fx.email.err = errors.New("resend 500")

	require.NoError(t, fx.svc.HandleEvent(context.Background(), completedEvent()))

	assert.Equal(t, 1, fx.orders.writes)
	assert.Equal(t, 1, offers.decrements["def"])
}

func TestParseOfferToken(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"Indochine – Carré Or [ID:abc]", "abc"},
		{"Indochine – Carré Or [ID:of-123_x]", "of-123_x"},
		{"Indochine – Carré Or", ""},
		{"[ID:]", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseOfferToken(tt.description), tt.description)
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"Indochine – Carré Or [ID:abc]", "Carré Or"},
		{"Indochine – Fosse", "Fosse"},
		{"Fosse", "Fosse"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCategory(tt.description), tt.description)
	}
}
