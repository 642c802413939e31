package model

// State identifies the step of the ordering conversation a chat is in.
// The set is closed: every dispatch ends in one of these values.
type State string

const (
	StateStart               State = "START"
	StateMenuRoot            State = "MENU_ROOT"
	StateBrowsing            State = "BROWSING"
	StateProductDetail       State = "PRODUCT_DETAIL"
	StateCart                State = "CART"
	StateAwaitingEmail       State = "AWAITING_EMAIL"
	StateAwaitingLocation    State = "AWAITING_LOCATION"
	StateChoosingFulfillment State = "CHOOSING_FULFILLMENT"
	StateAwaitingPayment     State = "AWAITING_PAYMENT"
)

// AllStates lists every conversation state in dispatch order.
func AllStates() []State {
	return []State{
		StateStart,
		StateMenuRoot,
		StateBrowsing,
		StateProductDetail,
		StateCart,
		StateAwaitingEmail,
		StateAwaitingLocation,
		StateChoosingFulfillment,
		StateAwaitingPayment,
	}
}

func (s State) IsValid() bool {
	switch s {
	case StateStart, StateMenuRoot, StateBrowsing, StateProductDetail,
		StateCart, StateAwaitingEmail, StateAwaitingLocation,
		StateChoosingFulfillment, StateAwaitingPayment:
		return true
	}
	return false
}

// Session is the per-chat conversation record. It is mutated exclusively by
// the dialogue machine after each handled event and persisted as part of the
// store snapshot.
type Session struct {
	State               State                `json:"state"`
	CurrentPage         int                  `json:"current_page"`
	ProductID           string               `json:"product_id,omitempty"`
	Email               string               `json:"email,omitempty"`
	CustomerID          string               `json:"customer_id,omitempty"`
	NearestRestaurant   *RestaurantCandidate `json:"nearest_restaurant,omitempty"`
	DeliveryCoordinates *Point               `json:"delivery_coordinates,omitempty"`
	CartPrice           string               `json:"cart_price,omitempty"`
	PaymentPayload      string               `json:"payment_payload,omitempty"`
}

// ClearOrder drops the order-scoped fields after a completed payment. The
// customer identity survives so repeat orders skip the email step.
func (s *Session) ClearOrder() {
	s.ProductID = ""
	s.NearestRestaurant = nil
	s.DeliveryCoordinates = nil
	s.CartPrice = ""
	s.PaymentPayload = ""
}
