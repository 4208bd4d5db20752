package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/EcommerceGo/storefront/pkg/validator"
)

func TestAddress_Compose(t *testing.T) {
	a := Address{
		Street:       "Rua X",
		Number:       "10",
		Complement:   "",
		Neighborhood: "Centro",
		City:         "Springfield",
		State:        "SP",
	}
	assert.Equal(t, "Rua X, 10 - , Centro, Springfield - SP", a.Compose())

	a.Complement = "Apto 3"
	assert.Equal(t, "Rua X, 10 - Apto 3, Centro, Springfield - SP", a.Compose())
}

func TestAddress_Validate(t *testing.T) {
	complete := Address{Street: "Rua X", Number: "10", Neighborhood: "Centro", City: "Springfield", State: "SP"}
	assert.NoError(t, complete.Validate())

	missing := complete
	missing.Number = ""
	missing.City = ""
	err := missing.Validate()

	var valErr *validator.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields(), "number")
	assert.Contains(t, valErr.Fields(), "city")
	assert.NotContains(t, valErr.Fields(), "complement")
}

func TestAddressForm_Apply(t *testing.T) {
	form := AddressForm{Address: Address{Number: "10", Complement: "fundos"}}
	form.Apply("01001000", ResolvedAddress{Street: "Praça da Sé", Neighborhood: "Sé", City: "São Paulo", State: "SP"})

	assert.True(t, form.Resolved)
	assert.Equal(t, "01001000", form.PostalCode)
	assert.Equal(t, "Praça da Sé", form.Address.Street)
	assert.Equal(t, "10", form.Address.Number)
	assert.Equal(t, "fundos", form.Address.Complement)
}

func TestIsPostalCode(t *testing.T) {
	valid := []string{"01001000", "99999999"}
	invalid := []string{"", "0100100", "010010000", "01001-00", "0100100a", "０1001000"}

	for _, s := range valid {
		assert.True(t, IsPostalCode(s), s)
	}
	for _, s := range invalid {
		assert.False(t, IsPostalCode(s), s)
	}
}

func TestCleanPostalCode(t *testing.T) {
	assert.Equal(t, "01001000", CleanPostalCode("01001-000"))
	assert.Equal(t, "abc", CleanPostalCode(" abc "))
}

func TestCleanPostalCode_ThenIsPostalCode(t *testing.T) {
	tests := map[string]bool{
		"01001-000":  true,
		"01.001-000": true,
		" 01001000 ": true,
		"0100-100":   false,
		"01001-0000": false,
		"01001-00a":  false,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsPostalCode(CleanPostalCode(in)), in)
	}
	assert.False(t, IsPostalCode(CleanPostalCode("０1001-000")))
}

func TestClampQuantity(t *testing.T) {
	tests := map[int]int{-3: 1, 0: 1, 1: 1, 2: 2, 40: 40}
	for in, want := range tests {
		assert.Equal(t, want, ClampQuantity(in), "input %d", in)
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.00", FormatCents(0))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "12.34", FormatCents(1234))
	assert.Equal(t, "1000.00", FormatCents(100000))
	assert.Equal(t, "-3.50", FormatCents(-350))
}

func TestParseOrderStatus(t *testing.T) {
	assert.Equal(t, OrderStatusOpen, ParseOrderStatus(""))
	assert.Equal(t, OrderStatusOpen, ParseOrderStatus("OPEN"))
	assert.Equal(t, OrderStatusFinalized, ParseOrderStatus("Finalized"))
	assert.Equal(t, OrderStatusPaid, ParseOrderStatus("PAID"))
	assert.Equal(t, OrderStatus("shipped"), ParseOrderStatus(" Shipped "))

	assert.Equal(t, StateOrderOpen, OrderStatusOpen.State())
	assert.Equal(t, StateFinalized, OrderStatusFinalized.State())
	assert.Equal(t, StatePaid, OrderStatusPaid.State())
	assert.Equal(t, StateOrderOpen, OrderStatus("shipped").State())
}

func TestOrder_Totals(t *testing.T) {
	o := &Order{Items: []LineItem{
		{ID: "1", Quantity: 2, UnitPrice: 1050, Total: 2100},
		{ID: "2", Quantity: 1, UnitPrice: 999, Total: 999},
	}}
	assert.Equal(t, int64(3099), o.ItemsTotal())
	assert.Equal(t, int64(3099), o.DisplayTotal())

	o.Total = 3000
	assert.Equal(t, int64(3000), o.DisplayTotal())
	assert.Equal(t, int64(2100), o.Items[0].ComputedTotal())
	assert.Equal(t, 1, o.IndexOf("2"))
	assert.Equal(t, -1, o.IndexOf("9"))
}

func TestOrder_CloneIsIndependent(t *testing.T) {
	o := &Order{ID: "42", Items: []LineItem{{ID: "1", Quantity: 1}}}
	cp := o.Clone()
	cp.Items[0].Quantity = 5
	cp.Items = append(cp.Items, LineItem{ID: "2"})

	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.Len(t, o.Items, 1)
	assert.Nil(t, (*Order)(nil).Clone())
}

func TestSessionView(t *testing.T) {
	assert.False(t, SessionView{}.HasIdentity())
	assert.False(t, SessionView{CustomerID: "7"}.HasIdentity())
	assert.True(t, SessionView{CustomerID: "7", Token: "t"}.HasIdentity())
	assert.True(t, SessionView{OrderID: "42"}.HasOrder())
}

func TestSessionError_MatchesSentinelByKind(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("add to cart: %w", NewError(KindItemAttachFailed, "AddItem", cause))

	assert.ErrorIs(t, err, ErrItemAttachFailed)
	assert.NotErrorIs(t, err, ErrItemRemoveFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindItemAttachFailed, KindOf(err))
	assert.Equal(t, "AddItem: ItemAttachFailed: connection reset", errors.Unwrap(err).Error())
}

func TestNoticeFor(t *testing.T) {
	n := NoticeFor(NewError(KindAuthenticationRequired, "AddItem", nil))
	assert.Equal(t, NoticeError, n.Level)
	assert.Equal(t, RouteLogin, n.Route)
	assert.Contains(t, n.Message, "logged in")

	n = NoticeFor(NewError(KindFinalizeFailed, "FinalizeOrder", errors.New("timeout")))
	assert.Equal(t, RouteNone, n.Route)
	assert.Equal(t, "Could not finalize your order.", n.Message)

	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "no_order", StateNoOrder.String())
	assert.Equal(t, "order_open", StateOrderOpen.String())
	assert.Equal(t, "finalized", StateFinalized.String())
	assert.Equal(t, "paid", StatePaid.String())
	assert.Equal(t, "OrderNotFound", KindOrderNotFound.String())
}
