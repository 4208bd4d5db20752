package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/repository"
)

var _ repository.SessionStore = (*SessionStore)(nil)

func TestSessionStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()

	require.NoError(t, s.SaveIdentity(ctx, "7", "tok"))
	require.NoError(t, s.SaveOrderID(ctx, "42"))
	view, _ := s.Load(ctx)
	assert.Equal(t, domain.SessionView{CustomerID: "7", Token: "tok", OrderID: "42"}, view)

	require.NoError(t, s.ClearOrderID(ctx))
	view, _ = s.Load(ctx)
	assert.Equal(t, "7", view.CustomerID)
	assert.Empty(t, view.OrderID)

	require.NoError(t, s.Clear(ctx))
	view, _ = s.Load(ctx)
	assert.Equal(t, domain.SessionView{}, view)
}
