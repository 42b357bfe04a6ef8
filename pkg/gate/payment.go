package gate

import (
	"context"
	"errors"
	"time"

	"github.com/HarshHariyani/HiringBull/pkg/entitlement"
)

// PaymentCheck は認証済みIdentityに有効なエンタイトルメントがあることを確認する。
// ストアは読み取りのみ行い、ストア障害時は拒否する（フェイルクローズ）。
type PaymentCheck struct {
	store entitlement.Store
	now   func() time.Time
}

// NewPaymentCheck はPaymentCheckを生成する。
func NewPaymentCheck(store entitlement.Store) *PaymentCheck {
	return &PaymentCheck{store: store, now: time.Now}
}

// WithClock は現在時刻の取得関数を差し替えたPaymentCheckを返す。
func (c *PaymentCheck) WithClock(now func() time.Time) *PaymentCheck {
	cp := *c
	cp.now = now
	return &cp
}

func (c *PaymentCheck) Name() CheckName { return CheckPayment }

func (c *PaymentCheck) Run(ctx context.Context, st State) (State, *Denial) {
	if st.Identity == nil || st.Identity.UserID == "" {
		return st, deny(KindInternal, CheckPayment, ReasonIdentityRequired, nil)
	}

	ent, err := c.store.Get(ctx, st.Identity.UserID)
	switch {
	case errors.Is(err, entitlement.ErrNotFound):
		return st.withIdentity(inactive(*st.Identity)), deny(KindForbidden, CheckPayment, ReasonSubscriptionRequired, nil)
	case err != nil:
		return st, deny(KindUnavailable, CheckPayment, ReasonEntitlementUnavailable, err)
	}

	if !ent.ActiveAt(c.now()) {
		return st.withIdentity(inactive(*st.Identity)), deny(KindForbidden, CheckPayment, ReasonSubscriptionExpired, nil)
	}

	id := *st.Identity
	id.Status = StatusActive
	id.Entitlement = ent
	return st.withIdentity(id), nil
}

func inactive(id Identity) Identity {
	id.Status = StatusInactive
	return id
}
