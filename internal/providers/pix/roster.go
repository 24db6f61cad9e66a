package pix

import (
	"context"

	"github.com/samber/lo"
	"github.com/smallbiznis/revenuepulse/internal/config"
	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.pix",
	fx.Provide(NewTransferSource),
)

// Roster serves the direct-transfer subscriptions from the hot-reloaded
// roster file. Each call sees the roster as of that moment.
type Roster struct {
	holder *config.PixRosterHolder
}

func NewTransferSource(holder *config.PixRosterHolder) domain.TransferSource {
	return &Roster{holder: holder}
}

func (r *Roster) ListTransferSubscriptions(ctx context.Context) ([]domain.TransferSubscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return lo.Map(r.holder.Get(), func(sub config.PixSubscription, _ int) domain.TransferSubscription {
		return domain.TransferSubscription{
			ID:           sub.ID,
			CustomerName: sub.CustomerName,
			PlanType:     sub.PlanType,
			Amount:       sub.Amount,
			StartDate:    sub.StartDate,
			Active:       sub.Active,
		}
	}), nil
}
