package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"pathtech-academy/internal/domain"
	"pathtech-academy/internal/domain/model"
	"pathtech-academy/internal/infra/i18n"
)

// Compile-time check
var _ AccessGateway = (*gatewayUC)(nil)

// AccessView is what a page needs to render the locked or unlocked state of an item.
type AccessView struct {
	Item model.ItemRef
	model.AccessDecision
	IsExpiringSoon bool
	IsExpired      bool
	RemainingLabel string
}

// BulkAccess holds one view per item key. Configured is false when the access
// store is not provisioned, which is distinct from a set of denials.
type BulkAccess struct {
	Configured bool
	Items      map[string]AccessView
}

type AccessGateway interface {
	Check(ctx context.Context, userID string, ref model.ItemRef) AccessView
	BulkCheck(ctx context.Context, userID string, refs []model.ItemRef) (*BulkAccess, error)
}

type gatewayUC struct {
	eval             AccessEvaluator
	tr               *i18n.Translator
	expiringSoonDays int
	concurrency      int
	log              *zerolog.Logger
}

func NewAccessGateway(eval AccessEvaluator, tr *i18n.Translator, expiringSoonDays, concurrency int, logger *zerolog.Logger) *gatewayUC {
	if expiringSoonDays <= 0 {
		expiringSoonDays = 7
	}
	if concurrency <= 0 {
		concurrency = 8
	}
	l := logger.With().Str("component", "access_gateway").Logger()
	return &gatewayUC{
		eval:             eval,
		tr:               tr,
		expiringSoonDays: expiringSoonDays,
		concurrency:      concurrency,
		log:              &l,
	}
}

func (g *gatewayUC) Check(ctx context.Context, userID string, ref model.ItemRef) AccessView {
	return g.view(ref, g.eval.EvaluateRef(ctx, userID, ref))
}

func (g *gatewayUC) BulkCheck(ctx context.Context, userID string, refs []model.ItemRef) (*BulkAccess, error) {
	out := &BulkAccess{Configured: true, Items: make(map[string]AccessView, len(refs))}
	var mu sync.Mutex

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.concurrency)
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if _, dup := seen[ref.Key()]; dup {
			continue
		}
		seen[ref.Key()] = struct{}{}
		ref := ref
		grp.Go(func() error {
			d, err := g.eval.Decide(gctx, userID, ref)
			if errors.Is(err, domain.ErrNotProvisioned) {
				return err
			}
			v := g.view(ref, d)
			mu.Lock()
			out.Items[ref.Key()] = v
			mu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		if errors.Is(err, domain.ErrNotProvisioned) {
			g.log.Warn().Err(err).Msg("access store not provisioned; reporting unconfigured")
			return &BulkAccess{Configured: false, Items: map[string]AccessView{}}, nil
		}
		return nil, err
	}
	return out, nil
}

func (g *gatewayUC) view(ref model.ItemRef, d model.AccessDecision) AccessView {
	v := AccessView{Item: ref, AccessDecision: d}
	days := 0
	if d.DaysRemaining != nil {
		days = *d.DaysRemaining
	}
	v.IsExpired = d.AccessType == model.AccessExpired
	v.IsExpiringSoon = d.CanAccess && days > 0 && days <= g.expiringSoonDays
	v.RemainingLabel = g.label(d, days)
	return v
}

func (g *gatewayUC) label(d model.AccessDecision, days int) string {
	switch d.AccessType {
	case model.AccessFree:
		return g.tr.T("access_free")
	case model.AccessExpired:
		return g.tr.T("access_expired")
	case model.AccessNone:
		return g.tr.T("access_none")
	}
	if days <= 1 {
		return g.tr.T("access_expires_today")
	}
	return g.tr.T("access_days_left", days)
}
