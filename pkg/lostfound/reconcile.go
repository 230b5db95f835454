package lostfound

import (
	"context"
	"log/slog"
	"sort"
)

func (s *service) ReconcileAssets(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error) {
	grace := opts.GracePeriod
	if grace <= 0 {
		grace = DefaultReconcileGracePeriod
	}

	// Decide deletions against the store of record, not a cached listing.
	repository := s.repository
	if cached, ok := repository.(CachingRepository); ok {
		repository = cached.Uncached()
	}

	items, err := repository.ListAll(ctx)
	if err != nil {
		return nil, &ItemError{Op: "reconcile", Err: err}
	}
	assets, err := s.assets.List(ctx)
	if err != nil {
		return nil, &AssetError{Op: "reconcile", Err: err}
	}

	report := &ReconcileReport{
		ItemsChecked:  len(items),
		AssetsChecked: len(assets),
		Orphaned:      []string{},
		Removed:       []string{},
		Dangling:      []DanglingReference{},
	}

	referenced := make(map[string]bool, len(items))
	for _, item := range items {
		if item.HasImage() {
			referenced[*item.Image] = true
		}
	}

	stored := make(map[string]bool, len(assets))
	cutoff := s.now().Add(-grace)
	for _, asset := range assets {
		stored[asset.Name] = true
		if referenced[asset.Name] || asset.ModTime.After(cutoff) {
			continue
		}
		report.Orphaned = append(report.Orphaned, asset.Name)
		if opts.DryRun {
			continue
		}
		if err := s.assets.Delete(ctx, asset.Name); err != nil {
			slog.Warn("Failed to remove orphaned asset", "image", asset.Name, "error", err)
			continue
		}
		report.Removed = append(report.Removed, asset.Name)
	}

	for _, item := range items {
		if item.HasImage() && !stored[*item.Image] {
			report.Dangling = append(report.Dangling, DanglingReference{
				ItemID: item.ID.Hex(),
				Image:  *item.Image,
			})
		}
	}

	sort.Strings(report.Orphaned)
	sort.Strings(report.Removed)

	slog.Info("Asset reconciliation finished",
		"items", report.ItemsChecked,
		"assets", report.AssetsChecked,
		"orphaned", len(report.Orphaned),
		"removed", len(report.Removed),
		"dangling", len(report.Dangling),
		"dry_run", opts.DryRun,
	)
	return report, nil
}
